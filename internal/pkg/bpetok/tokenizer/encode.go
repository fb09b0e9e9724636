package tokenizer

import (
	"strings"
)

// Encode converts text into token ids with every registered special token
// recognized as an atomic literal. It never fails: byte-level seeding covers
// any input.
func (t *Tokenizer) Encode(text string) []int {
	return t.EncodeWithSpecial(text, t.specialNames)
}

// EncodeWithSpecial converts text into token ids, recognizing only the
// special tokens named in allowed as atomic literals. Names not registered
// on the tokenizer are ignored; an empty or nil allowed set disables special
// matching entirely and the text is encoded byte-level throughout.
//
// Matching is longest-token-first, so a special token that is a prefix of
// another never matches a truncated substring. Matched occurrences map
// directly to the special id and are never subjected to merge rules.
func (t *Tokenizer) EncodeWithSpecial(text string, allowed []string) []int {
	order := t.allowedMatchOrder(allowed)
	if len(order) == 0 {
		return t.encodeChunk(text)
	}

	ids := make([]int, 0, len(text)/2+1)
	start := 0
	for i := 0; i < len(text); {
		name, ok := matchSpecial(text[i:], order)
		if !ok {
			i++
			continue
		}
		ids = append(ids, t.encodeChunk(text[start:i])...)
		ids = append(ids, t.special[name])
		i += len(name)
		start = i
	}
	return append(ids, t.encodeChunk(text[start:])...)
}

// allowedMatchOrder filters the longest-first match order down to the
// allowed names.
func (t *Tokenizer) allowedMatchOrder(allowed []string) []string {
	if len(allowed) == 0 {
		return nil
	}
	set := make(map[string]bool, len(allowed))
	for _, name := range allowed {
		if _, ok := t.special[name]; ok {
			set[name] = true
		}
	}
	order := make([]string, 0, len(set))
	for _, name := range t.matchOrder {
		if set[name] {
			order = append(order, name)
		}
	}
	return order
}

// matchSpecial reports the first name in order that is a literal prefix of
// rest. Order is longest-first, so overlapping names resolve to the longest
// match.
func matchSpecial(rest string, order []string) (string, bool) {
	for _, name := range order {
		if strings.HasPrefix(rest, name) {
			return name, true
		}
	}
	return "", false
}

// encodeChunk encodes one special-free span of text.
//
// The chunk starts as one id per byte. Then, repeatedly, the sequence is
// scanned left to right for the first adjacent pair present in the merge
// table; that single occurrence is replaced and the scan restarts from the
// front. This earliest-position policy is not the classic ascending-rank BPE
// rule and can segment differently when several merges apply at once; it is
// the defined behavior of this tokenizer and kept so that existing id
// streams stay stable.
func (t *Tokenizer) encodeChunk(chunk string) []int {
	if chunk == "" {
		return nil
	}

	ids := make([]int, len(chunk))
	for i := 0; i < len(chunk); i++ {
		ids[i] = t.byteID(chunk[i])
	}

	for len(ids) > 1 {
		i, merged, ok := t.firstMergeable(ids)
		if !ok {
			break
		}
		ids[i] = merged
		ids = append(ids[:i+1], ids[i+2:]...)
	}
	return ids
}

// firstMergeable returns the earliest index whose adjacent pair has a
// learned merge, along with the merged id.
func (t *Tokenizer) firstMergeable(ids []int) (int, int, bool) {
	for i := 0; i < len(ids)-1; i++ {
		if merged, ok := t.mergeIDs[Pair{ids[i], ids[i+1]}]; ok {
			return i, merged, true
		}
	}
	return 0, 0, false
}
