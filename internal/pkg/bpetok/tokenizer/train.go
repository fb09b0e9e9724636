package tokenizer

import (
	"errors"
)

// ErrEmptyCorpus is returned by Train when no text is supplied.
var ErrEmptyCorpus = errors.New("tokenizer: empty corpus")

// Train learns a BPE vocabulary from texts.
//
// The seed vocabulary (byte entries plus the given special tokens) is grown
// one merge at a time: count every adjacent id pair across the concatenated
// corpus, merge the most frequent pair into a freshly minted id, rewrite the
// working sequence, and repeat until vocabSize is reached or no adjacent
// pair remains. Ties on frequency go to the pair first encountered during
// the counting scan, so training is fully deterministic for a given ordered
// corpus.
//
// Documents are concatenated without separators unless
// WithDocumentBoundaries is set.
func Train(texts []string, vocabSize int, specials []string, opts ...Option) (*Tokenizer, error) {
	var s settings
	for _, o := range opts {
		o(&s)
	}

	if len(texts) == 0 {
		return nil, ErrEmptyCorpus
	}

	t := newTokenizer(specials, s.seedBytes)

	ids := t.corpusIDs(texts, s.docBoundaries)
	if len(ids) == 0 {
		return nil, ErrEmptyCorpus
	}

	target := vocabSize - t.seedSize
	for len(t.vocab) < vocabSize {
		pair, ok := mostFrequentPair(ids)
		if !ok {
			break
		}
		id := t.addMerge(pair)
		ids = replacePair(ids, pair, id)
		if s.progress != nil {
			s.progress(len(t.merges), target)
		}
	}

	return t, nil
}

// corpusIDs maps every document to byte-level ids and concatenates them into
// one working sequence. When markBoundaries is set and an end-of-text token
// is registered, its id is appended after each document.
func (t *Tokenizer) corpusIDs(texts []string, markBoundaries bool) []int {
	n := 0
	for _, text := range texts {
		n += len(text)
	}
	ids := make([]int, 0, n)

	eot, hasEOT := t.special[EndOfText]
	for _, text := range texts {
		for i := 0; i < len(text); i++ {
			ids = append(ids, t.byteID(text[i]))
		}
		if markBoundaries && hasEOT && len(text) > 0 {
			ids = append(ids, eot)
		}
	}
	return ids
}

// addMerge mints the next id for pair and records the merge with the next
// creation rank.
func (t *Tokenizer) addMerge(pair Pair) int {
	id := len(t.vocab)
	left, right := t.vocab[pair.Left], t.vocab[pair.Right]
	merged := make([]byte, 0, len(left)+len(right))
	merged = append(merged, left...)
	merged = append(merged, right...)

	t.vocab = append(t.vocab, merged)
	t.merges = append(t.merges, Merge{Pair: pair, ID: id, Rank: len(t.merges)})
	t.mergeIDs[pair] = id
	return id
}

// mostFrequentPair counts every adjacent pair in ids and returns the most
// frequent one. Ties are broken by the position of the pair's first
// occurrence, earliest wins. Returns false when ids holds no pair.
func mostFrequentPair(ids []int) (Pair, bool) {
	if len(ids) < 2 {
		return Pair{}, false
	}

	counts := make(map[Pair]int)
	firstAt := make(map[Pair]int)
	for i := 0; i < len(ids)-1; i++ {
		p := Pair{ids[i], ids[i+1]}
		if _, seen := counts[p]; !seen {
			firstAt[p] = i
		}
		counts[p]++
	}

	var best Pair
	bestCount := 0
	for p, c := range counts {
		if c > bestCount || (c == bestCount && firstAt[p] < firstAt[best]) {
			best = p
			bestCount = c
		}
	}
	return best, true
}

// replacePair rewrites ids left to right, replacing every non-overlapping
// occurrence of pair with newID. After a replacement scanning resumes past
// the inserted id, so an occurrence never reuses a position already
// consumed. Returns the input slice untouched when the pair does not occur.
func replacePair(ids []int, pair Pair, newID int) []int {
	found := false
	for i := 0; i < len(ids)-1; i++ {
		if ids[i] == pair.Left && ids[i+1] == pair.Right {
			found = true
			break
		}
	}
	if !found {
		return ids
	}

	out := make([]int, 0, len(ids))
	i := 0
	for i < len(ids) {
		if i+1 < len(ids) && ids[i] == pair.Left && ids[i+1] == pair.Right {
			out = append(out, newID)
			i += 2
		} else {
			out = append(out, ids[i])
			i++
		}
	}
	return out
}
