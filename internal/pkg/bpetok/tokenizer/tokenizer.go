package tokenizer

import (
	"sort"
)

// Reserved token names registered by default, in this order, at the ids
// immediately after the 256 byte entries.
const (
	EndOfText = "<|endoftext|>"
	Pad       = "<|pad|>"
	Unknown   = "<|unk|>"
)

// DefaultSpecialTokens returns the default ordered special-token list.
func DefaultSpecialTokens() []string {
	return []string{EndOfText, Pad, Unknown}
}

// Pair is an ordered pair of token ids.
type Pair struct {
	Left  int
	Right int
}

// Merge is one learned merge rule: Pair merges into token ID. Rank is the
// creation order; the rank-r merge minted id seedSize+r.
type Merge struct {
	Pair Pair
	ID   int
	Rank int
}

// Tokenizer is a byte-level BPE tokenizer. Ids 0..255 cover every raw byte
// value (unless the seed was restricted), special tokens follow at the next
// ids, and merge-derived tokens fill the rest of the id space.
//
// A Tokenizer is immutable once returned by Train or Load. Encode and Decode
// hold no mutable state and are safe for concurrent use on a shared instance.
type Tokenizer struct {
	vocab    [][]byte // id -> token bytes, ids contiguous from 0
	byteIDs  [256]int // byte value -> seed id, -1 when unseeded
	merges   []Merge  // ordered by rank
	mergeIDs map[Pair]int

	special      map[string]int
	specialNames []string // registration order
	matchOrder   []string // special names, longest first

	seedSize int
}

// Option configures seeding and training.
type Option func(*settings)

type settings struct {
	seedBytes     []byte
	progress      func(done, total int)
	docBoundaries bool
}

// WithSeedBytes restricts the seed vocabulary to the given byte values
// instead of all 256. Input bytes outside the seed fall back to the unknown
// token during encoding and training.
func WithSeedBytes(values []byte) Option {
	return func(s *settings) { s.seedBytes = values }
}

// WithProgress installs a callback invoked after every learned merge with the
// number of merges done and the merge target.
func WithProgress(fn func(done, total int)) Option {
	return func(s *settings) { s.progress = fn }
}

// WithDocumentBoundaries appends the end-of-text id after every document
// before the corpus is concatenated for training. Without this option
// document boundaries are not marked.
func WithDocumentBoundaries() Option {
	return func(s *settings) { s.docBoundaries = true }
}

// newTokenizer seeds the vocabulary: one entry per byte value, then the
// special tokens in the order given. Duplicate byte values and duplicate
// special names are registered once.
func newTokenizer(specials []string, seedBytes []byte) *Tokenizer {
	t := &Tokenizer{
		mergeIDs: make(map[Pair]int),
		special:  make(map[string]int),
	}
	for i := range t.byteIDs {
		t.byteIDs[i] = -1
	}

	if seedBytes == nil {
		for b := 0; b < 256; b++ {
			t.byteIDs[b] = len(t.vocab)
			t.vocab = append(t.vocab, []byte{byte(b)})
		}
	} else {
		for _, b := range seedBytes {
			if t.byteIDs[b] >= 0 {
				continue
			}
			t.byteIDs[b] = len(t.vocab)
			t.vocab = append(t.vocab, []byte{b})
		}
	}

	for _, name := range specials {
		if _, dup := t.special[name]; dup {
			continue
		}
		id := len(t.vocab)
		t.vocab = append(t.vocab, []byte(name))
		t.special[name] = id
		t.specialNames = append(t.specialNames, name)
	}

	t.seedSize = len(t.vocab)
	t.matchOrder = longestFirst(t.specialNames)
	return t
}

// longestFirst orders special-token names so that longer names match before
// any name that is a prefix of them. Registration order breaks length ties.
func longestFirst(names []string) []string {
	order := append([]string(nil), names...)
	sort.SliceStable(order, func(i, j int) bool {
		return len(order[i]) > len(order[j])
	})
	return order
}

// byteID maps a raw byte to its seed id. Bytes missing from a restricted
// seed fall back to the unknown token if registered, else to id 0.
func (t *Tokenizer) byteID(b byte) int {
	if id := t.byteIDs[b]; id >= 0 {
		return id
	}
	if id, ok := t.special[Unknown]; ok {
		return id
	}
	return 0
}

// VocabSize returns the total vocabulary size including byte entries,
// special tokens and learned merges.
func (t *Tokenizer) VocabSize() int {
	return len(t.vocab)
}

// SeedSize returns the vocabulary size before any merge was learned.
func (t *Tokenizer) SeedSize() int {
	return t.seedSize
}

// SpecialTokenID returns the id of a registered special token.
func (t *Tokenizer) SpecialTokenID(name string) (int, bool) {
	id, ok := t.special[name]
	return id, ok
}

// SpecialTokens returns the registered special-token names in registration
// order.
func (t *Tokenizer) SpecialTokens() []string {
	return append([]string(nil), t.specialNames...)
}

// TokenBytes returns the byte value of a token id.
func (t *Tokenizer) TokenBytes(id int) ([]byte, bool) {
	if id < 0 || id >= len(t.vocab) {
		return nil, false
	}
	return append([]byte(nil), t.vocab[id]...), true
}

// Merges returns the learned merge rules ordered by creation rank.
func (t *Tokenizer) Merges() []Merge {
	return append([]Merge(nil), t.merges...)
}
