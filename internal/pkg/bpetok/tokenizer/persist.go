package tokenizer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Artifact names inside a tokenizer directory.
const (
	VocabFile   = "vocab.json"
	MergesFile  = "merges.json"
	SpecialFile = "special_tokens.json"
	ConfigFile  = "config.json"
)

// summary is the config.json artifact.
type summary struct {
	VocabSize     int      `json:"vocab_size"`
	SpecialTokens []string `json:"special_tokens"`
}

// Save writes the tokenizer state into dir as four artifacts: vocab.json
// (id as string -> token bytes, base64-encoded by the JSON codec),
// merges.json ("left,right" -> merged id), special_tokens.json (name -> id)
// and config.json (vocab size plus the ordered special-token names). Every
// artifact is overwritten unconditionally.
func (t *Tokenizer) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("tokenizer: failed to create directory: %w", err)
	}

	vocab := make(map[string][]byte, len(t.vocab))
	for id, tok := range t.vocab {
		vocab[strconv.Itoa(id)] = tok
	}

	merges := make(map[string]int, len(t.merges))
	for _, m := range t.merges {
		merges[pairKey(m.Pair)] = m.ID
	}

	cfg := summary{
		VocabSize:     len(t.vocab),
		SpecialTokens: append([]string(nil), t.specialNames...),
	}

	artifacts := []struct {
		name  string
		value any
	}{
		{VocabFile, vocab},
		{MergesFile, merges},
		{SpecialFile, t.special},
		{ConfigFile, cfg},
	}
	for _, a := range artifacts {
		if err := writeJSON(filepath.Join(dir, a.name), a.value); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the four artifacts written by Save and reconstructs an
// immutable tokenizer. A missing or malformed artifact is fatal; no partial
// reconstruction is attempted.
func Load(dir string) (*Tokenizer, error) {
	var rawVocab map[string][]byte
	if err := readJSON(filepath.Join(dir, VocabFile), &rawVocab); err != nil {
		return nil, err
	}
	var rawMerges map[string]int
	if err := readJSON(filepath.Join(dir, MergesFile), &rawMerges); err != nil {
		return nil, err
	}
	var special map[string]int
	if err := readJSON(filepath.Join(dir, SpecialFile), &special); err != nil {
		return nil, err
	}
	var cfg summary
	if err := readJSON(filepath.Join(dir, ConfigFile), &cfg); err != nil {
		return nil, err
	}

	vocab, err := rebuildVocab(rawVocab)
	if err != nil {
		return nil, err
	}
	if cfg.VocabSize != len(vocab) {
		return nil, fmt.Errorf("tokenizer: config vocab_size %d does not match vocabulary with %d entries",
			cfg.VocabSize, len(vocab))
	}

	merges, mergeIDs, err := rebuildMerges(rawMerges, len(vocab))
	if err != nil {
		return nil, err
	}
	seedSize := len(vocab) - len(merges)

	if len(special) != len(cfg.SpecialTokens) {
		return nil, fmt.Errorf("tokenizer: config lists %d special tokens, artifact holds %d",
			len(cfg.SpecialTokens), len(special))
	}
	specialIDs := make(map[int]bool, len(special))
	for _, name := range cfg.SpecialTokens {
		id, ok := special[name]
		if !ok {
			return nil, fmt.Errorf("tokenizer: special token %q missing from %s", name, SpecialFile)
		}
		if id < 0 || id >= seedSize {
			return nil, fmt.Errorf("tokenizer: special token %q has merge-range id %d", name, id)
		}
		specialIDs[id] = true
	}

	t := &Tokenizer{
		vocab:        vocab,
		merges:       merges,
		mergeIDs:     mergeIDs,
		special:      special,
		specialNames: append([]string(nil), cfg.SpecialTokens...),
		matchOrder:   longestFirst(cfg.SpecialTokens),
		seedSize:     seedSize,
	}
	for i := range t.byteIDs {
		t.byteIDs[i] = -1
	}
	for id := 0; id < seedSize; id++ {
		if specialIDs[id] {
			continue
		}
		tok := vocab[id]
		if len(tok) != 1 {
			return nil, fmt.Errorf("tokenizer: seed id %d holds %d bytes, want 1", id, len(tok))
		}
		t.byteIDs[tok[0]] = id
	}
	return t, nil
}

// rebuildVocab turns the persisted id->bytes mapping back into a contiguous
// slice, rejecting gaps, out-of-range ids and empty values.
func rebuildVocab(raw map[string][]byte) ([][]byte, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("tokenizer: %s holds no entries", VocabFile)
	}
	vocab := make([][]byte, len(raw))
	for key, tok := range raw {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("tokenizer: invalid vocabulary id %q: %w", key, err)
		}
		if id < 0 || id >= len(vocab) {
			return nil, fmt.Errorf("tokenizer: vocabulary id %d outside contiguous range 0..%d", id, len(vocab)-1)
		}
		if len(tok) == 0 {
			return nil, fmt.Errorf("tokenizer: vocabulary id %d holds an empty token", id)
		}
		vocab[id] = tok
	}
	for id, tok := range vocab {
		if tok == nil {
			return nil, fmt.Errorf("tokenizer: vocabulary id %d missing", id)
		}
	}
	return vocab, nil
}

// rebuildMerges parses the composite "left,right" keys and recovers creation
// ranks from the merged ids, which Train mints sequentially.
func rebuildMerges(raw map[string]int, vocabSize int) ([]Merge, map[Pair]int, error) {
	merges := make([]Merge, 0, len(raw))
	for key, id := range raw {
		pair, err := parsePairKey(key)
		if err != nil {
			return nil, nil, err
		}
		if id <= pair.Left || id <= pair.Right || id >= vocabSize || pair.Left < 0 || pair.Right < 0 {
			return nil, nil, fmt.Errorf("tokenizer: merge %q -> %d references ids outside the vocabulary", key, id)
		}
		merges = append(merges, Merge{Pair: pair, ID: id})
	}
	sort.Slice(merges, func(i, j int) bool { return merges[i].ID < merges[j].ID })

	seedSize := vocabSize - len(merges)
	mergeIDs := make(map[Pair]int, len(merges))
	for i := range merges {
		if merges[i].ID != seedSize+i {
			return nil, nil, fmt.Errorf("tokenizer: merged ids are not contiguous from %d", seedSize)
		}
		merges[i].Rank = i
		mergeIDs[merges[i].Pair] = merges[i].ID
	}
	return merges, mergeIDs, nil
}

func pairKey(p Pair) string {
	return strconv.Itoa(p.Left) + "," + strconv.Itoa(p.Right)
}

func parsePairKey(key string) (Pair, error) {
	left, right, ok := strings.Cut(key, ",")
	if !ok {
		return Pair{}, fmt.Errorf("tokenizer: invalid merge key %q", key)
	}
	l, err := strconv.Atoi(left)
	if err != nil {
		return Pair{}, fmt.Errorf("tokenizer: invalid merge key %q: %w", key, err)
	}
	r, err := strconv.Atoi(right)
	if err != nil {
		return Pair{}, fmt.Errorf("tokenizer: invalid merge key %q: %w", key, err)
	}
	return Pair{Left: l, Right: r}, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("tokenizer: failed to encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("tokenizer: failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("tokenizer: failed to read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("tokenizer: failed to parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
