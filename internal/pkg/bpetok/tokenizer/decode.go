package tokenizer

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// Decode converts token ids back into text. An id outside the vocabulary is
// replaced by the literal unknown-token marker, and byte sequences that do
// not form valid UTF-8 are decoded with the replacement character. Decode
// never fails.
func (t *Tokenizer) Decode(ids []int) string {
	var buf bytes.Buffer
	for _, id := range ids {
		if id >= 0 && id < len(t.vocab) {
			buf.Write(t.vocab[id])
		} else {
			buf.WriteString(Unknown)
		}
	}
	return strings.ToValidUTF8(buf.String(), string(utf8.RuneError))
}
