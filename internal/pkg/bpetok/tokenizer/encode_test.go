package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainSample(t *testing.T, opts ...Option) *Tokenizer {
	t.Helper()
	corpus := []string{
		"the quick brown fox jumps over the lazy dog",
		"the quick brown fox",
		"pack my box with five dozen liquor jugs",
	}
	tok, err := Train(corpus, 300, DefaultSpecialTokens(), opts...)
	require.NoError(t, err)
	return tok
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tok := trainSample(t)

	for _, text := range []string{
		"the quick brown fox",
		"completely unseen words",
		"punctuation, too! and\nnewlines\ttabs",
		"héllo wörld ✓ 日本語",
		"",
	} {
		assert.Equal(t, text, tok.Decode(tok.Encode(text)), "round trip of %q", text)
	}
}

func TestEncodeSpecialTokenAtomic(t *testing.T) {
	tok := trainSample(t)
	eot, _ := tok.SpecialTokenID(EndOfText)

	assert.Equal(t, []int{eot}, tok.Encode(EndOfText))

	ids := tok.Encode("foo" + EndOfText + "bar")
	count := 0
	for _, id := range ids {
		if id == eot {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, "foo"+EndOfText+"bar", tok.Decode(ids))
}

func TestEncodeSpecialLongestFirst(t *testing.T) {
	specials := []string{"<|a|>", "<|a|>b"}
	tok, err := Train([]string{"sample text"}, 0, specials)
	require.NoError(t, err)

	long, _ := tok.SpecialTokenID("<|a|>b")
	short, _ := tok.SpecialTokenID("<|a|>")

	assert.Equal(t, []int{long}, tok.Encode("<|a|>b"))
	assert.Equal(t, []int{short, int('c')}, tok.Encode("<|a|>c"))
}

func TestEncodeWithSpecialRestrictsMatching(t *testing.T) {
	tok := trainSample(t)
	eot, _ := tok.SpecialTokenID(EndOfText)
	pad, _ := tok.SpecialTokenID(Pad)

	ids := tok.EncodeWithSpecial(EndOfText+Pad, []string{Pad})
	assert.NotContains(t, ids, eot)
	assert.Contains(t, ids, pad)

	// nil disables special matching: the literal is split into bytes and
	// merge-derived tokens instead of its reserved id.
	ids = tok.EncodeWithSpecial(EndOfText, nil)
	assert.NotContains(t, ids, eot)
	assert.Equal(t, EndOfText, tok.Decode(ids))
}

func TestEncodeUnknownNameInAllowedIgnored(t *testing.T) {
	tok := trainSample(t)

	ids := tok.EncodeWithSpecial("plain", []string{"<|never-registered|>"})
	assert.Equal(t, "plain", tok.Decode(ids))
}

func TestEncodeRestrictedSeedFallsBackToUnknown(t *testing.T) {
	ascii := make([]byte, 128)
	for i := range ascii {
		ascii[i] = byte(i)
	}
	tok, err := Train([]string{"ascii only corpus"}, 0, DefaultSpecialTokens(), WithSeedBytes(ascii))
	require.NoError(t, err)

	unk, _ := tok.SpecialTokenID(Unknown)
	assert.Equal(t, []int{unk}, tok.Encode(string([]byte{200})))
	assert.Equal(t, []int{int('a'), unk, int('b')}, tok.Encode(string([]byte{'a', 200, 'b'})))
}

func TestEncodeRestrictedSeedWithoutUnknownUsesIDZero(t *testing.T) {
	ascii := make([]byte, 128)
	for i := range ascii {
		ascii[i] = byte(i)
	}
	tok, err := Train([]string{"ascii"}, 0, nil, WithSeedBytes(ascii))
	require.NoError(t, err)

	assert.Equal(t, []int{0}, tok.Encode(string([]byte{200})))
}

func TestEncodeAppliesEarliestPositionMerge(t *testing.T) {
	// Merge table: (a,a) then (aa,a). Encoding "aaaa" replaces at the
	// earliest position and restarts, so the stream collapses pairwise to
	// [aa aa] rather than [aaa a].
	tok, err := Train([]string{"aaaa"}, 260, DefaultSpecialTokens())
	require.NoError(t, err)
	require.Len(t, tok.Merges(), 1)

	aa := tok.Merges()[0].ID
	assert.Equal(t, []int{aa, aa}, tok.Encode("aaaa"))
	assert.Equal(t, []int{aa, int('a')}, tok.Encode("aaa"))
}

func TestDecodeUnknownID(t *testing.T) {
	tok := trainSample(t)

	assert.Equal(t, Unknown, tok.Decode([]int{tok.VocabSize() + 7}))
	assert.Equal(t, Unknown, tok.Decode([]int{-1}))
}

func TestDecodeSpecialID(t *testing.T) {
	tok := trainSample(t)
	pad, _ := tok.SpecialTokenID(Pad)

	assert.Equal(t, Pad, tok.Decode([]int{pad}))
}

func TestDecodeInvalidUTF8Replaced(t *testing.T) {
	tok := trainSample(t)

	// 0xC3 alone is a truncated two-byte sequence.
	got := tok.Decode([]int{0xC3})
	assert.Equal(t, "�", got)

	// Splicing an unknown id into the middle of a multi-byte rune corrupts
	// both halves but still decodes to a string.
	got = tok.Decode([]int{0xC3, tok.VocabSize() + 1, 0xA9})
	assert.NotEmpty(t, got)
	assert.Contains(t, got, Unknown)
}

func TestDecodeEmpty(t *testing.T) {
	tok := trainSample(t)
	assert.Equal(t, "", tok.Decode(nil))
}
