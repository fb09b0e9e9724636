package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Trains on ["aaab", "aaab"] with room for exactly two merges and checks the
// full merge sequence. The concatenated byte stream "aaabaaab" holds four
// (a,a) pairs, so the first merge is "aa"; the rewritten stream
// [aa a b aa a b] ties (aa,a) with (a,b) at two occurrences each and the
// earliest-position tie-break picks (aa,a).
func TestTrainWorkedExample(t *testing.T) {
	tok, err := Train([]string{"aaab", "aaab"}, 261, DefaultSpecialTokens())
	require.NoError(t, err)
	require.Equal(t, 261, tok.VocabSize())

	a := int('a')
	merges := tok.Merges()
	require.Len(t, merges, 2)

	assert.Equal(t, Merge{Pair: Pair{Left: a, Right: a}, ID: 259, Rank: 0}, merges[0])
	assert.Equal(t, Merge{Pair: Pair{Left: 259, Right: a}, ID: 260, Rank: 1}, merges[1])

	aa, ok := tok.TokenBytes(259)
	require.True(t, ok)
	assert.Equal(t, []byte("aa"), aa)
	aaa, ok := tok.TokenBytes(260)
	require.True(t, ok)
	assert.Equal(t, []byte("aaa"), aaa)

	assert.Equal(t, []int{260, int('b')}, tok.Encode("aaab"))
	assert.Equal(t, []int{260, int('b'), 260, int('b')}, tok.Encode("aaabaaab"))
}

func TestTrainDeterministic(t *testing.T) {
	corpus := []string{"to be or not to be", "that is the question", "to be sure"}

	first, err := Train(corpus, 320, DefaultSpecialTokens())
	require.NoError(t, err)
	second, err := Train(corpus, 320, DefaultSpecialTokens())
	require.NoError(t, err)

	require.Equal(t, first.VocabSize(), second.VocabSize())
	assert.Equal(t, first.Merges(), second.Merges())
	for id := 0; id < first.VocabSize(); id++ {
		a, _ := first.TokenBytes(id)
		b, _ := second.TokenBytes(id)
		assert.Equal(t, a, b)
	}
}

func TestTrainGrowthBound(t *testing.T) {
	target := 300
	tok, err := Train([]string{"abc abc abc abd abd"}, target, DefaultSpecialTokens())
	require.NoError(t, err)

	merges := len(tok.Merges())
	assert.Equal(t, tok.SeedSize()+merges, tok.VocabSize())
	assert.LessOrEqual(t, merges, target-tok.SeedSize())
}

func TestTrainStopsWhenNoPairsRemain(t *testing.T) {
	// "ab" collapses into a single id after one merge; nothing is left to
	// count, so training stops short of the target.
	tok, err := Train([]string{"ab"}, 400, DefaultSpecialTokens())
	require.NoError(t, err)

	assert.Equal(t, 260, tok.VocabSize())
	assert.Len(t, tok.Merges(), 1)
}

func TestTrainEmptyCorpus(t *testing.T) {
	_, err := Train(nil, 300, DefaultSpecialTokens())
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	_, err = Train([]string{}, 300, DefaultSpecialTokens())
	assert.ErrorIs(t, err, ErrEmptyCorpus)

	_, err = Train([]string{"", ""}, 300, DefaultSpecialTokens())
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestTrainTargetAtOrBelowSeed(t *testing.T) {
	tok, err := Train([]string{"abc"}, 10, DefaultSpecialTokens())
	require.NoError(t, err)

	assert.Empty(t, tok.Merges())
	assert.Equal(t, tok.SeedSize(), tok.VocabSize())
}

func TestTrainDocumentBoundaries(t *testing.T) {
	// Without boundaries the only adjacent pair in ["b","b","b"] is (b,b).
	// With boundaries every document ends in the end-of-text id, so the most
	// frequent pair becomes (b, eot).
	plain, err := Train([]string{"b", "b", "b"}, 260, DefaultSpecialTokens())
	require.NoError(t, err)
	require.Len(t, plain.Merges(), 1)
	assert.Equal(t, Pair{Left: int('b'), Right: int('b')}, plain.Merges()[0].Pair)

	marked, err := Train([]string{"b", "b", "b"}, 260, DefaultSpecialTokens(), WithDocumentBoundaries())
	require.NoError(t, err)
	require.Len(t, marked.Merges(), 1)

	eot, _ := marked.SpecialTokenID(EndOfText)
	assert.Equal(t, Pair{Left: int('b'), Right: eot}, marked.Merges()[0].Pair)

	val, ok := marked.TokenBytes(marked.Merges()[0].ID)
	require.True(t, ok)
	assert.Equal(t, []byte("b"+EndOfText), val)
}

func TestTrainProgressCallback(t *testing.T) {
	var calls []int
	total := 0
	_, err := Train([]string{"aaab", "aaab"}, 261, DefaultSpecialTokens(),
		WithProgress(func(done, t int) {
			calls = append(calls, done)
			total = t
		}))
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2}, calls)
	assert.Equal(t, 2, total)
}
