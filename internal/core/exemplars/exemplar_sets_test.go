package exemplars

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSet_String(t *testing.T) {
	assert.Equal(t, "[]", Set{}.String())
	assert.Equal(t, "[a b c]", Set{"a", "b", "c"}.String())
	assert.Equal(t, "[é {q\u0301}]", Set{"é", "q\u0301"}.String())
	assert.Equal(t, `[\- \[ \] \{ \: \\]`, Set{"-", "[", "]", "{", ":", `\`}.String())
	assert.Equal(t, `[\u0020 \u00A0]`, Set{" ", "\u00A0"}.String())
}

func TestReport_ExemplarSets(t *testing.T) {
	e := New(DefaultOptions())
	ingestAll(t, e, "aaaaaaaaab", "\u0301", "1, 2.", "$")

	sets := e.Analyze().ExemplarSets(0.2)
	assert.Equal(t, Set{"a"}, sets.Main)
	assert.Equal(t, Set{"b", "\u0301"}, sets.Auxiliary)
	assert.Equal(t, Set{"1", "2"}, sets.Numbers)
	assert.Equal(t, Set{",", "."}, sets.Punctuation)
}

func TestReport_ExemplarSetsZeroRatioKeepsAllLetters(t *testing.T) {
	e := New(DefaultOptions())
	ingestAll(t, e, "aaaaaaaaab")

	sets := e.Analyze().ExemplarSets(0)
	assert.Equal(t, Set{"a", "b"}, sets.Main)
	assert.Empty(t, sets.Auxiliary)
}

func TestReport_ExemplarSetsEmptyReport(t *testing.T) {
	sets := New(DefaultOptions()).Analyze().ExemplarSets(0.1)
	assert.Equal(t, "[]", sets.Main.String())
	assert.Equal(t, "[]", sets.Auxiliary.String())
}

func vectorNorm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func TestReport_Profile(t *testing.T) {
	e := New(DefaultOptions())
	ingestAll(t, e, "abcabc ŋɔ")

	p := e.Analyze().Profile(ProfileDim)
	require.Len(t, p, ProfileDim)
	assert.InDelta(t, 1.0, vectorNorm(p), 1e-6)

	empty := New(DefaultOptions()).Analyze().Profile(0)
	require.Len(t, empty, ProfileDim)
	assert.Zero(t, vectorNorm(empty))
}

func TestCosineDistance(t *testing.T) {
	a := New(DefaultOptions())
	ingestAll(t, a, "the quick brown fox")
	b := New(DefaultOptions())
	ingestAll(t, b, "the quick brown fox", "the quick brown fox")
	c := New(DefaultOptions())
	ingestAll(t, c, "日本語のテキスト")

	pa := a.Analyze().Profile(ProfileDim)
	pb := b.Analyze().Profile(ProfileDim)
	pc := c.Analyze().Profile(ProfileDim)

	assert.InDelta(t, 0, CosineDistance(pa, pb), 1e-6)
	assert.Greater(t, CosineDistance(pa, pc), CosineDistance(pa, pb))
	assert.Equal(t, 1.0, CosineDistance(pa, pa[:10]))
	assert.Equal(t, 1.0, CosineDistance(nil, nil))
}
