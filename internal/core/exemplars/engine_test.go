package exemplars

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ingestAll(t *testing.T, e *Engine, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		require.NoError(t, e.Ingest(f))
	}
}

func sumCounts(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}

func TestEngine_RanksByFrequencyThenFirstSeen(t *testing.T) {
	e := New(DefaultOptions())
	ingestAll(t, e, "abc", "abc", "d")

	assert.Equal(t, map[string]int{"a": 2, "b": 2, "c": 2, "d": 1}, e.Counts())
	assert.Equal(t, 3, e.TotalFragments())
	assert.Equal(t, 7, e.TotalClusters())

	rep := e.Analyze()
	assert.Equal(t, []string{"a", "b", "c", "d"}, rep.Clusters())
	assert.Equal(t, 4, rep.Distinct)
	assert.Equal(t, StateAnalyzed, e.State())
}

func TestEngine_CombiningSequenceIsOneCluster(t *testing.T) {
	t.Run("NFC composes", func(t *testing.T) {
		e := New(DefaultOptions())
		ingestAll(t, e, "e\u0301")

		assert.Equal(t, 1, e.TotalClusters())
		assert.Equal(t, 1, e.Count("é"))
		assert.Equal(t, 1, e.Count("e\u0301"))
	})

	t.Run("no precomposed form", func(t *testing.T) {
		e := New(DefaultOptions())
		ingestAll(t, e, "q\u0301q")

		assert.Equal(t, 2, e.TotalClusters())
		assert.Equal(t, map[string]int{"q\u0301": 1, "q": 1}, e.Counts())
	})

	t.Run("NFD keeps marks attached", func(t *testing.T) {
		e := New(Options{Normalization: NormalizeNFD})
		ingestAll(t, e, "é", "e\u0301")

		assert.Equal(t, map[string]int{"e\u0301": 2}, e.Counts())
	})

	t.Run("stacked marks", func(t *testing.T) {
		e := New(Options{Normalization: NormalizeNone})
		ingestAll(t, e, "a\u0323\u0302b")

		assert.Equal(t, []string{"a\u0323\u0302", "b"}, e.Analyze().Clusters())
	})
}

func TestEngine_PrecomposedAndDecomposedCountTogether(t *testing.T) {
	e := New(DefaultOptions())
	ingestAll(t, e, "café", "cafe\u0301")

	assert.Equal(t, 2, e.Count("é"))
	assert.Equal(t, 4, e.Distinct())
}

func TestEngine_NoNormalizationKeepsSpellingsApart(t *testing.T) {
	e := New(Options{Normalization: NormalizeNone})
	ingestAll(t, e, "\u00e9", "e\u0301")

	assert.Equal(t, map[string]int{"\u00e9": 1, "e\u0301": 1}, e.Counts())
	assert.Equal(t, 2, e.Distinct())
}

func TestEngine_OrphanMarksAreSingleMarkClusters(t *testing.T) {
	e := New(Options{Normalization: NormalizeNone})
	ingestAll(t, e, "\u0301\u0300a")

	rep := e.Analyze()
	assert.Equal(t, []string{"\u0301", "\u0300", "a"}, rep.Clusters())
	require.Len(t, rep.Group(ClassMark), 2)
	assert.Equal(t, ClassMark, rep.Group(ClassMark)[0].Class)
}

func TestEngine_MarksDoNotCrossFragments(t *testing.T) {
	e := New(Options{Normalization: NormalizeNone})
	ingestAll(t, e, "e", "\u0301")

	assert.Equal(t, map[string]int{"e": 1, "\u0301": 1}, e.Counts())
}

func TestEngine_EmptyInput(t *testing.T) {
	e := New(DefaultOptions())

	rep := e.Analyze()
	assert.True(t, rep.Empty())
	assert.Empty(t, rep.Groups)
	assert.Zero(t, rep.TotalFragments)
	assert.Zero(t, rep.TotalClusters)
	assert.Zero(t, e.TotalFragments())
	assert.Zero(t, e.TotalClusters())
}

func TestEngine_WhitespaceOnlyIsNoOp(t *testing.T) {
	e := New(DefaultOptions())
	ingestAll(t, e, "ab")
	before := e.Counts()

	ingestAll(t, e, "", "   ", "\t\n", "\u00A0")

	assert.Equal(t, before, e.Counts())
	assert.Equal(t, 2, e.TotalClusters())
	assert.Equal(t, 1, e.TotalFragments())
}

func TestEngine_TrimsButKeepsInnerWhitespace(t *testing.T) {
	e := New(DefaultOptions())
	ingestAll(t, e, "  a b  ")

	assert.Equal(t, map[string]int{"a": 1, " ": 1, "b": 1}, e.Counts())
	assert.Len(t, e.Analyze().Group(ClassSeparator), 1)
}

func TestEngine_CountsControlCharacters(t *testing.T) {
	e := New(DefaultOptions())
	ingestAll(t, e, "a\u0007b")

	assert.Equal(t, 1, e.Count("\u0007"))
	assert.Len(t, e.Analyze().Group(ClassOther), 1)
}

func TestEngine_InvalidUTF8IsRejectedAtomically(t *testing.T) {
	e := New(DefaultOptions())
	ingestAll(t, e, "ab")

	err := e.Ingest("c\xffd")
	require.ErrorIs(t, err, ErrInvalidInput)

	assert.Equal(t, map[string]int{"a": 1, "b": 1}, e.Counts())
	assert.Equal(t, 1, e.TotalFragments())
	assert.Equal(t, 2, e.TotalClusters())
}

func TestEngine_AnalyzeIsIdempotent(t *testing.T) {
	e := New(DefaultOptions())
	ingestAll(t, e, "Ɛbɔ\u0301", "ŋgɔ, 12!", "e\u0301e")

	first := e.Analyze()
	second := e.Analyze()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("reports differ (-first +second):\n%s", diff)
	}
}

func TestEngine_CountsIgnoreIngestionOrder(t *testing.T) {
	fragments := []string{"hello", "wörld", "ŋɔ\u0303", "hello again", "123"}
	reversed := make([]string, len(fragments))
	for i, f := range fragments {
		reversed[len(fragments)-1-i] = f
	}

	a := New(DefaultOptions())
	ingestAll(t, a, fragments...)
	b := New(DefaultOptions())
	ingestAll(t, b, reversed...)

	if diff := cmp.Diff(a.Counts(), b.Counts()); diff != "" {
		t.Fatalf("counts differ:\n%s", diff)
	}
	assert.Equal(t, a.TotalClusters(), b.TotalClusters())
}

func TestEngine_SumInvariant(t *testing.T) {
	e := New(DefaultOptions())
	for _, f := range []string{"abc", "", "ɓɗ\u0301", "  x ", "\u0301", "日本語", "👍🏽"} {
		require.NoError(t, e.Ingest(f))
		assert.Equal(t, e.TotalClusters(), sumCounts(e.Counts()))
	}
}

func TestEngine_ResumeAfterAnalyze(t *testing.T) {
	e := New(DefaultOptions())
	assert.Equal(t, StateIdle, e.State())

	ingestAll(t, e, "ab")
	assert.Equal(t, StateIngesting, e.State())
	first := e.Analyze()

	ingestAll(t, e, "b")
	assert.Equal(t, StateIngesting, e.State())
	second := e.Analyze()

	assert.Equal(t, []string{"a", "b"}, first.Clusters())
	assert.Equal(t, []string{"b", "a"}, second.Clusters())
	assert.Equal(t, 1, first.Entries[1].Count)
}

func TestEngine_Reset(t *testing.T) {
	e := New(DefaultOptions())
	ingestAll(t, e, "abc")
	e.Analyze()

	e.Reset()

	assert.Equal(t, StateIdle, e.State())
	assert.Empty(t, e.Counts())
	assert.True(t, e.Analyze().Empty())
}

func TestEngine_MinCountFiltersReportOnly(t *testing.T) {
	e := New(Options{MinCount: 2})
	ingestAll(t, e, "abc", "abc", "d")

	rep := e.Analyze()
	assert.Equal(t, []string{"a", "b", "c"}, rep.Clusters())
	assert.Equal(t, 7, rep.TotalClusters)
	assert.Equal(t, 4, rep.Distinct)
	assert.Equal(t, 1, e.Count("d"))
}

func TestEngine_RankingPolicies(t *testing.T) {
	tests := []struct {
		name    string
		ranking Ranking
		want    []string
	}{
		{"frequency", RankFrequency, []string{"b", "c", "a"}},
		{"first-seen", RankFirstSeen, []string{"c", "a", "b"}},
		{"codepoint", RankCodepoint, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(Options{Ranking: tt.ranking})
			ingestAll(t, e, "cab", "bb", "c")
			assert.Equal(t, tt.want, e.Analyze().Clusters())
		})
	}
}

func TestEngine_GroupsByClass(t *testing.T) {
	e := New(DefaultOptions())
	ingestAll(t, e, "ba1.a+")

	rep := e.Analyze()
	var classes []Class
	for _, g := range rep.Groups {
		classes = append(classes, g.Class)
	}
	assert.Equal(t, []Class{ClassLetter, ClassDigit, ClassPunctuation, ClassSymbol}, classes)
	assert.Equal(t, "a", rep.Group(ClassLetter)[0].Cluster)
	assert.Equal(t, "b", rep.Group(ClassLetter)[1].Cluster)
	assert.Nil(t, rep.Group(ClassMark))
}

func TestEngine_EntryDetails(t *testing.T) {
	e := New(DefaultOptions())
	ingestAll(t, e, "xq\u0301")

	rep := e.Analyze()
	require.Len(t, rep.Entries, 2)
	assert.Equal(t, Entry{
		Cluster:    "q\u0301",
		CodePoints: []string{"U+0071", "U+0301"},
		Class:      ClassLetter,
		Count:      1,
		FirstSeen:  1,
	}, rep.Entries[1])
}

func TestEngine_CustomSegmenter(t *testing.T) {
	words := SegmenterFunc(func(text string) []string {
		return []string{text}
	})
	e := NewWithSegmenter(DefaultOptions(), words)
	ingestAll(t, e, "ab", "ab")

	assert.Equal(t, map[string]int{"ab": 2}, e.Counts())
}

func TestOptions_Validate(t *testing.T) {
	assert.NoError(t, Options{}.Validate())
	assert.NoError(t, DefaultOptions().Validate())
	assert.Error(t, Options{Normalization: "NFKC"}.Validate())
	assert.Error(t, Options{Segmentation: "words"}.Validate())
	assert.Error(t, Options{Ranking: "random"}.Validate())
}

func TestParseNormalization(t *testing.T) {
	n, err := ParseNormalization("nfd")
	require.NoError(t, err)
	assert.Equal(t, NormalizeNFD, n)

	n, err = ParseNormalization("")
	require.NoError(t, err)
	assert.Equal(t, NormalizeNFC, n)

	_, err = ParseNormalization("nfkc")
	assert.Error(t, err)
}

func TestParseOptions(t *testing.T) {
	o, err := ParseOptions("NFD", "graphemes", "first-seen", 0)
	require.NoError(t, err)
	assert.Equal(t, Options{
		Normalization: NormalizeNFD,
		Segmentation:  SegmentGraphemes,
		Ranking:       RankFirstSeen,
		MinCount:      1,
	}, o)

	for _, bad := range [][3]string{
		{"nfkc", "", ""},
		{"", "words", ""},
		{"", "", "random"},
	} {
		_, err := ParseOptions(bad[0], bad[1], bad[2], 1)
		assert.ErrorIs(t, err, ErrUnknownOption, bad)
	}
	_, err = ParseOptions("", "", "", -1)
	assert.ErrorIs(t, err, ErrUnknownOption)
}
