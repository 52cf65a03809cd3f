package exemplars

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Set is an ordered list of clusters rendered in LDML UnicodeSet syntax.
type Set []string

// String renders the set as "[a b {é}]". Clusters longer than one code point
// go in braces and UnicodeSet syntax characters are escaped.
func (s Set) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		multi := utf8.RuneCountInString(c) > 1
		if multi {
			b.WriteByte('{')
		}
		for _, r := range c {
			writeSetRune(&b, r)
		}
		if multi {
			b.WriteByte('}')
		}
	}
	b.WriteByte(']')
	return b.String()
}

func writeSetRune(b *strings.Builder, r rune) {
	switch {
	case strings.ContainsRune(`[]{}-\^&$:`, r):
		b.WriteByte('\\')
		b.WriteRune(r)
	case unicode.IsSpace(r) || unicode.Is(unicode.C, r):
		if r > 0xFFFF {
			fmt.Fprintf(b, `\U%08X`, r)
		} else {
			fmt.Fprintf(b, `\u%04X`, r)
		}
	default:
		b.WriteRune(r)
	}
}

// ExemplarSets mirrors the LDML exemplar character categories.
type ExemplarSets struct {
	Main        Set `json:"main" yaml:"main"`
	Auxiliary   Set `json:"auxiliary" yaml:"auxiliary"`
	Numbers     Set `json:"numbers" yaml:"numbers"`
	Punctuation Set `json:"punctuation" yaml:"punctuation"`
}

// ExemplarSets splits the report's letters into main and auxiliary by their share
// of all letter occurrences: a letter below auxiliaryRatio is auxiliary. Orphan
// marks are always auxiliary. Symbols, separators and other clusters are not
// exemplars and are dropped.
func (r Report) ExemplarSets(auxiliaryRatio float64) ExemplarSets {
	sets := ExemplarSets{Main: Set{}, Auxiliary: Set{}, Numbers: Set{}, Punctuation: Set{}}

	letters := r.Group(ClassLetter)
	total := 0
	for _, e := range letters {
		total += e.Count
	}
	for _, e := range letters {
		if total > 0 && float64(e.Count)/float64(total) < auxiliaryRatio {
			sets.Auxiliary = append(sets.Auxiliary, e.Cluster)
			continue
		}
		sets.Main = append(sets.Main, e.Cluster)
	}
	for _, e := range r.Group(ClassMark) {
		sets.Auxiliary = append(sets.Auxiliary, e.Cluster)
	}
	for _, e := range r.Group(ClassDigit) {
		sets.Numbers = append(sets.Numbers, e.Cluster)
	}
	for _, e := range r.Group(ClassPunctuation) {
		sets.Punctuation = append(sets.Punctuation, e.Cluster)
	}
	return sets
}
