package exemplars

import (
	"fmt"
	"unicode"
	"unicode/utf8"
)

// Class partitions clusters by the general category of their first code point.
type Class string

const (
	ClassLetter      Class = "letter"
	ClassMark        Class = "mark"
	ClassDigit       Class = "digit"
	ClassPunctuation Class = "punctuation"
	ClassSymbol      Class = "symbol"
	ClassSeparator   Class = "separator"
	ClassOther       Class = "other"
)

// Classes lists every class in report order.
var Classes = []Class{
	ClassLetter,
	ClassMark,
	ClassDigit,
	ClassPunctuation,
	ClassSymbol,
	ClassSeparator,
	ClassOther,
}

// ClassOf classifies a single code point.
func ClassOf(r rune) Class {
	switch {
	case unicode.IsLetter(r):
		return ClassLetter
	case unicode.IsMark(r):
		return ClassMark
	case unicode.IsNumber(r):
		return ClassDigit
	case unicode.IsPunct(r):
		return ClassPunctuation
	case unicode.IsSymbol(r):
		return ClassSymbol
	case unicode.Is(unicode.Z, r):
		return ClassSeparator
	default:
		return ClassOther
	}
}

// ClassOfCluster classifies a cluster by its base code point.
func ClassOfCluster(cluster string) Class {
	r, _ := utf8.DecodeRuneInString(cluster)
	return ClassOf(r)
}

// CodePoints formats each code point of a cluster as U+XXXX.
func CodePoints(cluster string) []string {
	out := make([]string, 0, utf8.RuneCountInString(cluster))
	for _, r := range cluster {
		out = append(out, fmt.Sprintf("U+%04X", r))
	}
	return out
}
