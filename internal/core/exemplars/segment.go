package exemplars

import (
	"unicode"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// Segmenter splits one normalized fragment into clusters.
type Segmenter interface {
	Segment(text string) []string
}

// SegmenterFunc adapts a plain function to Segmenter.
type SegmenterFunc func(text string) []string

func (f SegmenterFunc) Segment(text string) []string { return f(text) }

// MarkSegmenter attaches every combining mark to the closest preceding base in the
// same text. A mark with no base becomes a cluster of its own.
type MarkSegmenter struct{}

func (MarkSegmenter) Segment(text string) []string {
	var (
		out     []string
		start   = -1
		hasBase bool
	)
	for i, r := range text {
		if isCombining(r) && hasBase {
			continue
		}
		if start >= 0 {
			out = append(out, text[start:i])
		}
		start = i
		hasBase = !isCombining(r)
	}
	if start >= 0 {
		out = append(out, text[start:])
	}
	return out
}

// GraphemeSegmenter splits on UAX #29 extended grapheme cluster boundaries.
type GraphemeSegmenter struct{}

func (GraphemeSegmenter) Segment(text string) []string {
	var out []string
	gr := uniseg.NewGraphemes(text)
	for gr.Next() {
		out = append(out, gr.Str())
	}
	return out
}

func isCombining(r rune) bool {
	return unicode.In(r, unicode.Mn, unicode.Mc, unicode.Me)
}

func segmenterFor(s Segmentation) Segmenter {
	if s == SegmentGraphemes {
		return GraphemeSegmenter{}
	}
	return MarkSegmenter{}
}

func normalize(form Normalization, s string) string {
	switch form {
	case NormalizeNFD:
		return norm.NFD.String(s)
	case NormalizeNone:
		return s
	default:
		return norm.NFC.String(s)
	}
}
