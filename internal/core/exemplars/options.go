package exemplars

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownOption is wrapped by every option parsing and validation error.
var ErrUnknownOption = errors.New("unknown option value")

// Normalization selects the Unicode normalization form applied to every fragment
// before segmentation. With NFC or NFD, canonically equivalent spellings such as
// "\u00e9" and "e\u0301" count as one cluster. NormalizeNone compares raw code
// points and gives that up: the two spellings become separate clusters.
type Normalization string

const (
	NormalizeNFC  Normalization = "NFC"
	NormalizeNFD  Normalization = "NFD"
	NormalizeNone Normalization = "none"
)

// Segmentation selects how a normalized fragment is split into clusters.
//
// marks:     one base code point plus the combining marks (Mn, Mc, Me) that follow it.
// graphemes: UAX #29 extended grapheme clusters.
type Segmentation string

const (
	SegmentMarks     Segmentation = "marks"
	SegmentGraphemes Segmentation = "graphemes"
)

// Ranking selects the order of entries in a report.
//
// frequency:  count descending, first-seen ascending.
// first-seen: order of first appearance.
// codepoint:  cluster string ascending, first-seen ascending.
type Ranking string

const (
	RankFrequency Ranking = "frequency"
	RankFirstSeen Ranking = "first-seen"
	RankCodepoint Ranking = "codepoint"
)

// Options tunes an Engine.
//
// MinCount: clusters seen fewer times are left out of reports (values < 1 mean 1).
type Options struct {
	Normalization Normalization
	Segmentation  Segmentation
	Ranking       Ranking
	MinCount      int
}

// DefaultOptions returns NFC, mark-based segmentation, frequency ranking and no
// frequency threshold.
func DefaultOptions() Options {
	return Options{
		Normalization: NormalizeNFC,
		Segmentation:  SegmentMarks,
		Ranking:       RankFrequency,
		MinCount:      1,
	}
}

// withDefaults fills zero fields from DefaultOptions.
func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.Normalization == "" {
		o.Normalization = def.Normalization
	}
	if o.Segmentation == "" {
		o.Segmentation = def.Segmentation
	}
	if o.Ranking == "" {
		o.Ranking = def.Ranking
	}
	if o.MinCount < 1 {
		o.MinCount = 1
	}
	return o
}

// Validate reports the first unknown option value.
func (o Options) Validate() error {
	o = o.withDefaults()
	switch o.Normalization {
	case NormalizeNFC, NormalizeNFD, NormalizeNone:
	default:
		return fmt.Errorf("%w: normalization %q", ErrUnknownOption, o.Normalization)
	}
	switch o.Segmentation {
	case SegmentMarks, SegmentGraphemes:
	default:
		return fmt.Errorf("%w: segmentation %q", ErrUnknownOption, o.Segmentation)
	}
	switch o.Ranking {
	case RankFrequency, RankFirstSeen, RankCodepoint:
	default:
		return fmt.Errorf("%w: ranking %q", ErrUnknownOption, o.Ranking)
	}
	return nil
}

// ParseNormalization accepts the form names case-insensitively.
func ParseNormalization(s string) (Normalization, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nfc":
		return NormalizeNFC, nil
	case "nfd":
		return NormalizeNFD, nil
	case "none", "off":
		return NormalizeNone, nil
	}
	return "", fmt.Errorf("%w: normalization %q", ErrUnknownOption, s)
}

func ParseSegmentation(s string) (Segmentation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "marks", "mark":
		return SegmentMarks, nil
	case "graphemes", "grapheme":
		return SegmentGraphemes, nil
	}
	return "", fmt.Errorf("%w: segmentation %q", ErrUnknownOption, s)
}

func ParseRanking(s string) (Ranking, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "frequency", "freq":
		return RankFrequency, nil
	case "first-seen", "firstseen", "first_seen":
		return RankFirstSeen, nil
	case "codepoint", "code-point":
		return RankCodepoint, nil
	}
	return "", fmt.Errorf("%w: ranking %q", ErrUnknownOption, s)
}

// ParseOptions builds Options from their textual names, as found in flags,
// environment variables and query strings.
func ParseOptions(normalization, segmentation, ranking string, minCount int) (Options, error) {
	n, err := ParseNormalization(normalization)
	if err != nil {
		return Options{}, err
	}
	sg, err := ParseSegmentation(segmentation)
	if err != nil {
		return Options{}, err
	}
	r, err := ParseRanking(ranking)
	if err != nil {
		return Options{}, err
	}
	if minCount < 0 {
		return Options{}, fmt.Errorf("%w: min count %d", ErrUnknownOption, minCount)
	}
	return Options{Normalization: n, Segmentation: sg, Ranking: r, MinCount: minCount}.withDefaults(), nil
}
