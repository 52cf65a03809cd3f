// Package exemplars finds the exemplar characters of a text corpus: the distinct
// grapheme clusters it uses, how often each occurs, and its Unicode class.
//
// An Engine is fed one text fragment at a time with Ingest and summarised with
// Analyze. Engines are not safe for concurrent use; a single producer is expected
// to call Ingest sequentially.
package exemplars

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ErrInvalidInput is returned by Ingest for fragments that are not valid UTF-8.
var ErrInvalidInput = errors.New("exemplars: fragment is not valid UTF-8")

// State is the lifecycle position of an Engine.
type State int

const (
	StateIdle State = iota
	StateIngesting
	StateAnalyzed
)

func (s State) String() string {
	switch s {
	case StateIngesting:
		return "ingesting"
	case StateAnalyzed:
		return "analyzed"
	default:
		return "idle"
	}
}

// Engine accumulates clusters across fragments and ranks them on demand.
// Ingesting after Analyze is allowed; the next Analyze covers every fragment so far.
type Engine struct {
	opts      Options
	segmenter Segmenter
	acc       *Accumulator
	state     State
}

// New builds an engine. Zero option fields take their defaults.
func New(opts Options) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		opts:      opts,
		segmenter: segmenterFor(opts.Segmentation),
		acc:       newAccumulator(),
	}
}

// NewWithSegmenter builds an engine around a custom segmenter.
func NewWithSegmenter(opts Options, seg Segmenter) *Engine {
	e := New(opts)
	if seg != nil {
		e.segmenter = seg
	}
	return e
}

// Ingest folds one fragment into the accumulator. Surrounding whitespace is trimmed
// and an empty result is a no-op. Invalid UTF-8 is rejected before anything changes.
func (e *Engine) Ingest(fragment string) error {
	if !utf8.ValidString(fragment) {
		return ErrInvalidInput
	}
	text := strings.TrimSpace(fragment)
	if text == "" {
		return nil
	}
	clusters := e.segmenter.Segment(normalize(e.opts.Normalization, text))
	if len(clusters) == 0 {
		return nil
	}
	e.acc.addFragment(clusters)
	e.state = StateIngesting
	return nil
}

// Analyze ranks every cluster seen so far. It does not change the counts, so two
// calls without ingestion in between return equal reports.
func (e *Engine) Analyze() Report {
	rep := buildReport(e.acc, e.opts)
	e.state = StateAnalyzed
	return rep
}

// Reset drops all accumulated state.
func (e *Engine) Reset() {
	e.acc = newAccumulator()
	e.state = StateIdle
}

func (e *Engine) Options() Options { return e.opts }

func (e *Engine) State() State { return e.state }

func (e *Engine) Counts() map[string]int { return e.acc.Counts() }

// Count returns the occurrences of cluster, normalized the same way fragments are.
func (e *Engine) Count(cluster string) int {
	return e.acc.Count(normalize(e.opts.Normalization, cluster))
}

func (e *Engine) TotalFragments() int { return e.acc.TotalFragments() }

func (e *Engine) TotalClusters() int { return e.acc.TotalClusters() }

func (e *Engine) Distinct() int { return e.acc.Distinct() }
