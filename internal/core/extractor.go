package core

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// DocumentExtractor turns a document into a stream of text fragments.
type DocumentExtractor interface {
	// ExtractText starts extraction on g and returns a channel of fragments in
	// document order. The channel is closed when extraction ends; extraction errors
	// surface through g.Wait. Calling it again on the same data replays the stream.
	// The `contentType` hint helps the extractor choose the right parsing strategy.
	ExtractText(ctx context.Context, g *errgroup.Group, data []byte, contentType string) (<-chan string, error)
}

// FragmentSink consumes fragments one at a time, from a single goroutine.
type FragmentSink interface {
	Ingest(fragment string) error
}
