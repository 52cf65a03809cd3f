package ingestion_engine

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/orthoscan/internal/core"
)

var _ core.DocumentExtractor = (*DocconvExtractor)(nil)

func NewDocconvExtractor(useReadability bool, log *zap.Logger) *DocconvExtractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &DocconvExtractor{useReadability: useReadability, log: log}
}

// ExtractText uses docconv to extract text from the given bytes based on content type.
// Every non-empty line of the converted body becomes one fragment.
func (e *DocconvExtractor) ExtractText(ctx context.Context, g *errgroup.Group, data []byte, contentType string) (<-chan string, error) {
	out := make(chan string, 32)

	g.Go(func() error {
		defer close(out)

		res, err := docconv.Convert(bytes.NewReader(data), contentType, e.useReadability)
		if err != nil {
			return fmt.Errorf("docconv: extraction failed for content type %q: %w", contentType, err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if res.Body == "" {
			e.log.Warn("docconv: extracted empty text", zap.String("content_type", contentType))
			return nil
		}

		for _, line := range strings.Split(res.Body, "\n") {
			if line = strings.TrimSpace(line); line == "" {
				continue
			}
			select {
			case out <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	return out, nil
}
