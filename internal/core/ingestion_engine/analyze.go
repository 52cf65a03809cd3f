package ingestion_engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/orthoscan/internal/core"
	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
)

// AnalyzeDocument runs extractor over data and returns eng's report. Fragments are
// buffered until extraction has finished, then fed to eng from the calling
// goroutine, so a failed run leaves eng exactly as it was.
func AnalyzeDocument(
	ctx context.Context,
	extractor core.DocumentExtractor,
	data []byte,
	contentType string,
	eng *exemplars.Engine,
	log *zap.Logger,
) (exemplars.Report, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// Build an errgroup to tie the pipeline stages together.
	g, gctx := errgroup.WithContext(ctx)

	// document -> fragments (receive-only channel).
	fragCh, err := extractor.ExtractText(gctx, g, data, contentType)
	if err != nil {
		_ = g.Wait()
		return exemplars.Report{}, fmt.Errorf("extract: %w", err)
	}

	// fragments -> buffer.
	var buf fragmentBuffer
	g.Go(func() error {
		_, err := feedSink(gctx, &buf, fragCh, log)
		return err
	})

	// Wait for all stages. Any error cancels the rest and drops the buffer.
	if err := g.Wait(); err != nil {
		return exemplars.Report{}, err
	}

	// buffer -> engine.
	stats, err := buf.replay(eng, log)
	if err != nil {
		return exemplars.Report{}, err
	}

	rep := eng.Analyze()
	log.Info("analysis complete",
		zap.String("content_type", contentType),
		zap.Int("fragments", stats.Fragments),
		zap.Int("skipped", stats.Skipped),
		zap.Int("clusters", rep.TotalClusters),
		zap.Int("distinct", rep.Distinct),
	)
	return rep, nil
}
