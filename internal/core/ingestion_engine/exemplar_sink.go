package ingestion_engine

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/markdave123-py/orthoscan/internal/core"
	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
)

// sinkStats counts what was done with the stream.
type sinkStats struct {
	Fragments int
	Skipped   int
}

// ingest hands one fragment to sink. Fragments the sink rejects as invalid input
// are skipped and counted; any other error is returned.
func (st *sinkStats) ingest(sink core.FragmentSink, frag string, log *zap.Logger) error {
	if err := sink.Ingest(frag); err != nil {
		if errors.Is(err, exemplars.ErrInvalidInput) {
			st.Skipped++
			log.Warn("skipping fragment", zap.Error(err), zap.Int("fragment", st.Fragments+st.Skipped))
			return nil
		}
		return err
	}
	st.Fragments++
	return nil
}

// feedSink drains frags into sink in arrival order. It must be the only goroutine
// calling sink.
func feedSink(ctx context.Context, sink core.FragmentSink, frags <-chan string, log *zap.Logger) (sinkStats, error) {
	var st sinkStats
	for frag := range frags {
		// Cancel early if another stage failed.
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		default:
		}
		if err := st.ingest(sink, frag, log); err != nil {
			return st, err
		}
	}
	return st, nil
}

// fragmentBuffer holds a run's fragments until every stage has succeeded.
type fragmentBuffer []string

func (b *fragmentBuffer) Ingest(frag string) error {
	*b = append(*b, frag)
	return nil
}

// replay feeds buffered fragments to sink in order.
func (b fragmentBuffer) replay(sink core.FragmentSink, log *zap.Logger) (sinkStats, error) {
	var st sinkStats
	for _, frag := range b {
		if err := st.ingest(sink, frag, log); err != nil {
			return st, err
		}
	}
	return st, nil
}
