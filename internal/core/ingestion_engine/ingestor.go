package ingestion_engine

import "context"

type Ingestor interface {
	Start(ctx context.Context, numWorkers int)
	Enqueue(ctx context.Context, projectID string) error
	ProcessOne(ctx context.Context, projectID string) error
}
