package ingestion_engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/orthoscan/internal/core"
	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
	objectclient "github.com/markdave123-py/orthoscan/internal/core/object-client"
	"github.com/markdave123-py/orthoscan/internal/models"
)

var _ Ingestor = (*ProjectIngestor)(nil)

// ErrProjectNotFound is returned when a queued project no longer exists.
var ErrProjectNotFound = errors.New("project not found")

// NewProjectIngestor constructs the ingestor with a bounded job queue.
func NewProjectIngestor(db core.DbClient, obj core.ObjectClient, extractor core.DocumentExtractor, cfg *IngestConfig, log *zap.Logger) *ProjectIngestor {
	cfg = cfg.withDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &ProjectIngestor{
		db: db, obj: obj, extractor: extractor, cfg: cfg,
		log:  log.Named("ingestor"),
		jobs: make(chan string, cfg.QueueSize),
	}
}

// Start runs numWorkers goroutines reading from the jobs channel (the configured
// worker count when numWorkers <= 0). Workers stop when ctx is done.
func (i *ProjectIngestor) Start(ctx context.Context, numWorkers int) {
	if numWorkers <= 0 {
		numWorkers = i.cfg.Workers
	}
	for w := 1; w <= numWorkers; w++ {
		go func(w int) {
			for {
				select {
				case <-ctx.Done():
					i.log.Debug("worker shutting down", zap.Int("worker", w))
					return
				case projectID := <-i.jobs:
					i.log.Info("processing project", zap.String("project_id", projectID), zap.Int("worker", w))

					if err := i.ProcessOne(ctx, projectID); err != nil {
						i.log.Error("processing failed", zap.String("project_id", projectID), zap.Error(err))
					}
				}
			}
		}(w)
	}
}

// Enqueue schedules a project ID for analysis. If the queue is full it waits for
// space until ctx is done.
func (i *ProjectIngestor) Enqueue(ctx context.Context, projectID string) error {
	select {
	case i.jobs <- projectID:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("enqueue %s: %w", projectID, ctx.Err())
	}
}

// ProcessOne fetches, extracts, analyses and persists a single project. The project
// ends in status ready on success and failed otherwise.
func (i *ProjectIngestor) ProcessOne(ctx context.Context, projectID string) error {
	proctx, cancel := context.WithTimeout(ctx, i.cfg.ProcessTimeout)
	defer cancel()

	p, err := i.db.GetProjectByID(proctx, projectID)
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
	}
	if err != nil {
		return fmt.Errorf("load project %s: %w", projectID, err)
	}

	if err := i.db.UpdateProjectStatus(proctx, projectID, models.StatusProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	if err := i.analyze(proctx, p); err != nil {
		// The processing context may be the one that expired; record the failure anyway.
		statusCtx, cancelStatus := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancelStatus()
		_ = i.db.UpdateProjectStatus(statusCtx, projectID, models.StatusFailed)
		return err
	}

	return i.db.UpdateProjectStatus(proctx, projectID, models.StatusReady)
}

func (i *ProjectIngestor) analyze(ctx context.Context, p *models.Project) error {
	bucket, key := objectclient.ParseS3URL(p.StorageURL)

	data, err := i.obj.GetFile(ctx, bucket, key)
	if err != nil {
		return fmt.Errorf("get object: %w", err)
	}

	eng := exemplars.New(i.cfg.Engine)
	rep, err := AnalyzeDocument(ctx, i.extractor, data, p.ContentType, eng, i.log.With(zap.String("project_id", p.ID)))
	if err != nil {
		return fmt.Errorf("analyze: %w", err)
	}

	a := &models.Analysis{
		ID:        uuid.NewString(),
		ProjectID: p.ID,
		Report:    rep,
		Profile:   rep.Profile(exemplars.ProfileDim),
		CreatedAt: time.Now().UTC(),
	}
	if err := i.db.SaveAnalysis(ctx, a); err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}
