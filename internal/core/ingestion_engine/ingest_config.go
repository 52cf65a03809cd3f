package ingestion_engine

import (
	"time"

	"go.uber.org/zap"

	"github.com/markdave123-py/orthoscan/internal/core"
	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
)

// IngestConfig tunes the background pipeline.
//
// Workers:        number of goroutines draining the job queue.
// QueueSize:      capacity of the job queue; Enqueue waits while it is full.
// Engine:         exemplar engine options used for every project.
// ProcessTimeout: upper bound for fetching, extracting and analysing one project.
type IngestConfig struct {
	Workers        int
	QueueSize      int
	Engine         exemplars.Options
	ProcessTimeout time.Duration
}

func (c *IngestConfig) withDefaults() *IngestConfig {
	out := IngestConfig{}
	if c != nil {
		out = *c
	}
	if out.Workers <= 0 {
		out.Workers = 1
	}
	if out.QueueSize <= 0 {
		out.QueueSize = 64
	}
	if out.ProcessTimeout <= 0 {
		out.ProcessTimeout = 5 * time.Minute
	}
	return &out
}

// ProjectIngestor orchestrates the background analysis pipeline:
//
// db:        persistence for projects and analyses.
// obj:       object storage holding the uploaded bundles.
// extractor: turns a bundle into text fragments.
// cfg:       runtime tuning knobs for the pipeline.
// jobs:      in-memory queue of project IDs to process.
type ProjectIngestor struct {
	db        core.DbClient
	obj       core.ObjectClient
	extractor core.DocumentExtractor
	cfg       *IngestConfig
	log       *zap.Logger
	jobs      chan string
}

// ArchiveExtractor implements core.DocumentExtractor for DBL bundles and bare USX files.
type ArchiveExtractor struct {
	suffix string
	log    *zap.Logger
}

// DocconvExtractor implements core.DocumentExtractor using sajari/docconv.
type DocconvExtractor struct {
	useReadability bool
	log            *zap.Logger
}
