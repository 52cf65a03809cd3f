package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/markdave123-py/orthoscan/internal/config"
	"github.com/markdave123-py/orthoscan/internal/core"
	db "github.com/markdave123-py/orthoscan/internal/core/database"
	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
	"github.com/markdave123-py/orthoscan/internal/core/ingestion_engine"
	objectclient "github.com/markdave123-py/orthoscan/internal/core/object-client"
	"github.com/markdave123-py/orthoscan/internal/services"
)

type App struct {
	Config       *config.Config
	DBClient     core.DbClient
	ObjectClient core.ObjectClient
	Ingestor     *ingestion_engine.ProjectIngestor
	Server       *Server

	log *zap.Logger
}

// NewApp connects storage (Postgres and S3, or in-memory when STORAGE_MODE=memory)
// and wires the services and HTTP server.
func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}
	engineOpts, err := exemplars.ParseOptions(cfg.Normalization, cfg.Segmentation, cfg.Ranking, cfg.MinCount)
	if err != nil {
		return nil, fmt.Errorf("engine options: %w", err)
	}

	a := &App{Config: cfg, log: log}
	if err := a.connect(ctx); err != nil {
		return nil, err
	}

	extractor := ingestion_engine.NewRoutingExtractor(
		ingestion_engine.NewArchiveExtractor(cfg.USXSuffix, log.Named("usx")),
		ingestion_engine.NewDocconvExtractor(false, log.Named("docconv")),
	)

	a.Ingestor = ingestion_engine.NewProjectIngestor(a.DBClient, a.ObjectClient, extractor, &ingestion_engine.IngestConfig{
		Workers: cfg.Workers,
		Engine:  engineOpts,
	}, log)

	users := services.NewUserService(a.DBClient)
	projects := services.NewProjectService(a.DBClient, a.ObjectClient, extractor, cfg.BucketName, log)

	a.Server = NewServer(cfg, log, Deps{
		Users:    users,
		Projects: projects,
		Ingestor: a.Ingestor,
		Engine:   engineOpts,
	})
	return a, nil
}

func (a *App) connect(ctx context.Context) error {
	if a.Config.StorageMode == config.StorageMemory {
		a.DBClient = db.NewMemoryClient()
		a.ObjectClient = objectclient.NewMemoryStorage()
		a.log.Warn("using in-memory storage; data is lost on restart")
		return nil
	}

	dbClient, err := db.NewDatabaseClient(ctx, a.Config, a.log)
	if err != nil {
		return err
	}
	a.log.Info("database initialized and ready")

	objClient, err := objectclient.NewS3Client(ctx, a.Config, a.log.Named("s3"))
	if err != nil {
		_ = dbClient.Close()
		return err
	}
	a.log.Info("object client initialized and ready", zap.String("bucket", a.Config.BucketName))

	a.DBClient, a.ObjectClient = dbClient, objClient
	return nil
}

// StartWorkers launches the background analysis workers; they stop with ctx.
func (a *App) StartWorkers(ctx context.Context) {
	a.Ingestor.Start(ctx, a.Config.Workers)
}

func (a *App) Close() {
	if a.DBClient != nil {
		_ = a.DBClient.Close()
	}
}
