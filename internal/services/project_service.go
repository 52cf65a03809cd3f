package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markdave123-py/orthoscan/internal/core"
	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
	"github.com/markdave123-py/orthoscan/internal/core/ingestion_engine"
	objectclient "github.com/markdave123-py/orthoscan/internal/core/object-client"
	"github.com/markdave123-py/orthoscan/internal/models"
)

var (
	// ErrForbidden is returned when a user touches another user's project.
	ErrForbidden = errors.New("project belongs to another user")
	// ErrNotReady is returned while a project has no analysis yet.
	ErrNotReady = errors.New("analysis not ready")
	// ErrAnalysisFailed is returned for projects whose analysis failed.
	ErrAnalysisFailed = errors.New("analysis failed")
)

const (
	DefaultSimilarLimit = 5
	MaxSimilarLimit     = 50
)

type ProjectService struct {
	db        core.DbClient
	storage   core.ObjectClient
	extractor core.DocumentExtractor
	bucket    string
	log       *zap.Logger
}

func NewProjectService(db core.DbClient, storage core.ObjectClient, extractor core.DocumentExtractor, bucket string, log *zap.Logger) *ProjectService {
	if log == nil {
		log = zap.NewNop()
	}
	return &ProjectService{db: db, storage: storage, extractor: extractor, bucket: bucket, log: log.Named("projects")}
}

// ResolveContentType picks the extractor route for an upload. Bundle and USX file
// names win over whatever the client sent; otherwise a specific client content type
// is trusted and a generic one is replaced by a guess from the file name.
func ResolveContentType(filename, contentType string) string {
	switch guess := ingestion_engine.ContentTypeFor(filename); guess {
	case ingestion_engine.ContentTypeArchive, ingestion_engine.ContentTypeUSX:
		return guess
	}
	ct := strings.TrimSpace(contentType)
	if ct == "" || strings.HasPrefix(ct, "application/octet-stream") {
		return ingestion_engine.ContentTypeFor(filename)
	}
	return ct
}

// UploadAndCreate stores data under users/<uid>/projects/<pid>/<file> and records
// the project in status uploaded.
func (s *ProjectService) UploadAndCreate(ctx context.Context, userID, filename, contentType string, data io.Reader, sourceType string) (*models.Project, error) {
	projectID := uuid.NewString()
	clean := cleanFilename(filename)
	key := s.objectKey(userID, projectID, clean)
	contentType = ResolveContentType(clean, contentType)

	url, err := s.storage.UploadFile(ctx, s.bucket, key, data, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}

	now := time.Now().UTC()
	p := &models.Project{
		ID:          projectID,
		UserID:      userID,
		FileName:    clean,
		StorageURL:  url,
		SourceType:  sourceType,
		ContentType: contentType,
		Status:      models.StatusUploaded,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.CreateProject(ctx, p); err != nil {
		// Do not leave an orphaned object behind.
		if derr := s.storage.DeleteFile(context.WithoutCancel(ctx), s.bucket, key); derr != nil {
			s.log.Warn("orphaned upload", zap.String("key", key), zap.Error(derr))
		}
		return nil, fmt.Errorf("store project: %w", err)
	}
	return p, nil
}

// Get returns the project when userID owns it.
func (s *ProjectService) Get(ctx context.Context, userID, id string) (*models.Project, error) {
	p, err := s.db.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, ErrForbidden
	}
	return p, nil
}

func (s *ProjectService) ListByUser(ctx context.Context, userID string) ([]models.Project, error) {
	return s.db.ListProjectsByUser(ctx, userID)
}

// Delete removes the stored object and then the project row with its analyses.
func (s *ProjectService) Delete(ctx context.Context, userID, id string) error {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if bucket, key := objectclient.ParseS3URL(p.StorageURL); key != "" {
		if err := s.storage.DeleteFile(ctx, bucket, key); err != nil {
			return fmt.Errorf("delete object: %w", err)
		}
	}
	return s.db.DeleteProject(ctx, id)
}

// Analysis returns the latest analysis of an owned project.
func (s *ProjectService) Analysis(ctx context.Context, userID, id string) (*models.Analysis, error) {
	p, err := s.Get(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	a, err := s.db.GetLatestAnalysis(ctx, id)
	if errors.Is(err, core.ErrNotFound) {
		if p.Status == models.StatusFailed {
			return nil, ErrAnalysisFailed
		}
		return nil, fmt.Errorf("%w: project is %s", ErrNotReady, p.Status)
	}
	return a, err
}

// Similar ranks the user's other analysed projects by profile distance to id.
func (s *ProjectService) Similar(ctx context.Context, userID, id string, limit int) ([]models.SimilarProject, error) {
	switch {
	case limit <= 0:
		limit = DefaultSimilarLimit
	case limit > MaxSimilarLimit:
		limit = MaxSimilarLimit
	}
	a, err := s.Analysis(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return s.db.SearchSimilarProjects(ctx, userID, a.Profile, id, limit)
}

// AnalyzeNow runs the engine over data without storing anything.
func (s *ProjectService) AnalyzeNow(ctx context.Context, filename, contentType string, data []byte, opts exemplars.Options) (exemplars.Report, error) {
	if err := opts.Validate(); err != nil {
		return exemplars.Report{}, err
	}
	ct := ResolveContentType(cleanFilename(filename), contentType)
	return ingestion_engine.AnalyzeDocument(ctx, s.extractor, data, ct, exemplars.New(opts), s.log)
}

func cleanFilename(filename string) string {
	// Browsers on Windows may send full paths.
	filename = filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	filename = strings.ReplaceAll(strings.TrimSpace(filename), " ", "_")
	if filename == "" || filename == "." || filename == "/" {
		return "upload"
	}
	return filename
}

// objectKey creates a consistent S3 key layout.
func (s *ProjectService) objectKey(userID, projectID, filename string) string {
	return path.Join("users", userID, "projects", projectID, filename)
}
