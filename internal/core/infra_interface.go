package core

import (
	"context"
	"io"

	"github.com/markdave123-py/orthoscan/internal/models"
)

// DbClient defines all persistence operations the services need.
// It abstracts Postgres/pgvector so higher layers never depend on a specific DB.
type DbClient interface {
	CreateUser(ctx context.Context, user *models.User) (err error)
	GetUserByEmail(ctx context.Context, email string) (user *models.User, err error)

	CreateProject(ctx context.Context, p *models.Project) error
	GetProjectByID(ctx context.Context, id string) (*models.Project, error)
	ListProjectsByUser(ctx context.Context, userID string) ([]models.Project, error)
	UpdateProjectStatus(ctx context.Context, id string, status string) error
	DeleteProject(ctx context.Context, id string) error

	// SaveAnalysis stores the analysis and its ranked rows in one transaction.
	SaveAnalysis(ctx context.Context, a *models.Analysis) error
	GetLatestAnalysis(ctx context.Context, projectID string) (*models.Analysis, error)
	SearchSimilarProjects(ctx context.Context, userID string, profile []float32, excludeID string, limit int) ([]models.SimilarProject, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any object storage.
type ObjectClient interface {
	UploadFile(ctx context.Context, bucket, key string, data io.Reader, contentType string) (url string, err error)
	DeleteFile(ctx context.Context, bucket, key string) error
	GetFile(ctx context.Context, bucket, key string) ([]byte, error)

	GetObjectReader(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}
