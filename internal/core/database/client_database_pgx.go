package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/orthoscan/internal/config"
	"github.com/markdave123-py/orthoscan/internal/core"
	"github.com/markdave123-py/orthoscan/internal/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = core.ErrNotFound

var _ core.DbClient = (*DatabaseClient)(nil)

type DatabaseClient struct {
	db  *sql.DB
	log *zap.Logger
}

// dsnFor appends the TLS parameters to DATABASE_URL when a CA certificate is configured.
func dsnFor(cfg *config.Config) (string, error) {
	if cfg.SslCertPath == "" {
		return cfg.DatabaseURL, nil
	}
	if _, err := os.Stat(cfg.SslCertPath); err != nil {
		return "", fmt.Errorf("ssl cert not accessible at %q: %w", cfg.SslCertPath, err)
	}

	u, err := url.Parse(cfg.DatabaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid DATABASE_URL: %w", err)
	}
	q := u.Query()
	q.Set("sslmode", "verify-ca")
	q.Set("sslrootcert", cfg.SslCertPath)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config, log *zap.Logger) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}
	if log == nil {
		log = zap.NewNop()
	}

	dsn, err := dsnFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(pingCtx, db, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db, log: log.Named("db")}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func stamp(t *time.Time) time.Time {
	if t.IsZero() {
		*t = time.Now().UTC()
	}
	return *t
}

// uniqueViolation is the SQLSTATE for a unique constraint failure.
const uniqueViolation = "23505"

// badID reports ids the uuid columns would reject; those can match no row.
func badID(id string) bool {
	_, err := uuid.Parse(id)
	return err != nil
}

// Users

func (c *DatabaseClient) CreateUser(ctx context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	const q = `
		INSERT INTO users (id, first_name, email, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := c.db.ExecContext(ctx, q,
		user.ID, user.FirstName, user.Email, user.PasswordHash, stamp(&user.CreatedAt), stamp(&user.UpdatedAt))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateEmail
	}
	return err
}

func (c *DatabaseClient) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const q = `
		SELECT id, first_name, email, password_hash, created_at, updated_at
		FROM users WHERE email = $1
	`
	var u models.User
	err := c.db.QueryRowContext(ctx, q, email).Scan(
		&u.ID, &u.FirstName, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Projects

func (c *DatabaseClient) CreateProject(ctx context.Context, p *models.Project) error {
	if p == nil {
		return errors.New("nil project")
	}
	const q = `
		INSERT INTO projects
			(id, user_id, file_name, storage_url, source_type, content_type, status, created_at, updated_at)
		VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := c.db.ExecContext(ctx, q,
		p.ID, p.UserID, p.FileName, p.StorageURL, p.SourceType, p.ContentType, p.Status,
		stamp(&p.CreatedAt), stamp(&p.UpdatedAt))
	return err
}

func (c *DatabaseClient) GetProjectByID(ctx context.Context, id string) (*models.Project, error) {
	const q = `
		SELECT id, user_id, file_name, storage_url, source_type, content_type, status, created_at, updated_at
		FROM projects
		WHERE id = $1
	`
	if badID(id) {
		return nil, ErrNotFound
	}
	var p models.Project
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&p.ID, &p.UserID, &p.FileName, &p.StorageURL, &p.SourceType, &p.ContentType, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *DatabaseClient) ListProjectsByUser(ctx context.Context, userID string) ([]models.Project, error) {
	const q = `
		SELECT id, user_id, file_name, storage_url, source_type, content_type, status, created_at, updated_at
		FROM projects
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Project
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.FileName, &p.StorageURL, &p.SourceType, &p.ContentType, &p.Status, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) UpdateProjectStatus(ctx context.Context, id string, status string) error {
	const q = `
		UPDATE projects
		SET status = $2, updated_at = now()
		WHERE id = $1
	`
	if badID(id) {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	res, err := c.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}

// DeleteProject removes the project; analyses and entries go with it (ON DELETE CASCADE).
func (c *DatabaseClient) DeleteProject(ctx context.Context, id string) error {
	if badID(id) {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	res, err := c.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}

// Analyses

// SaveAnalysis inserts the analysis row and its ranked entries in a single transaction.
func (c *DatabaseClient) SaveAnalysis(ctx context.Context, a *models.Analysis) error {
	if a == nil {
		return errors.New("nil analysis")
	}
	report, err := json.Marshal(a.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const qa = `
		INSERT INTO analyses (id, project_id, report, profile, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, qa,
		a.ID, a.ProjectID, report, pgvector.NewVector(a.Profile), stamp(&a.CreatedAt),
	); err != nil {
		_ = tx.Rollback()
		return err
	}

	const qe = `
		INSERT INTO exemplar_entries
			(analysis_id, rank, cluster, class, count, first_seen)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	stmt, err := tx.PrepareContext(ctx, qe)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	rows := models.RowsFor(a.ID, a.Report)
	for i := range rows {
		r := &rows[i]
		if _, err := stmt.ExecContext(ctx,
			r.AnalysisID, r.Rank, r.Cluster, r.Class, r.Count, r.FirstSeen,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	c.log.Debug("analysis saved",
		zap.String("analysis_id", a.ID),
		zap.String("project_id", a.ProjectID),
		zap.Int("entries", len(rows)),
	)
	return nil
}

func (c *DatabaseClient) GetLatestAnalysis(ctx context.Context, projectID string) (*models.Analysis, error) {
	const q = `
		SELECT id, project_id, report, profile, created_at
		FROM analyses
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	if badID(projectID) {
		return nil, ErrNotFound
	}
	var (
		a      models.Analysis
		report []byte
		prof   pgvector.Vector
	)
	err := c.db.QueryRowContext(ctx, q, projectID).Scan(&a.ID, &a.ProjectID, &report, &prof, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(report, &a.Report); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	a.Profile = prof.Slice()
	return &a, nil
}

// SearchSimilarProjects ranks the user's projects by cosine distance between their
// latest analysis profile and the query profile.
func (c *DatabaseClient) SearchSimilarProjects(ctx context.Context, userID string, profile []float32, excludeID string, limit int) ([]models.SimilarProject, error) {
	const q = `
		SELECT p.id, p.user_id, p.file_name, p.storage_url, p.source_type, p.content_type,
		       p.status, p.created_at, p.updated_at, a.profile <=> $2 AS distance
		FROM projects p
		JOIN LATERAL (
			SELECT profile FROM analyses
			WHERE project_id = p.id
			ORDER BY created_at DESC
			LIMIT 1
		) a ON true
		WHERE p.user_id = $1 AND p.id::text <> $3
		ORDER BY distance ASC
		LIMIT $4
	`
	rows, err := c.db.QueryContext(ctx, q, userID, pgvector.NewVector(profile), excludeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SimilarProject
	for rows.Next() {
		var s models.SimilarProject
		p := &s.Project
		if err := rows.Scan(
			&p.ID, &p.UserID, &p.FileName, &p.StorageURL, &p.SourceType, &p.ContentType,
			&p.Status, &p.CreatedAt, &p.UpdatedAt, &s.Distance,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
