package models

import (
	"time"

	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
)

// Project statuses.
const (
	StatusUploaded   = "uploaded"
	StatusProcessing = "processing"
	StatusReady      = "ready"
	StatusFailed     = "failed"
)

// User represents an authenticated user of the system.
type User struct {
	ID           string    `db:"id" json:"id"`
	FirstName    string    `db:"first_name" json:"first_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Project is one uploaded text bundle (a DBL archive, a single USX file or any
// other document docconv can read).
type Project struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	FileName    string    `db:"file_name" json:"file_name"`
	StorageURL  string    `db:"storage_url" json:"storage_url"`
	SourceType  string    `db:"source_type" json:"source_type"` // "upload" or "url"
	ContentType string    `db:"content_type" json:"content_type"`
	Status      string    `db:"status" json:"status"` // uploaded | processing | ready | failed
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// Analysis is the stored result of running the exemplar engine over a project.
type Analysis struct {
	ID        string           `db:"id" json:"id"`
	ProjectID string           `db:"project_id" json:"project_id"`
	Report    exemplars.Report `db:"report" json:"report"`
	Profile   []float32        `db:"profile" json:"-"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// ExemplarRow is one ranked cluster of an analysis, stored for querying.
type ExemplarRow struct {
	AnalysisID string `db:"analysis_id" json:"analysis_id"`
	Rank       int    `db:"rank" json:"rank"`
	Cluster    string `db:"cluster" json:"cluster"`
	Class      string `db:"class" json:"class"`
	Count      int    `db:"count" json:"count"`
	FirstSeen  int    `db:"first_seen" json:"first_seen"`
}

// SimilarProject is a project ranked by profile distance to another.
type SimilarProject struct {
	Project  Project `json:"project"`
	Distance float64 `json:"distance"`
}

// RowsFor flattens a report into ranked rows.
func RowsFor(analysisID string, rep exemplars.Report) []ExemplarRow {
	rows := make([]ExemplarRow, len(rep.Entries))
	for i, e := range rep.Entries {
		rows[i] = ExemplarRow{
			AnalysisID: analysisID,
			Rank:       i + 1,
			Cluster:    e.Cluster,
			Class:      string(e.Class),
			Count:      e.Count,
			FirstSeen:  e.FirstSeen,
		}
	}
	return rows
}
