package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
	"github.com/markdave123-py/orthoscan/internal/models"
)

func reportOf(t *testing.T, fragments ...string) exemplars.Report {
	t.Helper()
	e := exemplars.New(exemplars.DefaultOptions())
	for _, f := range fragments {
		require.NoError(t, e.Ingest(f))
	}
	return e.Analyze()
}

func seedProject(t *testing.T, m *MemoryClient, id, userID string, created time.Time) {
	t.Helper()
	require.NoError(t, m.CreateProject(context.Background(), &models.Project{
		ID: id, UserID: userID, FileName: id + ".zip", Status: models.StatusUploaded, CreatedAt: created,
	}))
}

func TestMemoryClient_Users(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryClient()

	_, err := m.GetUserByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, m.CreateUser(ctx, &models.User{ID: "u1", Email: "A@example.com", PasswordHash: "h"}))
	assert.ErrorIs(t, m.CreateUser(ctx, &models.User{ID: "u2", Email: "a@example.com"}), ErrDuplicateEmail)

	u, err := m.GetUserByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestMemoryClient_ProjectLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryClient()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seedProject(t, m, "p1", "u1", base)
	seedProject(t, m, "p2", "u1", base.Add(time.Hour))
	seedProject(t, m, "p3", "u2", base)

	list, err := m.ListProjectsByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p2", list[0].ID)

	require.NoError(t, m.UpdateProjectStatus(ctx, "p1", models.StatusReady))
	p, err := m.GetProjectByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, p.Status)

	assert.ErrorIs(t, m.UpdateProjectStatus(ctx, "missing", models.StatusReady), ErrNotFound)

	require.NoError(t, m.SaveAnalysis(ctx, &models.Analysis{ID: "a1", ProjectID: "p1", Report: reportOf(t, "abc")}))
	require.NoError(t, m.DeleteProject(ctx, "p1"))

	_, err = m.GetProjectByID(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.GetLatestAnalysis(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, m.DeleteProject(ctx, "p1"), ErrNotFound)
}

func TestMemoryClient_LatestAnalysisWins(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryClient()
	seedProject(t, m, "p1", "u1", time.Time{})

	require.NoError(t, m.SaveAnalysis(ctx, &models.Analysis{ID: "a1", ProjectID: "p1", Report: reportOf(t, "ab")}))
	require.NoError(t, m.SaveAnalysis(ctx, &models.Analysis{ID: "a2", ProjectID: "p1", Report: reportOf(t, "xyz")}))

	a, err := m.GetLatestAnalysis(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "a2", a.ID)
	assert.Equal(t, []string{"x", "y", "z"}, a.Report.Clusters())

	assert.ErrorIs(t, m.SaveAnalysis(ctx, &models.Analysis{ID: "a3", ProjectID: "nope"}), ErrNotFound)
}

func TestMemoryClient_SearchSimilarProjects(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryClient()

	texts := map[string]string{
		"query": "abcabcabc",
		"near":  "abcabcabd",
		"far":   "xyzxyzxyz",
		"other": "abcabcabc",
	}
	for id, text := range texts {
		user := "u1"
		if id == "other" {
			user = "u2"
		}
		seedProject(t, m, id, user, time.Time{})
		rep := reportOf(t, text)
		require.NoError(t, m.SaveAnalysis(ctx, &models.Analysis{
			ID: "a-" + id, ProjectID: id, Report: rep, Profile: rep.Profile(exemplars.ProfileDim),
		}))
	}
	seedProject(t, m, "pending", "u1", time.Time{})

	q, err := m.GetLatestAnalysis(ctx, "query")
	require.NoError(t, err)

	got, err := m.SearchSimilarProjects(ctx, "u1", q.Profile, "query", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].Project.ID)
	assert.Equal(t, "far", got[1].Project.ID)
	assert.Less(t, got[0].Distance, got[1].Distance)

	got, err = m.SearchSimilarProjects(ctx, "u1", q.Profile, "query", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
