package ingestion_engine

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	db "github.com/markdave123-py/orthoscan/internal/core/database"
	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
	objectclient "github.com/markdave123-py/orthoscan/internal/core/object-client"
	"github.com/markdave123-py/orthoscan/internal/models"
)

type pipelineFixture struct {
	db  *db.MemoryClient
	obj *objectclient.MemoryStorage
	ing *ProjectIngestor
}

func newFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{db: db.NewMemoryClient(), obj: objectclient.NewMemoryStorage()}
	ex := NewRoutingExtractor(NewArchiveExtractor("", nil), &fakeExtractor{})
	f.ing = NewProjectIngestor(f.db, f.obj, ex, &IngestConfig{Engine: exemplars.DefaultOptions()}, zap.NewNop())
	return f
}

func (f *pipelineFixture) upload(t *testing.T, id string, data []byte, contentType string) {
	t.Helper()
	ctx := context.Background()
	url, err := f.obj.UploadFile(ctx, "bucket", "users/u1/projects/"+id+"/file", bytes.NewReader(data), contentType)
	require.NoError(t, err)
	require.NoError(t, f.db.CreateProject(ctx, &models.Project{
		ID: id, UserID: "u1", FileName: "file", StorageURL: url,
		SourceType: "upload", ContentType: contentType, Status: models.StatusUploaded,
	}))
}

func (f *pipelineFixture) status(t *testing.T, id string) string {
	t.Helper()
	p, err := f.db.GetProjectByID(context.Background(), id)
	require.NoError(t, err)
	return p.Status
}

func TestProjectIngestor_ProcessOne(t *testing.T) {
	ctx := context.Background()

	t.Run("ready", func(t *testing.T) {
		f := newFixture(t)
		f.upload(t, "p1", buildZip(t, zipEntry{"GEN.usx", `<usx><para>aab</para></usx>`}), ContentTypeArchive)

		require.NoError(t, f.ing.ProcessOne(ctx, "p1"))
		assert.Equal(t, models.StatusReady, f.status(t, "p1"))

		a, err := f.db.GetLatestAnalysis(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, a.Report.Clusters())
		assert.Len(t, a.Profile, exemplars.ProfileDim)
		assert.NotEmpty(t, a.ID)
	})

	t.Run("failed", func(t *testing.T) {
		f := newFixture(t)
		f.upload(t, "p2", []byte("garbage"), ContentTypeArchive)

		require.Error(t, f.ing.ProcessOne(ctx, "p2"))
		assert.Equal(t, models.StatusFailed, f.status(t, "p2"))

		_, err := f.db.GetLatestAnalysis(ctx, "p2")
		assert.ErrorIs(t, err, db.ErrNotFound)
	})

	t.Run("missing project", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.ing.ProcessOne(ctx, "nope"), ErrProjectNotFound)
	})
}

func TestProjectIngestor_Workers(t *testing.T) {
	f := newFixture(t)
	f.upload(t, "p1", []byte(`<usx><para>xyz</para></usx>`), ContentTypeUSX)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.ing.Start(ctx, 2)
	require.NoError(t, f.ing.Enqueue(ctx, "p1"))

	assert.Eventually(t, func() bool {
		p, err := f.db.GetProjectByID(context.Background(), "p1")
		return err == nil && p.Status == models.StatusReady
	}, 2*time.Second, 10*time.Millisecond)
}

func TestProjectIngestor_EnqueueFullQueue(t *testing.T) {
	ing := NewProjectIngestor(db.NewMemoryClient(), objectclient.NewMemoryStorage(), &fakeExtractor{}, &IngestConfig{QueueSize: 1}, nil)
	require.NoError(t, ing.Enqueue(context.Background(), "p1"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := ing.Enqueue(ctx, "p2")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Len(t, ing.jobs, 1)
}
