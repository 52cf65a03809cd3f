package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/markdave123-py/orthoscan/internal/core"
	"github.com/markdave123-py/orthoscan/internal/core/exemplars"
	"github.com/markdave123-py/orthoscan/internal/models"
)

var _ core.DbClient = (*MemoryClient)(nil)

var ErrDuplicateEmail = core.ErrDuplicateEmail

// MemoryClient is an in-process DbClient for local runs and tests.
// Stored values are copied in and out.
type MemoryClient struct {
	mu       sync.RWMutex
	users    map[string]models.User // by email
	projects map[string]models.Project
	analyses map[string][]models.Analysis // by project, oldest first
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		users:    make(map[string]models.User),
		projects: make(map[string]models.Project),
		analyses: make(map[string][]models.Analysis),
	}
}

func (m *MemoryClient) Close() error { return nil }

func (m *MemoryClient) CreateUser(_ context.Context, user *models.User) error {
	if user == nil {
		return errors.New("nil user")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.ToLower(user.Email)
	if _, ok := m.users[key]; ok {
		return ErrDuplicateEmail
	}
	stamp(&user.CreatedAt)
	stamp(&user.UpdatedAt)
	m.users[key] = *user
	return nil
}

func (m *MemoryClient) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryClient) CreateProject(_ context.Context, p *models.Project) error {
	if p == nil {
		return errors.New("nil project")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[p.ID]; ok {
		return fmt.Errorf("project %s already exists", p.ID)
	}
	stamp(&p.CreatedAt)
	stamp(&p.UpdatedAt)
	m.projects[p.ID] = *p
	return nil
}

func (m *MemoryClient) GetProjectByID(_ context.Context, id string) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// ListProjectsByUser returns the user's projects, newest first.
func (m *MemoryClient) ListProjectsByUser(_ context.Context, userID string) ([]models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Project
	for _, p := range m.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemoryClient) UpdateProjectStatus(_ context.Context, id string, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.projects[id]
	if !ok {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	p.Status = status
	p.UpdatedAt = time.Now().UTC()
	m.projects[id] = p
	return nil
}

func (m *MemoryClient) DeleteProject(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[id]; !ok {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	delete(m.projects, id)
	delete(m.analyses, id)
	return nil
}

func (m *MemoryClient) SaveAnalysis(_ context.Context, a *models.Analysis) error {
	if a == nil {
		return errors.New("nil analysis")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.projects[a.ProjectID]; !ok {
		return fmt.Errorf("project %s: %w", a.ProjectID, ErrNotFound)
	}
	stamp(&a.CreatedAt)
	cp := *a
	cp.Profile = append([]float32(nil), a.Profile...)
	m.analyses[a.ProjectID] = append(m.analyses[a.ProjectID], cp)
	return nil
}

func (m *MemoryClient) GetLatestAnalysis(_ context.Context, projectID string) (*models.Analysis, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := m.analyses[projectID]
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	a := list[len(list)-1]
	return &a, nil
}

func (m *MemoryClient) SearchSimilarProjects(_ context.Context, userID string, profile []float32, excludeID string, limit int) ([]models.SimilarProject, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.SimilarProject
	for id, list := range m.analyses {
		if id == excludeID || len(list) == 0 {
			continue
		}
		p := m.projects[id]
		if p.UserID != userID {
			continue
		}
		d := exemplars.CosineDistance(profile, list[len(list)-1].Profile)
		out = append(out, models.SimilarProject{Project: p, Distance: d})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Project.ID < out[j].Project.ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
