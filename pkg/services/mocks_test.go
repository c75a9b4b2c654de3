package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gipoly/gipoly-engine/pkg/apperrors"
	"github.com/gipoly/gipoly-engine/pkg/auth"
	"github.com/gipoly/gipoly-engine/pkg/models"
	"github.com/gipoly/gipoly-engine/pkg/repositories"
)

// mockAnalysisRepository is an in-memory AnalysisRepository.
type mockAnalysisRepository struct {
	mu        sync.Mutex
	records   []*models.StoredAnalysis
	createErr error
	countErr  error
	clock     time.Time
}

func newMockAnalysisRepository() *mockAnalysisRepository {
	return &mockAnalysisRepository{clock: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

var _ repositories.AnalysisRepository = (*mockAnalysisRepository)(nil)

func (m *mockAnalysisRepository) CreateWithinLimit(_ context.Context, a *models.StoredAnalysis, limit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	if m.countLocked(a.WorkspaceID, a.Tool) >= limit {
		return apperrors.ErrLimitExceeded
	}
	m.clock = m.clock.Add(time.Second)
	a.CreatedAt = m.clock
	m.records = append(m.records, a)
	return nil
}

func (m *mockAnalysisRepository) CountByWorkspace(_ context.Context, workspaceID uuid.UUID, tool models.ToolKind) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.countErr != nil {
		return 0, m.countErr
	}
	return m.countLocked(workspaceID, tool), nil
}

func (m *mockAnalysisRepository) countLocked(workspaceID uuid.UUID, tool models.ToolKind) int {
	n := 0
	for _, r := range m.records {
		if r.WorkspaceID == workspaceID && r.Tool == tool {
			n++
		}
	}
	return n
}

func (m *mockAnalysisRepository) ListByWorkspace(_ context.Context, workspaceID uuid.UUID, tool models.ToolKind) ([]*models.StoredAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*models.StoredAnalysis
	for _, r := range m.records {
		if r.WorkspaceID == workspaceID && r.Tool == tool {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockAnalysisRepository) GetByID(_ context.Context, id, workspaceID uuid.UUID, tool models.ToolKind) (*models.StoredAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, r := range m.records {
		if r.ID == id && r.WorkspaceID == workspaceID && r.Tool == tool {
			return r, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockAnalysisRepository) Delete(_ context.Context, id, workspaceID uuid.UUID, tool models.ToolKind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.records {
		if r.ID == id && r.WorkspaceID == workspaceID && r.Tool == tool {
			m.records = append(m.records[:i], m.records[i+1:]...)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// mockPageFetcher returns a fixed page or error.
type mockPageFetcher struct {
	page *models.PageContent
	err  error
	urls []string
}

func (m *mockPageFetcher) Fetch(_ context.Context, url string) (*models.PageContent, error) {
	m.urls = append(m.urls, url)
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

// recordingObserver collects generation observations.
type recordingObserver struct {
	mu    sync.Mutex
	calls []observation
}

type observation struct {
	tool     string
	state    string
	fellBack bool
}

func (r *recordingObserver) ObserveGeneration(tool, state string, fellBack bool, _ float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, observation{tool: tool, state: state, fellBack: fellBack})
}

// workspaceContext returns a context carrying a caller and a resolved workspace.
func workspaceContext(workspaceID, userID uuid.UUID) context.Context {
	claims := &auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()}}
	ctx := auth.WithClaims(context.Background(), claims, "test-token")
	return auth.WithWorkspace(ctx, &models.Workspace{ID: workspaceID, Slug: "acme", Name: "Acme"})
}

var errProviderDown = errors.New("provider unavailable")
