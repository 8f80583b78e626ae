package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/storyforge/storyforge/pkg/session"
)

// MockStorage is an in-memory Storage for handler tests.
type MockStorage struct {
	mu       sync.Mutex
	Contexts map[string]*session.Context
	Projects map[string]session.Project
	// Chains holds legacy standalone chains, keyed by chain id.
	Chains map[string]*session.MacroChain

	PingError error
	SaveError error
}

var _ Storage = (*MockStorage)(nil)

func NewMockStorage() *MockStorage {
	return &MockStorage{
		Contexts: make(map[string]*session.Context),
		Projects: make(map[string]session.Project),
		Chains:   make(map[string]*session.MacroChain),
	}
}

func (m *MockStorage) Ping(ctx context.Context) error {
	return m.PingError
}

func (m *MockStorage) Close() error {
	return nil
}

func (m *MockStorage) LoadSessionContext(ctx context.Context, sessionID string) (*session.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Contexts[sessionID], nil
}

func (m *MockStorage) SaveSessionContext(ctx context.Context, sc *session.Context) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	sc.UpdatedAt = time.Now().UTC()
	m.Contexts[sc.SessionID] = sc
	return nil
}

func (m *MockStorage) ListProjects(ctx context.Context) ([]session.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := make([]session.Project, 0, len(m.Projects))
	for _, p := range m.Projects {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (m *MockStorage) GetProject(ctx context.Context, id string) (*session.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.Projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *MockStorage) SaveProject(ctx context.Context, p *session.Project) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p.UpdatedAt = time.Now().UTC()
	m.Projects[p.ID] = *p
	return nil
}

func (m *MockStorage) DeleteProject(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.Projects[id]; !ok {
		return fmt.Errorf("project %s not found", id)
	}
	delete(m.Projects, id)
	return nil
}

func (m *MockStorage) LoadLegacyChain(ctx context.Context, chainID string) (*session.MacroChain, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Chains[chainID], nil
}
