package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/storyforge/storyforge/pkg/session"
)

const (
	contextFile  = "context.json"
	chainsFile   = "chains.json"
	projectsFile = "projects.json"
)

// FileStore implements Storage on flat JSON files. Each collection lives
// in one file that is rewritten whole on save; a per-session advisory
// lock keeps concurrent saves for the same session from interleaving.
type FileStore struct {
	dataDir string
	logger  *slog.Logger
	mu      sync.RWMutex
	locks   *sessionLocks
}

var _ Storage = (*FileStore)(nil)

func NewFileStore(dataDir string, logger *slog.Logger) (*FileStore, error) {
	if dataDir == "" {
		dataDir = "./data"
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return &FileStore{
		dataDir: dataDir,
		logger:  logger,
		locks:   newSessionLocks(),
	}, nil
}

func (f *FileStore) Ping(ctx context.Context) error {
	info, err := os.Stat(f.dataDir)
	if err != nil {
		return fmt.Errorf("data dir unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", f.dataDir)
	}
	return nil
}

func (f *FileStore) Close() error {
	return nil
}

// readFile decodes one collection file into dst. A missing file leaves
// dst untouched.
func (f *FileStore) readFile(name string, dst any) error {
	data, err := os.ReadFile(filepath.Join(f.dataDir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func (f *FileStore) writeFile(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	if err := os.WriteFile(filepath.Join(f.dataDir, name), data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (f *FileStore) LoadSessionContext(ctx context.Context, sessionID string) (*session.Context, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	contexts := make(map[string]*session.Context)
	if err := f.readFile(contextFile, &contexts); err != nil {
		return nil, err
	}
	return contexts[sessionID], nil
}

func (f *FileStore) SaveSessionContext(ctx context.Context, sc *session.Context) error {
	if err := f.locks.acquire(ctx, sc.SessionID); err != nil {
		return err
	}
	defer f.locks.release(sc.SessionID)

	f.mu.Lock()
	defer f.mu.Unlock()

	contexts := make(map[string]*session.Context)
	if err := f.readFile(contextFile, &contexts); err != nil {
		return err
	}
	sc.UpdatedAt = time.Now().UTC()
	contexts[sc.SessionID] = sc
	if err := f.writeFile(contextFile, contexts); err != nil {
		f.logger.Error("Failed to save session context", "session_id", sc.SessionID, "error", err)
		return err
	}
	return nil
}

func (f *FileStore) ListProjects(ctx context.Context) ([]session.Project, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	projects := make(map[string]session.Project)
	if err := f.readFile(projectsFile, &projects); err != nil {
		return nil, err
	}
	list := make([]session.Project, 0, len(projects))
	for _, p := range projects {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (f *FileStore) GetProject(ctx context.Context, id string) (*session.Project, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	projects := make(map[string]session.Project)
	if err := f.readFile(projectsFile, &projects); err != nil {
		return nil, err
	}
	p, ok := projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *FileStore) SaveProject(ctx context.Context, p *session.Project) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	projects := make(map[string]session.Project)
	if err := f.readFile(projectsFile, &projects); err != nil {
		return err
	}
	p.UpdatedAt = time.Now().UTC()
	projects[p.ID] = *p
	return f.writeFile(projectsFile, projects)
}

func (f *FileStore) DeleteProject(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	projects := make(map[string]session.Project)
	if err := f.readFile(projectsFile, &projects); err != nil {
		return err
	}
	if _, ok := projects[id]; !ok {
		return fmt.Errorf("project %s not found", id)
	}
	delete(projects, id)
	return f.writeFile(projectsFile, projects)
}

func (f *FileStore) LoadLegacyChain(ctx context.Context, chainID string) (*session.MacroChain, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	chains := make(map[string]*session.MacroChain)
	if err := f.readFile(chainsFile, &chains); err != nil {
		return nil, err
	}
	return chains[chainID], nil
}
