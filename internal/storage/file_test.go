package storage

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/storyforge/storyforge/pkg/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestFileStore(t *testing.T) *FileStore {
	t.Helper()
	fs, err := NewFileStore(t.TempDir(), testLogger())
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	return fs
}

func TestFileStore_SessionContextRoundTrip(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	missing, err := fs.LoadSessionContext(ctx, "nope")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing session")
	}

	sc := session.NewContext("sess-1")
	if err := sc.AppendBlock(session.BlockBlueprint, map[string]any{"theme": "betrayal"}); err != nil {
		t.Fatalf("AppendBlock failed: %v", err)
	}
	if err := fs.SaveSessionContext(ctx, sc); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := fs.LoadSessionContext(ctx, "sess-1")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded == nil || loaded.Version != sc.Version {
		t.Fatalf("Expected persisted session, got %+v", loaded)
	}

	// A second session persists alongside the first.
	other := session.NewContext("sess-2")
	if err := fs.SaveSessionContext(ctx, other); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if loaded, _ = fs.LoadSessionContext(ctx, "sess-1"); loaded == nil {
		t.Error("First session lost after saving second")
	}
}

func TestFileStore_Projects(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	p := &session.Project{ID: "proj-1", Title: "The Sleeping God", CreatedAt: time.Now().UTC()}
	if err := fs.SaveProject(ctx, p); err != nil {
		t.Fatalf("SaveProject failed: %v", err)
	}

	loaded, err := fs.GetProject(ctx, "proj-1")
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if loaded == nil || loaded.Title != "The Sleeping God" {
		t.Fatalf("Unexpected project: %+v", loaded)
	}

	list, err := fs.ListProjects(ctx)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("Expected 1 project, got %d", len(list))
	}

	if err := fs.DeleteProject(ctx, "proj-1"); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}
	if err := fs.DeleteProject(ctx, "proj-1"); err == nil {
		t.Error("Expected error deleting missing project")
	}
}

func TestFileStore_LoadLegacyChain(t *testing.T) {
	fs := newTestFileStore(t)
	ctx := context.Background()

	chain, err := fs.LoadLegacyChain(ctx, "chain-legacy")
	if err != nil {
		t.Fatalf("LoadLegacyChain failed: %v", err)
	}
	if chain != nil {
		t.Error("Expected nil when no legacy file exists")
	}

	// The standalone chain store keyed records by chain id.
	legacy := map[string]*session.MacroChain{
		"chain-legacy": {
			ChainID: "chain-legacy",
			Scenes:  []session.MacroScene{{ID: "a", Order: 1, Title: "A", Objective: "a"}},
			Status:  session.StatusGenerated,
			Version: 3,
		},
	}
	data, _ := json.MarshalIndent(legacy, "", "  ")
	if err := os.WriteFile(filepath.Join(fs.dataDir, chainsFile), data, 0o644); err != nil {
		t.Fatalf("Failed to seed legacy chains: %v", err)
	}

	chain, err = fs.LoadLegacyChain(ctx, "chain-legacy")
	if err != nil {
		t.Fatalf("LoadLegacyChain failed: %v", err)
	}
	if chain == nil || chain.ChainID != "chain-legacy" {
		t.Fatalf("Expected legacy chain, got %+v", chain)
	}

	chain, err = fs.LoadLegacyChain(ctx, "sess-1")
	if err != nil {
		t.Fatalf("LoadLegacyChain failed: %v", err)
	}
	if chain != nil {
		t.Error("Expected nil for a key that is not a chain id")
	}
}

func TestSessionLocks_Timeout(t *testing.T) {
	locks := newSessionLocks()
	if !locks.tryAcquire("sess-1") {
		t.Fatal("Expected first acquire to succeed")
	}

	start := time.Now()
	err := locks.acquire(context.Background(), "sess-1")
	if err != ErrSaveTimeout {
		t.Fatalf("Expected ErrSaveTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed < 900*time.Millisecond {
		t.Errorf("Expected full polling window, returned after %v", elapsed)
	}

	locks.release("sess-1")
	if err := locks.acquire(context.Background(), "sess-1"); err != nil {
		t.Errorf("Expected acquire after release, got %v", err)
	}

	// Other sessions are unaffected by a held lock.
	locks2 := newSessionLocks()
	locks2.tryAcquire("sess-1")
	if err := locks2.acquire(context.Background(), "sess-2"); err != nil {
		t.Errorf("Expected independent session lock, got %v", err)
	}
}
