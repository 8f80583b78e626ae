package handlers

import (
	"net/http"
	"testing"

	"github.com/storyforge/storyforge/pkg/session"
)

func TestContextHandler_Append(t *testing.T) {
	env := newTestEnv(t)
	h := NewContextHandler(env.store, env.log)

	w := postJSON(t, h, "/v1/context/append", appendBlockRequest{
		SessionID: "sess-1",
		BlockType: "blueprint",
		Data:      map[string]any{"theme": "betrayal"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var data struct {
		Version int `json:"version"`
	}
	decodeData(t, w, &data)
	if data.Version != 1 {
		t.Errorf("Expected version 1, got %d", data.Version)
	}

	stored := env.store.Contexts["sess-1"]
	if stored == nil || stored.Blocks[session.BlockBlueprint] == nil {
		t.Fatal("Expected block persisted")
	}
}

func TestContextHandler_AppendUnknownBlock(t *testing.T) {
	env := newTestEnv(t)
	h := NewContextHandler(env.store, env.log)

	w := postJSON(t, h, "/v1/context/append", appendBlockRequest{
		SessionID: "sess-1",
		BlockType: "nonsense",
		Data:      map[string]any{},
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestContextHandler_LockConflicts(t *testing.T) {
	env := newTestEnv(t)
	h := NewContextHandler(env.store, env.log)

	w := postJSON(t, h, "/v1/context/lock", lockBlockRequest{
		SessionID: "sess-1", BlockType: "background", Locked: true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Locking a locked block fails.
	w = postJSON(t, h, "/v1/context/lock", lockBlockRequest{
		SessionID: "sess-1", BlockType: "background", Locked: true,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 on double lock, got %d", w.Code)
	}

	// Unlocking an unlocked block fails.
	w = postJSON(t, h, "/v1/context/lock", lockBlockRequest{
		SessionID: "sess-1", BlockType: "characters", Locked: false,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 on unlock of unlocked block, got %d", w.Code)
	}
}

func TestContextHandler_ReadAndHealth(t *testing.T) {
	env := newTestEnv(t)
	h := NewContextHandler(env.store, env.log)

	// Missing session reads as null data.
	w := getPath(t, h, "/v1/context?session_id=ghost")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	w = getPath(t, h, "/v1/context/health?session_id=ghost")
	var health struct {
		Exists bool `json:"exists"`
	}
	decodeData(t, w, &health)
	if health.Exists {
		t.Error("Expected exists=false for unknown session")
	}

	postJSON(t, h, "/v1/context/append", appendBlockRequest{
		SessionID: "sess-1",
		BlockType: "player_hooks",
		Data:      []any{map[string]any{"name": "Mira"}},
	})

	w = getPath(t, h, "/v1/context/health?session_id=sess-1")
	var health2 struct {
		Exists     bool `json:"exists"`
		Version    int  `json:"version"`
		BlockCount int  `json:"block_count"`
	}
	decodeData(t, w, &health2)
	if !health2.Exists || health2.Version != 1 || health2.BlockCount != 1 {
		t.Errorf("Unexpected health summary: %+v", health2)
	}
}

func TestContextHandler_Clear(t *testing.T) {
	env := newTestEnv(t)
	h := NewContextHandler(env.store, env.log)

	postJSON(t, h, "/v1/context/append", appendBlockRequest{
		SessionID: "sess-1", BlockType: "blueprint", Data: map[string]any{"theme": "x"},
	})
	w := postJSON(t, h, "/v1/context/clear", clearContextRequest{SessionID: "sess-1"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	stored := env.store.Contexts["sess-1"]
	if len(stored.Blocks) != 0 || stored.Version != 0 {
		t.Errorf("Expected cleared context, got version %d with %d blocks", stored.Version, len(stored.Blocks))
	}
}
