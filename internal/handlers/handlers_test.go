package handlers

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/storyforge/storyforge/internal/services"
	"github.com/storyforge/storyforge/internal/storage"
	"github.com/storyforge/storyforge/pkg/session"
)

type testEnv struct {
	store *storage.MockStorage
	llm   *services.MockLLMService
	gen   *services.Generator
	log   *slog.Logger
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	llm := services.NewMockLLMService()
	gen, err := services.NewGenerator(llm, log)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	return &testEnv{
		store: storage.NewMockStorage(),
		llm:   llm,
		gen:   gen,
		log:   log,
	}
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func getPath(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	var resp struct {
		OK   bool            `json:"ok"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode response envelope: %v (%s)", err, w.Body.String())
	}
	if !resp.OK {
		t.Fatalf("Expected ok response, got %s", w.Body.String())
	}
	if v != nil {
		if err := json.Unmarshal(resp.Data, v); err != nil {
			t.Fatalf("Failed to decode response data: %v (%s)", err, string(resp.Data))
		}
	}
}

// seedChain stores a session with one chain directly in mock storage.
func seedChain(t *testing.T, env *testEnv, sessionID string, status session.Status) *session.MacroChain {
	t.Helper()
	sc := session.NewContext(sessionID)
	chain := &session.MacroChain{
		ChainID: "chain-1",
		Scenes: []session.MacroScene{
			{ID: "scene-a", Order: 1, Title: "A", Objective: "objective a"},
			{ID: "scene-b", Order: 2, Title: "B", Objective: "objective b"},
		},
		Status:  status,
		Version: 1,
	}
	sc.PutChain(chain)
	env.store.Contexts[sessionID] = sc
	return chain
}
