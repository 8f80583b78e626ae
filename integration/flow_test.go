package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storyforge/storyforge/internal/handlers"
	"github.com/storyforge/storyforge/internal/services"
	"github.com/storyforge/storyforge/internal/storage"
)

// newServer assembles the full API the way cmd/api does, backed by file
// storage in a temp dir and a scripted LLM.
func newServer(t *testing.T) (*httptest.Server, *services.MockLLMService) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	store, err := storage.NewFileStore(t.TempDir(), log)
	require.NoError(t, err)
	llm := services.NewMockLLMService()
	generator, err := services.NewGenerator(llm, log)
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.Handle("/health", handlers.NewHealthHandler(store, log))
	projectsHandler := handlers.NewProjectsHandler(store, log)
	mux.Handle("/v1/projects", projectsHandler)
	mux.Handle("/v1/projects/", projectsHandler)
	contextHandler := handlers.NewContextHandler(store, log)
	mux.Handle("/v1/context", contextHandler)
	mux.Handle("/v1/context/", contextHandler)
	mux.Handle("/v1/background/", handlers.NewBackgroundHandler(store, generator, log))
	mux.Handle("/v1/chain/", handlers.NewChainHandler(store, generator, log))
	mux.Handle("/v1/scene/", handlers.NewSceneHandler(store, generator, log))
	charactersHandler := handlers.NewCharactersHandler(store, generator, log)
	mux.Handle("/v1/characters", charactersHandler)
	mux.Handle("/v1/characters/", charactersHandler)
	sheetsHandler := handlers.NewSheetsHandler(store, log)
	mux.Handle("/v1/sheets", sheetsHandler)
	mux.Handle("/v1/sheets/", sheetsHandler)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	t.Cleanup(func() { _ = store.Close() })
	return server, llm
}

func post(t *testing.T, server *httptest.Server, path string, body map[string]any) (int, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(data))
	require.NoError(t, err, "POST %s", path)
	defer resp.Body.Close()

	var envelope struct {
		OK   bool           `json:"ok"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&envelope), "POST %s", path)
	return resp.StatusCode, envelope.Data
}

func mustPost(t *testing.T, server *httptest.Server, path string, body map[string]any) map[string]any {
	t.Helper()
	status, data := post(t, server, path, body)
	require.Contains(t, []int{http.StatusOK, http.StatusCreated}, status, "POST %s", path)
	return data
}

const flowBackground = `{
	"premise": "A drowned kingdom wakes beneath the harbor.",
	"tone_rules": ["gothic"],
	"stakes": ["the tide keeps rising"],
	"factions": [{"name": "The Salt Court"}],
	"do_nots": ["no comic relief"]
}`

func flowChain(numScenes int) string {
	out := `{"scenes": [`
	for i := 1; i <= numScenes; i++ {
		if i > 1 {
			out += ","
		}
		out += fmt.Sprintf(`{"id": "scene-%d", "order": %d, "title": "Scene %d", "objective": "Objective %d"}`, i, i, i, i)
	}
	return out + `]}`
}

const flowSceneDetail = `{
	"title": "Scene 1",
	"objective": "Objective 1",
	"key_events": ["the gate opens"],
	"context_out": {"key_events": ["the warden saw them"], "state_changes": {"gate": "open"}}
}`

const flowRoster = `{"characters": [
	{"name": "Mira", "role": "striker", "race": "elf", "class": "rogue", "personality": "wry", "motivation": "revenge", "connection_to_story": "salt court ties", "gm_secret": "owes the warden"},
	{"name": "Orin", "role": "tank", "race": "dwarf", "class": "fighter", "personality": "stoic", "motivation": "duty", "connection_to_story": "harbor guard", "gm_secret": "deserter"},
	{"name": "Tal", "role": "support", "race": "human", "class": "cleric", "personality": "kind", "motivation": "faith", "connection_to_story": "drowned temple", "gm_secret": "doubts"},
	{"name": "Vess", "role": "controller", "race": "tiefling", "class": "wizard", "personality": "curious", "motivation": "knowledge", "connection_to_story": "court archives", "gm_secret": "pact"}
]}`

// TestAuthoringFlow walks a full campaign authoring pass over the live HTTP
// surface: project, background, characters, chain, scene detail, locks and
// invalidation.
func TestAuthoringFlow(t *testing.T) {
	server, llm := newServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	project := mustPost(t, server, "/v1/projects", map[string]any{"title": "The Drowned Court"})
	sessionID, _ := project["id"].(string)
	require.NotEmpty(t, sessionID)

	// Background: generate then lock.
	llm.Enqueue(flowBackground)
	data := mustPost(t, server, "/v1/background/generate", map[string]any{
		"session_id": sessionID,
		"answers":    map[string]any{"core_idea": "a drowned kingdom", "number_of_players": 4},
	})
	background, _ := data["background"].(map[string]any)
	assert.Equal(t, "A drowned kingdom wakes beneath the harbor.", background["premise"])
	mustPost(t, server, "/v1/background/lock", map[string]any{"session_id": sessionID, "locked": true})

	// Characters require the locked background.
	llm.Enqueue(flowRoster)
	data = mustPost(t, server, "/v1/characters/generate", map[string]any{"session_id": sessionID})
	roster, _ := data["list"].([]any)
	require.Len(t, roster, 4)

	// Macro chain: generate and lock.
	llm.Enqueue(flowChain(5))
	chain := mustPost(t, server, "/v1/chain/generate", map[string]any{
		"session_id": sessionID,
		"concept":    "reclaim the drowned throne",
	})
	chainID, _ := chain["chain_id"].(string)
	require.NotEmpty(t, chainID)
	scenes, _ := chain["scenes"].([]any)
	require.Len(t, scenes, 5)
	firstScene, _ := scenes[0].(map[string]any)
	sceneID, _ := firstScene["id"].(string)

	mustPost(t, server, "/v1/chain/lock", map[string]any{"session_id": sessionID, "chain_id": chainID})

	// Scene detail on the locked chain, then lock the scene.
	llm.Enqueue(flowSceneDetail)
	data = mustPost(t, server, "/v1/scene/generate", map[string]any{
		"session_id": sessionID,
		"chain_id":   chainID,
		"scene_id":   sceneID,
	})
	assert.Equal(t, sceneID, data["scene_id"])
	mustPost(t, server, "/v1/scene/lock", map[string]any{"session_id": sessionID, "scene_id": sceneID})

	// Unlocking the chain invalidates the locked scene detail.
	data = mustPost(t, server, "/v1/chain/unlock", map[string]any{"session_id": sessionID, "chain_id": chainID})
	invalidated, _ := data["invalidated_scenes"].([]any)
	require.Len(t, invalidated, 1)
	assert.Equal(t, sceneID, invalidated[0])

	// Context health reflects the accumulated state.
	healthResp, err := http.Get(server.URL + "/v1/context/health?session_id=" + sessionID)
	require.NoError(t, err)
	defer healthResp.Body.Close()
	var healthEnvelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(healthResp.Body).Decode(&healthEnvelope))
	exists, _ := healthEnvelope.Data["exists"].(bool)
	assert.True(t, exists)
	assert.EqualValues(t, 1, healthEnvelope.Data["chain_count"])
	assert.EqualValues(t, 1, healthEnvelope.Data["scene_count"])
}

// TestGenerationOrderEnforced verifies the stage gates: characters before a
// locked background, and scene details before a locked chain, are rejected.
func TestGenerationOrderEnforced(t *testing.T) {
	server, llm := newServer(t)

	status, _ := post(t, server, "/v1/characters/generate", map[string]any{"session_id": "sess-gates"})
	assert.Equal(t, http.StatusConflict, status, "characters without a locked background")

	llm.Enqueue(flowBackground)
	mustPost(t, server, "/v1/background/generate", map[string]any{"session_id": "sess-gates"})
	mustPost(t, server, "/v1/background/lock", map[string]any{"session_id": "sess-gates", "locked": true})

	llm.Enqueue(flowChain(5))
	chain := mustPost(t, server, "/v1/chain/generate", map[string]any{
		"session_id": "sess-gates",
		"concept":    "gates hold",
	})
	chainID, _ := chain["chain_id"].(string)
	scenes, _ := chain["scenes"].([]any)
	require.NotEmpty(t, scenes)
	firstScene, _ := scenes[0].(map[string]any)

	status, _ = post(t, server, "/v1/scene/generate", map[string]any{
		"session_id": "sess-gates",
		"chain_id":   chainID,
		"scene_id":   firstScene["id"],
	})
	assert.Equal(t, http.StatusConflict, status, "scene detail on an unlocked chain")
}
