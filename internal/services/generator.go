package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/storyforge/storyforge/pkg/prompts"
	"github.com/storyforge/storyforge/pkg/session"
)

const (
	minPartySize     = 3
	maxPartySize     = 6
	defaultNumScenes = 5
)

// Generator turns session context into generated story content. Every LLM
// reply is schema validated before it is trusted.
type Generator struct {
	llm     LLMService
	schemas *compiledSchemas
	logger  *slog.Logger
}

func NewGenerator(llm LLMService, logger *slog.Logger) (*Generator, error) {
	cs, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	return &Generator{llm: llm, schemas: cs, logger: logger}, nil
}

// stripCodeFences removes a markdown code fence wrapper when the model
// ignores the no-fences instruction.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// GenerateBackground produces the story background block for a session.
func (g *Generator) GenerateBackground(ctx context.Context, sc *session.Context) (map[string]any, error) {
	messages, err := prompts.BackgroundMessages(sc)
	if err != nil {
		return nil, err
	}
	raw, err := g.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("background generation failed: %w", err)
	}

	data := []byte(stripCodeFences(raw))
	if err := validateAgainst(g.schemas.background, data); err != nil {
		return nil, fmt.Errorf("background response rejected: %w", err)
	}

	var background map[string]any
	if err := json.Unmarshal(data, &background); err != nil {
		return nil, fmt.Errorf("failed to decode background: %w", err)
	}
	if _, ok := background["number_of_players"]; !ok {
		background["number_of_players"] = sc.NumberOfPlayers()
	}
	return background, nil
}

// GenerateMacroChain produces a fresh macro chain for the session. The
// structural approach varies across regenerations.
func (g *Generator) GenerateMacroChain(ctx context.Context, sc *session.Context, numScenes int) (*session.MacroChain, error) {
	if numScenes <= 0 {
		numScenes = defaultNumScenes
	}
	approach := session.SelectApproach(prompts.ChainApproaches, sc.RecentChainApproaches())
	pacing := session.SelectApproach(prompts.ChainPacings, nil)
	seed := sc.VariationSeed()

	messages, err := prompts.ChainMessages(sc, numScenes, approach, pacing, seed)
	if err != nil {
		return nil, err
	}
	raw, err := g.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("chain generation failed: %w", err)
	}

	data := []byte(stripCodeFences(raw))
	if err := validateAgainst(g.schemas.macroChain, data); err != nil {
		return nil, fmt.Errorf("chain response rejected: %w", err)
	}

	var payload struct {
		Scenes []session.MacroScene `json:"scenes"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode chain: %w", err)
	}

	now := time.Now().UTC()
	chain := &session.MacroChain{
		ChainID:       uuid.New().String(),
		Scenes:        payload.Scenes,
		Status:        session.StatusGenerated,
		Version:       1,
		CreatedAt:     now,
		LastUpdatedAt: now,
	}
	// Normalize ordering and fill any missing ids.
	for i := range chain.Scenes {
		chain.Scenes[i].Order = i + 1
		if chain.Scenes[i].ID == "" {
			chain.Scenes[i].ID = uuid.New().String()
		}
	}

	sc.RecordChainApproach(approach, "", pacing)
	g.logger.Debug("macro chain generated",
		"session_id", sc.SessionID,
		"chain_id", chain.ChainID,
		"scenes", len(chain.Scenes),
		"approach", approach)
	return chain, nil
}

// GenerateNextScene extends an existing chain with one scene.
func (g *Generator) GenerateNextScene(ctx context.Context, sc *session.Context, chain *session.MacroChain) (session.MacroScene, error) {
	messages, err := prompts.NextSceneMessages(sc, chain)
	if err != nil {
		return session.MacroScene{}, err
	}
	raw, err := g.llm.Chat(ctx, messages)
	if err != nil {
		return session.MacroScene{}, fmt.Errorf("next scene generation failed: %w", err)
	}

	data := []byte(stripCodeFences(raw))
	if err := validateAgainst(g.schemas.nextScene, data); err != nil {
		return session.MacroScene{}, fmt.Errorf("next scene response rejected: %w", err)
	}

	var scene session.MacroScene
	if err := json.Unmarshal(data, &scene); err != nil {
		return session.MacroScene{}, fmt.Errorf("failed to decode next scene: %w", err)
	}
	if scene.ID == "" {
		scene.ID = uuid.New().String()
	}
	scene.Order = len(chain.Scenes) + 1
	return scene, nil
}

// GenerateSceneDetail expands one macro scene into a playable detail using
// the accumulated context of earlier locked scenes.
func (g *Generator) GenerateSceneDetail(ctx context.Context, sc *session.Context, scene session.MacroScene, effective session.ContextOut) (*session.SceneDetail, error) {
	approach := session.SelectApproach(prompts.SceneApproaches, sc.RecentSceneApproaches())
	seed := sc.VariationSeed()

	messages, err := prompts.SceneDetailMessages(sc, scene, effective, approach, seed)
	if err != nil {
		return nil, err
	}
	raw, err := g.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("scene detail generation failed: %w", err)
	}

	data := []byte(stripCodeFences(raw))
	if err := validateAgainst(g.schemas.sceneDetail, data); err != nil {
		return nil, fmt.Errorf("scene detail response rejected: %w", err)
	}

	var detail session.SceneDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		return nil, fmt.Errorf("failed to decode scene detail: %w", err)
	}

	now := time.Now().UTC()
	detail.SceneID = scene.ID
	detail.Sequence = scene.Order
	detail.Status = session.StatusGenerated
	detail.Version = 1
	detail.LockedAt = nil
	detail.LastUpdatedAt = now

	sc.RecordSceneApproach(approach, "")
	return &detail, nil
}

// GenerateCharacters produces the playable character roster. Party size
// comes from the request override when given, otherwise the background,
// clamped to a sensible range. The model may come back one over or under;
// anything further off is rejected.
func (g *Generator) GenerateCharacters(ctx context.Context, sc *session.Context, countOverride int) ([]session.Character, error) {
	count := countOverride
	if count <= 0 {
		count = sc.NumberOfPlayers()
	}
	if count < minPartySize {
		count = minPartySize
	}
	if count > maxPartySize {
		count = maxPartySize
	}

	messages, err := prompts.CharacterMessages(sc, count)
	if err != nil {
		return nil, err
	}
	raw, err := g.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("character generation failed: %w", err)
	}

	data := []byte(stripCodeFences(raw))
	if err := validateAgainst(g.schemas.characters, data); err != nil {
		return nil, fmt.Errorf("character response rejected: %w", err)
	}

	var payload struct {
		Characters []session.Character `json:"characters"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode characters: %w", err)
	}
	if n := len(payload.Characters); n < count-1 || n > count+1 {
		return nil, fmt.Errorf("expected about %d characters, got %d", count, n)
	}

	for i := range payload.Characters {
		payload.Characters[i].ID = uuid.New().String()
		payload.Characters[i].Status = "generated"
	}
	return payload.Characters, nil
}

// RegenerateCharacterField rewrites a single field of one character and
// returns the new value.
func (g *Generator) RegenerateCharacterField(ctx context.Context, sc *session.Context, ch session.Character, field string) (any, error) {
	messages, err := prompts.RegenerateFieldMessages(sc, ch, field)
	if err != nil {
		return nil, err
	}
	raw, err := g.llm.Chat(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("field regeneration failed: %w", err)
	}

	data := []byte(stripCodeFences(raw))
	if err := validateAgainst(g.schemas.regenField, data); err != nil {
		return nil, fmt.Errorf("field response rejected: %w", err)
	}

	var payload struct {
		Value any `json:"value"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode field value: %w", err)
	}
	return payload.Value, nil
}
