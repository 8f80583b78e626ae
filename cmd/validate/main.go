package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/storyforge/storyforge/internal/services"
	"github.com/storyforge/storyforge/pkg/session"
)

// Validates exported session context files before they are imported into a
// running instance. Checks structural invariants the storage layer assumes,
// and runs the generated blocks through the same schemas the generator
// enforces at runtime.
func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <session.json> [session.json ...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		v := &sessionValidator{}
		if err := v.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

type sessionValidator struct {
	errors []string
}

func (v *sessionValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	var sc session.Context
	if err := json.Unmarshal(data, &sc); err != nil {
		return fmt.Errorf("file %s failed unmarshaling: %w", filename, err)
	}

	v.errors = nil
	v.validateContext(&sc)

	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

// knownBlockType accepts everything context append accepts, plus the sheets
// block, which only the sheets endpoints write.
func knownBlockType(bt session.BlockType) bool {
	return bt.Valid() || bt == session.BlockSheets
}

func (v *sessionValidator) validateContext(sc *session.Context) {
	if sc.SessionID == "" {
		v.addError("session_id is empty")
	}
	if sc.Version < 0 {
		v.addError(fmt.Sprintf("version %d is negative", sc.Version))
	}

	for bt := range sc.Blocks {
		if !knownBlockType(bt) {
			v.addError(fmt.Sprintf("unknown block type '%s'", bt))
		}
	}
	for bt := range sc.Locks {
		if !knownBlockType(bt) {
			v.addError(fmt.Sprintf("lock on unknown block type '%s'", bt))
		}
	}

	v.validateBlockSchema(sc, session.BlockBackground, "background")
	v.validateBlockSchema(sc, session.BlockCharacters, "characters")

	for chainID, chain := range sc.MacroChains {
		v.validateChain(chainID, chain)
	}
	for sceneID, detail := range sc.SceneDetails {
		v.validateSceneDetail(sc, sceneID, detail)
	}
}

// validateBlockSchema runs a generated block through its generation schema.
// Hand-authored blocks that never went through the generator are skipped.
func (v *sessionValidator) validateBlockSchema(sc *session.Context, bt session.BlockType, kind string) {
	raw, ok := sc.Blocks[bt]
	if !ok || raw == nil {
		return
	}
	data, err := json.Marshal(raw)
	if err != nil {
		v.addError(fmt.Sprintf("%s block is not serializable: %v", bt, err))
		return
	}
	if err := services.ValidateBlockJSON(kind, data); err != nil {
		v.addError(fmt.Sprintf("%s block: %v", bt, err))
	}
}

func (v *sessionValidator) validateChain(chainID string, chain *session.MacroChain) {
	if chain == nil {
		v.addError(fmt.Sprintf("chain '%s' is null", chainID))
		return
	}
	if chain.ChainID != chainID {
		v.addError(fmt.Sprintf("chain '%s' is keyed under '%s'", chain.ChainID, chainID))
	}
	if !chain.Status.Valid() {
		v.addError(fmt.Sprintf("chain '%s' has unknown status '%s'", chainID, chain.Status))
	}
	if chain.Status == session.StatusLocked && chain.LockedAt == nil {
		v.addError(fmt.Sprintf("chain '%s' is Locked but has no locked_at timestamp", chainID))
	}

	// Scene orders must be contiguous from 1.
	seen := make(map[string]bool, len(chain.Scenes))
	orders := make(map[int]bool, len(chain.Scenes))
	for _, scene := range chain.Scenes {
		if scene.ID == "" {
			v.addError(fmt.Sprintf("chain '%s' has a scene with no id", chainID))
			continue
		}
		if seen[scene.ID] {
			v.addError(fmt.Sprintf("chain '%s' has duplicate scene id '%s'", chainID, scene.ID))
		}
		seen[scene.ID] = true
		if scene.Order < 1 || scene.Order > len(chain.Scenes) {
			v.addError(fmt.Sprintf("chain '%s' scene '%s' has order %d out of range 1..%d", chainID, scene.ID, scene.Order, len(chain.Scenes)))
			continue
		}
		if orders[scene.Order] {
			v.addError(fmt.Sprintf("chain '%s' has duplicate scene order %d", chainID, scene.Order))
		}
		orders[scene.Order] = true
	}
}

func (v *sessionValidator) validateSceneDetail(sc *session.Context, sceneID string, detail *session.SceneDetail) {
	if detail == nil {
		v.addError(fmt.Sprintf("scene detail '%s' is null", sceneID))
		return
	}
	if detail.SceneID != sceneID {
		v.addError(fmt.Sprintf("scene detail '%s' is keyed under '%s'", detail.SceneID, sceneID))
	}
	if !detail.Status.Valid() {
		v.addError(fmt.Sprintf("scene detail '%s' has unknown status '%s'", sceneID, detail.Status))
	}
	if detail.Status == session.StatusLocked && detail.LockedAt == nil {
		v.addError(fmt.Sprintf("scene detail '%s' is Locked but has no locked_at timestamp", sceneID))
	}
	if detail.Sequence < 1 {
		v.addError(fmt.Sprintf("scene detail '%s' has sequence %d, expected >= 1", sceneID, detail.Sequence))
	}

	// Every detail must trace back to a macro scene.
	for _, chain := range sc.MacroChains {
		for _, scene := range chain.Scenes {
			if scene.ID == sceneID {
				return
			}
		}
	}
	v.addError(fmt.Sprintf("scene detail '%s' does not match any macro scene", sceneID))
}

func (v *sessionValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}
