package session

import "time"

// ContextOut is the narrative context a scene hands to the scenes that
// follow it.
type ContextOut struct {
	KeyEvents          []string         `json:"key_events"`
	RevealedInfo       []string         `json:"revealed_info"`
	StateChanges       map[string]any   `json:"state_changes"`
	NPCRelationships   map[string]any   `json:"npc_relationships,omitempty"`
	EnvironmentalState map[string]any   `json:"environmental_state,omitempty"`
	PlotThreads        []map[string]any `json:"plot_threads,omitempty"`
	PlayerDecisions    []map[string]any `json:"player_decisions,omitempty"`
}

// Merge folds another scene's outgoing context into this one, concatenating
// lists and overlaying state changes. Used when computing the effective
// context for downstream scene generation.
func (co *ContextOut) Merge(other ContextOut) {
	co.KeyEvents = append(co.KeyEvents, other.KeyEvents...)
	co.RevealedInfo = append(co.RevealedInfo, other.RevealedInfo...)
	if co.StateChanges == nil {
		co.StateChanges = make(map[string]any)
	}
	for k, v := range other.StateChanges {
		co.StateChanges[k] = v
	}
	co.PlotThreads = append(co.PlotThreads, other.PlotThreads...)
	co.PlayerDecisions = append(co.PlayerDecisions, other.PlayerDecisions...)
}

// SceneDetail is the full GM-facing rendering of a macro scene, with its
// own lifecycle status and version counter.
type SceneDetail struct {
	SceneID      string         `json:"scene_id"`
	Title        string         `json:"title"`
	Objective    string         `json:"objective"`
	Sequence     int            `json:"sequence"`
	KeyEvents    []string       `json:"key_events"`
	RevealedInfo []string       `json:"revealed_info"`
	StateChanges map[string]any `json:"state_changes"`
	ContextOut   ContextOut     `json:"context_out"`

	Status        Status     `json:"status"`
	Version       int        `json:"version"`
	LockedAt      *time.Time `json:"locked_at,omitempty"`
	LastUpdatedAt time.Time  `json:"last_updated_at"`

	EpicIntro       string              `json:"epic_intro,omitempty"`
	Setting         string              `json:"setting,omitempty"`
	Atmosphere      string              `json:"atmosphere,omitempty"`
	GMNarrative     string              `json:"gm_narrative,omitempty"`
	Beats           []string            `json:"beats,omitempty"`
	Checks          []map[string]any    `json:"checks,omitempty"`
	Clues           map[string][]string `json:"clues_and_foreshadowing,omitempty"`
	NPCMiniCards    []map[string]any    `json:"npc_mini_cards,omitempty"`
	CombatBalance   map[string]any      `json:"combat_probability_and_balance,omitempty"`
	ExitConditions  map[string]any      `json:"exit_conditions_and_transition,omitempty"`
	Rewards         []string            `json:"rewards,omitempty"`
	SkillChallenges []map[string]any    `json:"skill_challenges,omitempty"`
}

// SceneEdit is a manual edit applied to a scene detail.
type SceneEdit struct {
	Title        string         `json:"title,omitempty"`
	Objective    string         `json:"objective,omitempty"`
	KeyEvents    []string       `json:"key_events,omitempty"`
	RevealedInfo []string       `json:"revealed_info,omitempty"`
	StateChanges map[string]any `json:"state_changes,omitempty"`
	GMNarrative  string         `json:"gm_narrative,omitempty"`
	Beats        []string       `json:"beats,omitempty"`
}

// PutSceneDetail stores the scene detail in the session.
func (c *Context) PutSceneDetail(sd *SceneDetail) {
	if c.SceneDetails == nil {
		c.SceneDetails = make(map[string]*SceneDetail)
	}
	c.SceneDetails[sd.SceneID] = sd
	c.touch()
}

// SceneDetail looks up a scene detail by id.
func (c *Context) SceneDetail(sceneID string) (*SceneDetail, error) {
	sd, ok := c.SceneDetails[sceneID]
	if !ok || sd == nil {
		return nil, ErrSceneNotFound
	}
	return sd, nil
}

// ApplySceneEdits applies manual field edits to a scene detail, marking it
// Edited and bumping its version. Locked scenes reject edits.
func (c *Context) ApplySceneEdits(sceneID string, edit SceneEdit) (*SceneDetail, error) {
	sd, err := c.SceneDetail(sceneID)
	if err != nil {
		return nil, err
	}
	if sd.Status == StatusLocked {
		return nil, ErrAlreadyLocked
	}

	if edit.Title != "" {
		sd.Title = edit.Title
	}
	if edit.Objective != "" {
		sd.Objective = edit.Objective
	}
	if len(edit.KeyEvents) > 0 {
		sd.KeyEvents = edit.KeyEvents
	}
	if len(edit.RevealedInfo) > 0 {
		sd.RevealedInfo = edit.RevealedInfo
	}
	if len(edit.StateChanges) > 0 {
		sd.StateChanges = edit.StateChanges
	}
	if edit.GMNarrative != "" {
		sd.GMNarrative = edit.GMNarrative
	}
	if len(edit.Beats) > 0 {
		sd.Beats = edit.Beats
	}

	sd.Status = StatusEdited
	sd.Version++
	sd.LastUpdatedAt = time.Now().UTC()
	c.touch()
	return sd, nil
}

// DeleteSceneDetail removes a scene detail from the session.
func (c *Context) DeleteSceneDetail(sceneID string) error {
	if _, err := c.SceneDetail(sceneID); err != nil {
		return err
	}
	delete(c.SceneDetails, sceneID)
	c.touch()
	return nil
}

// Propagate marks every Generated or Locked scene sequenced after the given
// scene as NeedsRegen, and returns the affected scene ids along with the
// merged effective context of the given scene and its predecessors.
func (c *Context) Propagate(sceneID string) ([]string, ContextOut, error) {
	sd, err := c.SceneDetail(sceneID)
	if err != nil {
		return nil, ContextOut{}, err
	}

	var effective ContextOut
	var affected []string
	now := time.Now().UTC()
	for id, detail := range c.SceneDetails {
		if detail == nil {
			continue
		}
		if detail.Sequence <= sd.Sequence {
			effective.Merge(detail.ContextOut)
			continue
		}
		if detail.Status == StatusGenerated || detail.Status == StatusLocked {
			detail.Status = StatusNeedsRegen
			detail.Version++
			detail.LastUpdatedAt = now
			affected = append(affected, id)
		}
	}
	if len(affected) > 0 {
		c.touch()
	}
	return affected, effective, nil
}
