package session

import (
	"encoding/json"
	"time"
)

// MacroScene is one entry in a macro chain: the high-level beat a scene
// detail will later be generated from.
type MacroScene struct {
	ID        string `json:"id"`
	Order     int    `json:"order"`
	Title     string `json:"title"`
	Objective string `json:"objective"`
}

// MacroChain is an ordered chain of macro scenes with its own lifecycle
// status and version counter, independent of the session version.
type MacroChain struct {
	ChainID       string         `json:"chain_id"`
	Scenes        []MacroScene   `json:"scenes"`
	Status        Status         `json:"status"`
	Version       int            `json:"version"`
	LockedAt      *time.Time     `json:"locked_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	LastUpdatedAt time.Time      `json:"last_updated_at"`
	Meta          map[string]any `json:"meta,omitempty"`
}

// ChainEdit is a single edit applied to a macro chain scene.
type ChainEdit struct {
	SceneID   string `json:"scene_id"`
	Title     string `json:"title,omitempty"`
	Objective string `json:"objective,omitempty"`
	Order     *int   `json:"order,omitempty"`
}

// mirror returns the custom-block representation of the chain. The mirror
// keeps UI readers of the custom block in sync with the chain map.
func (mc *MacroChain) mirror() map[string]any {
	m := map[string]any{
		"chain_id":        mc.ChainID,
		"scenes":          mc.Scenes,
		"status":          mc.Status,
		"version":         mc.Version,
		"created_at":      mc.CreatedAt,
		"last_updated_at": mc.LastUpdatedAt,
	}
	if mc.Meta != nil {
		m["meta"] = mc.Meta
	}
	if mc.LockedAt != nil {
		m["locked_at"] = mc.LockedAt
	}
	return m
}

// PutChain stores the chain in the session and mirrors it into the custom
// block.
func (c *Context) PutChain(mc *MacroChain) {
	if c.MacroChains == nil {
		c.MacroChains = make(map[string]*MacroChain)
	}
	c.MacroChains[mc.ChainID] = mc

	custom := asMap(c.Blocks[BlockCustom])
	merged := make(map[string]any, len(custom)+1)
	for k, v := range custom {
		merged[k] = v
	}
	merged[customChainKey] = mc.mirror()
	if c.Blocks == nil {
		c.Blocks = make(map[BlockType]any)
	}
	c.Blocks[BlockCustom] = merged
	c.touch()
}

// Chain looks up a macro chain by id, checking the chain map first and
// falling back to the mirror in the custom block. Chains found only in the
// mirror are adopted back into the chain map.
func (c *Context) Chain(chainID string) (*MacroChain, error) {
	if mc, ok := c.MacroChains[chainID]; ok {
		return mc, nil
	}

	custom := asMap(c.Blocks[BlockCustom])
	embedded, ok := custom[customChainKey]
	if !ok {
		return nil, ErrChainNotFound
	}

	data, err := json.Marshal(embedded)
	if err != nil {
		return nil, ErrChainNotFound
	}
	var mc MacroChain
	if err := json.Unmarshal(data, &mc); err != nil || mc.ChainID != chainID {
		return nil, ErrChainNotFound
	}

	if c.MacroChains == nil {
		c.MacroChains = make(map[string]*MacroChain)
	}
	c.MacroChains[chainID] = &mc
	return &mc, nil
}

// ApplyChainEdits applies title, objective and order edits to a chain,
// marking it Edited and bumping its version. Locked chains reject edits.
func (c *Context) ApplyChainEdits(chainID string, edits []ChainEdit) (*MacroChain, error) {
	mc, err := c.Chain(chainID)
	if err != nil {
		return nil, err
	}
	if mc.Status == StatusLocked {
		return nil, ErrAlreadyLocked
	}

	for _, edit := range edits {
		for i := range mc.Scenes {
			if mc.Scenes[i].ID != edit.SceneID {
				continue
			}
			if edit.Title != "" {
				mc.Scenes[i].Title = edit.Title
			}
			if edit.Objective != "" {
				mc.Scenes[i].Objective = edit.Objective
			}
			if edit.Order != nil {
				mc.Scenes[i].Order = *edit.Order
			}
		}
	}
	sortScenes(mc.Scenes)

	mc.Status = StatusEdited
	mc.Version++
	mc.LastUpdatedAt = time.Now().UTC()
	c.PutChain(mc)
	return mc, nil
}

// AppendScene adds a macro scene to the end of the chain. Locked chains
// reject new scenes.
func (c *Context) AppendScene(chainID string, scene MacroScene) (*MacroChain, error) {
	mc, err := c.Chain(chainID)
	if err != nil {
		return nil, err
	}
	if mc.Status == StatusLocked {
		return nil, ErrAlreadyLocked
	}

	scene.Order = len(mc.Scenes) + 1
	mc.Scenes = append(mc.Scenes, scene)
	mc.Status = StatusEdited
	mc.Version++
	mc.LastUpdatedAt = time.Now().UTC()
	c.PutChain(mc)
	return mc, nil
}

func sortScenes(scenes []MacroScene) {
	for i := 1; i < len(scenes); i++ {
		for j := i; j > 0 && scenes[j].Order < scenes[j-1].Order; j-- {
			scenes[j], scenes[j-1] = scenes[j-1], scenes[j]
		}
	}
}
