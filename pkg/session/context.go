package session

import (
	"encoding/json"
	"fmt"
	"time"
)

// Meta carries per-block version counters used for staleness detection by
// downstream generators.
type Meta struct {
	BackgroundV    int       `json:"background_v"`
	CharactersV    int       `json:"characters_v"`
	MacroSnapshotV int       `json:"macro_snapshot_v"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Context is the per-session authoring state: schemaless context blocks,
// their locks, generated macro chains and scene details, and a monotonic
// version counter bumped on every mutation.
type Context struct {
	SessionID    string                  `json:"session_id"`
	Blocks       map[BlockType]any       `json:"blocks"`
	Locks        map[BlockType]bool      `json:"locks"`
	Meta         Meta                    `json:"meta"`
	Version      int                     `json:"version"`
	SceneDetails map[string]*SceneDetail `json:"scene_details,omitempty"`
	MacroChains  map[string]*MacroChain  `json:"macro_chains,omitempty"`
	Creativity   *CreativityHistory      `json:"creativity_history,omitempty"`
	CreatedAt    time.Time               `json:"created_at"`
	UpdatedAt    time.Time               `json:"updated_at"`
}

// NewContext creates an empty session context.
func NewContext(sessionID string) *Context {
	now := time.Now().UTC()
	return &Context{
		SessionID: sessionID,
		Blocks:    make(map[BlockType]any),
		Locks:     make(map[BlockType]bool),
		Meta:      Meta{UpdatedAt: now},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// touch bumps the session version and refreshes the updated timestamp.
func (c *Context) touch() {
	c.Version++
	c.UpdatedAt = time.Now().UTC()
}

// bumpMetaFor increments the per-type staleness counter for block types
// that carry one.
func (c *Context) bumpMetaFor(bt BlockType) {
	switch bt {
	case BlockBackground:
		c.Meta.BackgroundV++
	case BlockCharacters:
		c.Meta.CharactersV++
	default:
		return
	}
	c.Meta.UpdatedAt = time.Now().UTC()
}

// AppendBlock merges data into the named block using the per-type merge
// policy and bumps the session version. Background and characters appends
// also bump their staleness counters.
func (c *Context) AppendBlock(bt BlockType, data any) error {
	if !bt.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidBlockType, bt)
	}
	if c.Blocks == nil {
		c.Blocks = make(map[BlockType]any)
	}
	c.Blocks[bt] = MergeBlock(bt, c.Blocks[bt], data)
	c.touch()
	c.bumpMetaFor(bt)
	return nil
}

// SetBlock replaces the named block without applying the merge policy.
// Used by generators that produce a complete block.
func (c *Context) SetBlock(bt BlockType, data any) {
	if c.Blocks == nil {
		c.Blocks = make(map[BlockType]any)
	}
	c.Blocks[bt] = data
	c.touch()
}

// Clear drops all context blocks and resets the session version to zero.
// Locks, chains and scene details are retained.
func (c *Context) Clear() {
	c.Blocks = make(map[BlockType]any)
	c.Version = 0
	c.UpdatedAt = time.Now().UTC()
}

// IsBlockLocked reports whether the named block is locked.
func (c *Context) IsBlockLocked(bt BlockType) bool {
	return c.Locks[bt]
}

// decodeBlock round-trips a schemaless block value into a typed struct.
// Blocks are held as decoded JSON (maps and slices) after a load, or as
// typed structs right after generation; the round trip handles both.
func (c *Context) decodeBlock(bt BlockType, v any) error {
	raw, ok := c.Blocks[bt]
	if !ok || raw == nil {
		return nil
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to marshal %s block: %w", bt, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s block: %w", bt, err)
	}
	return nil
}
