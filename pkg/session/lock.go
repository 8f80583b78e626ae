package session

import (
	"fmt"
	"time"
)

// SetBlockLock locks or unlocks a context block. Locking an already-locked
// block fails, as does unlocking one that is not locked. Locking background
// or characters bumps their staleness counters.
func (c *Context) SetBlockLock(bt BlockType, locked bool) error {
	if !bt.Lockable() {
		return fmt.Errorf("%w: %s", ErrInvalidBlockType, bt)
	}
	if c.Locks == nil {
		c.Locks = make(map[BlockType]bool)
	}
	if locked && c.Locks[bt] {
		return fmt.Errorf("block %s: %w", bt, ErrAlreadyLocked)
	}
	if !locked && !c.Locks[bt] {
		return fmt.Errorf("block %s: %w", bt, ErrNotLocked)
	}

	c.Locks[bt] = locked
	c.touch()
	if locked {
		c.bumpMetaFor(bt)
	}
	return nil
}

// LockChain locks or unlocks a macro chain. Unlocking cascades: every scene
// detail in the session depends on the chain and is marked NeedsRegen. The
// affected scene ids are returned.
func (c *Context) LockChain(chainID string, locked bool) (*MacroChain, []string, error) {
	mc, err := c.Chain(chainID)
	if err != nil {
		return nil, nil, err
	}

	if locked && mc.Status == StatusLocked {
		return nil, nil, fmt.Errorf("chain %s: %w", chainID, ErrAlreadyLocked)
	}
	if !locked && mc.Status != StatusLocked {
		return nil, nil, fmt.Errorf("chain %s: %w", chainID, ErrNotLocked)
	}

	now := time.Now().UTC()
	mc.Version++
	mc.LastUpdatedAt = now
	if locked {
		mc.Status = StatusLocked
		mc.LockedAt = &now
	} else {
		mc.Status = StatusEdited
		mc.LockedAt = nil
	}

	var affected []string
	if !locked {
		for id, sd := range c.SceneDetails {
			if sd == nil || sd.SceneID == "" {
				continue
			}
			sd.Status = StatusNeedsRegen
			sd.Version++
			sd.LastUpdatedAt = now
			affected = append(affected, id)
		}
	}

	c.PutChain(mc)
	return mc, affected, nil
}

// LockScene locks or unlocks a scene detail. Unlocking marks the scene
// itself NeedsRegen and cascades forward: every later-sequenced, currently
// locked scene is also marked NeedsRegen. The chain is untouched.
func (c *Context) LockScene(sceneID string, locked bool) (*SceneDetail, []string, error) {
	sd, err := c.SceneDetail(sceneID)
	if err != nil {
		return nil, nil, err
	}

	if locked && sd.Status == StatusLocked {
		return nil, nil, fmt.Errorf("scene %s: %w", sceneID, ErrAlreadyLocked)
	}
	if !locked && sd.Status != StatusLocked {
		return nil, nil, fmt.Errorf("scene %s: %w", sceneID, ErrNotLocked)
	}

	now := time.Now().UTC()
	sd.Version++
	sd.LastUpdatedAt = now
	if locked {
		sd.Status = StatusLocked
		sd.LockedAt = &now
	} else {
		sd.Status = StatusNeedsRegen
	}

	var affected []string
	if !locked {
		for id, detail := range c.SceneDetails {
			if detail == nil || id == sceneID {
				continue
			}
			if detail.Sequence > sd.Sequence && detail.Status == StatusLocked {
				detail.Status = StatusNeedsRegen
				detail.Version++
				detail.LastUpdatedAt = now
				affected = append(affected, id)
			}
		}
	}

	c.touch()
	return sd, affected, nil
}

// IsChainLocked reports whether the chain exists and is locked.
func (c *Context) IsChainLocked(chainID string) bool {
	mc, err := c.Chain(chainID)
	return err == nil && mc.Status == StatusLocked
}

// HasLockedChain reports whether any chain in the session is locked.
func (c *Context) HasLockedChain() bool {
	for _, mc := range c.MacroChains {
		if mc != nil && mc.Status == StatusLocked {
			return true
		}
	}
	return false
}

// IsSceneLocked reports whether the scene exists and is locked.
func (c *Context) IsSceneLocked(sceneID string) bool {
	sd, err := c.SceneDetail(sceneID)
	return err == nil && sd.Status == StatusLocked
}
