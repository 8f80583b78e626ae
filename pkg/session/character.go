package session

import "time"

// Character is a generated playable character. Narrative fields come from
// the LLM; id and status are assigned by the backend.
type Character struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Role                 string   `json:"role"`
	Race                 string   `json:"race"`
	Class                string   `json:"class"`
	Personality          string   `json:"personality"`
	Motivation           string   `json:"motivation"`
	ConnectionToStory    string   `json:"connection_to_story"`
	GMSecret             string   `json:"gm_secret"`
	PotentialConflict    string   `json:"potential_conflict"`
	VoiceTone            string   `json:"voice_tone"`
	InventoryHint        string   `json:"inventory_hint"`
	MotifAlignment       []string `json:"motif_alignment"`
	BackgroundHistory    string   `json:"background_history"`
	KeyRelationships     []string `json:"key_relationships"`
	FlawOrWeakness       string   `json:"flaw_or_weakness"`
	Languages            []string `json:"languages"`
	Alignment            string   `json:"alignment"`
	Deity                *string  `json:"deity"`
	PhysicalDescription  string   `json:"physical_description"`
	EquipmentPreferences []string `json:"equipment_preferences"`
	Subrace              *string  `json:"subrace"`
	Age                  int      `json:"age"`
	Height               string   `json:"height"`
	Proficiencies        []string `json:"proficiencies"`
	Status               string   `json:"status,omitempty"` // "generated" or "saved"
}

// CharactersBlock holds the generated character roster. Version is a
// millisecond timestamp, bumped on every roster mutation.
type CharactersBlock struct {
	List     []Character `json:"list"`
	Locked   bool        `json:"locked"`
	LockedAt *time.Time  `json:"locked_at,omitempty"`
	Version  int64       `json:"version"`
}

// CharactersBlock decodes the characters block. Returns nil when no
// characters have been generated.
func (c *Context) CharactersBlock() (*CharactersBlock, error) {
	if _, ok := c.Blocks[BlockCharacters]; !ok {
		return nil, nil
	}
	var cb CharactersBlock
	if err := c.decodeBlock(BlockCharacters, &cb); err != nil {
		return nil, err
	}
	return &cb, nil
}

// SetCharacters replaces the character roster with a freshly generated,
// unlocked block.
func (c *Context) SetCharacters(characters []Character) *CharactersBlock {
	cb := &CharactersBlock{
		List:    characters,
		Locked:  false,
		Version: time.Now().UnixMilli(),
	}
	c.SetBlock(BlockCharacters, cb)
	return cb
}

// UpsertCharacter replaces the character with a matching id. The roster
// must exist and be unlocked.
func (c *Context) UpsertCharacter(ch Character) (*CharactersBlock, error) {
	cb, err := c.CharactersBlock()
	if err != nil {
		return nil, err
	}
	if cb == nil || len(cb.List) == 0 {
		return nil, ErrNoCharacters
	}
	if cb.Locked || c.IsBlockLocked(BlockCharacters) {
		return nil, ErrAlreadyLocked
	}

	idx := -1
	for i, existing := range cb.List {
		if existing.ID == ch.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrCharacterNotFound
	}

	cb.List[idx] = ch
	cb.Version = time.Now().UnixMilli()
	c.SetBlock(BlockCharacters, cb)
	return cb, nil
}

// DeleteCharacter removes the character with a matching id from the roster.
func (c *Context) DeleteCharacter(characterID string) (*Character, error) {
	cb, err := c.CharactersBlock()
	if err != nil {
		return nil, err
	}
	if cb == nil || len(cb.List) == 0 {
		return nil, ErrNoCharacters
	}

	idx := -1
	for i, existing := range cb.List {
		if existing.ID == characterID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrCharacterNotFound
	}

	deleted := cb.List[idx]
	cb.List = append(cb.List[:idx], cb.List[idx+1:]...)
	cb.Version = time.Now().UnixMilli()
	c.SetBlock(BlockCharacters, cb)
	return &deleted, nil
}
