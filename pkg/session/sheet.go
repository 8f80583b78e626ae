package session

import "time"

// SRD 2014 character sheets are authored by hand in the frontend, saved
// alongside generated characters. Unlike the schemaless context blocks,
// sheets have a fixed shape.

// AbilityScores holds the six SRD ability scores.
type AbilityScores struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// RaceTrait is a named racial trait.
type RaceTrait struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Subrace is an SRD subrace with its ability increases and traits.
type Subrace struct {
	Name                 string         `json:"name"`
	AbilityScoreIncrease map[string]int `json:"ability_score_increase"`
	Traits               []RaceTrait    `json:"traits"`
}

// Race is an SRD race.
type Race struct {
	Name                 string         `json:"name"`
	Subraces             []Subrace      `json:"subraces,omitempty"`
	AbilityScoreIncrease map[string]int `json:"ability_score_increase"`
	Traits               []RaceTrait    `json:"traits"`
	Languages            []string       `json:"languages"`
	Speed                int            `json:"speed"`
	Size                 string         `json:"size"`
}

// BackgroundFeature is the feature granted by an SRD background.
type BackgroundFeature struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// SheetBackground is an SRD background entry.
type SheetBackground struct {
	Name               string            `json:"name"`
	SkillProficiencies []string          `json:"skill_proficiencies"`
	ToolProficiencies  []string          `json:"tool_proficiencies"`
	Languages          []string          `json:"languages"`
	Equipment          []string          `json:"equipment"`
	Feature            BackgroundFeature `json:"feature"`
	PersonalityTraits  []string          `json:"personality_traits"`
	Ideals             []string          `json:"ideals"`
	Bonds              []string          `json:"bonds"`
	Flaws              []string          `json:"flaws"`
}

// Sheet is a full SRD 2014 character sheet, optionally linked to a
// generated story character.
type Sheet struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Level              int             `json:"level"`
	Ruleset            string          `json:"ruleset"` // always "SRD2014"
	AbilityScores      AbilityScores   `json:"ability_scores"`
	AbilityScoreMethod string          `json:"ability_score_method"` // "standard" or "point-buy"
	PointBuyTotal      *int            `json:"point_buy_total,omitempty"`
	Race               Race            `json:"race"`
	Subrace            *Subrace        `json:"subrace,omitempty"`
	Background         SheetBackground `json:"background"`
	AbilityModifiers   AbilityScores   `json:"ability_modifiers"`
	StoryCharacterID   string          `json:"story_character_id,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// SheetsBlock holds saved character sheets for a session.
type SheetsBlock struct {
	Sheets  []Sheet `json:"sheets"`
	Version int64   `json:"version"`
}

// SheetsBlock decodes the sheets block. Returns an empty block when none
// have been saved yet.
func (c *Context) SheetsBlock() (*SheetsBlock, error) {
	var sb SheetsBlock
	if err := c.decodeBlock(BlockSheets, &sb); err != nil {
		return nil, err
	}
	return &sb, nil
}

// SaveSheet inserts or updates a character sheet by id.
func (c *Context) SaveSheet(sheet Sheet) (*SheetsBlock, error) {
	sb, err := c.SheetsBlock()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	sheet.UpdatedAt = now
	idx := -1
	for i, existing := range sb.Sheets {
		if existing.ID == sheet.ID {
			idx = i
			break
		}
	}
	if idx >= 0 {
		sheet.CreatedAt = sb.Sheets[idx].CreatedAt
		sb.Sheets[idx] = sheet
	} else {
		sheet.CreatedAt = now
		sb.Sheets = append(sb.Sheets, sheet)
	}

	sb.Version = now.UnixMilli()
	c.SetBlock(BlockSheets, sb)
	return sb, nil
}

// DeleteSheet removes a character sheet by id.
func (c *Context) DeleteSheet(sheetID string) (*Sheet, error) {
	sb, err := c.SheetsBlock()
	if err != nil {
		return nil, err
	}
	if len(sb.Sheets) == 0 {
		return nil, ErrCharacterNotFound
	}

	idx := -1
	for i, existing := range sb.Sheets {
		if existing.ID == sheetID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrCharacterNotFound
	}

	deleted := sb.Sheets[idx]
	sb.Sheets = append(sb.Sheets[:idx], sb.Sheets[idx+1:]...)
	sb.Version = time.Now().UnixMilli()
	c.SetBlock(BlockSheets, sb)
	return &deleted, nil
}
