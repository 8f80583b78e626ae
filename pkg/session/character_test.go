package session

import (
	"errors"
	"testing"
)

func TestSetCharacters(t *testing.T) {
	sc := NewContext("sess-1")
	cb := sc.SetCharacters([]Character{
		{ID: "char-1", Name: "Mira", Status: "generated"},
		{ID: "char-2", Name: "Orin", Status: "generated"},
	})

	if cb.Locked {
		t.Error("Fresh roster should be unlocked")
	}
	if cb.Version == 0 {
		t.Error("Expected roster version to be set")
	}
	if sc.Version != 1 {
		t.Errorf("Expected session version 1, got %d", sc.Version)
	}

	loaded, err := sc.CharactersBlock()
	if err != nil {
		t.Fatalf("CharactersBlock failed: %v", err)
	}
	if len(loaded.List) != 2 {
		t.Errorf("Expected 2 characters, got %d", len(loaded.List))
	}
}

func TestUpsertCharacter(t *testing.T) {
	sc := NewContext("sess-1")

	// Without a roster, upsert fails.
	if _, err := sc.UpsertCharacter(Character{ID: "char-1"}); !errors.Is(err, ErrNoCharacters) {
		t.Errorf("Expected ErrNoCharacters, got %v", err)
	}

	sc.SetCharacters([]Character{{ID: "char-1", Name: "Mira"}})

	cb, err := sc.UpsertCharacter(Character{ID: "char-1", Name: "Mira the Bold"})
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if cb.List[0].Name != "Mira the Bold" {
		t.Errorf("Expected updated name, got %s", cb.List[0].Name)
	}

	if _, err := sc.UpsertCharacter(Character{ID: "char-404"}); !errors.Is(err, ErrCharacterNotFound) {
		t.Errorf("Expected ErrCharacterNotFound, got %v", err)
	}

	// A locked roster rejects edits.
	if err := sc.SetBlockLock(BlockCharacters, true); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if _, err := sc.UpsertCharacter(Character{ID: "char-1", Name: "x"}); !errors.Is(err, ErrAlreadyLocked) {
		t.Errorf("Expected ErrAlreadyLocked, got %v", err)
	}
}

func TestDeleteCharacter(t *testing.T) {
	sc := NewContext("sess-1")
	sc.SetCharacters([]Character{
		{ID: "char-1", Name: "Mira"},
		{ID: "char-2", Name: "Orin"},
	})

	deleted, err := sc.DeleteCharacter("char-1")
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deleted.Name != "Mira" {
		t.Errorf("Expected deleted Mira, got %s", deleted.Name)
	}

	cb, _ := sc.CharactersBlock()
	if len(cb.List) != 1 || cb.List[0].ID != "char-2" {
		t.Errorf("Expected one remaining character, got %+v", cb.List)
	}

	if _, err := sc.DeleteCharacter("char-1"); !errors.Is(err, ErrCharacterNotFound) {
		t.Errorf("Expected ErrCharacterNotFound, got %v", err)
	}
}

func TestSaveAndDeleteSheet(t *testing.T) {
	sc := NewContext("sess-1")

	sheet := Sheet{
		ID:      "sheet-1",
		Name:    "Mira",
		Level:   1,
		Ruleset: "SRD2014",
		AbilityScores: AbilityScores{
			Strength: 10, Dexterity: 14, Constitution: 12,
			Intelligence: 13, Wisdom: 11, Charisma: 15,
		},
		AbilityScoreMethod: "standard",
		Race:               Race{Name: "Elf", Speed: 30, Size: "Medium"},
	}

	sb, err := sc.SaveSheet(sheet)
	if err != nil {
		t.Fatalf("SaveSheet failed: %v", err)
	}
	if len(sb.Sheets) != 1 {
		t.Fatalf("Expected 1 sheet, got %d", len(sb.Sheets))
	}
	created := sb.Sheets[0].CreatedAt
	if created.IsZero() {
		t.Error("Expected created_at to be set")
	}

	// Saving again with the same id updates in place.
	sheet.Level = 2
	sb, err = sc.SaveSheet(sheet)
	if err != nil {
		t.Fatalf("SaveSheet update failed: %v", err)
	}
	if len(sb.Sheets) != 1 {
		t.Fatalf("Expected update in place, got %d sheets", len(sb.Sheets))
	}
	if sb.Sheets[0].Level != 2 {
		t.Errorf("Expected level 2, got %d", sb.Sheets[0].Level)
	}
	if !sb.Sheets[0].CreatedAt.Equal(created) {
		t.Error("Update should preserve created_at")
	}

	deleted, err := sc.DeleteSheet("sheet-1")
	if err != nil {
		t.Fatalf("DeleteSheet failed: %v", err)
	}
	if deleted.Name != "Mira" {
		t.Errorf("Expected deleted Mira, got %s", deleted.Name)
	}
	if _, err := sc.DeleteSheet("sheet-1"); !errors.Is(err, ErrCharacterNotFound) {
		t.Errorf("Expected ErrCharacterNotFound, got %v", err)
	}
}
