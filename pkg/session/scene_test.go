package session

import (
	"errors"
	"sort"
	"testing"
)

func TestApplySceneEdits(t *testing.T) {
	sc := NewContext("sess-1")
	sd := testSceneDetail("scene-a", 1, StatusGenerated)
	sd.ContextOut = ContextOut{KeyEvents: []string{"the door opens"}}
	sc.PutSceneDetail(sd)

	updated, err := sc.ApplySceneEdits("scene-a", SceneEdit{
		Title:       "The Cellar",
		GMNarrative: "Dust hangs in the lamplight.",
	})
	if err != nil {
		t.Fatalf("ApplySceneEdits failed: %v", err)
	}
	if updated.Status != StatusEdited {
		t.Errorf("Expected Edited, got %s", updated.Status)
	}
	if updated.Version != 2 {
		t.Errorf("Expected version 2, got %d", updated.Version)
	}
	if updated.Title != "The Cellar" || updated.Objective != "Objective" {
		t.Error("Expected edited fields updated and others preserved")
	}

	// Edits against a locked scene fail.
	if _, _, err := sc.LockScene("scene-a", true); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	if _, err := sc.ApplySceneEdits("scene-a", SceneEdit{Title: "x"}); !errors.Is(err, ErrAlreadyLocked) {
		t.Errorf("Expected ErrAlreadyLocked, got %v", err)
	}

	if _, err := sc.ApplySceneEdits("scene-404", SceneEdit{}); !errors.Is(err, ErrSceneNotFound) {
		t.Errorf("Expected ErrSceneNotFound, got %v", err)
	}
}

func TestDeleteSceneDetail(t *testing.T) {
	sc := NewContext("sess-1")
	sc.PutSceneDetail(testSceneDetail("scene-a", 1, StatusGenerated))

	if err := sc.DeleteSceneDetail("scene-a"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := sc.SceneDetail("scene-a"); !errors.Is(err, ErrSceneNotFound) {
		t.Error("Expected scene to be gone")
	}
	if err := sc.DeleteSceneDetail("scene-a"); !errors.Is(err, ErrSceneNotFound) {
		t.Errorf("Expected ErrSceneNotFound, got %v", err)
	}
}

func TestPropagate(t *testing.T) {
	sc := NewContext("sess-1")

	a := testSceneDetail("scene-a", 1, StatusLocked)
	a.ContextOut = ContextOut{
		KeyEvents:    []string{"the seal breaks"},
		StateChanges: map[string]any{"seal": "broken"},
	}
	b := testSceneDetail("scene-b", 2, StatusEdited)
	b.ContextOut = ContextOut{
		KeyEvents:    []string{"the choir sings"},
		RevealedInfo: []string{"the manor remembers"},
		StateChanges: map[string]any{"choir": "active"},
	}
	sc.PutSceneDetail(a)
	sc.PutSceneDetail(b)
	sc.PutSceneDetail(testSceneDetail("scene-c", 3, StatusGenerated))
	sc.PutSceneDetail(testSceneDetail("scene-d", 4, StatusLocked))
	sc.PutSceneDetail(testSceneDetail("scene-e", 5, StatusNeedsRegen))

	affected, effective, err := sc.Propagate("scene-b")
	if err != nil {
		t.Fatalf("Propagate failed: %v", err)
	}

	sort.Strings(affected)
	want := []string{"scene-c", "scene-d"}
	if len(affected) != len(want) {
		t.Fatalf("Expected affected %v, got %v", want, affected)
	}
	for i := range want {
		if affected[i] != want[i] {
			t.Errorf("Expected affected[%d]=%s, got %s", i, want[i], affected[i])
		}
	}
	if sc.SceneDetails["scene-e"].Status != StatusNeedsRegen {
		t.Error("Already-stale scene should be left alone")
	}

	if len(effective.KeyEvents) != 2 {
		t.Errorf("Expected merged key events from scenes a and b, got %v", effective.KeyEvents)
	}
	if effective.StateChanges["seal"] != "broken" || effective.StateChanges["choir"] != "active" {
		t.Errorf("Expected merged state changes, got %v", effective.StateChanges)
	}
	if len(effective.RevealedInfo) != 1 {
		t.Errorf("Expected revealed info carried through, got %v", effective.RevealedInfo)
	}
}
