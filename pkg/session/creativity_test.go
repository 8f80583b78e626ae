package session

import (
	"testing"
)

func TestRecordApproaches(t *testing.T) {
	sc := NewContext("sess-1")

	for i := 0; i < 12; i++ {
		sc.RecordChainApproach("approach", "cinematic", "slow-burn")
	}
	if got := len(sc.Creativity.MacroChainApproaches); got != maxApproachHistory {
		t.Errorf("Expected history capped at %d, got %d", maxApproachHistory, got)
	}

	sc.RecordChainApproach("newest", "gritty", "fast")
	recent := sc.RecentChainApproaches()
	if recent[0] != "newest" {
		t.Errorf("Expected newest approach first, got %s", recent[0])
	}

	sc.RecordSceneApproach("tense", "noir")
	if got := sc.RecentSceneApproaches(); len(got) != 1 || got[0] != "tense" {
		t.Errorf("Unexpected scene approaches: %v", got)
	}
}

func TestSelectApproach(t *testing.T) {
	if got := SelectApproach(nil, nil); got != "" {
		t.Errorf("Expected empty selection for no candidates, got %q", got)
	}

	// Small candidate pools ignore history.
	small := []string{"a", "b", "c"}
	if got := SelectApproach(small, []string{"a", "b", "c"}); got == "" {
		t.Error("Expected a selection from small pool")
	}

	// Large pools avoid recently used approaches.
	large := make([]string, 0, 12)
	for _, s := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l"} {
		large = append(large, s)
	}
	recent := large[:11]
	for i := 0; i < 20; i++ {
		if got := SelectApproach(large, recent); got != "l" {
			t.Fatalf("Expected only unused approach l, got %q", got)
		}
	}

	// When everything was recently used, selection resets instead of failing.
	if got := SelectApproach(large, large); got == "" {
		t.Error("Expected reset selection when all approaches are used")
	}
}

func TestVariationSeed(t *testing.T) {
	sc := NewContext("sess-1")
	seed := sc.VariationSeed()
	if seed < 0 || seed >= 1000 {
		t.Errorf("Expected seed in [0, 1000), got %d", seed)
	}
}
