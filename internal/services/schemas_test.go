package services

import (
	"strings"
	"testing"
)

func TestValidateBlockJSON(t *testing.T) {
	valid := []byte(`{"scenes": [{"id": "s1", "order": 1, "title": "T", "objective": "O"}]}`)
	if err := ValidateBlockJSON("macro_chain", valid); err != nil {
		t.Errorf("Expected valid chain to pass: %v", err)
	}

	invalid := []byte(`{"scenes": []}`)
	if err := ValidateBlockJSON("macro_chain", invalid); err == nil {
		t.Error("Expected empty scene list to fail")
	}

	if err := ValidateBlockJSON("no_such_kind", valid); err == nil || !strings.Contains(err.Error(), "unknown block kind") {
		t.Errorf("Expected unknown kind error, got %v", err)
	}
}

func TestBlockSchemaKinds(t *testing.T) {
	kinds := BlockSchemaKinds()
	if len(kinds) != 6 {
		t.Fatalf("Expected 6 schema kinds, got %d", len(kinds))
	}
	for i := 1; i < len(kinds); i++ {
		if kinds[i-1] >= kinds[i] {
			t.Errorf("Expected sorted kinds, got %v", kinds)
		}
	}
}
