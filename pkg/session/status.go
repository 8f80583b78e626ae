package session

// Status is the lifecycle state of a generated artifact (macro chain or
// scene detail).
type Status string

const (
	StatusDraft      Status = "Draft"
	StatusGenerated  Status = "Generated"
	StatusEdited     Status = "Edited"
	StatusLocked     Status = "Locked"
	StatusNeedsRegen Status = "NeedsRegen"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusGenerated, StatusEdited, StatusLocked, StatusNeedsRegen:
		return true
	}
	return false
}
