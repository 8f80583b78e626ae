package session

import "errors"

var (
	// ErrInvalidBlockType is returned when a block type is not one of the
	// recognized context block types.
	ErrInvalidBlockType = errors.New("invalid block type")

	// ErrAlreadyLocked is returned when locking a block, chain or scene
	// that is already locked.
	ErrAlreadyLocked = errors.New("already locked")

	// ErrNotLocked is returned when unlocking a block, chain or scene
	// that is not locked.
	ErrNotLocked = errors.New("not locked")

	// ErrChainNotFound is returned when a macro chain id is not present
	// in the session.
	ErrChainNotFound = errors.New("macro chain not found")

	// ErrSceneNotFound is returned when a scene detail id is not present
	// in the session.
	ErrSceneNotFound = errors.New("scene detail not found")

	// ErrCharacterNotFound is returned when a character id is not present
	// in the characters block.
	ErrCharacterNotFound = errors.New("character not found")

	// ErrNoCharacters is returned when an operation requires a generated
	// characters block and none exists.
	ErrNoCharacters = errors.New("characters have not been generated")
)
