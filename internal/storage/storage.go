package storage

import (
	"context"
	"errors"

	"github.com/storyforge/storyforge/pkg/session"
)

// ErrSaveTimeout is returned when a session's save lock could not be
// acquired within the polling window.
var ErrSaveTimeout = errors.New("timed out waiting for session save lock")

// Storage persists session contexts and projects. Load returns nil for
// missing records rather than an error.
type Storage interface {
	Ping(ctx context.Context) error
	Close() error

	LoadSessionContext(ctx context.Context, sessionID string) (*session.Context, error)
	SaveSessionContext(ctx context.Context, sc *session.Context) error

	ListProjects(ctx context.Context) ([]session.Project, error)
	GetProject(ctx context.Context, id string) (*session.Project, error)
	SaveProject(ctx context.Context, p *session.Project) error
	DeleteProject(ctx context.Context, id string) error

	// LoadLegacyChain reads a chain persisted by the standalone chain
	// store that predates chains living inside the session context.
	// Legacy records are keyed by chain id. Returns nil when none exists.
	LoadLegacyChain(ctx context.Context, chainID string) (*session.MacroChain, error)
}
