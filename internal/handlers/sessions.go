package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/storyforge/storyforge/internal/storage"
	"github.com/storyforge/storyforge/pkg/session"
)

// loadSession returns the stored context for a session, or a fresh one
// when nothing has been persisted yet.
func loadSession(ctx context.Context, store storage.Storage, sessionID string) (*session.Context, error) {
	sc, err := store.LoadSessionContext(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		sc = session.NewContext(sessionID)
	}
	return sc, nil
}

// loadSessionWithChain loads a session and ensures the requested chain is
// resolvable. Sessions written before chains lived inside the context may
// still have their chain in the standalone legacy store; on a hit the
// chain is adopted into the session.
func loadSessionWithChain(ctx context.Context, store storage.Storage, logger *slog.Logger, sessionID, chainID string) (*session.Context, *session.MacroChain, error) {
	sc, err := loadSession(ctx, store, sessionID)
	if err != nil {
		return nil, nil, err
	}

	chain, err := sc.Chain(chainID)
	if err == nil {
		return sc, chain, nil
	}
	if err != session.ErrChainNotFound {
		return nil, nil, err
	}

	legacy, legacyErr := store.LoadLegacyChain(ctx, chainID)
	if legacyErr != nil {
		return nil, nil, legacyErr
	}
	if legacy == nil {
		return nil, nil, session.ErrChainNotFound
	}
	if legacy.ChainID == "" {
		legacy.ChainID = chainID
	}

	logger.Info("Migrating legacy chain into session",
		"session_id", sessionID, "chain_id", chainID)
	sc.PutChain(legacy)
	return sc, legacy, nil
}

// saveSession persists the context, translating a save-lock timeout into
// 503 so callers retry instead of treating it as data loss.
func saveSession(w http.ResponseWriter, r *http.Request, store storage.Storage, logger *slog.Logger, sc *session.Context) error {
	if err := store.SaveSessionContext(r.Context(), sc); err != nil {
		logger.Error("Failed to save session", "session_id", sc.SessionID, "error", err)
		if errors.Is(err, storage.ErrSaveTimeout) {
			writeError(w, logger, http.StatusServiceUnavailable, "Session is busy, try again")
		} else {
			writeError(w, logger, http.StatusInternalServerError, "Failed to save session")
		}
		return err
	}
	return nil
}
