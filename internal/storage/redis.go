package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/storyforge/storyforge/pkg/session"
)

const (
	sessionKeyPrefix = "session:"
	projectKeyPrefix = "project:"
)

// RedisStore implements Storage on Redis. Records have no TTL; authoring
// sessions outlive any reasonable expiry window.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
	locks  *sessionLocks
}

var _ Storage = (*RedisStore)(nil)

func NewRedisStore(redisURL string, logger *slog.Logger) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr: redisURL,
	})
	return &RedisStore{
		client: rdb,
		logger: logger,
		locks:  newSessionLocks(),
	}
}

func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	return nil
}

func (r *RedisStore) LoadSessionContext(ctx context.Context, sessionID string) (*session.Context, error) {
	cmd := r.client.Get(ctx, sessionKeyPrefix+sessionID)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session context: %w", err)
	}

	var sc session.Context
	if err := json.Unmarshal([]byte(cmd.Val()), &sc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session context: %w", err)
	}
	return &sc, nil
}

func (r *RedisStore) SaveSessionContext(ctx context.Context, sc *session.Context) error {
	if err := r.locks.acquire(ctx, sc.SessionID); err != nil {
		return err
	}
	defer r.locks.release(sc.SessionID)

	sc.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sc)
	if err != nil {
		return fmt.Errorf("failed to marshal session context: %w", err)
	}
	if err := r.client.Set(ctx, sessionKeyPrefix+sc.SessionID, string(data), 0).Err(); err != nil {
		r.logger.Error("Failed to save session context", "session_id", sc.SessionID, "error", err)
		return fmt.Errorf("failed to save session context: %w", err)
	}
	return nil
}

func (r *RedisStore) ListProjects(ctx context.Context) ([]session.Project, error) {
	keys, err := r.client.Keys(ctx, projectKeyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	projects := make([]session.Project, 0, len(keys))
	for _, key := range keys {
		p, err := r.GetProject(ctx, strings.TrimPrefix(key, projectKeyPrefix))
		if err != nil {
			return nil, err
		}
		if p != nil {
			projects = append(projects, *p)
		}
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

func (r *RedisStore) GetProject(ctx context.Context, id string) (*session.Project, error) {
	cmd := r.client.Get(ctx, projectKeyPrefix+id)
	if err := cmd.Err(); err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load project: %w", err)
	}

	var p session.Project
	if err := json.Unmarshal([]byte(cmd.Val()), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project: %w", err)
	}
	return &p, nil
}

func (r *RedisStore) SaveProject(ctx context.Context, p *session.Project) error {
	p.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal project: %w", err)
	}
	if err := r.client.Set(ctx, projectKeyPrefix+p.ID, string(data), 0).Err(); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}
	return nil
}

func (r *RedisStore) DeleteProject(ctx context.Context, id string) error {
	deleted, err := r.client.Del(ctx, projectKeyPrefix+id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("project %s not found", id)
	}
	return nil
}

// LoadLegacyChain has no Redis representation. Standalone chain files only
// ever existed on the filesystem backend.
func (r *RedisStore) LoadLegacyChain(ctx context.Context, chainID string) (*session.MacroChain, error) {
	return nil, nil
}
