package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redisclient "github.com/aurelle-jewelry/storefront-backend/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

type mirrorStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
}

type mirrorKeyer interface {
	StateKey(sessionID string) string
}

// RedisSnapshotStore keeps one serialized mirror blob per session key.
type RedisSnapshotStore struct {
	store mirrorStore
	keyer mirrorKeyer
	ttl   time.Duration
}

// NewRedisSnapshotStore builds the production mirror store.
func NewRedisSnapshotStore(client *redisclient.Client, ttl time.Duration) (*RedisSnapshotStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("mirror ttl must be positive")
	}
	return &RedisSnapshotStore{store: client, keyer: client, ttl: ttl}, nil
}

// Load reads the session's mirror. A missing blob, a corrupt blob, or one
// from an unknown schema version all hydrate as an empty snapshot.
func (r *RedisSnapshotStore) Load(ctx context.Context, sessionID string) (*Snapshot, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	raw, err := r.store.Get(ctx, r.keyer.StateKey(sessionID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return EmptySnapshot(), nil
		}
		return nil, err
	}

	snap := &Snapshot{}
	if err := json.Unmarshal([]byte(raw), snap); err != nil {
		return EmptySnapshot(), nil
	}
	if snap.SchemaVersion != SnapshotSchemaVersion {
		return EmptySnapshot(), nil
	}
	return snap, nil
}

// Save overwrites the session's mirror blob.
func (r *RedisSnapshotStore) Save(ctx context.Context, sessionID string, snap *Snapshot) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("session id is required")
	}
	if snap == nil {
		return fmt.Errorf("snapshot is required")
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encoding cart mirror: %w", err)
	}
	return r.store.Set(ctx, r.keyer.StateKey(sessionID), string(payload), r.ttl)
}
