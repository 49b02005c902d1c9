package region

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/dailyyoga/storefront-edge/cache"
	"github.com/redis/go-redis/v9"
)

// SnapshotStore shares the last good mapping between edge replicas
type SnapshotStore interface {
	Save(ctx context.Context, m *Mapping) error
	// Load returns ErrSnapshotNotFound when nothing is stored
	Load(ctx context.Context) (*Mapping, error)
}

type snapshot struct {
	Mapping   *Mapping  `json:"mapping"`
	FetchedAt time.Time `json:"fetched_at"`
}

type redisSnapshotStore struct {
	client cache.Redis
	key    string
	ttl    time.Duration
}

// NewRedisSnapshotStore stores snapshots under key with the given expiry.
// A zero ttl keeps them forever.
func NewRedisSnapshotStore(client cache.Redis, key string, ttl time.Duration) SnapshotStore {
	return &redisSnapshotStore{client: client, key: key, ttl: ttl}
}

func (s *redisSnapshotStore) Save(ctx context.Context, m *Mapping) error {
	data, err := json.Marshal(snapshot{Mapping: m, FetchedAt: time.Now().UTC()})
	if err != nil {
		return ErrSnapshot("encode", err)
	}
	if err := s.client.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return ErrSnapshot("save", err)
	}
	return nil
}

func (s *redisSnapshotStore) Load(ctx context.Context) (*Mapping, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, ErrSnapshot("load", err)
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, ErrSnapshot("decode", err)
	}
	if snap.Mapping.Len() == 0 {
		return nil, ErrSnapshotNotFound
	}
	return snap.Mapping, nil
}
