package scene

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SharedState is what server instances share: the latest snapshot of each
// scene and a channel of scene events.
type SharedState interface {
	SaveSnapshot(ctx context.Context, token string, data []byte, ttl time.Duration) error
	// LoadSnapshot returns ErrSceneNotFound when nothing is stored for token.
	LoadSnapshot(ctx context.Context, token string) ([]byte, error)
	DeleteSnapshot(ctx context.Context, token string) error
	Publish(ctx context.Context, payload []byte) error
}

// RedisState keeps snapshots under scene:<token>:state and publishes on
// EventsChannel.
type RedisState struct {
	rdb *redis.Client
}

func NewRedisState(rdb *redis.Client) *RedisState {
	return &RedisState{rdb: rdb}
}

func stateKey(token string) string {
	return "scene:" + token + ":state"
}

func (r *RedisState) SaveSnapshot(ctx context.Context, token string, data []byte, ttl time.Duration) error {
	return r.rdb.SetEx(ctx, stateKey(token), data, ttl).Err()
}

func (r *RedisState) LoadSnapshot(ctx context.Context, token string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, stateKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSceneNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return data, nil
}

func (r *RedisState) DeleteSnapshot(ctx context.Context, token string) error {
	return r.rdb.Del(ctx, stateKey(token)).Err()
}

func (r *RedisState) Publish(ctx context.Context, payload []byte) error {
	return r.rdb.Publish(ctx, EventsChannel, payload).Err()
}
