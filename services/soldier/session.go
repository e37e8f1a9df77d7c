package soldier

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

// SessionStore maps opaque session tokens to service numbers.
type SessionStore interface {
	Set(ctx context.Context, token, sn string, ttl time.Duration) error
	// Get returns "" with a nil error when the token is unknown or expired.
	Get(ctx context.Context, token string) (string, error)
	Delete(ctx context.Context, token string) error
}

type redisSessionStore struct {
	rdb *redis.Client
}

type SessionStoreParams struct {
	fx.In
	Redis *redis.Client
}

func NewSessionStore(p SessionStoreParams) SessionStore {
	return &redisSessionStore{rdb: p.Redis}
}

func sessionKey(token string) string {
	return "session:" + token
}

func (s *redisSessionStore) Set(ctx context.Context, token, sn string, ttl time.Duration) error {
	return s.rdb.Set(ctx, sessionKey(token), sn, ttl).Err()
}

func (s *redisSessionStore) Get(ctx context.Context, token string) (string, error) {
	sn, err := s.rdb.Get(ctx, sessionKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return sn, nil
}

func (s *redisSessionStore) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}
