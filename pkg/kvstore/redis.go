package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/avaldezm/marketbox-backend/pkg/errors"
	"github.com/avaldezm/marketbox-backend/pkg/logger"
	pkgredis "github.com/avaldezm/marketbox-backend/pkg/redis"
)

// RedisStore persists values through the shared redis client.
type RedisStore struct {
	client *pkgredis.Client
	logg   *logger.Logger
}

// NewRedisStore wraps the redis client as a Store.
func NewRedisStore(client *pkgredis.Client, logg *logger.Logger) (*RedisStore, error) {
	if client == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "redis client required")
	}
	return &RedisStore{client: client, logg: logg}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := s.client.Get(ctx, key)
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return false, nil
		}
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read key")
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		// Self-healing: a payload we can no longer decode is gone either way.
		if s.logg != nil {
			logCtx := s.logg.WithField(ctx, "key", key)
			s.logg.Warn(logCtx, "discarding corrupt persisted payload")
		}
		if delErr := s.client.Del(ctx, key); delErr != nil {
			return false, pkgerrors.Wrap(pkgerrors.CodeDependency, delErr, "clear corrupt key")
		}
		return false, nil
	}
	return true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode value")
	}
	if err := s.client.Set(ctx, key, string(payload), ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write key")
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete keys")
	}
	return nil
}
