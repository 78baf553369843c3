package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/po-tati-x/potatix-sub004/internal/pkg/logger"
)

// KVStore implements kv.Store on a shared redis connection. TTL eviction is
// redis's own; there is no explicit deletion path.
type KVStore struct {
	log *logger.Logger
	rdb *goredis.Client
}

func NewKVStore(log *logger.Logger, rdb *goredis.Client) (*KVStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if rdb == nil {
		return nil, fmt.Errorf("redis client required")
	}
	return &KVStore{log: log.With("service", "RedisKVStore"), rdb: rdb}, nil
}

func (s *KVStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return s.rdb.Set(ctx, key, value, ttl).Err()
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}
