package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis with INCR + EXPIRE, sharing one counter
// across all application instances. The storage key embeds the window start so
// counters roll over naturally.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed store. An empty prefix defaults to "rl:".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (rs *RedisStore) Incr(ctx context.Context, key string, windowLen time.Duration) (int64, time.Time, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(windowLen)
	redisKey := fmt.Sprintf("%s%s:%d", rs.prefix, key, winStart.Unix())

	pipe := rs.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}

	// First hit in the window owns setting the expiry.
	if incr.Val() == 1 {
		_ = rs.client.Expire(ctx, redisKey, windowLen).Err()
	}

	return incr.Val(), winStart.Add(windowLen), nil
}

func (rs *RedisStore) Reset(ctx context.Context, key string) error {
	iter := rs.client.Scan(ctx, 0, rs.prefix+key+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := rs.client.Del(ctx, iter.Val()).Err(); err != nil {
			return errors.Join(ErrStoreUnavailable, err)
		}
	}
	if err := iter.Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
