// Package ratelimiter backs the two sliding-window rate-limit buckets
// (§4.3: strict auth bucket, loose general bucket) with Redis, implementing
// pkg/ratelimit's SlidingWindowStore interface. The teacher's pkg/ratelimit
// package ships only an in-memory store; Redis is required here so the
// buckets are shared across server instances.
package ratelimiter

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shieldvault/vaultd/pkg/ratelimit"
)

// RedisStore implements ratelimit.SlidingWindowStore on top of go-redis,
// using a sorted set per key: member = unique timestamp+nonce, score = unix
// nanos. Expired members are trimmed lazily on every operation.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore wraps an already-connected redis.UniversalClient (built via
// pkg/redis.Connect) as a rate-limit store.
func NewRedisStore(client redis.UniversalClient, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "ratelimit:"
	}
	return &RedisStore{client: client, prefix: keyPrefix}
}

func (s *RedisStore) zkey(key string) string {
	return s.prefix + key
}

// IncrementAndGet implements the token-bucket-style counter contract using a
// simple INCR with expiry, for callers that only need a fixed window count.
func (s *RedisStore) IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (int64, time.Duration, error) {
	pipe := s.client.Pipeline()
	incrCmd := pipe.IncrBy(ctx, s.zkey(key)+":count", int64(incr))
	pipe.Expire(ctx, s.zkey(key)+":count", window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	ttl, err := s.client.TTL(ctx, s.zkey(key)+":count").Result()
	if err != nil {
		return 0, 0, err
	}
	return incrCmd.Val(), ttl, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (int64, time.Duration, error) {
	val, err := s.client.Get(ctx, s.zkey(key)+":count").Int64()
	if err == redis.Nil {
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, err
	}
	ttl, err := s.client.TTL(ctx, s.zkey(key)+":count").Result()
	if err != nil {
		return 0, 0, err
	}
	return val, ttl, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.zkey(key)+":count")
	pipe.Del(ctx, s.zkey(key))
	_, err := pipe.Exec(ctx)
	return err
}

// ConsumeTokens is implemented in terms of the sliding window so that the
// simple Store interface and the SlidingWindowStore interface stay
// consistent with each other.
func (s *RedisStore) ConsumeTokens(ctx context.Context, key string, n, burst int, window time.Duration) (bool, int64, time.Duration, error) {
	now := time.Now()
	allowed, count, err := s.RecordTimestampIfAllowed(ctx, key, now, window, burst, n)
	if err != nil {
		return false, 0, 0, err
	}
	return allowed, int64(burst) - count, window, nil
}

// RecordTimestamp adds a timestamp member to the key's sorted set.
func (s *RedisStore) RecordTimestamp(ctx context.Context, key string, timestamp time.Time, window time.Duration) error {
	zkey := s.zkey(key)
	member := strconv.FormatInt(timestamp.UnixNano(), 10)

	pipe := s.client.Pipeline()
	pipe.ZAdd(ctx, zkey, redis.Z{Score: float64(timestamp.UnixNano()), Member: member})
	pipe.Expire(ctx, zkey, window)
	_, err := pipe.Exec(ctx)
	return err
}

// CountInWindow returns the number of timestamps within [now-window, now].
func (s *RedisStore) CountInWindow(ctx context.Context, key string, window time.Duration) (int64, error) {
	zkey := s.zkey(key)
	now := time.Now()
	cutoff := now.Add(-window).UnixNano()

	if err := s.client.ZRemRangeByScore(ctx, zkey, "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
		return 0, err
	}
	return s.client.ZCard(ctx, zkey).Result()
}

// CleanupExpired trims timestamps outside the window.
func (s *RedisStore) CleanupExpired(ctx context.Context, key string, window time.Duration) error {
	cutoff := time.Now().Add(-window).UnixNano()
	return s.client.ZRemRangeByScore(ctx, s.zkey(key), "-inf", strconv.FormatInt(cutoff, 10)).Err()
}

// RecordTimestampIfAllowed atomically trims the window, checks the count
// against limit, and records n new timestamps if there is room — all inside
// a WATCH/MULTI transaction so concurrent callers can't both slip past the
// limit (the §5 "optimistic version check or equivalent" requirement,
// applied here to rate-limit buckets rather than share capabilities).
func (s *RedisStore) RecordTimestampIfAllowed(ctx context.Context, key string, timestamp time.Time, window time.Duration, limit int, n int) (bool, int64, error) {
	zkey := s.zkey(key)
	cutoff := timestamp.Add(-window).UnixNano()

	var allowed bool
	var finalCount int64

	txf := func(tx *redis.Tx) error {
		if err := tx.ZRemRangeByScore(ctx, zkey, "-inf", strconv.FormatInt(cutoff, 10)).Err(); err != nil {
			return err
		}
		count, err := tx.ZCard(ctx, zkey).Result()
		if err != nil {
			return err
		}

		if count+int64(n) > int64(limit) {
			allowed = false
			finalCount = count
			return nil
		}

		_, err = tx.Pipelined(ctx, func(pipe redis.Pipeliner) error {
			for i := 0; i < n; i++ {
				member := strconv.FormatInt(timestamp.UnixNano(), 10) + "-" + strconv.Itoa(i)
				pipe.ZAdd(ctx, zkey, redis.Z{Score: float64(timestamp.UnixNano()), Member: member})
			}
			pipe.Expire(ctx, zkey, window)
			return nil
		})
		if err != nil {
			return err
		}

		allowed = true
		finalCount = count + int64(n)
		return nil
	}

	err := s.client.Watch(ctx, txf, zkey)
	if err != nil {
		return false, 0, err
	}
	return allowed, finalCount, nil
}

var _ ratelimit.SlidingWindowStore = (*RedisStore)(nil)
