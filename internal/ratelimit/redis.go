package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "gunggeum:"

// NewRedisClient parses url, configures the pool and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	opts.PoolSize = 10
	opts.MinIdleConns = 2
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// consumeScript increments KEYS[1] unless it already reached ARGV[1].
// The key expires ARGV[2] milliseconds after its first increment.
var consumeScript = redis.NewScript(`
local cur = tonumber(redis.call("GET", KEYS[1]) or "0")
if cur >= tonumber(ARGV[1]) then
	return {cur, 0}
end
cur = redis.call("INCR", KEYS[1])
if cur == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return {cur, 1}
`)

// RedisQuotaStore keeps daily counters in Redis for multi-process deployments.
// Each day gets its own key, so rollover needs no reset.
type RedisQuotaStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisQuotaStore creates a store; keys live for a day plus a buffer.
func NewRedisQuotaStore(client *redis.Client) *RedisQuotaStore {
	return &RedisQuotaStore{client: client, ttl: 26 * time.Hour}
}

// Consume implements QuotaStore.
func (s *RedisQuotaStore) Consume(ctx context.Context, key, day string, limit int) (int, bool, error) {
	rk := fmt.Sprintf("%squota:%s:%s", redisKeyPrefix, key, day)
	res, err := consumeScript.Run(ctx, s.client, []string{rk}, limit, s.ttl.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, false, err
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("unexpected script result %v", res)
	}
	return int(res[0]), res[1] == 1, nil
}

// RedisThrottleStore records stamps with SET NX PX; Redis expiry enforces the window.
type RedisThrottleStore struct {
	client *redis.Client
}

// NewRedisThrottleStore creates a throttle store on client.
func NewRedisThrottleStore(client *redis.Client) *RedisThrottleStore {
	return &RedisThrottleStore{client: client}
}

// Mark implements ThrottleStore.
func (s *RedisThrottleStore) Mark(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	set, err := s.client.SetNX(ctx, redisKeyPrefix+"seen:"+key, now.UnixMilli(), window).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}
