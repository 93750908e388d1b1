package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/evyataryagoni/iptracker/internal/logger"
	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces limiter counters next to the store's keys
const keyPrefix = "iptracker:ratelimit:"

// windowScript counts a request in the current window and returns the count
// The counter expires with its window so old windows clean themselves up.
var windowScript = redis.NewScript(`
local current = redis.call('INCR', KEYS[1])
if current == 1 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return current
`)

// RedisLimiter is a fixed-window limiter shared by every server on one Redis
// Key format: iptracker:ratelimit:{client}:{window number}
type RedisLimiter struct {
	client    *redis.Client
	ownClient bool
	limit     int64
	window    time.Duration
	logger    *logger.Logger
}

// NewRedisLimiter connects to Redis and allows limit requests per window
func NewRedisLimiter(addr, password string, db, limit int, window time.Duration, log *logger.Logger) (*RedisLimiter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis for rate limiting: %w", err)
	}

	rl := NewRedisLimiterFromClient(client, limit, window, log)
	rl.ownClient = true
	return rl, nil
}

// NewRedisLimiterFromClient reuses an existing client; Close leaves it open
func NewRedisLimiterFromClient(client *redis.Client, limit int, window time.Duration, log *logger.Logger) *RedisLimiter {
	if log == nil {
		log = logger.NewDefault()
	}
	if window < time.Millisecond {
		window = time.Second
	}
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
		logger: log.WithComponent("RedisLimiter"),
	}
}

// Allow implements Limiter
// Redis failures fail open so an outage does not take the API down with it.
func (rl *RedisLimiter) Allow(ctx context.Context, key string) bool {
	window := time.Now().UnixMilli() / rl.window.Milliseconds()
	redisKey := fmt.Sprintf("%s%s:%d", keyPrefix, key, window)

	count, err := windowScript.Run(ctx, rl.client, []string{redisKey}, rl.window.Milliseconds()).Int64()
	if err != nil {
		rl.logger.Warn().Err(err).Str("client", key).Msg("Rate limit check failed, allowing request")
		return true
	}

	return count <= rl.limit
}

// Close implements Limiter
func (rl *RedisLimiter) Close() error {
	if rl.ownClient && rl.client != nil {
		return rl.client.Close()
	}
	return nil
}
