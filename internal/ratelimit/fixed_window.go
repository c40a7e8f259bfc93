package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// The script returns the post-increment count and the window's remaining TTL.
var fixedWindowScript = redis.NewScript(`
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {count, redis.call("PTTL", KEYS[1])}
`)

const defaultPrefix = "bingehouse:ratelimit"

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Options tune a limiter beyond limit and window.
type Options struct {
	Password string
	Prefix   string
	// FailOpen admits requests when Redis is unreachable. The default is to
	// reject them.
	FailOpen bool
}

// FixedWindowLimiter limits requests per key in a fixed window shared through Redis.
type FixedWindowLimiter struct {
	limit    int
	window   time.Duration
	failOpen bool

	redisClient *redis.Client
	redisPrefix string
}

// NewRedisFixedWindowLimiter creates a Redis-backed distributed limiter.
func NewRedisFixedWindowLimiter(addr string, limit int, window time.Duration, opts Options) (*FixedWindowLimiter, error) {
	if limit <= 0 || window <= 0 {
		return nil, errors.New("rate limiter requires positive limit and window")
	}
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("rate limiter redis addr is required")
	}
	prefix := strings.TrimSpace(opts.Prefix)
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &FixedWindowLimiter{
		limit:    limit,
		window:   window,
		failOpen: opts.FailOpen,
		redisClient: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: opts.Password,
		}),
		redisPrefix: prefix,
	}, nil
}

// Allow counts one request against key. Redis failures follow the
// configured fail mode.
func (l *FixedWindowLimiter) Allow(ctx context.Context, key string) Decision {
	if l == nil {
		return Decision{}
	}
	key = strings.TrimSpace(key)
	if key == "" {
		key = "unknown"
	}
	windowMs := l.window.Milliseconds()
	windowSlot := time.Now().UTC().UnixMilli() / windowMs
	redisKey := fmt.Sprintf("%s:%s:%d", l.redisPrefix, key, windowSlot)

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	res, err := fixedWindowScript.Run(ctx, l.redisClient, []string{redisKey}, windowMs).Int64Slice()
	if err != nil || len(res) != 2 {
		slog.Warn("rate limiter unavailable", "err", err, "fail_open", l.failOpen)
		return Decision{Allowed: l.failOpen, Limit: l.limit}
	}
	count, ttl := res[0], res[1]
	d := Decision{
		Allowed:   count <= int64(l.limit),
		Limit:     l.limit,
		Remaining: max(l.limit-int(count), 0),
	}
	if !d.Allowed && ttl > 0 {
		d.RetryAfter = time.Duration(ttl) * time.Millisecond
	}
	return d
}

// Close releases the Redis connection pool.
func (l *FixedWindowLimiter) Close() error {
	if l == nil {
		return nil
	}
	return l.redisClient.Close()
}
