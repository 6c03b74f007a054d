// Package rate limita intentos por clave (IP del admin) con ventana fija.
// Protege el aprovisionamiento del token: cada intento manda credenciales a Coral.
package rate

import (
	"context"
	"fmt"
	"strings"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// DefaultWindow es la ventana cuando la config no trae una válida.
const DefaultWindow = 10 * time.Minute

type Result struct {
	Allowed     bool
	Remaining   int64
	RetryAfter  time.Duration
	CurrentHits int64
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Result, error)
}

// redisCounter es lo que RedisLimiter necesita de *redis.Client.
type redisCounter interface {
	Incr(ctx context.Context, key string) *rdb.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *rdb.BoolCmd
	TTL(ctx context.Context, key string) *rdb.DurationCmd
}

// RedisLimiter: fixed window sencillo (INCR + EXPIRE), compartido entre réplicas.
type RedisLimiter struct {
	client redisCounter
	prefix string
	max    int64
	window time.Duration
	now    func() time.Time
}

func NewRedisLimiter(client redisCounter, prefix string, max int, window time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "rl:"
	}
	return &RedisLimiter{client: client, prefix: prefix, max: int64(max), window: window, now: time.Now}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (Result, error) {
	winStart := l.now().UTC().Truncate(l.window)
	redisKey := fmt.Sprintf("%s%s:%d", l.prefix, strings.ReplaceAll(key, " ", "_"), winStart.Unix())

	hits, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return Result{}, fmt.Errorf("rate: incr: %w", err)
	}
	// expiry en el primer hit
	if hits == 1 {
		_ = l.client.Expire(ctx, redisKey, l.window).Err()
	}

	res := evaluate(hits, l.max)
	if !res.Allowed {
		ttl, err := l.client.TTL(ctx, redisKey).Result()
		if err != nil || ttl < 0 {
			ttl = winStart.Add(l.window).Sub(l.now().UTC())
		}
		res.RetryAfter = ceilSecond(ttl)
	}
	return res, nil
}

func evaluate(hits, max int64) Result {
	remaining := max - hits
	if remaining < 0 {
		remaining = 0
	}
	return Result{Allowed: hits <= max, Remaining: remaining, CurrentHits: hits}
}

func ceilSecond(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	return ((d + time.Second - 1) / time.Second) * time.Second
}
