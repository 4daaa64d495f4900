package redis

import (
	"context"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"github.com/yungbote/neurathon-mate/internal/config"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
)

// RateLimiter is a fixed-window counter per client. Client identifiers are
// hashed before they reach Redis.
type RateLimiter struct {
	log    *logger.Logger
	rdb    *goredis.Client
	limit  int64
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRateLimiter(ctx context.Context, log *logger.Logger, cfg config.RateLimitConfig) (*RateLimiter, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, fmt.Errorf("missing redis addr")
	}
	if cfg.Limit <= 0 {
		return nil, fmt.Errorf("rate limit must be positive")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	window := cfg.Window.Duration
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		log:    log.With("service", "RedisRateLimiter"),
		rdb:    rdb,
		limit:  int64(cfg.Limit),
		window: window,
		prefix: cfg.Prefix,
		now:    time.Now,
	}, nil
}

// Allow counts one hit for clientKey in the current window.
func (l *RateLimiter) Allow(ctx context.Context, clientKey string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, fmt.Errorf("redis rate limiter not initialized")
	}
	key := l.key(clientKey, l.now())

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, err
	}
	n := incr.Val()
	if n > l.limit {
		l.log.Debug("rate limited", "client_id", clientKey, "count", n)
		return false, nil
	}
	return true, nil
}

func (l *RateLimiter) key(clientKey string, now time.Time) string {
	return l.prefix + hashClientKey(clientKey) + ":" + strconv.FormatInt(now.UnixNano()/int64(l.window), 10)
}

func (l *RateLimiter) Close() error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Close()
}

func hashClientKey(clientKey string) string {
	sum := blake2b.Sum256([]byte(clientKey))
	return hex.EncodeToString(sum[:16])
}
