package app

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/neurathon-mate/internal/clients/gcp"
	"github.com/yungbote/neurathon-mate/internal/clients/redis"
	"github.com/yungbote/neurathon-mate/internal/config"
	"github.com/yungbote/neurathon-mate/internal/db"
	"github.com/yungbote/neurathon-mate/internal/inference/router"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
)

type Clients struct {
	LLM         router.Route
	DB          *gorm.DB
	RateLimiter *redis.RateLimiter
	GcpSpeech   gcp.Speech
}

// wireClients builds the outbound dependencies. Only the generation engine is
// mandatory; optional backends that fail to start are logged and skipped.
func wireClients(ctx context.Context, log *logger.Logger, cfg *config.Config) (Clients, error) {
	log.Info("Wiring clients...")

	// LLM
	route, err := router.New(ctx, cfg.LLM)
	if err != nil {
		return Clients{}, fmt.Errorf("init llm engine: %w", err)
	}
	log.Info("LLM engine ready", "engine", route.Engine.Name(), "model", route.Model)

	// DB
	gdb, err := db.Open(cfg.DB, log)
	if err != nil {
		log.Warn("Database init failed, call log disabled", "error", err)
		gdb = nil
	}

	// Redis
	var limiter *redis.RateLimiter
	if cfg.RateLimit.RedisAddr != "" {
		l, err := redis.NewRateLimiter(ctx, log, cfg.RateLimit)
		if err != nil {
			log.Warn("Redis rate limiter init failed, rate limiting disabled", "error", err)
		} else {
			limiter = l
		}
	}

	// Gcp
	var speech gcp.Speech
	if cfg.Speech.Enabled {
		s, err := gcp.NewSpeech(ctx, log, cfg.Speech)
		if err != nil {
			log.Warn("Speech client init failed, /speech-to-text disabled", "error", err)
		} else {
			speech = s
		}
	}

	return Clients{
		LLM:         route,
		DB:          gdb,
		RateLimiter: limiter,
		GcpSpeech:   speech,
	}, nil
}

func (c Clients) Close() {
	if c.GcpSpeech != nil {
		_ = c.GcpSpeech.Close()
	}
	if c.RateLimiter != nil {
		_ = c.RateLimiter.Close()
	}
	_ = db.Close(c.DB)
}
