package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurathon-mate/internal/config"
	httpserver "github.com/yungbote/neurathon-mate/internal/http"
	"github.com/yungbote/neurathon-mate/internal/observability"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg *config.Config, handlers Handlers, metrics *observability.Metrics) *gin.Engine {
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	rc := httpserver.RouterConfig{
		Log:              log,
		Metrics:          metrics,
		AllowOrigins:     cfg.HTTP.AllowOrigins,
		SeparateMetrics:  cfg.HTTP.MetricsAddr != "",
		HealthHandler:    handlers.Health,
		DecomposeHandler: handlers.Decompose,
		SpeechHandler:    handlers.Speech,
		StaticHandler:    handlers.Static,
	}
	if cfg.Otel.Enabled {
		rc.TraceService = cfg.Otel.ServiceName
	}
	return httpserver.NewRouter(rc)
}
