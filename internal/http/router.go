package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurathon-mate/internal/http/handlers"
	httpMW "github.com/yungbote/neurathon-mate/internal/http/middleware"
	"github.com/yungbote/neurathon-mate/internal/observability"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
)

type RouterConfig struct {
	Log          *logger.Logger
	Metrics      *observability.Metrics
	AllowOrigins []string

	// SeparateMetrics leaves /metrics off this router.
	SeparateMetrics bool

	// TraceService enables otelgin spans under this service name when set.
	TraceService string

	HealthHandler    *httpH.HealthHandler
	DecomposeHandler *httpH.DecomposeHandler
	SpeechHandler    *httpH.SpeechHandler
	StaticHandler    *httpH.StaticHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	if cfg.TraceService != "" {
		r.Use(otelgin.Middleware(cfg.TraceService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Recover(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/healthz", cfg.HealthHandler.Healthz)
	}

	if cfg.Metrics != nil && !cfg.SeparateMetrics {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Decompose
	if cfg.DecomposeHandler != nil {
		r.POST("/decompose", cfg.DecomposeHandler.Decompose)
		r.GET("/decompose/stats", cfg.DecomposeHandler.Stats)
	}

	// Speech
	if cfg.SpeechHandler != nil {
		r.POST("/speech-to-text", cfg.SpeechHandler.SpeechToText)
	}

	// SPA
	if cfg.StaticHandler != nil {
		r.NoRoute(cfg.StaticHandler.Serve)
	}

	return r
}
