package app

import (
	"github.com/yungbote/neurathon-mate/internal/config"
	httpH "github.com/yungbote/neurathon-mate/internal/http/handlers"
	"github.com/yungbote/neurathon-mate/internal/observability"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Decompose *httpH.DecomposeHandler
	Speech    *httpH.SpeechHandler
	Static    *httpH.StaticHandler
}

func wireHandlers(log *logger.Logger, cfg *config.Config, clients Clients, reposet Repos, services Services, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")

	var stats httpH.CallStats
	if reposet.DecomposeCall != nil {
		stats = reposet.DecomposeCall
	}

	h := Handlers{
		Health:    httpH.NewHealthHandler(clients.LLM.Engine.Name(), clients.LLM.Model),
		Decompose: httpH.NewDecomposeHandler(log, services.Decompose, stats, cfg.HTTP.MaxRequestBytes),
		Speech:    httpH.NewSpeechHandler(log, clients.GcpSpeech, metrics, cfg.HTTP.MaxAudioBytes),
	}
	if cfg.HTTP.StaticDir != "" {
		h.Static = httpH.NewStaticHandler(cfg.HTTP.StaticDir)
	}
	return h
}
