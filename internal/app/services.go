package app

import (
	"github.com/yungbote/neurathon-mate/internal/config"
	"github.com/yungbote/neurathon-mate/internal/decompose"
	"github.com/yungbote/neurathon-mate/internal/observability"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
	"github.com/yungbote/neurathon-mate/internal/repos"
)

type Repos struct {
	DecomposeCall repos.DecomposeCallRepo
}

type Services struct {
	Decompose *decompose.Service
}

func wireRepos(log *logger.Logger, clients Clients) Repos {
	if clients.DB == nil {
		return Repos{}
	}
	log.Info("Wiring repos...")
	return Repos{
		DecomposeCall: repos.NewDecomposeCallRepo(clients.DB, log),
	}
}

func wireServices(log *logger.Logger, cfg *config.Config, clients Clients, reposet Repos, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	gateway := decompose.NewGateway(clients.LLM.Engine, decompose.GatewayConfig{
		Model:       clients.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout.Duration,
	}, metrics)

	// Typed nils must not leak into the interfaces.
	var limiter decompose.Limiter
	if clients.RateLimiter != nil {
		limiter = clients.RateLimiter
	}
	var calls decompose.CallLog
	if reposet.DecomposeCall != nil {
		calls = reposet.DecomposeCall
	}

	return Services{
		Decompose: decompose.NewService(log, gateway, limiter, calls, metrics),
	}
}
