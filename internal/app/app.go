package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/neurathon-mate/internal/config"
	httpserver "github.com/yungbote/neurathon-mate/internal/http"
	"github.com/yungbote/neurathon-mate/internal/observability"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      *config.Config
	Clients  Clients
	Repos    Repos
	Services Services
	Metrics  *observability.Metrics

	server       *httpserver.Server
	otelShutdown func(context.Context) error
}

// New loads configuration and wires every dependency. A missing generation
// credential is returned as an error so the caller can exit non-zero.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Env, cfg.Otel)
	metrics := observability.New()

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	reposet := wireRepos(log, clients)
	serviceset := wireServices(log, cfg, clients, reposet, metrics)
	handlerset := wireHandlers(log, cfg, clients, reposet, serviceset, metrics)
	router := wireRouter(log, cfg, handlerset, metrics)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Clients:      clients,
		Repos:        reposet,
		Services:     serviceset,
		Metrics:      metrics,
		server:       httpserver.NewServer(cfg.HTTP, router),
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves the API (and the metrics listener when configured) until ctx is
// cancelled or either server fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Log.Info("Backend listening", "addr", a.Cfg.HTTP.Addr)
		return a.server.Run(gctx)
	})
	if addr := a.Cfg.HTTP.MetricsAddr; addr != "" {
		g.Go(func() error {
			a.Log.Info("Metrics listening", "addr", addr)
			return a.Metrics.Serve(gctx, addr)
		})
	}
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	a.Clients.Close()
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.HTTP.ShutdownTimeout.Duration)
		_ = a.otelShutdown(ctx)
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
