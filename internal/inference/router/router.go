package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/neurathon-mate/internal/config"
	"github.com/yungbote/neurathon-mate/internal/inference/engine"
	"github.com/yungbote/neurathon-mate/internal/inference/engine/gemini"
	"github.com/yungbote/neurathon-mate/internal/inference/engine/langchain"
	"github.com/yungbote/neurathon-mate/internal/inference/engine/mock"
	"github.com/yungbote/neurathon-mate/internal/inference/engine/oaihttp"
)

// Route pairs the engine with the upstream model name it should be asked for.
type Route struct {
	Model  string
	Engine engine.Engine
}

func New(ctx context.Context, cfg config.LLMConfig) (Route, error) {
	var (
		eng engine.Engine
		err error
	)
	switch strings.ToLower(strings.TrimSpace(cfg.Engine)) {
	case config.EngineMock:
		eng = mock.New()
	case config.EngineGemini, "":
		eng, err = gemini.New(ctx, cfg)
	case config.EngineOAIHTTP, "openai_http":
		eng, err = oaihttp.New(cfg)
	case config.EngineLangchain:
		eng, err = langchain.New(cfg)
	default:
		return Route{}, fmt.Errorf("unsupported engine type %q", cfg.Engine)
	}
	if err != nil {
		return Route{}, err
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		switch eng.Name() {
		case config.EngineGemini:
			model = config.DefaultGeminiModel
		case "mock":
			model = "mock"
		}
	}
	return Route{Model: model, Engine: eng}, nil
}
