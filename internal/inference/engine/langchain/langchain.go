package langchain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/yungbote/neurathon-mate/internal/config"
	"github.com/yungbote/neurathon-mate/internal/inference/engine"
)

// Engine adapts any langchaingo llms.Model. New wires the OpenAI provider,
// which also covers OpenAI-compatible gateways through base_url.
type Engine struct {
	model llms.Model
}

func New(cfg config.LLMConfig) (*Engine, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("langchain_openai: %w", config.ErrMissingCredential)
	}
	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai llm: %w", err)
	}
	return &Engine{model: llm}, nil
}

func NewWithModel(model llms.Model) *Engine {
	return &Engine{model: model}
}

func (e *Engine) Name() string { return config.EngineLangchain }

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	var content []llms.MessageContent
	for _, m := range messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		content = append(content, llms.MessageContent{
			Role:  chatRole(m.Role),
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		})
	}
	if len(content) == 0 {
		return "", errors.New("no messages")
	}

	callOpts := []llms.CallOption{llms.WithTemperature(opts.Temperature)}
	if model != "" {
		callOpts = append(callOpts, llms.WithModel(model))
	}
	if opts.JSON {
		callOpts = append(callOpts, llms.WithJSONMode())
	}

	resp, err := e.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Content) == "" {
		return "", errors.New("empty upstream completion")
	}
	return resp.Choices[0].Content, nil
}

func chatRole(role string) llms.ChatMessageType {
	switch role {
	case "system":
		return llms.ChatMessageTypeSystem
	case "assistant", "model":
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
