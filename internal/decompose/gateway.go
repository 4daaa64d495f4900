package decompose

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/neurathon-mate/internal/domain"
	"github.com/yungbote/neurathon-mate/internal/inference/engine"
	"github.com/yungbote/neurathon-mate/internal/observability"
)

var fenceStripper = strings.NewReplacer("```json", "", "```JSON", "", "```", "")

// StripFences removes every markdown code fence marker and trims the rest.
func StripFences(text string) string {
	return strings.TrimSpace(fenceStripper.Replace(text))
}

// ParsePlan decodes model output into a plan. A plan without steps is
// rejected so an active plan always has at least one step.
func ParsePlan(raw string) (domain.Plan, error) {
	var plan domain.Plan
	if err := json.Unmarshal([]byte(StripFences(raw)), &plan); err != nil {
		return domain.Plan{}, &Error{Kind: KindMalformedOutput, Err: err}
	}
	if !plan.Active() {
		return domain.Plan{}, &Error{Kind: KindMalformedOutput, Err: ErrNoSteps}
	}
	return plan, nil
}

type GatewayConfig struct {
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Gateway performs exactly one non-streamed generation per call.
type Gateway struct {
	engine  engine.Engine
	cfg     GatewayConfig
	metrics *observability.Metrics
	tracer  trace.Tracer
}

func NewGateway(eng engine.Engine, cfg GatewayConfig, metrics *observability.Metrics) *Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	return &Gateway{
		engine:  eng,
		cfg:     cfg,
		metrics: metrics,
		tracer:  otel.Tracer("github.com/yungbote/neurathon-mate/internal/decompose"),
	}
}

func (g *Gateway) EngineName() string { return g.engine.Name() }
func (g *Gateway) Model() string      { return g.cfg.Model }

// Generate returns the parsed plan and the raw upstream text. Errors are
// *Error with KindUpstream or KindMalformedOutput; raw is set whenever the
// upstream answered.
func (g *Gateway) Generate(ctx context.Context, prompt string) (domain.Plan, string, error) {
	ctx, span := g.tracer.Start(ctx, "llm.generate", trace.WithAttributes(
		attribute.String("llm.engine", g.engine.Name()),
		attribute.String("llm.model", g.cfg.Model),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.engine.GenerateText(ctx, g.cfg.Model, []engine.Message{
		{Role: "user", Content: prompt},
	}, engine.GenerateOptions{Temperature: g.cfg.Temperature, JSON: true})
	if err != nil {
		g.metrics.ObserveLLM(g.engine.Name(), g.cfg.Model, "error", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "upstream failed")
		if errors.Is(err, context.DeadlineExceeded) {
			span.SetAttributes(attribute.Bool("llm.timeout", true))
		}
		return domain.Plan{}, "", &Error{Kind: KindUpstream, Err: err}
	}
	g.metrics.ObserveLLM(g.engine.Name(), g.cfg.Model, "ok", time.Since(start))

	plan, err := ParsePlan(raw)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed output")
		return domain.Plan{}, raw, err
	}
	span.SetAttributes(attribute.Int("plan.steps", len(plan.Steps)))
	return plan, raw, nil
}
