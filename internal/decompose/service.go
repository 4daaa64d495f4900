package decompose

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/neurathon-mate/internal/domain"
	"github.com/yungbote/neurathon-mate/internal/observability"
	"github.com/yungbote/neurathon-mate/internal/platform/ctxutil"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
	"github.com/yungbote/neurathon-mate/internal/platform/pii"
)

// Limiter decides whether a client may trigger another upstream call.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// CallLog persists one audit row per call.
type CallLog interface {
	Create(ctx context.Context, call *domain.DecomposeCall) error
}

// Result always carries a plan with at least one step. Kind and Err explain
// how it was produced.
type Result struct {
	Plan domain.Plan
	Kind Kind
	Err  error

	// Body is the upstream JSON, compacted, when Kind is ok. It keeps any
	// keys the model added beyond the Plan fields.
	Body json.RawMessage
}

type Service struct {
	log     *logger.Logger
	prompts *PromptBuilder
	gateway *Gateway
	limiter Limiter
	calls   CallLog
	metrics *observability.Metrics
}

// NewService wires the pipeline. limiter, calls and metrics may be nil.
func NewService(log *logger.Logger, gateway *Gateway, limiter Limiter, calls CallLog, metrics *observability.Metrics) *Service {
	return &Service{
		log:     log.With("service", "DecomposeService"),
		prompts: NewPromptBuilder(),
		gateway: gateway,
		limiter: limiter,
		calls:   calls,
		metrics: metrics,
	}
}

// Decompose never fails. Every error path resolves to the fallback plan.
// clientKey identifies the caller for rate limiting; empty disables it.
func (s *Service) Decompose(ctx context.Context, req domain.DecomposeRequest, clientKey string) Result {
	start := time.Now()
	res, raw := s.run(ctx, req, clientKey)
	dur := time.Since(start)

	engineName := s.gateway.EngineName()
	s.metrics.IncDecompose(engineName, string(res.Kind))

	task := pii.Redact(strings.TrimSpace(req.Task))
	if res.Err != nil {
		s.log.Warn("decompose served fallback",
			"request_id", ctxutil.RequestID(ctx),
			"kind", res.Kind,
			"task", task,
			"error", res.Err,
			"duration_ms", dur.Milliseconds(),
		)
	} else {
		s.log.Info("decompose ok",
			"request_id", ctxutil.RequestID(ctx),
			"task", task,
			"steps", len(res.Plan.Steps),
			"duration_ms", dur.Milliseconds(),
		)
	}

	s.record(ctx, req, task, res, raw, dur)
	return res
}

func (s *Service) run(ctx context.Context, req domain.DecomposeRequest, clientKey string) (Result, string) {
	prompt, err := s.prompts.Build(PromptInput{
		Task:        req.Task,
		Triggers:    req.UserTriggers,
		Preferences: req.UserPreferences,
	})
	if err != nil {
		return fallback(&Error{Kind: KindInvalidInput, Err: err}), ""
	}

	if s.limiter != nil && clientKey != "" {
		allowed, err := s.limiter.Allow(ctx, clientKey)
		switch {
		case err != nil:
			s.metrics.IncRateLimitError()
			s.log.Warn("rate limiter unavailable, allowing request", "error", err)
		case !allowed:
			return fallback(&Error{Kind: KindThrottled}), ""
		}
	}

	plan, raw, err := s.gateway.Generate(ctx, prompt)
	if err != nil {
		return fallback(err), raw
	}
	res := Result{Plan: plan, Kind: KindOK}
	var body bytes.Buffer
	if err := json.Compact(&body, []byte(StripFences(raw))); err == nil {
		res.Body = body.Bytes()
	}
	return res, raw
}

func fallback(err error) Result {
	return Result{Plan: Fallback(), Kind: KindOf(err), Err: err}
}

func (s *Service) record(ctx context.Context, req domain.DecomposeRequest, task string, res Result, raw string, dur time.Duration) {
	if s.calls == nil {
		return
	}
	call := &domain.DecomposeCall{
		ID:         uuid.New(),
		RequestID:  ctxutil.RequestID(ctx),
		Engine:     s.gateway.EngineName(),
		Model:      s.gateway.Model(),
		Task:       task,
		Outcome:    string(res.Kind),
		RawOutput:  raw,
		StepCount:  len(res.Plan.Steps),
		DurationMS: dur.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if res.Err != nil {
		call.Error = res.Err.Error()
	}
	if len(req.UserPreferences) > 0 {
		if b, err := json.Marshal(req.UserPreferences); err == nil {
			call.Preferences = datatypes.JSON(b)
		}
	}
	if err := s.calls.Create(context.WithoutCancel(ctx), call); err != nil {
		s.log.Warn("failed to record decompose call", "error", err)
	}
}
