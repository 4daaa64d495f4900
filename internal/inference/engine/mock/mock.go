package mock

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/yungbote/neurathon-mate/internal/domain"
	"github.com/yungbote/neurathon-mate/internal/inference/engine"
)

// Engine returns a fixed, well-formed plan wrapped in a json code fence, the
// way hosted models usually answer. Useful for local development without a key.
type Engine struct{}

func New() *Engine {
	return &Engine{}
}

func (e *Engine) Name() string { return "mock" }

func (e *Engine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_ = model
	_ = opts

	var user string
	for i := len(messages) - 1; i >= 0; i-- {
		if strings.EqualFold(messages[i].Role, "user") {
			user = messages[i].Content
			break
		}
	}

	plan := domain.Plan{
		Roadmap:   "Small moves, big win. You've got this!",
		TotalTime: "12 mins",
		Steps: []domain.Step{
			{Time: "2 mins", Action: "Clear a small space to work", Tip: "Tiny starts count."},
			{Time: "5 mins", Action: "Do the first visible chunk", Tip: "Set a timer and go."},
			{Time: "5 mins", Action: "Finish and tidy up", Tip: "Celebrate the finish line!"},
		},
	}
	if strings.TrimSpace(user) == "" {
		plan.Steps = plan.Steps[:1]
	}
	b, err := json.Marshal(plan)
	if err != nil {
		return "", err
	}
	return "```json\n" + string(b) + "\n```", nil
}
