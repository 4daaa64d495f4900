package session

import (
	"context"

	"github.com/yungbote/neurathon-mate/internal/domain"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
	"github.com/yungbote/neurathon-mate/internal/platform/pii"
)

type Decomposer interface {
	Decompose(ctx context.Context, req domain.DecomposeRequest) (domain.Plan, string, error)
}

// Controller runs the request side effects around the store.
type Controller struct {
	log   *logger.Logger
	store *Store
	api   Decomposer
}

func NewController(log *logger.Logger, store *Store, api Decomposer) *Controller {
	if log == nil {
		log = logger.NewNop()
	}
	return &Controller{log: log.With("component", "SessionController"), store: store, api: api}
}

func (c *Controller) Store() *Store { return c.store }

// Submit starts a request for task. Identifiers are masked before the task
// leaves the process. Any failure activates the fallback plan, so a nil
// error always leaves the session Active.
func (c *Controller) Submit(ctx context.Context, task string) error {
	if err := c.store.Dispatch(SetTask{Task: task}); err != nil {
		return err
	}
	if err := c.store.Dispatch(Start{}); err != nil {
		return err
	}

	cleaned, safe := pii.Clean(c.store.State().Profile, task)
	req := domain.DecomposeRequest{
		Task:            cleaned,
		UserPreferences: safe.AsPreferences(),
		UserTriggers:    safe.Avoid,
	}

	plan, outcome, err := c.api.Decompose(ctx, req)
	if err != nil {
		c.log.Warn("decompose request failed, using fallback", "error", err)
		return c.store.Dispatch(Failed{Err: err})
	}
	return c.store.Dispatch(Received{Plan: plan, Outcome: outcome})
}
