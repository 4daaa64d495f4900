package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurathon-mate/internal/decompose"
	"github.com/yungbote/neurathon-mate/internal/domain"
	httpMW "github.com/yungbote/neurathon-mate/internal/http/middleware"
	"github.com/yungbote/neurathon-mate/internal/http/response"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
)

type Decomposer interface {
	Decompose(ctx context.Context, req domain.DecomposeRequest, clientKey string) decompose.Result
}

type CallStats interface {
	CountByOutcome(ctx context.Context, since time.Time) (map[string]int64, error)
}

type DecomposeHandler struct {
	log      *logger.Logger
	svc      Decomposer
	stats    CallStats
	maxBytes int64
}

// NewDecomposeHandler builds the handler. stats may be nil when no call log
// is configured.
func NewDecomposeHandler(log *logger.Logger, svc Decomposer, stats CallStats, maxBytes int64) *DecomposeHandler {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &DecomposeHandler{
		log:      log.With("handler", "DecomposeHandler"),
		svc:      svc,
		stats:    stats,
		maxBytes: maxBytes,
	}
}

// POST /decompose
// Always answers 200 with a plan. Optional fields of the wrong type are
// dropped; a body without a readable task gets the fallback plan.
func (h *DecomposeHandler) Decompose(c *gin.Context) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes))
	var req domain.DecomposeRequest
	if err != nil {
		h.log.Warn("decompose body rejected", "error", err)
	} else {
		var dropped []string
		req, dropped, err = decodeDecomposeRequest(raw)
		switch {
		case err != nil:
			h.log.Warn("decompose body rejected", "error", err)
		case len(dropped) > 0:
			h.log.Warn("decompose fields ignored", "fields", dropped)
		}
	}

	res := h.svc.Decompose(c.Request.Context(), req, c.ClientIP())
	c.Header(httpMW.OutcomeHeader, string(res.Kind))
	if len(res.Body) > 0 {
		c.Data(http.StatusOK, "application/json; charset=utf-8", res.Body)
		return
	}
	response.RespondOK(c, res.Plan)
}

// decodeDecomposeRequest decodes each field on its own so a malformed
// optional field does not discard the task. It returns the names of the
// fields it had to ignore.
func decodeDecomposeRequest(raw []byte) (domain.DecomposeRequest, []string, error) {
	var req domain.DecomposeRequest
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return req, nil, err
	}
	if v, ok := fields["task"]; ok {
		if err := json.Unmarshal(v, &req.Task); err != nil {
			return domain.DecomposeRequest{}, nil, fmt.Errorf("task: %w", err)
		}
	}
	var dropped []string
	if v, ok := fields["userTriggers"]; ok {
		if err := json.Unmarshal(v, &req.UserTriggers); err != nil {
			req.UserTriggers = ""
			dropped = append(dropped, "userTriggers")
		}
	}
	if v, ok := fields["userPreferences"]; ok {
		if err := json.Unmarshal(v, &req.UserPreferences); err != nil {
			req.UserPreferences = nil
			dropped = append(dropped, "userPreferences")
		}
	}
	return req, dropped, nil
}

// GET /decompose/stats?since=24h
func (h *DecomposeHandler) Stats(c *gin.Context) {
	if h.stats == nil {
		response.RespondError(c, http.StatusNotFound, "call_log_disabled", errCallLogDisabled)
		return
	}
	window := 24 * time.Hour
	if raw := c.Query("since"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			response.RespondError(c, http.StatusBadRequest, response.CodeInvalidRequest, errBadSince)
			return
		}
		window = d
	}
	since := time.Now().Add(-window)
	counts, err := h.stats.CountByOutcome(c.Request.Context(), since)
	if err != nil {
		h.log.Error("count decompose calls failed", "error", err)
		response.RespondError(c, http.StatusInternalServerError, response.CodeInternal, errStatsFailed)
		return
	}
	response.RespondOK(c, gin.H{
		"since":    since.UTC().Format(time.RFC3339),
		"outcomes": counts,
	})
}
