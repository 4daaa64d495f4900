package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurathon-mate/internal/decompose"
	"github.com/yungbote/neurathon-mate/internal/inference/engine"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
)

type stubEngine struct {
	out string
	err error
}

func (s stubEngine) Name() string { return "stub" }

func (s stubEngine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	return s.out, s.err
}

func newDecomposeRouter(eng engine.Engine, stats CallStats) *gin.Engine {
	gin.SetMode(gin.TestMode)
	gw := decompose.NewGateway(eng, decompose.GatewayConfig{Model: "m", Timeout: time.Second}, nil)
	svc := decompose.NewService(logger.NewNop(), gw, nil, nil, nil)
	h := NewDecomposeHandler(logger.NewNop(), svc, stats, 1<<10)

	r := gin.New()
	r.POST("/decompose", h.Decompose)
	r.GET("/decompose/stats", h.Stats)
	return r
}

func postDecompose(r *gin.Engine, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/decompose", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func fallbackJSON(t *testing.T) string {
	t.Helper()
	b, err := json.Marshal(decompose.Fallback())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestDecomposeCleanMyRoomVerbatim(t *testing.T) {
	plan := `{"roadmap":"Go!","total_time":"10 mins","steps":[{"time":"2 mins","action":"Pick up clothes","tip":"Start small"}]}`
	r := newDecomposeRouter(stubEngine{out: plan}, nil)

	rec := postDecompose(r, `{"task":"clean my room"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != plan {
		t.Fatalf("body=%s", got)
	}
	if rec.Header().Get("X-Mate-Outcome") != "ok" {
		t.Fatalf("outcome=%q", rec.Header().Get("X-Mate-Outcome"))
	}
}

func TestDecomposeKeepsExtraUpstreamKeys(t *testing.T) {
	plan := "```json\n{\"roadmap\": \"Go!\", \"total_time\": \"5 mins\", \"steps\": [{\"time\": \"5 mins\", \"action\": \"Start\", \"tip\": \"\", \"emoji\": \"🧹\"}]}\n```"
	r := newDecomposeRouter(stubEngine{out: plan}, nil)

	rec := postDecompose(r, `{"task":"sweep"}`)
	want := `{"roadmap":"Go!","total_time":"5 mins","steps":[{"time":"5 mins","action":"Start","tip":"","emoji":"🧹"}]}`
	if got := strings.TrimSpace(rec.Body.String()); got != want {
		t.Fatalf("body=%s", got)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content-type=%q", ct)
	}
}

func TestDecomposeIgnoresMistypedOptionalFields(t *testing.T) {
	plan := `{"roadmap":"Go!","total_time":"10 mins","steps":[{"time":"2 mins","action":"Pick up clothes","tip":"Start small"}]}`
	r := newDecomposeRouter(stubEngine{out: plan}, nil)

	rec := postDecompose(r, `{"task":"clean my room","userPreferences":[],"userTriggers":7}`)
	if rec.Header().Get("X-Mate-Outcome") != "ok" {
		t.Fatalf("outcome=%q body=%s", rec.Header().Get("X-Mate-Outcome"), rec.Body.String())
	}
	if got := strings.TrimSpace(rec.Body.String()); got != plan {
		t.Fatalf("body=%s", got)
	}
}

func TestDecodeDecomposeRequest(t *testing.T) {
	req, dropped, err := decodeDecomposeRequest([]byte(`{"task":"x","userPreferences":"nope","userTriggers":"noise"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if req.Task != "x" || req.UserTriggers != "noise" || req.UserPreferences != nil {
		t.Fatalf("req=%+v", req)
	}
	if len(dropped) != 1 || dropped[0] != "userPreferences" {
		t.Fatalf("dropped=%v", dropped)
	}

	if _, _, err := decodeDecomposeRequest([]byte(`{"task":42}`)); err == nil {
		t.Fatalf("expected error for non-string task")
	}
	if _, _, err := decodeDecomposeRequest([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for invalid body")
	}
}

func TestDecomposeAlways200WithFallback(t *testing.T) {
	cases := []struct {
		name    string
		eng     stubEngine
		body    string
		outcome string
	}{
		{"network error", stubEngine{err: errors.New("connection reset")}, `{"task":"x"}`, "upstream"},
		{"garbage output", stubEngine{out: "not json"}, `{"task":"x"}`, "malformed_output"},
		{"empty task", stubEngine{out: "unused"}, `{"task":"  "}`, "invalid_input"},
		{"bad json body", stubEngine{out: "unused"}, `{"task":`, "invalid_input"},
		{"oversized body", stubEngine{out: "unused"}, `{"task":"` + strings.Repeat("a", 4096) + `"}`, "invalid_input"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newDecomposeRouter(tc.eng, nil)
			rec := postDecompose(r, tc.body)
			if rec.Code != http.StatusOK {
				t.Fatalf("code=%d", rec.Code)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != fallbackJSON(t) {
				t.Fatalf("body=%s", got)
			}
			if got := rec.Header().Get("X-Mate-Outcome"); got != tc.outcome {
				t.Fatalf("outcome=%q want %q", got, tc.outcome)
			}
		})
	}
}

type stubStats struct {
	counts map[string]int64
	since  time.Time
}

func (s *stubStats) CountByOutcome(ctx context.Context, since time.Time) (map[string]int64, error) {
	s.since = since
	return s.counts, nil
}

func TestDecomposeStats(t *testing.T) {
	stats := &stubStats{counts: map[string]int64{"ok": 3}}
	r := newDecomposeRouter(stubEngine{}, stats)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/decompose/stats?since=1h", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"ok":3`)) {
		t.Fatalf("body=%s", rec.Body.String())
	}
	if d := time.Since(stats.since); d < time.Hour || d > time.Hour+time.Minute {
		t.Fatalf("since=%s", stats.since)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/decompose/stats?since=bogus", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", rec.Code)
	}
}

func TestDecomposeStatsDisabled(t *testing.T) {
	r := newDecomposeRouter(stubEngine{}, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/decompose/stats", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("code=%d", rec.Code)
	}
}
