package decompose

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yungbote/neurathon-mate/internal/domain"
	"github.com/yungbote/neurathon-mate/internal/inference/engine"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
)

type fakeEngine struct {
	mu    sync.Mutex
	out   string
	err   error
	delay time.Duration
	calls int
	last  []engine.Message
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) GenerateText(ctx context.Context, model string, messages []engine.Message, opts engine.GenerateOptions) (string, error) {
	f.mu.Lock()
	f.calls++
	f.last = messages
	f.mu.Unlock()
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.out, f.err
}

type fakeLimiter struct {
	allow bool
	err   error
}

func (l fakeLimiter) Allow(ctx context.Context, key string) (bool, error) { return l.allow, l.err }

type memCalls struct {
	mu   sync.Mutex
	rows []*domain.DecomposeCall
}

func (m *memCalls) Create(ctx context.Context, call *domain.DecomposeCall) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, call)
	return nil
}

func newService(eng engine.Engine, limiter Limiter, calls CallLog) *Service {
	gw := NewGateway(eng, GatewayConfig{Model: "test-model", Timeout: time.Second}, nil)
	return NewService(logger.NewNop(), gw, limiter, calls, nil)
}

const cleanRoomPlan = `{"roadmap":"Go!","total_time":"10 mins","steps":[{"time":"2 mins","action":"Pick up clothes","tip":"Start small"}]}`

func TestCleanMyRoomPassesThroughUnchanged(t *testing.T) {
	eng := &fakeEngine{out: "```json\n" + cleanRoomPlan + "\n```"}
	svc := newService(eng, nil, nil)

	res := svc.Decompose(context.Background(), domain.DecomposeRequest{Task: "clean my room"}, "")
	if res.Kind != KindOK || res.Err != nil {
		t.Fatalf("kind=%s err=%v", res.Kind, res.Err)
	}
	b, err := json.Marshal(res.Plan)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != cleanRoomPlan {
		t.Fatalf("plan mutated:\n got=%s\nwant=%s", b, cleanRoomPlan)
	}
}

func TestUpstreamFailuresServeExactFallback(t *testing.T) {
	cases := []struct {
		name string
		eng  *fakeEngine
		kind Kind
	}{
		{"network", &fakeEngine{err: errors.New("dial tcp: connection refused")}, KindUpstream},
		{"unparsable", &fakeEngine{out: "Sure! Here are your steps: 1. relax"}, KindMalformedOutput},
		{"no steps", &fakeEngine{out: `{"roadmap":"x","total_time":"1 min","steps":[]}`}, KindMalformedOutput},
		{"timeout", &fakeEngine{delay: 5 * time.Second}, KindUpstream},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gw := NewGateway(tc.eng, GatewayConfig{Model: "m", Timeout: 20 * time.Millisecond}, nil)
			svc := NewService(logger.NewNop(), gw, nil, nil, nil)

			res := svc.Decompose(context.Background(), domain.DecomposeRequest{Task: "write the report"}, "")
			if res.Kind != tc.kind {
				t.Fatalf("kind=%s want %s (err=%v)", res.Kind, tc.kind, res.Err)
			}
			if !reflect.DeepEqual(res.Plan, Fallback()) {
				t.Fatalf("plan=%+v", res.Plan)
			}
		})
	}
}

func TestEveryNonEmptyTaskGetsSteps(t *testing.T) {
	outputs := []string{"", "null", "{}", "```", cleanRoomPlan, `{"steps":[{"action":"a"}]}`, "[1,2,3]"}
	for _, out := range outputs {
		svc := newService(&fakeEngine{out: out}, nil, nil)
		res := svc.Decompose(context.Background(), domain.DecomposeRequest{Task: "x"}, "")
		if len(res.Plan.Steps) == 0 {
			t.Fatalf("empty steps for upstream output %q", out)
		}
	}
}

func TestEmptyTaskSkipsUpstream(t *testing.T) {
	eng := &fakeEngine{out: cleanRoomPlan}
	svc := newService(eng, nil, nil)

	res := svc.Decompose(context.Background(), domain.DecomposeRequest{Task: "   "}, "")
	if res.Kind != KindInvalidInput || !errors.Is(res.Err, ErrEmptyTask) {
		t.Fatalf("kind=%s err=%v", res.Kind, res.Err)
	}
	if eng.calls != 0 {
		t.Fatalf("upstream called %d times", eng.calls)
	}
	if !reflect.DeepEqual(res.Plan, Fallback()) {
		t.Fatalf("plan=%+v", res.Plan)
	}
}

func TestTagOnlyTaskReachesUpstream(t *testing.T) {
	eng := &fakeEngine{out: cleanRoomPlan}
	svc := newService(eng, nil, nil)

	res := svc.Decompose(context.Background(), domain.DecomposeRequest{Task: "<html>"}, "")
	if res.Kind != KindOK || eng.calls != 1 {
		t.Fatalf("kind=%s calls=%d err=%v", res.Kind, eng.calls, res.Err)
	}
	if !strings.Contains(eng.last[0].Content, "‹html›") {
		t.Fatalf("prompt=%s", eng.last[0].Content)
	}
}

func TestThrottledSkipsUpstream(t *testing.T) {
	eng := &fakeEngine{out: cleanRoomPlan}
	svc := newService(eng, fakeLimiter{allow: false}, nil)

	res := svc.Decompose(context.Background(), domain.DecomposeRequest{Task: "x"}, "10.0.0.1")
	if res.Kind != KindThrottled || eng.calls != 0 {
		t.Fatalf("kind=%s calls=%d", res.Kind, eng.calls)
	}
}

func TestLimiterErrorFailsOpen(t *testing.T) {
	eng := &fakeEngine{out: cleanRoomPlan}
	svc := newService(eng, fakeLimiter{err: errors.New("redis down")}, nil)

	res := svc.Decompose(context.Background(), domain.DecomposeRequest{Task: "x"}, "10.0.0.1")
	if res.Kind != KindOK || eng.calls != 1 {
		t.Fatalf("kind=%s calls=%d", res.Kind, eng.calls)
	}
}

func TestSingleAttemptOnFailure(t *testing.T) {
	eng := &fakeEngine{err: errors.New("503")}
	svc := newService(eng, nil, nil)
	_ = svc.Decompose(context.Background(), domain.DecomposeRequest{Task: "x"}, "")
	if eng.calls != 1 {
		t.Fatalf("calls=%d", eng.calls)
	}
}

func TestCallLogRecordsRedactedTask(t *testing.T) {
	calls := &memCalls{}
	svc := newService(&fakeEngine{out: "nope"}, nil, calls)

	_ = svc.Decompose(context.Background(), domain.DecomposeRequest{
		Task:            "email bob@example.com about 5551234567",
		UserPreferences: map[string]any{"needs": "detailed"},
	}, "")
	if len(calls.rows) != 1 {
		t.Fatalf("rows=%d", len(calls.rows))
	}
	row := calls.rows[0]
	if strings.Contains(row.Task, "bob@example.com") || strings.Contains(row.Task, "5551234567") {
		t.Fatalf("task not redacted: %q", row.Task)
	}
	if row.Outcome != string(KindMalformedOutput) || row.RawOutput != "nope" || row.StepCount != 2 {
		t.Fatalf("row=%+v", row)
	}
	if row.Engine != "fake" || row.Model != "test-model" {
		t.Fatalf("row=%+v", row)
	}
	if !strings.Contains(string(row.Preferences), "detailed") {
		t.Fatalf("preferences=%s", row.Preferences)
	}
}

func TestFallbackIsFreshCopy(t *testing.T) {
	a := Fallback()
	a.Steps[0].Action = "mutated"
	if Fallback().Steps[0].Action != "Breathe & Start" {
		t.Fatalf("fallback shared state")
	}
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{}\n```":   "{}",
		"```JSON{}```":       "{}",
		"  {}  ":             "{}",
		"```\n{\"a\":1}\n```": `{"a":1}`,
	}
	for in, want := range cases {
		if got := StripFences(in); got != want {
			t.Fatalf("StripFences(%q)=%q want %q", in, got, want)
		}
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(nil) != KindOK {
		t.Fatalf("nil")
	}
	if KindOf(errors.New("x")) != KindUpstream {
		t.Fatalf("plain")
	}
	wrapped := errors.Join(errors.New("ctx"), &Error{Kind: KindThrottled})
	if KindOf(wrapped) != KindThrottled {
		t.Fatalf("wrapped")
	}
}
