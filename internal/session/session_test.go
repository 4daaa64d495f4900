package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/yungbote/neurathon-mate/internal/decompose"
	"github.com/yungbote/neurathon-mate/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func threeStepPlan() domain.Plan {
	return domain.Plan{
		Roadmap:   "go",
		TotalTime: "15 mins",
		Steps: []domain.Step{
			{Time: "5 mins", Action: "one"},
			{Time: "5 mins", Action: "two"},
			{Time: "5 mins", Action: "three"},
		},
	}
}

func activeStore(t *testing.T, st Storage) *Store {
	t.Helper()
	s := NewStore(nil, st)
	require.NoError(t, s.Dispatch(SetTask{Task: "clean my room"}))
	require.NoError(t, s.Dispatch(Start{}))
	require.NoError(t, s.Dispatch(Received{Plan: threeStepPlan(), Outcome: "ok"}))
	return s
}

func TestStartRequiresTask(t *testing.T) {
	s := NewStore(nil, nil)
	assert.ErrorIs(t, s.Dispatch(Start{}), ErrEmptyTask)

	require.NoError(t, s.Dispatch(SetTask{Task: "   "}))
	assert.ErrorIs(t, s.Dispatch(Start{}), ErrEmptyTask)
	assert.Equal(t, PhaseIdle, s.State().Phase)
}

func TestResubmitWhileRequestingRejected(t *testing.T) {
	s := NewStore(nil, nil)
	require.NoError(t, s.Dispatch(SetTask{Task: "x"}))
	require.NoError(t, s.Dispatch(Start{}))
	assert.ErrorIs(t, s.Dispatch(Start{}), ErrInFlight)
	assert.ErrorIs(t, s.Dispatch(SetTask{Task: "y"}), ErrInFlight)
	assert.Equal(t, "x", s.State().Task)
}

func TestActiveBeginsAtOverview(t *testing.T) {
	s := activeStore(t, nil)
	st := s.State()
	assert.Equal(t, PhaseActive, st.Phase)
	assert.True(t, st.OnOverview())
	assert.Equal(t, 0.0, st.Progress())
	_, ok := st.CurrentStep()
	assert.False(t, ok)
}

func TestPointerStaysInBounds(t *testing.T) {
	s := activeStore(t, nil)

	require.NoError(t, s.Dispatch(Back{}))
	assert.Equal(t, OverviewPosition, s.State().Position)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Dispatch(Advance{}))
		st := s.State()
		if st.Phase == PhaseActive {
			assert.GreaterOrEqual(t, st.Position, OverviewPosition)
			assert.Less(t, st.Position, len(st.Plan.Steps))
		}
	}
	step, ok := s.State().CurrentStep()
	require.True(t, ok)
	assert.Equal(t, "three", step.Action)
	assert.InDelta(t, 1.0, s.State().Progress(), 1e-9)

	require.NoError(t, s.Dispatch(Back{}))
	assert.Equal(t, 1, s.State().Position)
}

func TestCompletionIncrementsStreakExactlyOnce(t *testing.T) {
	st := NewMemoryStorage()
	s := activeStore(t, st)

	for i := 0; i < 4; i++ {
		require.NoError(t, s.Dispatch(Advance{}))
	}
	assert.Equal(t, PhaseComplete, s.State().Phase)
	assert.Equal(t, 1, s.State().Streak)

	assert.ErrorIs(t, s.Dispatch(Advance{}), ErrInvalidAction)
	assert.Equal(t, 1, s.State().Streak)

	var persisted int
	ok, err := loadJSON(st, KeyStreak, &persisted)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, persisted)

	require.NoError(t, s.Dispatch(Reset{}))
	assert.Equal(t, PhaseIdle, s.State().Phase)
	assert.Equal(t, 1, s.State().Streak)
}

func TestResetClearsEverythingFromAnyPhase(t *testing.T) {
	s := activeStore(t, nil)
	require.NoError(t, s.Dispatch(Advance{}))
	require.NoError(t, s.Dispatch(Reset{}))

	st := s.State()
	assert.Equal(t, PhaseIdle, st.Phase)
	assert.Empty(t, st.Task)
	assert.Empty(t, st.Plan.Steps)
	assert.Equal(t, OverviewPosition, st.Position)

	s2 := NewStore(nil, nil)
	require.NoError(t, s2.Dispatch(SetTask{Task: "x"}))
	require.NoError(t, s2.Dispatch(Start{}))
	require.NoError(t, s2.Dispatch(Reset{}))
	assert.Equal(t, PhaseIdle, s2.State().Phase)
}

func TestFailedAndEmptyPlanActivateFallback(t *testing.T) {
	s := NewStore(nil, nil)
	require.NoError(t, s.Dispatch(SetTask{Task: "x"}))
	require.NoError(t, s.Dispatch(Start{}))
	require.NoError(t, s.Dispatch(Failed{Err: errors.New("offline")}))
	if diff := cmp.Diff(decompose.Fallback(), s.State().Plan); diff != "" {
		t.Fatalf("fallback plan mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, PhaseActive, s.State().Phase)

	s2 := NewStore(nil, nil)
	require.NoError(t, s2.Dispatch(SetTask{Task: "x"}))
	require.NoError(t, s2.Dispatch(Start{}))
	require.NoError(t, s2.Dispatch(Received{Plan: domain.Plan{Roadmap: "r"}}))
	assert.NotEmpty(t, s2.State().Plan.Steps)
}

func TestProfilePersistsAcrossStores(t *testing.T) {
	st := NewFileStorage(filepath.Join(t.TempDir(), "nested", "storage.json"))

	s := NewStore(nil, st)
	assert.Equal(t, domain.FontSans, s.State().Profile.Preferences.FontType)
	p := s.State().Profile
	p.Name = "Alex"
	p.Triggers = "loud noises"
	require.NoError(t, s.Dispatch(UpdateProfile{Profile: p}))
	require.NoError(t, s.Dispatch(ToggleFont{}))

	restored := NewStore(nil, st).State().Profile
	assert.Equal(t, "Alex", restored.Name)
	assert.Equal(t, "loud noises", restored.Triggers)
	assert.Equal(t, domain.FontDyslexic, restored.Preferences.FontType)
}

func TestCorruptStorageFallsBackToDefaults(t *testing.T) {
	st := NewMemoryStorage()
	require.NoError(t, st.Set(KeyProfile, []byte(`"nope"`)))
	require.NoError(t, st.Set(KeyStreak, []byte(`-4`)))

	s := NewStore(nil, st)
	assert.Equal(t, domain.DefaultProfile(), s.State().Profile)
	assert.Equal(t, 0, s.State().Streak)
}

func TestSaveRepairsCorruptStorageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	s := NewStore(nil, NewFileStorage(path))
	p := s.State().Profile
	p.Name = "Ana"
	require.NoError(t, s.Dispatch(UpdateProfile{Profile: p}))

	restored := NewStore(nil, NewFileStorage(path)).State().Profile
	assert.Equal(t, "Ana", restored.Name)
}

type failingStorage struct{ *MemoryStorage }

func (failingStorage) Set(string, []byte) error { return errors.New("disk full") }

func TestDispatchReportsFailedSave(t *testing.T) {
	s := NewStore(nil, failingStorage{NewMemoryStorage()})
	err := s.Dispatch(ToggleFont{})
	require.ErrorIs(t, err, ErrNotPersisted)
	assert.Equal(t, domain.FontDyslexic, s.State().Profile.Preferences.FontType)

	require.NoError(t, s.Dispatch(SetTask{Task: "x"}))
}

func TestSubscribersSeeCommittedStates(t *testing.T) {
	s := NewStore(nil, nil)
	var mu sync.Mutex
	var phases []Phase
	unsub := s.Subscribe(func(st State) {
		mu.Lock()
		phases = append(phases, st.Phase)
		mu.Unlock()
	})

	require.NoError(t, s.Dispatch(SetTask{Task: "x"}))
	require.NoError(t, s.Dispatch(Start{}))
	_ = s.Dispatch(Start{})
	unsub()
	require.NoError(t, s.Dispatch(Reset{}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []Phase{PhaseIdle, PhaseRequesting}, phases)
}

type fakeAPI struct {
	got  domain.DecomposeRequest
	plan domain.Plan
	err  error
}

func (f *fakeAPI) Decompose(ctx context.Context, req domain.DecomposeRequest) (domain.Plan, string, error) {
	f.got = req
	return f.plan, "ok", f.err
}

func TestControllerMasksIdentifiers(t *testing.T) {
	store := NewStore(nil, nil)
	p := domain.DefaultProfile()
	p.Name = "Alex"
	p.Triggers = "timers"
	require.NoError(t, store.Dispatch(UpdateProfile{Profile: p}))

	api := &fakeAPI{plan: threeStepPlan()}
	c := NewController(nil, store, api)
	require.NoError(t, c.Submit(context.Background(), "email alex@example.com and tell ALEX to call 5551234567"))

	assert.Equal(t, "email [EMAIL_REDACTED] and tell [USER] to call [PHONE_REDACTED]", api.got.Task)
	assert.Equal(t, "timers", api.got.UserTriggers)
	assert.Equal(t, "detailed", api.got.UserPreferences["needs"])
	assert.Equal(t, PhaseActive, store.State().Phase)
	assert.Equal(t, "ok", store.State().Outcome)
}

func TestControllerFallsBackOnTransportError(t *testing.T) {
	store := NewStore(nil, nil)
	c := NewController(nil, store, &fakeAPI{err: errors.New("connection refused")})
	require.NoError(t, c.Submit(context.Background(), "write essay"))
	assert.Equal(t, decompose.Fallback(), store.State().Plan)
	assert.Equal(t, string(decompose.KindUpstream), store.State().Outcome)
}

func TestControllerRejectsEmptyTaskWithoutCalling(t *testing.T) {
	api := &fakeAPI{plan: threeStepPlan()}
	c := NewController(nil, NewStore(nil, nil), api)
	assert.ErrorIs(t, c.Submit(context.Background(), ""), ErrEmptyTask)
	assert.Empty(t, api.got.Task)
}
