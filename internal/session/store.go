package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/yungbote/neurathon-mate/internal/domain"
	"github.com/yungbote/neurathon-mate/internal/platform/logger"
)

// Store owns the session state. State changes only through Dispatch, and
// subscribers see every committed state in order.
type Store struct {
	mu      sync.Mutex
	log     *logger.Logger
	storage Storage
	state   State
	subs    map[int]func(State)
	nextSub int
}

// NewStore restores the profile and streak from storage. Unreadable values
// fall back to defaults.
func NewStore(log *logger.Logger, storage Storage) *Store {
	if log == nil {
		log = logger.NewNop()
	}
	if storage == nil {
		storage = NewMemoryStorage()
	}
	profile := domain.DefaultProfile()
	if _, err := loadJSON(storage, KeyProfile, &profile); err != nil {
		log.Warn("stored profile unreadable, using defaults", "error", err)
		profile = domain.DefaultProfile()
	}
	streak := 0
	if _, err := loadJSON(storage, KeyStreak, &streak); err != nil || streak < 0 {
		log.Warn("stored streak unreadable, resetting", "error", err)
		streak = 0
	}
	return &Store{
		log:     log.With("component", "SessionStore"),
		storage: storage,
		state:   initialState(profile, streak),
		subs:    map[int]func(State){},
	}
}

func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch reduces a into the current state, persists profile and streak
// changes, then notifies subscribers. A failed save still commits the state
// and is reported as ErrNotPersisted.
func (s *Store) Dispatch(a Action) error {
	s.mu.Lock()
	prev := s.state
	next, err := Reduce(prev, a)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	subs := make([]func(State), 0, len(s.subs))
	for i := 0; i < s.nextSub; i++ {
		if fn, ok := s.subs[i]; ok {
			subs = append(subs, fn)
		}
	}
	persistErr := s.persist(prev, next)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return persistErr
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) persist(prev, next State) error {
	var errs []error
	if next.Streak != prev.Streak {
		if err := saveJSON(s.storage, KeyStreak, next.Streak); err != nil {
			s.log.Warn("persist streak failed", "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", KeyStreak, err))
		}
	}
	if next.Profile != prev.Profile {
		if err := saveJSON(s.storage, KeyProfile, next.Profile); err != nil {
			s.log.Warn("persist profile failed", "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", KeyProfile, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrNotPersisted, errors.Join(errs...))
}
