package timer

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"studytrack/internal/models"
)

// Clock supplies wall-clock time. Tests substitute a manual clock.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock reads the real wall clock.
var SystemClock Clock = systemClock{}

// Storage is durable key-value storage that survives restarts.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
}

// StorageKey is the storage key holding the timer state of one user.
func StorageKey(userID uuid.UUID) string {
	return "timer-state:" + userID.String()
}

// View is what a display needs at one observation instant.
type View struct {
	Phase          Phase      `json:"phase"`
	ElapsedSeconds int64      `json:"elapsed_seconds"`
	Draft          *Draft     `json:"draft,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	Finishing      bool       `json:"finishing"`
}

type FinishResult struct {
	SessionID    uuid.UUID `json:"session_id"`
	TotalSeconds int       `json:"total_seconds"`
	Updated      bool      `json:"updated"`
	StartedAt    time.Time `json:"started_at"`
	EndedAt      time.Time `json:"ended_at"`
}

// Engine is the running/paused/idle state machine for one user's active
// session. Elapsed time is always derived from timestamps, so observations are
// correct no matter how often (or rarely) the display refreshes.
type Engine struct {
	mu        sync.Mutex
	user      models.Identity
	clock     Clock
	store     Storage
	key       string
	persister Persister
	state     State
	finishing bool
}

type Option func(*Engine)

func WithClock(c Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// New builds an engine for user and rehydrates any saved state.
func New(user models.Identity, store Storage, persister Persister, opts ...Option) (*Engine, error) {
	e := &Engine{
		user:      user,
		clock:     SystemClock,
		store:     store,
		key:       StorageKey(user.UserID),
		persister: persister,
		state:     State{Phase: PhaseIdle},
	}
	for _, opt := range opts {
		opt(e)
	}

	if user.IsZero() {
		return e, nil
	}
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

// Reload re-reads the stored state, adopting whatever another writer left
// there. It is skipped while a finish is in flight.
func (e *Engine) Reload() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.user.IsZero() || e.finishing {
		return nil
	}
	return e.load()
}

func (e *Engine) load() error {
	raw, ok, err := e.store.Get(e.key)
	if err != nil {
		return fmt.Errorf("failed to read timer state: %w", err)
	}
	if !ok || raw == "" {
		e.state = State{Phase: PhaseIdle, Generation: e.state.Generation}
		return nil
	}

	s, err := DecodeState(raw)
	if err != nil {
		log.Printf("timer: discarding unreadable state for user %s: %v", e.user.UserID, err)
		e.state = State{Phase: PhaseIdle, Generation: e.state.Generation}
		return e.store.Remove(e.key)
	}
	e.state = s
	return nil
}

func (e *Engine) save() error {
	if e.state.Phase == PhaseIdle {
		if err := e.store.Remove(e.key); err != nil {
			return fmt.Errorf("failed to clear timer state: %w", err)
		}
		return nil
	}
	raw, err := e.state.Encode()
	if err != nil {
		return err
	}
	if err := e.store.Set(e.key, raw); err != nil {
		return fmt.Errorf("failed to save timer state: %w", err)
	}
	return nil
}

func (e *Engine) Phase() Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.Phase
}

// ElapsedSecondsNow recomputes elapsed seconds from the stored timestamps.
func (e *Engine) ElapsedSecondsNow() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ElapsedSeconds(e.clock.Now())
}

func (e *Engine) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

func (e *Engine) viewLocked() View {
	v := View{
		Phase:          e.state.Phase,
		ElapsedSeconds: e.state.ElapsedSeconds(e.clock.Now()),
		Finishing:      e.finishing,
	}
	if e.state.Draft != nil {
		d := *e.state.Draft
		v.Draft = &d
	}
	if !e.state.OriginalStartAt.IsZero() {
		started := e.state.OriginalStartAt
		v.StartedAt = &started
	}
	return v
}

// Snapshot returns a copy of the raw state.
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.state
	if s.Draft != nil {
		d := *s.Draft
		s.Draft = &d
	}
	return s
}

// Start moves Idle to Running. It is a no-op in any other phase.
func (e *Engine) Start(draft Draft) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.user.IsZero() {
		return ErrUnauthenticated
	}
	if e.state.Phase != PhaseIdle {
		return nil
	}
	if draft.CourseID == uuid.Nil {
		return ErrInvalidDraft
	}

	draft.StudyType = models.ParseStudyType(string(draft.StudyType))
	if draft.ResumeFromPriorDurationSeconds < 0 {
		draft.ResumeFromPriorDurationSeconds = 0
	}

	now := e.clock.Now()
	started := now
	if draft.IsResume() && draft.ResumeStartedAt != nil && !draft.ResumeStartedAt.IsZero() {
		started = *draft.ResumeStartedAt
	}

	e.state = State{
		Phase:           PhaseRunning,
		Draft:           &draft,
		LastResumeAt:    now,
		AccumulatedMs:   int64(draft.ResumeFromPriorDurationSeconds) * 1000,
		OriginalStartAt: started,
		Generation:      e.state.Generation + 1,
	}
	return e.save()
}

// Pause closes the open running interval into the accumulated total.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.user.IsZero() {
		return ErrUnauthenticated
	}
	if e.state.Phase != PhaseRunning {
		return nil
	}

	now := e.clock.Now()
	e.state.AccumulatedMs += openIntervalMs(e.state.LastResumeAt, now)
	e.state.Phase = PhasePaused
	return e.save()
}

func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.user.IsZero() {
		return ErrUnauthenticated
	}
	if e.state.Phase != PhasePaused {
		return nil
	}

	e.state.LastResumeAt = e.clock.Now()
	e.state.Phase = PhaseRunning
	return e.save()
}

// Reset discards the active draft without persisting anything. A finish that
// is still in flight will see ErrSuperseded when it completes.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.user.IsZero() {
		return ErrUnauthenticated
	}
	e.state = State{Phase: PhaseIdle, Generation: e.state.Generation + 1}
	return e.save()
}

// Finish computes the final duration and hands it to the persister. On a
// persistence failure the state is left untouched so the call can be retried.
func (e *Engine) Finish(ctx context.Context) (*FinishResult, error) {
	e.mu.Lock()
	if e.user.IsZero() {
		e.mu.Unlock()
		return nil, ErrUnauthenticated
	}
	if e.state.Phase == PhaseIdle || e.state.Draft == nil {
		e.mu.Unlock()
		return nil, ErrNotActive
	}
	if e.finishing {
		e.mu.Unlock()
		return nil, ErrFinishInProgress
	}

	now := e.clock.Now()
	draft := *e.state.Draft
	completion := Completion{
		UserID:              e.user.UserID,
		CourseID:            draft.CourseID,
		StudyType:           draft.StudyType,
		Notes:               draft.Notes,
		StartedAt:           e.state.OriginalStartAt,
		EndedAt:             now,
		TotalSeconds:        e.state.FinalSeconds(now),
		ResumeFromSessionID: draft.ResumeFromSessionID,
	}
	generation := e.state.Generation
	e.finishing = true
	e.mu.Unlock()

	id, err := e.persister.Persist(ctx, completion)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.finishing = false

	if e.state.Generation != generation || e.state.Phase == PhaseIdle {
		if err != nil {
			log.Printf("timer: ignoring finish failure for reset session: %v", err)
		}
		return nil, ErrSuperseded
	}
	if err != nil {
		return nil, err
	}

	e.state = State{Phase: PhaseIdle, Generation: e.state.Generation + 1}
	if saveErr := e.save(); saveErr != nil {
		log.Printf("timer: session %s stored but local state not cleared: %v", id, saveErr)
	}

	return &FinishResult{
		SessionID:    id,
		TotalSeconds: completion.TotalSeconds,
		Updated:      draft.IsResume(),
		StartedAt:    completion.StartedAt,
		EndedAt:      completion.EndedAt,
	}, nil
}
