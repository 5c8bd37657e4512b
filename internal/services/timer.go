package services

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"studytrack/internal/events"
	"studytrack/internal/models"
	"studytrack/internal/timer"
)

type sessionReader interface {
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.StudySession, error)
}

type userTimer struct {
	mu     sync.Mutex
	engine *timer.Engine
}

// TimerService runs one timer engine per user. Engines are cached but every
// operation reloads the stored state first, so a transition made by another
// server instance is adopted before the next one is applied.
type TimerService struct {
	store     timer.Storage
	persister timer.Persister
	sessions  sessionReader
	courses   courseLookup
	bus       Publisher
	clock     timer.Clock

	mu     sync.Mutex
	timers map[uuid.UUID]*userTimer
}

func NewTimerService(store timer.Storage, persister timer.Persister, sessions sessionReader, courses courseLookup, bus Publisher, clock timer.Clock) *TimerService {
	if clock == nil {
		clock = timer.SystemClock
	}
	return &TimerService{
		store:     store,
		persister: persister,
		sessions:  sessions,
		courses:   courses,
		bus:       bus,
		clock:     clock,
		timers:    make(map[uuid.UUID]*userTimer),
	}
}

// acquire returns the caller's timer locked and freshly reloaded.
func (s *TimerService) acquire(identity models.Identity) (*userTimer, error) {
	if identity.IsZero() {
		return nil, mapTimerError(timer.ErrUnauthenticated)
	}

	s.mu.Lock()
	ut, ok := s.timers[identity.UserID]
	if !ok {
		ut = &userTimer{}
		s.timers[identity.UserID] = ut
	}
	s.mu.Unlock()

	ut.mu.Lock()
	if ut.engine == nil {
		engine, err := timer.New(identity, s.store, s.persister, timer.WithClock(s.clock))
		if err != nil {
			ut.mu.Unlock()
			return nil, err
		}
		ut.engine = engine
		return ut, nil
	}
	if err := ut.engine.Reload(); err != nil {
		ut.mu.Unlock()
		return nil, err
	}
	return ut, nil
}

func (s *TimerService) State(ctx context.Context, identity models.Identity) (timer.View, error) {
	ut, err := s.acquire(identity)
	if err != nil {
		return timer.View{}, err
	}
	defer ut.mu.Unlock()
	return ut.engine.View(), nil
}

// Start begins a new draft. Starting while a draft is active changes nothing.
func (s *TimerService) Start(ctx context.Context, identity models.Identity, req models.StartTimerRequest) (timer.View, error) {
	draft, err := s.buildDraft(ctx, identity, req)
	if err != nil {
		return timer.View{}, err
	}
	return s.transition(identity, func(e *timer.Engine) error { return e.Start(draft) })
}

func (s *TimerService) Pause(ctx context.Context, identity models.Identity) (timer.View, error) {
	return s.transition(identity, (*timer.Engine).Pause)
}

func (s *TimerService) Resume(ctx context.Context, identity models.Identity) (timer.View, error) {
	return s.transition(identity, (*timer.Engine).Resume)
}

func (s *TimerService) Reset(ctx context.Context, identity models.Identity) (timer.View, error) {
	return s.transition(identity, (*timer.Engine).Reset)
}

func (s *TimerService) transition(identity models.Identity, apply func(*timer.Engine) error) (timer.View, error) {
	ut, err := s.acquire(identity)
	if err != nil {
		return timer.View{}, err
	}
	defer ut.mu.Unlock()

	if err := apply(ut.engine); err != nil {
		return timer.View{}, mapTimerError(err)
	}
	view := ut.engine.View()
	s.publish(events.Event{Kind: events.TimerChanged, UserID: identity.UserID, Payload: view})
	return view, nil
}

// Finish stores the active session. The per-user lock is released before the
// store write so that a reset can still supersede a slow finish.
func (s *TimerService) Finish(ctx context.Context, identity models.Identity) (*timer.FinishResult, error) {
	ut, err := s.acquire(identity)
	if err != nil {
		return nil, err
	}
	engine := ut.engine
	ut.mu.Unlock()

	result, err := engine.Finish(ctx)
	if err != nil {
		return nil, mapTimerError(err)
	}

	s.publish(events.Event{
		Kind:      events.SessionFinished,
		UserID:    identity.UserID,
		SessionID: result.SessionID,
		Day:       result.StartedAt,
		Payload: models.SessionFinishedEvent{
			SessionID:       result.SessionID,
			DurationSeconds: result.TotalSeconds,
			Updated:         result.Updated,
		},
	})
	s.publish(events.Event{Kind: events.TimerChanged, UserID: identity.UserID, Payload: engine.View()})
	return result, nil
}

func (s *TimerService) buildDraft(ctx context.Context, identity models.Identity, req models.StartTimerRequest) (timer.Draft, error) {
	if identity.IsZero() {
		return timer.Draft{}, mapTimerError(timer.ErrUnauthenticated)
	}

	draft := timer.Draft{
		StudyType: models.ParseStudyType(req.StudyType),
		Notes:     req.Notes,
	}

	if req.ResumeFromSessionID != "" {
		id, err := uuid.Parse(req.ResumeFromSessionID)
		if err != nil {
			return draft, fieldError("resume_from_session_id", "Invalid session ID")
		}
		prior, err := s.sessions.GetByID(ctx, id, identity.UserID)
		if err != nil {
			return draft, notFoundOr(err, "Session not found")
		}
		started := prior.StartTime
		draft.ResumeFromSessionID = &id
		draft.ResumeFromPriorDurationSeconds = prior.DurationSeconds
		draft.ResumeStartedAt = &started
		draft.StudyType = prior.StudyType
		if prior.CourseID != nil {
			draft.CourseID = *prior.CourseID
		}
	}

	if req.CourseID != "" {
		id, err := uuid.Parse(req.CourseID)
		if err != nil {
			return draft, fieldError("course_id", "Invalid course ID")
		}
		draft.CourseID = id
	}
	if draft.CourseID == uuid.Nil {
		return draft, fieldError("course_id", "Course is required")
	}
	if _, err := s.courses.GetByID(ctx, draft.CourseID, identity.UserID); err != nil {
		if isNotFound(err) {
			return draft, &NotFoundError{Message: "Course not found"}
		}
		return draft, err
	}
	return draft, nil
}

func (s *TimerService) publish(e events.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

// mapTimerError converts engine errors to service errors. Persistence
// failures pass through unchanged so callers can tell them apart and retry.
func mapTimerError(err error) error {
	switch {
	case errors.Is(err, timer.ErrUnauthenticated):
		return &UnauthorizedError{Message: "Not signed in"}
	case errors.Is(err, timer.ErrNotActive):
		return &ConflictError{Message: "No active session"}
	case errors.Is(err, timer.ErrFinishInProgress):
		return &ConflictError{Message: "Session is already being saved"}
	case errors.Is(err, timer.ErrSuperseded):
		return &ConflictError{Message: "Session was reset before it could be saved"}
	case errors.Is(err, timer.ErrInvalidDraft):
		return fieldError("course_id", "Course is required")
	}
	return err
}
