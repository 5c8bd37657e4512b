// Package timer tracks elapsed study time against absolute timestamps and
// reconciles finished sessions with the session store.
package timer

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"studytrack/internal/models"
)

type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhasePaused  Phase = "paused"
)

func (p Phase) Valid() bool {
	return p == PhaseIdle || p == PhaseRunning || p == PhasePaused
}

// Draft describes the session being timed. When ResumeFromSessionID is set the
// finished session corrects that record instead of creating a new one.
type Draft struct {
	CourseID                       uuid.UUID        `json:"course_id"`
	StudyType                      models.StudyType `json:"study_type"`
	Notes                          string           `json:"notes,omitempty"`
	ResumeFromSessionID            *uuid.UUID       `json:"resume_from_session_id,omitempty"`
	ResumeFromPriorDurationSeconds int              `json:"resume_from_prior_duration_seconds,omitempty"`
	ResumeStartedAt                *time.Time       `json:"resume_started_at,omitempty"`
}

func (d Draft) IsResume() bool {
	return d.ResumeFromSessionID != nil && *d.ResumeFromSessionID != uuid.Nil
}

// State is the full engine state; it is what gets written to durable storage.
type State struct {
	Phase           Phase     `json:"phase"`
	Draft           *Draft    `json:"draft,omitempty"`
	LastResumeAt    time.Time `json:"last_resume_at"`
	AccumulatedMs   int64     `json:"accumulated_elapsed_ms"`
	OriginalStartAt time.Time `json:"original_start_at"`
	Generation      uint64    `json:"generation"`
}

// ElapsedMs is the accumulated running time plus the open interval, if any.
func (s State) ElapsedMs(now time.Time) int64 {
	total := s.AccumulatedMs
	if s.Phase == PhaseRunning {
		total += openIntervalMs(s.LastResumeAt, now)
	}
	return total
}

// ElapsedSeconds floors ElapsedMs to whole seconds.
func (s State) ElapsedSeconds(now time.Time) int64 {
	return s.ElapsedMs(now) / 1000
}

// FinalSeconds is the duration recorded when a session finishes: the
// accumulated and open parts are rounded separately.
func (s State) FinalSeconds(now time.Time) int {
	total := roundMs(s.AccumulatedMs)
	if s.Phase == PhaseRunning {
		total += roundMs(openIntervalMs(s.LastResumeAt, now))
	}
	return int(total)
}

func openIntervalMs(from, now time.Time) int64 {
	if from.IsZero() {
		return 0
	}
	d := now.Sub(from).Milliseconds()
	if d < 0 {
		// clock went backwards
		return 0
	}
	return d
}

func roundMs(ms int64) int64 {
	return (ms + 500) / 1000
}

func (s State) Encode() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to encode timer state: %w", err)
	}
	return string(b), nil
}

// DecodeState parses a stored state and rejects anything internally inconsistent.
func DecodeState(raw string) (State, error) {
	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return State{}, fmt.Errorf("failed to decode timer state: %w", err)
	}
	if !s.Phase.Valid() {
		return State{}, fmt.Errorf("invalid timer phase %q", s.Phase)
	}
	if s.Phase != PhaseIdle && s.Draft == nil {
		return State{}, fmt.Errorf("timer state %q has no session draft", s.Phase)
	}
	if s.Phase == PhaseRunning && s.LastResumeAt.IsZero() {
		return State{}, fmt.Errorf("running timer state has no resume timestamp")
	}
	if s.AccumulatedMs < 0 {
		s.AccumulatedMs = 0
	}
	return s, nil
}
