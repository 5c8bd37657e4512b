package timer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studytrack/internal/models"
)

// SessionWriter is the subset of the session store the adapter writes to.
type SessionWriter interface {
	Insert(ctx context.Context, s *models.StudySession) error
	UpdateCompletion(ctx context.Context, id, userID uuid.UUID, endTime time.Time, durationSeconds int) error
}

// Completion is a finished timer session ready to be stored.
type Completion struct {
	UserID              uuid.UUID
	CourseID            uuid.UUID
	StudyType           models.StudyType
	Notes               string
	StartedAt           time.Time
	EndedAt             time.Time
	TotalSeconds        int
	ResumeFromSessionID *uuid.UUID
}

// Persister turns a Completion into exactly one store write.
type Persister interface {
	Persist(ctx context.Context, c Completion) (uuid.UUID, error)
}

// StoreAdapter maps completions onto a SessionWriter: resumed sessions update
// end time and duration of the existing record, everything else is inserted.
// It never retries.
type StoreAdapter struct {
	writer SessionWriter
}

func NewStoreAdapter(writer SessionWriter) *StoreAdapter {
	return &StoreAdapter{writer: writer}
}

func (a *StoreAdapter) Persist(ctx context.Context, c Completion) (uuid.UUID, error) {
	if c.ResumeFromSessionID != nil && *c.ResumeFromSessionID != uuid.Nil {
		id := *c.ResumeFromSessionID
		if err := a.writer.UpdateCompletion(ctx, id, c.UserID, c.EndedAt, c.TotalSeconds); err != nil {
			return uuid.Nil, &PersistenceError{Op: "update", Err: err}
		}
		return id, nil
	}

	courseID := c.CourseID
	session := &models.StudySession{
		UserID:          c.UserID,
		CourseID:        &courseID,
		StudyType:       models.ParseStudyType(string(c.StudyType)),
		StartTime:       c.StartedAt,
		EndTime:         c.EndedAt,
		DurationSeconds: c.TotalSeconds,
	}
	if c.Notes != "" {
		notes := c.Notes
		session.Notes = &notes
	}

	if err := a.writer.Insert(ctx, session); err != nil {
		return uuid.Nil, &PersistenceError{Op: "insert", Err: err}
	}
	return session.ID, nil
}
