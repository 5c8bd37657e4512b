package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studytrack/internal/events"
	"studytrack/internal/models"
)

type sessionStore interface {
	Insert(ctx context.Context, s *models.StudySession) error
	UpdateCompletion(ctx context.Context, id, userID uuid.UUID, endTime time.Time, durationSeconds int) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.StudySession, error)
	List(ctx context.Context, userID uuid.UUID, filter models.SessionFilter) ([]models.StudySession, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type courseLookup interface {
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Course, error)
}

// Publisher receives change notifications. *events.Bus satisfies it.
type Publisher interface {
	Publish(e events.Event)
}

type SessionService struct {
	sessions sessionStore
	courses  courseLookup
	bus      Publisher
}

func NewSessionService(sessions sessionStore, courses courseLookup, bus Publisher) *SessionService {
	return &SessionService{sessions: sessions, courses: courses, bus: bus}
}

// List returns the caller's sessions, newest first. Query values are the raw
// strings from the request; an empty value means no filter.
func (s *SessionService) List(ctx context.Context, identity models.Identity, courseID, studyType, startDate, endDate string) ([]models.StudySession, error) {
	if identity.IsZero() {
		return nil, &UnauthorizedError{Message: "Not signed in"}
	}

	var filter models.SessionFilter
	fields := make(map[string]string)
	if courseID != "" {
		id, err := uuid.Parse(courseID)
		if err != nil {
			fields["course_id"] = "Invalid course ID"
		} else {
			filter.CourseID = &id
		}
	}
	if studyType != "" {
		t := models.StudyType(strings.ToLower(studyType))
		if !t.Valid() {
			fields["study_type"] = "Unknown study type"
		} else {
			filter.StudyType = &t
		}
	}
	if startDate != "" {
		t, err := parseTimeOrDate(startDate, false)
		if err != nil {
			fields["start_date"] = "Invalid date"
		} else {
			filter.StartDate = &t
		}
	}
	if endDate != "" {
		t, err := parseTimeOrDate(endDate, true)
		if err != nil {
			fields["end_date"] = "Invalid date"
		} else {
			filter.EndDate = &t
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	return s.sessions.List(ctx, identity.UserID, filter)
}

func (s *SessionService) Get(ctx context.Context, identity models.Identity, id uuid.UUID) (*models.StudySession, error) {
	if identity.IsZero() {
		return nil, &UnauthorizedError{Message: "Not signed in"}
	}
	session, err := s.sessions.GetByID(ctx, id, identity.UserID)
	if err != nil {
		return nil, notFoundOr(err, "Session not found")
	}
	return session, nil
}

// Create stores a finished session. Unknown study types are coerced to other.
func (s *SessionService) Create(ctx context.Context, identity models.Identity, req models.CreateSessionRequest) (*models.StudySession, error) {
	if identity.IsZero() {
		return nil, &UnauthorizedError{Message: "Not signed in"}
	}

	fields := make(map[string]string)
	session := &models.StudySession{
		UserID:          identity.UserID,
		StudyType:       models.ParseStudyType(req.StudyType),
		DurationSeconds: req.DurationSeconds,
		Notes:           req.Notes,
	}

	if courseID := strings.TrimSpace(req.CourseID); courseID == "" {
		fields["course_id"] = "Course is required"
	} else if id, err := uuid.Parse(courseID); err != nil {
		fields["course_id"] = "Invalid course ID"
	} else {
		session.CourseID = &id
	}
	start, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		fields["start_time"] = "Start time must be RFC 3339"
	}
	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		fields["end_time"] = "End time must be RFC 3339"
	}
	if _, bad := fields["start_time"]; !bad {
		if _, bad := fields["end_time"]; !bad && end.Before(start) {
			fields["end_time"] = "End time must not be before start time"
		}
	}
	if req.DurationSeconds < 0 {
		fields["duration_seconds"] = "Duration must not be negative"
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	session.StartTime = start
	session.EndTime = end

	if _, err := s.courses.GetByID(ctx, *session.CourseID, identity.UserID); err != nil {
		return nil, notFoundOr(err, "Course not found")
	}

	if err := s.sessions.Insert(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	s.publish(events.SessionCreated, session)
	return session, nil
}

// Complete rewrites the end time and duration of an existing session.
func (s *SessionService) Complete(ctx context.Context, identity models.Identity, id uuid.UUID, req models.CompleteSessionRequest) (*models.StudySession, error) {
	if identity.IsZero() {
		return nil, &UnauthorizedError{Message: "Not signed in"}
	}

	end, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		return nil, fieldError("end_time", "End time must be RFC 3339")
	}
	if req.DurationSeconds < 0 {
		return nil, fieldError("duration_seconds", "Duration must not be negative")
	}

	session, err := s.sessions.GetByID(ctx, id, identity.UserID)
	if err != nil {
		return nil, notFoundOr(err, "Session not found")
	}
	if end.Before(session.StartTime) {
		return nil, fieldError("end_time", "End time must not be before start time")
	}

	if err := s.sessions.UpdateCompletion(ctx, id, identity.UserID, end, req.DurationSeconds); err != nil {
		return nil, notFoundOr(err, "Session not found")
	}
	session.EndTime = end
	session.DurationSeconds = req.DurationSeconds
	s.publish(events.SessionUpdated, session)
	return session, nil
}

func (s *SessionService) Delete(ctx context.Context, identity models.Identity, id uuid.UUID) error {
	if identity.IsZero() {
		return &UnauthorizedError{Message: "Not signed in"}
	}
	session, err := s.sessions.GetByID(ctx, id, identity.UserID)
	if err != nil {
		return notFoundOr(err, "Session not found")
	}
	if err := s.sessions.Delete(ctx, id, identity.UserID); err != nil {
		return notFoundOr(err, "Session not found")
	}
	s.publish(events.SessionDeleted, session)
	return nil
}

func (s *SessionService) publish(kind events.Kind, session *models.StudySession) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.Event{
		Kind:      kind,
		UserID:    session.UserID,
		SessionID: session.ID,
		Day:       session.StartTime,
	})
}

// parseTimeOrDate accepts RFC 3339 or a bare yyyy-mm-dd. A bare end date
// covers the whole day.
func parseTimeOrDate(raw string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.AddDate(0, 0, 1).Add(-time.Millisecond)
	}
	return t, nil
}
