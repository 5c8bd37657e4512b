package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studytrack/internal/events"
	"studytrack/internal/models"
)

type courseStore interface {
	Create(ctx context.Context, c *models.Course) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.Course, error)
	List(ctx context.Context, userID uuid.UUID) ([]models.Course, error)
	Update(ctx context.Context, c *models.Course) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type noteStore interface {
	ListByCourse(ctx context.Context, courseID, userID uuid.UUID) ([]models.CourseNote, error)
	Create(ctx context.Context, n *models.CourseNote) error
	Update(ctx context.Context, n *models.CourseNote) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type CourseService struct {
	courses courseStore
	notes   noteStore
	bus     Publisher
}

func NewCourseService(courses courseStore, notes noteStore, bus Publisher) *CourseService {
	return &CourseService{courses: courses, notes: notes, bus: bus}
}

func (s *CourseService) List(ctx context.Context, identity models.Identity) ([]models.Course, error) {
	if identity.IsZero() {
		return nil, &UnauthorizedError{Message: "Not signed in"}
	}
	return s.courses.List(ctx, identity.UserID)
}

func (s *CourseService) Create(ctx context.Context, identity models.Identity, req models.CourseRequest) (*models.Course, error) {
	if identity.IsZero() {
		return nil, &UnauthorizedError{Message: "Not signed in"}
	}

	course := &models.Course{UserID: identity.UserID, Status: models.CourseStatusActive}
	if err := applyCourseRequest(course, req, true); err != nil {
		return nil, err
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}
	course.Notes = make([]models.CourseNote, 0)
	s.publishCourseChanged(identity)
	return course, nil
}

// Update applies the fields present in req.
func (s *CourseService) Update(ctx context.Context, identity models.Identity, id uuid.UUID, req models.CourseRequest) (*models.Course, error) {
	if identity.IsZero() {
		return nil, &UnauthorizedError{Message: "Not signed in"}
	}

	course, err := s.courses.GetByID(ctx, id, identity.UserID)
	if err != nil {
		return nil, notFoundOr(err, "Course not found")
	}
	if err := applyCourseRequest(course, req, false); err != nil {
		return nil, err
	}
	if err := s.courses.Update(ctx, course); err != nil {
		return nil, notFoundOr(err, "Course not found")
	}
	s.publishCourseChanged(identity)
	return course, nil
}

func (s *CourseService) publishCourseChanged(identity models.Identity) {
	if s.bus != nil {
		s.bus.Publish(events.Event{Kind: events.CourseChanged, UserID: identity.UserID})
	}
}

// Delete removes the course with its notes and sessions.
func (s *CourseService) Delete(ctx context.Context, identity models.Identity, id uuid.UUID) error {
	if identity.IsZero() {
		return &UnauthorizedError{Message: "Not signed in"}
	}
	if err := s.courses.Delete(ctx, id, identity.UserID); err != nil {
		return notFoundOr(err, "Course not found")
	}
	if s.bus != nil {
		s.bus.Publish(events.Event{Kind: events.SessionDeleted, UserID: identity.UserID})
	}
	return nil
}

func (s *CourseService) ListNotes(ctx context.Context, identity models.Identity, courseID uuid.UUID) ([]models.CourseNote, error) {
	if identity.IsZero() {
		return nil, &UnauthorizedError{Message: "Not signed in"}
	}
	if _, err := s.courses.GetByID(ctx, courseID, identity.UserID); err != nil {
		return nil, notFoundOr(err, "Course not found")
	}
	return s.notes.ListByCourse(ctx, courseID, identity.UserID)
}

func (s *CourseService) AddNote(ctx context.Context, identity models.Identity, courseID uuid.UUID, req models.NoteRequest) (*models.CourseNote, error) {
	if identity.IsZero() {
		return nil, &UnauthorizedError{Message: "Not signed in"}
	}
	if err := validateNote(&req); err != nil {
		return nil, err
	}
	if _, err := s.courses.GetByID(ctx, courseID, identity.UserID); err != nil {
		return nil, notFoundOr(err, "Course not found")
	}

	note := &models.CourseNote{
		UserID:      identity.UserID,
		CourseID:    courseID,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := s.notes.Create(ctx, note); err != nil {
		return nil, fmt.Errorf("failed to create note: %w", err)
	}
	return note, nil
}

func (s *CourseService) UpdateNote(ctx context.Context, identity models.Identity, noteID uuid.UUID, req models.NoteRequest) (*models.CourseNote, error) {
	if identity.IsZero() {
		return nil, &UnauthorizedError{Message: "Not signed in"}
	}
	if err := validateNote(&req); err != nil {
		return nil, err
	}

	note := &models.CourseNote{
		ID:          noteID,
		UserID:      identity.UserID,
		Title:       req.Title,
		Description: req.Description,
	}
	if err := s.notes.Update(ctx, note); err != nil {
		return nil, notFoundOr(err, "Note not found")
	}
	return note, nil
}

func (s *CourseService) DeleteNote(ctx context.Context, identity models.Identity, noteID uuid.UUID) error {
	if identity.IsZero() {
		return &UnauthorizedError{Message: "Not signed in"}
	}
	if err := s.notes.Delete(ctx, noteID, identity.UserID); err != nil {
		return notFoundOr(err, "Note not found")
	}
	return nil
}

func applyCourseRequest(c *models.Course, req models.CourseRequest, creating bool) error {
	fields := make(map[string]string)

	if req.Title != nil || creating {
		title := ""
		if req.Title != nil {
			title = strings.TrimSpace(*req.Title)
		}
		if title == "" {
			fields["title"] = "Title is required"
		}
		c.Title = title
	}
	if req.Platform != nil {
		c.Platform = emptyToNil(*req.Platform)
	}
	if req.URL != nil {
		c.URL = emptyToNil(*req.URL)
	}
	if req.Status != nil {
		status := models.CourseStatus(strings.ToLower(strings.TrimSpace(*req.Status)))
		if !status.Valid() {
			fields["status"] = "Status must be active, paused or completed"
		}
		c.Status = status
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validateNote(req *models.NoteRequest) error {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return fieldError("title", "Title is required")
	}
	return nil
}

func emptyToNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// isNotFound reports whether err means the row does not exist.
func isNotFound(err error) bool {
	var nf *NotFoundError
	return errors.Is(err, pgx.ErrNoRows) || errors.As(err, &nf)
}
