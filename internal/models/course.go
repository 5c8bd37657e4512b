package models

import (
	"time"

	"github.com/google/uuid"
)

type CourseStatus string

const (
	CourseStatusActive    CourseStatus = "active"
	CourseStatusPaused    CourseStatus = "paused"
	CourseStatusCompleted CourseStatus = "completed"
)

func (s CourseStatus) Valid() bool {
	return s == CourseStatusActive || s == CourseStatusPaused || s == CourseStatusCompleted
}

type Course struct {
	ID        uuid.UUID    `json:"id"`
	UserID    uuid.UUID    `json:"user_id"`
	Title     string       `json:"title"`
	Platform  *string      `json:"platform"`
	URL       *string      `json:"url"`
	Status    CourseStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	Notes     []CourseNote `json:"notes"`
}

type CourseNote struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	CourseID    uuid.UUID  `json:"course_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type CourseRequest struct {
	Title    *string `json:"title"`
	Platform *string `json:"platform"`
	URL      *string `json:"url"`
	Status   *string `json:"status"`
}

type NoteRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}
