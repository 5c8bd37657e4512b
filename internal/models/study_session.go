package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// StudyType is the closed set of study categories. Anything else read from
// storage is coerced to StudyTypeOther, never dropped.
type StudyType string

const (
	StudyTypeVideo   StudyType = "video"
	StudyTypeReading StudyType = "reading"
	StudyTypeCoding  StudyType = "coding"
	StudyTypeReview  StudyType = "review"
	StudyTypeOther   StudyType = "other"
)

// StudyTypes lists the categories in declaration order.
var StudyTypes = []StudyType{
	StudyTypeVideo,
	StudyTypeReading,
	StudyTypeCoding,
	StudyTypeReview,
	StudyTypeOther,
}

// UnknownCourseKey buckets sessions whose course reference is missing.
const UnknownCourseKey = "unknown"

func (t StudyType) Valid() bool {
	switch t {
	case StudyTypeVideo, StudyTypeReading, StudyTypeCoding, StudyTypeReview, StudyTypeOther:
		return true
	}
	return false
}

// ParseStudyType normalizes a raw value; unrecognized or empty input maps to other.
func ParseStudyType(raw string) StudyType {
	t := StudyType(strings.ToLower(strings.TrimSpace(raw)))
	if t.Valid() {
		return t
	}
	return StudyTypeOther
}

type StudySession struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	CourseID        *uuid.UUID `json:"course_id"`
	StudyType       StudyType  `json:"study_type"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	DurationSeconds int        `json:"duration_seconds"`
	Notes           *string    `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`

	// Joined from courses when listing history.
	CourseTitle    *string `json:"course_title,omitempty"`
	CoursePlatform *string `json:"course_platform,omitempty"`
}

// Normalize coerces a fetched record into its strict form: known study type,
// non-negative duration, end not before start.
func (s *StudySession) Normalize() {
	s.StudyType = ParseStudyType(string(s.StudyType))
	if s.DurationSeconds < 0 {
		s.DurationSeconds = 0
	}
	if !s.EndTime.IsZero() && s.EndTime.Before(s.StartTime) {
		s.EndTime = s.StartTime
	}
}

// CourseKey is the grouping key used when aggregating by course.
func (s StudySession) CourseKey() string {
	if s.CourseID == nil || *s.CourseID == uuid.Nil {
		return UnknownCourseKey
	}
	return s.CourseID.String()
}

type SessionFilter struct {
	CourseID  *uuid.UUID
	StudyType *StudyType
	StartDate *time.Time
	EndDate   *time.Time
}

type CreateSessionRequest struct {
	CourseID        string  `json:"course_id"`
	StudyType       string  `json:"study_type"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	DurationSeconds int     `json:"duration_seconds"`
	Notes           *string `json:"notes"`
}

type CompleteSessionRequest struct {
	EndTime         string `json:"end_time"`
	DurationSeconds int    `json:"duration_seconds"`
}
