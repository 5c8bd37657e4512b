package models

import (
	"time"

	"github.com/google/uuid"
)

// Job is a unit of background work pushed onto a redis list.
type Job struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Type       string    `json:"type"` // "daily-rollup"
	Day        string    `json:"day"`  // yyyy-MM-dd in the configured timezone
	RetryCount int       `json:"retry_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type DailyStat struct {
	UserID       uuid.UUID `json:"user_id"`
	Date         time.Time `json:"date"`
	TotalSeconds int       `json:"total_seconds"`
}

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type SessionFinishedEvent struct {
	SessionID       uuid.UUID `json:"session_id"`
	DurationSeconds int       `json:"duration_seconds"`
	Updated         bool      `json:"updated"`
}

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
