package services

import (
	"errors"

	"github.com/jackc/pgx/v5"
)

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type UnauthorizedError struct{ Message string }

func (e *UnauthorizedError) Error() string { return e.Message }

type ForbiddenError struct{ Message string }

func (e *ForbiddenError) Error() string { return e.Message }

type RateLimitError struct{ Message string }

func (e *RateLimitError) Error() string { return e.Message }

// notFoundOr maps a missing row to a NotFoundError carrying message.
func notFoundOr(err error, message string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &NotFoundError{Message: message}
	}
	return err
}

func fieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
