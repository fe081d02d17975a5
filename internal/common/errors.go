// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Load errors. Fatal to a run: matching never starts on a partial load.
	ErrMissingColumn = errors.New("required column missing")
	ErrEmptyLedger   = errors.New("ledger contains no usable rows")

	// Oracle errors. Never fatal: each is equivalent to a rejected candidate.
	ErrOracleUnavailable = errors.New("classification oracle unavailable")
	ErrInvalidVerdict    = errors.New("oracle verdict failed validation")
	ErrEmptyInput        = errors.New("empty input after sanitation")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}
