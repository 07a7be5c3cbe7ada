package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeTransport represents network-level failures (timeouts, refused connections, bad status)
	ErrorTypeTransport ErrorType = "transport"
	// ErrorTypeMarkup represents markup-shape failures (no selector in a fallback chain matched)
	ErrorTypeMarkup ErrorType = "markup"
	// ErrorTypeValidation represents offers rejected by field validation (bad price, low discount, placeholder image)
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypePersistence represents history or artifact file failures
	ErrorTypePersistence ErrorType = "persistence"
	// ErrorTypeInternal represents unexpected errors caught at the top level
	ErrorTypeInternal ErrorType = "internal"
)

// ScrapeError is an error tagged with its pipeline stage and failure class.
type ScrapeError struct {
	Type    ErrorType
	Stage   string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *ScrapeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Stage, e.Message)
}

// Unwrap returns the underlying error
func (e *ScrapeError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is worth another fetch attempt.
// Only transport failures are; a page whose markup does not match will not
// match on the next attempt either.
func (e *ScrapeError) IsRetryable() bool {
	return e.Type == ErrorTypeTransport
}

// New creates a new ScrapeError
func New(errType ErrorType, stage, message string, err error) *ScrapeError {
	return &ScrapeError{
		Type:    errType,
		Stage:   stage,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewTransport creates a new transport error
func NewTransport(stage, message string, err error) *ScrapeError {
	return New(ErrorTypeTransport, stage, message, err)
}

// NewMarkup creates a new markup-shape error
func NewMarkup(stage, message string) *ScrapeError {
	return New(ErrorTypeMarkup, stage, message, nil)
}

// NewValidation creates a new validation error
func NewValidation(stage, message string) *ScrapeError {
	return New(ErrorTypeValidation, stage, message, nil)
}

// NewPersistence creates a new persistence error
func NewPersistence(stage, message string, err error) *ScrapeError {
	return New(ErrorTypePersistence, stage, message, err)
}

// NewInternal creates a new internal error
func NewInternal(stage, message string, err error) *ScrapeError {
	return New(ErrorTypeInternal, stage, message, err)
}
