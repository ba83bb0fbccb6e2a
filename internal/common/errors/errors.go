// Package errors provides standardized error handling for assistant command processing.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeUnrecognizedCommand ErrorCode = "UNRECOGNIZED_COMMAND"
	ErrCodeMissingRequiredSlot ErrorCode = "MISSING_REQUIRED_SLOT"
	ErrCodeEntityNotFound      ErrorCode = "ENTITY_NOT_FOUND"

	ErrCodePersistenceFailure       ErrorCode = "PERSISTENCE_FAILURE"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"

	ErrCodeSynthesisFailed    ErrorCode = "SYNTHESIS_FAILED"
	ErrCodeSynthesisTimeout   ErrorCode = "SYNTHESIS_TIMEOUT"
	ErrCodeCompletionFailed   ErrorCode = "COMPLETION_FAILED"
	ErrCodeCompletionTimeout  ErrorCode = "COMPLETION_TIMEOUT"
	ErrCodeSearchQueryFailed  ErrorCode = "SEARCH_QUERY_FAILED"
	ErrCodeNotificationFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeInvalidRequest ErrorCode = "INVALID_REQUEST"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// NewUnrecognizedCommandError signals that no intent could be derived from an utterance.
// Never fatal; surfaced to the user together with suggestions.
func NewUnrecognizedCommandError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeUnrecognizedCommand,
		Message:   "Command not recognized",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingRequiredSlotError signals an identified action with absent required fields.
func NewMissingRequiredSlotError(fields []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingRequiredSlot,
		Message:   "Required fields missing from command",
		Retryable: false,
		Metadata:  map[string]interface{}{"requiredFields": fields},
		Timestamp: time.Now().UTC(),
	}
}

// NewEntityNotFoundError signals that the resolver found no match above threshold.
func NewEntityNotFoundError(entityType, candidate string, suggestions []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeEntityNotFound,
		Message:   fmt.Sprintf("No %s matching %q", entityType, candidate),
		Retryable: false,
		Metadata: map[string]interface{}{
			"entityType":  entityType,
			"candidate":   candidate,
			"suggestions": suggestions,
		},
		Timestamp: time.Now().UTC(),
	}
}

// NewPersistenceFailureError wraps an underlying data-access failure. The details
// carry the driver error for diagnostics; they are not shown to end users.
func NewPersistenceFailureError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodePersistenceFailure,
		Message:   "Data access operation failed",
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewCollaboratorUnavailableError signals an unreachable speech or LLM collaborator.
// Degrades to text-only responses; logged, never propagated to the user.
func NewCollaboratorUnavailableError(collaborator, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeSynthesisFailed,
		Message:   fmt.Sprintf("Collaborator %s unavailable", collaborator),
		Details:   details,
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
