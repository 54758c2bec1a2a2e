package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error that occurred
type ErrorType string

const (
	// ErrorTypeTransientCache indicates a hot-tier cache fault that was
	// degraded around (durable-only operation). Logged, not surfaced.
	ErrorTypeTransientCache ErrorType = "transient_cache_error"
	// ErrorTypeDurableStore indicates the durable cache tier is unreachable.
	// Fatal for the affected operation: the durable tier is the system of record.
	ErrorTypeDurableStore ErrorType = "durable_store_error"
	// ErrorTypeSynthesis indicates a TTS provider failure or quota exhaustion
	ErrorTypeSynthesis ErrorType = "synthesis_error"
	// ErrorTypeTemplateGap indicates no template exists for a
	// language/segment combination, even after language fallback
	ErrorTypeTemplateGap ErrorType = "template_gap"
	// ErrorTypeInvalidRequest indicates a malformed composition request
	ErrorTypeInvalidRequest ErrorType = "invalid_request_error"
)

// EngineError is the base error type for all engine errors
type EngineError struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	// Original error for debugging (not exposed to clients)
	Err error `json:"-"`
}

// Error implements the error interface
func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements the error unwrapping interface
func (e *EngineError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *EngineError) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeSynthesis, ErrorTypeDurableStore:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ToJSON converts the error to a JSON-compatible map
func (e *EngineError) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// NewTransientCacheError creates a hot-tier fault (degraded, not surfaced)
func NewTransientCacheError(message string, err error) *EngineError {
	return &EngineError{Type: ErrorTypeTransientCache, Message: message, Err: err}
}

// NewDurableStoreError creates a durable-tier fault (surfaced to the caller)
func NewDurableStoreError(message string, err error) *EngineError {
	return &EngineError{Type: ErrorTypeDurableStore, Message: message, Err: err}
}

// NewSynthesisError creates a TTS provider fault
func NewSynthesisError(message string, err error) *EngineError {
	return &EngineError{Type: ErrorTypeSynthesis, Message: message, Err: err}
}

// NewTemplateGapError creates a missing-template fault
func NewTemplateGapError(segmentType SegmentType, language string) *EngineError {
	return &EngineError{
		Type:    ErrorTypeTemplateGap,
		Message: fmt.Sprintf("no template for segment %q in language %q or fallback", segmentType, language),
	}
}

// NewInvalidRequestError creates an invalid composition request fault
func NewInvalidRequestError(message string, err error) *EngineError {
	return &EngineError{Type: ErrorTypeInvalidRequest, Message: message, Err: err}
}

// SegmentUnavailableError is returned by the composer when a required segment
// could not be resolved. The composition fails as a whole: no partial or
// garbled composite audio is ever returned.
type SegmentUnavailableError struct {
	SegmentType SegmentType
	Err         error
}

// Error implements the error interface
func (e *SegmentUnavailableError) Error() string {
	return fmt.Sprintf("segment unavailable: %s: %v", e.SegmentType, e.Err)
}

// Unwrap implements the error unwrapping interface
func (e *SegmentUnavailableError) Unwrap() error {
	return e.Err
}

// NewSegmentUnavailableError wraps the underlying fault that made a segment
// unresolvable.
func NewSegmentUnavailableError(segmentType SegmentType, err error) *SegmentUnavailableError {
	return &SegmentUnavailableError{SegmentType: segmentType, Err: err}
}

// IsSegmentUnavailable reports whether err is (or wraps) a SegmentUnavailableError.
func IsSegmentUnavailable(err error) bool {
	var se *SegmentUnavailableError
	return errors.As(err, &se)
}
