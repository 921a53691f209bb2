// Package errors defines the typed errors surfaced by the PFT reader pipeline.
//
// Only conditions that abort a run are errors. A rejected template match, an empty
// cell reading and a skipped sign correction are ordinary outcomes and never appear
// here.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Input errors
	ErrorImageLoad    ErrorCode = "IMAGE_LOAD_FAILED"
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorConfig       ErrorCode = "INVALID_CONFIG"

	// Processing errors
	ErrorOCRFailed ErrorCode = "OCR_FAILED"

	// Storage errors
	ErrorStorageFailed ErrorCode = "STORAGE_FAILED"
)

// PipelineError represents a structured pipeline error
type PipelineError struct {
	Code      ErrorCode
	Message   string
	Path      string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *PipelineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

// NewImageLoadError reports a source image that is missing or cannot be decoded.
func NewImageLoadError(path string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorImageLoad,
		Message:   fmt.Sprintf("failed to load image %q", path),
		Path:      path,
		Timestamp: time.Now(),
		Cause:     cause,
	}
}

func NewInvalidInputError(message string) *PipelineError {
	return &PipelineError{
		Code:      ErrorInvalidInput,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// NewConfigError reports a layout or environment setting that failed validation.
func NewConfigError(path string, field string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorConfig,
		Message:   fmt.Sprintf("invalid configuration field %s", field),
		Path:      path,
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"field": field,
		},
		Cause: cause,
	}
}

func NewOCRFailedError(row, col int, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorOCRFailed,
		Message:   fmt.Sprintf("OCR failed for cell (%d,%d)", row, col),
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"row": row,
			"col": col,
		},
		Cause: cause,
	}
}

func NewStorageFailedError(runID string, cause error) *PipelineError {
	return &PipelineError{
		Code:      ErrorStorageFailed,
		Message:   "failed to store run results",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"run_id": runID,
		},
		Cause: cause,
	}
}

// HasCode reports whether any error in err's chain is a PipelineError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}

// ToMap converts error to map for tool responses
func (e *PipelineError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"timestamp":  e.Timestamp,
	}
	if e.Path != "" {
		result["path"] = e.Path
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
