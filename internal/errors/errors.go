package errors

import (
	"fmt"
	"time"
)

/**
 * Custom error types for the WellMonitor agent
 *
 * Every failure surfaced past a component boundary carries a code, so the
 * monitoring loop can decide between "end this cycle" and "degrade the reading"
 * without string matching.
 */

// ErrorCode enum for structured error handling
type ErrorCode string

const (
	// Capture errors
	ErrorCaptureFailed  ErrorCode = "CAPTURE_FAILED"
	ErrorCaptureTimeout ErrorCode = "CAPTURE_TIMEOUT"

	// OCR errors
	ErrorOCRDegraded        ErrorCode = "OCR_DEGRADED"
	ErrorProviderInitFailed ErrorCode = "PROVIDER_INIT_FAILED"

	// Configuration errors
	ErrorConfigValidation ErrorCode = "CONFIG_VALIDATION"
	ErrorConfigFetch      ErrorCode = "CONFIG_FETCH_FAILED"

	// Collaborator errors
	ErrorStorageFailed  ErrorCode = "STORAGE_FAILED"
	ErrorActuatorFailed ErrorCode = "ACTUATOR_FAILED"
)

// MonitorError represents a structured agent error
type MonitorError struct {
	Code      ErrorCode
	Message   string
	Component string
	Timestamp time.Time
	Details   map[string]interface{}
	Cause     error
}

func (e *MonitorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *MonitorError) Unwrap() error {
	return e.Cause
}

// Factory functions for common errors

func NewCaptureFailedError(backend string, cause error) *MonitorError {
	return &MonitorError{
		Code:      ErrorCaptureFailed,
		Message:   fmt.Sprintf("capture failed on backend: %s", backend),
		Component: "capture",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"backend": backend,
		},
		Cause: cause,
	}
}

func NewCaptureTimeoutError(backend string, timeout time.Duration, cause error) *MonitorError {
	return &MonitorError{
		Code:      ErrorCaptureTimeout,
		Message:   fmt.Sprintf("capture timed out after %v", timeout),
		Component: "capture",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"backend":          backend,
			"timeout_duration": timeout.String(),
		},
		Cause: cause,
	}
}

func NewOCRDegradedError(provider string, confidence, minimum float64) *MonitorError {
	return &MonitorError{
		Code:      ErrorOCRDegraded,
		Message:   fmt.Sprintf("OCR confidence %.2f below minimum %.2f", confidence, minimum),
		Component: "ocr",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"provider":   provider,
			"confidence": confidence,
			"minimum":    minimum,
		},
	}
}

func NewProviderInitError(provider string, cause error) *MonitorError {
	return &MonitorError{
		Code:      ErrorProviderInitFailed,
		Message:   fmt.Sprintf("OCR provider failed to initialize: %s", provider),
		Component: "ocr",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"provider": provider,
		},
		Cause: cause,
	}
}

func NewConfigFetchError(key string, cause error) *MonitorError {
	return &MonitorError{
		Code:      ErrorConfigFetch,
		Message:   fmt.Sprintf("failed to fetch remote configuration: %s", key),
		Component: "configsource",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"key": key,
		},
		Cause: cause,
	}
}

func NewStorageFailedError(operation string, cause error) *MonitorError {
	return &MonitorError{
		Code:      ErrorStorageFailed,
		Message:   fmt.Sprintf("storage operation failed: %s", operation),
		Component: "store",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"operation": operation,
		},
		Cause: cause,
	}
}

func NewActuatorFailedError(action string, cause error) *MonitorError {
	return &MonitorError{
		Code:      ErrorActuatorFailed,
		Message:   fmt.Sprintf("relay action failed: %s", action),
		Component: "actuator",
		Timestamp: time.Now(),
		Details: map[string]interface{}{
			"action": action,
		},
		Cause: cause,
	}
}

// ToMap converts error to map for database storage
func (e *MonitorError) ToMap() map[string]interface{} {
	result := map[string]interface{}{
		"error_code": string(e.Code),
		"message":    e.Message,
		"component":  e.Component,
		"timestamp":  e.Timestamp,
	}

	for k, v := range e.Details {
		result[k] = v
	}

	if e.Cause != nil {
		result["cause"] = e.Cause.Error()
	}

	return result
}
