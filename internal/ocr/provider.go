/**
 * OCR provider contract
 *
 * A provider is one pluggable text-extraction backend: the offline Tesseract
 * engine, the cloud vision API, or the no-op stub that keeps the pipeline
 * constructible with zero real providers. Each provider owns its engine or
 * client handle exclusively; the pipeline never shares a handle across
 * providers.
 */

package ocr

import (
	"context"
	"time"
)

// Provider is implemented by every text-extraction backend.
type Provider interface {
	// Initialize prepares the engine or client. It reports readiness rather
	// than returning an error: an unavailable provider is a selection
	// concern, not a startup failure.
	Initialize() bool

	// Extract runs text extraction over an encoded image.
	Extract(ctx context.Context, image []byte) (*Result, error)

	// Dispose releases native or client resources.
	Dispose()

	// Descriptor describes the provider for selection and reporting.
	Descriptor() Descriptor
}

// Descriptor names a provider and its capability.
type Descriptor struct {
	Name      string
	Available bool
	Offline   bool
}

// CharBox is one recognized character with its confidence and position.
type CharBox struct {
	Char       string  `json:"char"`
	Confidence float64 `json:"confidence"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
}

// Result is the outcome of one extraction call. Created per call; short-lived.
type Result struct {
	Success       bool          `json:"success"`
	RawText       string        `json:"rawText"`
	ProcessedText string        `json:"processedText"`
	Confidence    float64       `json:"confidence"`
	Provider      string        `json:"provider"`
	Duration      time.Duration `json:"duration"`
	Characters    []CharBox     `json:"characters,omitempty"`
	RetryAttempts int           `json:"retryAttempts"`
	Error         string        `json:"error,omitempty"`
}
