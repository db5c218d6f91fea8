package ocr

import (
	"context"
	"time"
)

// NoopProvider is the always-available provider of last resort. It returns
// empty, unsuccessful results so the monitoring loop keeps producing
// Unknown/invalid readings instead of stalling when no real OCR backend can
// be constructed.
type NoopProvider struct{}

func NewNoopProvider() *NoopProvider {
	return &NoopProvider{}
}

func (p *NoopProvider) Initialize() bool {
	return true
}

func (p *NoopProvider) Extract(ctx context.Context, image []byte) (*Result, error) {
	return &Result{
		Success:  false,
		Provider: p.Descriptor().Name,
		Duration: time.Duration(0),
		Error:    "no OCR provider available",
	}, nil
}

func (p *NoopProvider) Dispose() {}

func (p *NoopProvider) Descriptor() Descriptor {
	return Descriptor{Name: "noop", Available: true, Offline: true}
}
