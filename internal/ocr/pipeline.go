/**
 * OCR Pipeline for the WellMonitor agent
 *
 * Orchestrates extraction across the available providers with a
 * confidence-gated retry/fallback cascade:
 * - up to N attempts against the primary provider with exponential backoff
 * - exactly one attempt against the fallback provider if the primary
 *   exhausts its budget
 * - a result passes the quality gate only when the provider succeeded, the
 *   confidence meets the configured minimum, and cleanup left non-empty text
 *
 * Construction never fails: with zero ready providers the pipeline degrades
 * to the no-op provider and keeps producing empty results.
 */

package ocr

import (
	"context"
	"runtime"
	"strings"
	"time"

	"github.com/davebirr/WellMonitor-sub000/internal/analyzer"
	"github.com/davebirr/WellMonitor-sub000/internal/confighub"
	"github.com/davebirr/WellMonitor-sub000/internal/logging"
)

const backoffBase = time.Second

// SnapshotSource yields the configuration in effect at extraction time.
type SnapshotSource interface {
	Current() confighub.ConfigSnapshot
}

// Pipeline is the provider-polymorphic text-extraction subsystem.
type Pipeline struct {
	config   SnapshotSource
	analyzer *analyzer.Analyzer
	primary  Provider
	fallback Provider
	sem      chan struct{}
	stats    statsTracker
	logger   *logging.Logger
}

// NewPipeline initializes the candidate providers and selects a primary and,
// when another is ready, a fallback. Preference comes from the current
// snapshot's ocr.provider; with no match any ready provider serves, and with
// none ready the no-op provider keeps the pipeline alive.
func NewPipeline(config SnapshotSource, a *analyzer.Analyzer, candidates ...Provider) *Pipeline {
	logger := logging.NewLogger("OCRPipeline")

	var ready []Provider
	for _, candidate := range candidates {
		desc := candidate.Descriptor()
		if candidate.Initialize() {
			ready = append(ready, candidate)
			logger.Info("OCR provider ready", "provider", desc.Name, "offline", desc.Offline)
		} else {
			logger.Warn("OCR provider unavailable, continuing without it", "provider", desc.Name)
		}
	}

	preference := config.Current().Ocr.Provider
	primary, fallback := selectProviders(ready, preference)
	if primary == nil {
		logger.Warn("No OCR providers available, degrading to no-op results")
		primary = NewNoopProvider()
	}

	logger.Info("OCR pipeline constructed",
		"primary", primary.Descriptor().Name,
		"fallback", describeFallback(fallback),
		"preference", preference)

	// Parallel cycles must not oversubscribe the CPU; the semaphore caps
	// concurrent engine invocations at the number of processing units.
	return &Pipeline{
		config:   config,
		analyzer: a,
		primary:  primary,
		fallback: fallback,
		sem:      make(chan struct{}, runtime.NumCPU()),
		logger:   logger,
	}
}

func selectProviders(ready []Provider, preference string) (Provider, Provider) {
	var primary Provider
	for _, p := range ready {
		if p.Descriptor().Name == preference {
			primary = p
			break
		}
	}
	if primary == nil && len(ready) > 0 {
		primary = ready[0]
	}
	for _, p := range ready {
		if p != primary {
			return primary, p
		}
	}
	return primary, nil
}

func describeFallback(p Provider) string {
	if p == nil {
		return "none"
	}
	return p.Descriptor().Name
}

// ExtractText runs the retry/fallback cascade over one captured image. The
// returned result is never nil; a failed cascade yields Success=false with
// the last error.
func (p *Pipeline) ExtractText(ctx context.Context, image []byte) *Result {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return &Result{Success: false, Error: ctx.Err().Error()}
	}
	defer func() { <-p.sem }()

	settings := p.config.Current().Ocr
	prepared := preprocess(image, settings.Preprocess, p.logger)

	attempts := settings.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var last *Result
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			backoff := backoffBase << uint(attempt-2)
			p.logger.Debug("Backing off before retry", "attempt", attempt, "delay", backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return p.finish(failedResult(last, attempt-1, ctx.Err().Error()))
			}
		}

		result := p.attempt(ctx, p.primary, prepared, settings)
		result.RetryAttempts = attempt
		if p.accepted(result, settings) {
			return p.finish(result)
		}
		last = result
		p.logger.Warn("Primary extraction below quality gate",
			"provider", p.primary.Descriptor().Name,
			"attempt", attempt,
			"confidence", result.Confidence,
			"error", result.Error)
	}

	// Exactly one fallback attempt under the same acceptance rule.
	if p.fallback != nil {
		p.logger.Info("Primary retries exhausted, trying fallback provider",
			"fallback", p.fallback.Descriptor().Name)
		result := p.attempt(ctx, p.fallback, prepared, settings)
		result.RetryAttempts = attempts
		if p.accepted(result, settings) {
			return p.finish(result)
		}
		last = result
		p.logger.Warn("Fallback extraction below quality gate",
			"provider", p.fallback.Descriptor().Name,
			"confidence", result.Confidence,
			"error", result.Error)
	}

	return p.finish(failedResult(last, attempts, "all extraction attempts failed quality gate"))
}

// attempt runs one provider call under the configured per-call timeout.
func (p *Pipeline) attempt(ctx context.Context, provider Provider, image []byte, settings confighub.OcrSettings) *Result {
	callCtx, cancel := context.WithTimeout(ctx, settings.Timeout)
	defer cancel()

	result, err := provider.Extract(callCtx, image)
	if err != nil {
		return &Result{
			Success:  false,
			Provider: provider.Descriptor().Name,
			Error:    err.Error(),
		}
	}
	result.ProcessedText = CleanText(result.RawText)
	return result
}

func (p *Pipeline) accepted(result *Result, settings confighub.OcrSettings) bool {
	return result.Success &&
		result.Confidence >= settings.MinimumConfidence &&
		strings.TrimSpace(result.ProcessedText) != ""
}

func (p *Pipeline) finish(result *Result) *Result {
	p.stats.record(result)
	return result
}

func failedResult(last *Result, attempts int, fallbackMsg string) *Result {
	if last != nil {
		if last.Error == "" {
			last.Error = fallbackMsg
		}
		last.Success = false
		last.RetryAttempts = attempts
		return last
	}
	return &Result{Success: false, RetryAttempts: attempts, Error: fallbackMsg}
}

// ProcessImage composes extraction and analysis into one PumpReading. An
// extraction that failed the quality gate still yields a reading (Unknown,
// invalid) so the monitoring cycle never silently stalls.
func (p *Pipeline) ProcessImage(ctx context.Context, image []byte) *analyzer.PumpReading {
	result := p.ExtractText(ctx, image)

	text := result.ProcessedText
	if !result.Success {
		text = ""
	}

	reading := p.analyzer.Analyze(text, result.Confidence)
	reading.Metadata["ocrProvider"] = result.Provider
	reading.Metadata["ocrDuration"] = result.Duration.Milliseconds()
	reading.Metadata["ocrRetries"] = result.RetryAttempts
	if result.Error != "" {
		reading.Metadata["ocrError"] = result.Error
	}
	return reading
}

// Stats returns the accumulated extraction statistics.
func (p *Pipeline) Stats() Stats {
	return p.stats.snapshot()
}

// ResetStats clears the accumulated statistics.
func (p *Pipeline) ResetStats() {
	p.stats.reset()
}

// Dispose releases provider resources.
func (p *Pipeline) Dispose() {
	p.primary.Dispose()
	if p.fallback != nil {
		p.fallback.Dispose()
	}
}
