/**
 * Tesseract OCR provider - offline engine
 *
 * Wraps a gosseract client configured for the pump's single-line LED
 * display. The engine handle is created once in Initialize and owned
 * exclusively by this provider; a mutex serializes access because libtesseract
 * clients are not safe for concurrent use.
 */

package ocr

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/davebirr/WellMonitor-sub000/internal/logging"
	"github.com/otiai10/gosseract/v2"
)

// TesseractProvider handles offline OCR using a local Tesseract engine.
type TesseractProvider struct {
	mu          sync.Mutex
	client      *gosseract.Client
	dataPath    string
	initialized bool
	logger      *logging.Logger
}

// NewTesseractProvider creates the offline provider. dataPath may be empty to
// use the system tessdata location.
func NewTesseractProvider(dataPath string) *TesseractProvider {
	return &TesseractProvider{
		dataPath: dataPath,
		logger:   logging.NewLogger("TesseractOCR"),
	}
}

// Initialize sets up the engine and probes it with an empty configuration.
// Returns readiness; a missing native library or tessdata directory logs a
// warning and reports unavailable rather than failing startup.
func (p *TesseractProvider) Initialize() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return true
	}

	client := gosseract.NewClient()
	if p.dataPath != "" {
		if err := client.SetTessdataPrefix(p.dataPath); err != nil {
			p.logger.Warn("Failed to set tessdata prefix", "path", p.dataPath, "error", err)
			client.Close()
			return false
		}
	}
	if err := client.SetLanguage("eng"); err != nil {
		p.logger.Warn("Tesseract language setup failed", "error", err)
		client.Close()
		return false
	}
	// The display is one line of digits and short status words.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		p.logger.Warn("Tesseract page segmentation setup failed", "error", err)
		client.Close()
		return false
	}

	p.client = client
	p.initialized = true
	p.logger.Info("Tesseract engine initialized", "dataPath", p.dataPath)
	return true
}

// Extract runs the engine over one encoded image.
func (p *TesseractProvider) Extract(ctx context.Context, image []byte) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil, fmt.Errorf("tesseract provider not initialized")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	if err := p.client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := p.client.Text()
	if err != nil {
		return nil, fmt.Errorf("tesseract extraction failed: %w", err)
	}

	chars, confidence := p.symbolResults(text)

	result := &Result{
		Success:    text != "",
		RawText:    text,
		Confidence: confidence,
		Provider:   p.Descriptor().Name,
		Duration:   time.Since(start),
		Characters: chars,
	}
	if !result.Success {
		result.Error = "empty extraction"
	}
	return result, nil
}

// symbolResults pulls per-character boxes and confidences from the engine.
// When symbol-level data is unavailable the confidence falls back to a text
// quality heuristic.
func (p *TesseractProvider) symbolResults(text string) ([]CharBox, float64) {
	boxes, err := p.client.GetBoundingBoxes(gosseract.RIL_SYMBOL)
	if err != nil || len(boxes) == 0 {
		return nil, estimateConfidence(text)
	}

	chars := make([]CharBox, 0, len(boxes))
	total := 0.0
	for _, box := range boxes {
		chars = append(chars, CharBox{
			Char:       box.Word,
			Confidence: box.Confidence / 100.0,
			X:          box.Box.Min.X,
			Y:          box.Box.Min.Y,
			Width:      box.Box.Dx(),
			Height:     box.Box.Dy(),
		})
		total += box.Confidence / 100.0
	}
	return chars, total / float64(len(boxes))
}

// Dispose releases the native engine.
func (p *TesseractProvider) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.client != nil {
		p.client.Close()
		p.client = nil
		p.initialized = false
	}
}

func (p *TesseractProvider) Descriptor() Descriptor {
	p.mu.Lock()
	available := p.initialized
	p.mu.Unlock()
	return Descriptor{Name: "tesseract", Available: available, Offline: true}
}

// estimateConfidence scores extraction quality when the engine reports no
// symbol confidences. A short string dominated by digits and known display
// characters is the expected shape for this camera.
func estimateConfidence(text string) float64 {
	if text == "" {
		return 0
	}

	confidence := 0.5
	plausible := 0
	for _, r := range text {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ' ':
			plausible++
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			plausible++
		}
	}
	ratio := float64(plausible) / float64(len([]rune(text)))
	if ratio > 0.9 {
		confidence += 0.2
	} else if ratio > 0.7 {
		confidence += 0.1
	}
	if len(text) <= 12 {
		// Display readings are short; long strings are usually noise.
		confidence += 0.1
	}
	if confidence > 0.85 {
		confidence = 0.85
	}
	return confidence
}
