/**
 * Cloud vision OCR provider
 *
 * Delegates extraction to a hosted vision API over HTTPS. Used as the
 * fallback tier when the offline engine cannot produce a confident reading,
 * or as the primary when configured. The provider owns its HTTP client
 * exclusively.
 */

package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/davebirr/WellMonitor-sub000/internal/logging"
)

// VisionRequest is the extraction request body.
type VisionRequest struct {
	Image    string `json:"image"`  // base64 encoded JPEG
	Format   string `json:"format"` // always "base64"
	Language string `json:"language,omitempty"`
}

// VisionResponse is the extraction response envelope.
type VisionResponse struct {
	Success bool       `json:"success"`
	Data    VisionData `json:"data"`
	Message string     `json:"message"`
}

// VisionData carries the extracted text and metadata.
type VisionData struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	ModelUsed  string  `json:"modelUsed"`
}

// CloudVisionProvider handles OCR via the hosted vision endpoint.
type CloudVisionProvider struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	available  bool
	logger     *logging.Logger
}

// NewCloudVisionProvider creates the cloud provider. An empty baseURL yields
// a provider that reports unavailable.
func NewCloudVisionProvider(baseURL, apiKey string) *CloudVisionProvider {
	return &CloudVisionProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logging.NewLogger("CloudVisionOCR"),
	}
}

// Initialize probes the service health endpoint. An unreachable service logs
// a warning and reports unavailable; the pipeline continues with the
// remaining providers.
func (p *CloudVisionProvider) Initialize() bool {
	if p.baseURL == "" {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warn("Cloud vision health check failed", "url", p.baseURL, "error", err)
		return false
	}
	defer resp.Body.Close()

	p.available = resp.StatusCode == http.StatusOK
	if p.available {
		p.logger.Info("Cloud vision connection verified", "url", p.baseURL)
	} else {
		p.logger.Warn("Cloud vision health check returned non-OK", "status", resp.StatusCode)
	}
	return p.available
}

// Extract posts the image for extraction.
func (p *CloudVisionProvider) Extract(ctx context.Context, image []byte) (*Result, error) {
	start := time.Now()

	body, err := json.Marshal(&VisionRequest{
		Image:    base64.StdEncoding.EncodeToString(image),
		Format:   "base64",
		Language: "en",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := p.baseURL + "/v1/vision/extract-text"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("vision API returned %d: %s", resp.StatusCode, truncateBody(respBody))
	}

	var vision VisionResponse
	if err := json.Unmarshal(respBody, &vision); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if !vision.Success {
		return nil, fmt.Errorf("vision API reported failure: %s", vision.Message)
	}

	p.logger.Debug("Cloud extraction complete",
		"model", vision.Data.ModelUsed,
		"confidence", vision.Data.Confidence,
		"duration", time.Since(start))

	return &Result{
		Success:    vision.Data.Text != "",
		RawText:    vision.Data.Text,
		Confidence: vision.Data.Confidence,
		Provider:   p.Descriptor().Name,
		Duration:   time.Since(start),
	}, nil
}

func (p *CloudVisionProvider) Dispose() {
	p.httpClient.CloseIdleConnections()
}

func (p *CloudVisionProvider) Descriptor() Descriptor {
	return Descriptor{Name: "cloud", Available: p.available, Offline: false}
}

func truncateBody(b []byte) string {
	if len(b) > 200 {
		return string(b[:200]) + "..."
	}
	return string(b)
}
