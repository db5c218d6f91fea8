/**
 * Telemetry uploader for the WellMonitor agent
 *
 * Pushes batches of unsynced readings to the fleet telemetry endpoint.
 * Rows are marked synced only after the endpoint acknowledges the batch,
 * so an upload that dies mid-flight is retried on the next flush.
 */

package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/davebirr/WellMonitor-sub000/internal/logging"
	"github.com/davebirr/WellMonitor-sub000/internal/store"
)

const defaultBatchSize = 50

// ReadingSource is the slice of the store the uploader needs.
type ReadingSource interface {
	UnsyncedReadings(ctx context.Context, limit int) ([]store.StoredReading, error)
	MarkSynced(ctx context.Context, ids []string) error
}

// Uploader flushes unsynced readings to the telemetry endpoint.
type Uploader struct {
	baseURL   string
	apiKey    string
	deviceID  string
	source    ReadingSource
	client    *http.Client
	batchSize int
	logger    *logging.Logger
}

// Batch is the upload payload.
type Batch struct {
	DeviceID string                `json:"deviceId"`
	SentAt   time.Time             `json:"sentAt"`
	Readings []store.StoredReading `json:"readings"`
}

// NewUploader creates a telemetry uploader.
func NewUploader(baseURL, apiKey, deviceID string, source ReadingSource) *Uploader {
	return &Uploader{
		baseURL:   baseURL,
		apiKey:    apiKey,
		deviceID:  deviceID,
		source:    source,
		batchSize: defaultBatchSize,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logging.NewLogger("Telemetry"),
	}
}

// Flush uploads pending readings in batches until none remain or a batch
// fails. Returns the number of readings synced.
func (u *Uploader) Flush(ctx context.Context) (int, error) {
	total := 0
	for {
		readings, err := u.source.UnsyncedReadings(ctx, u.batchSize)
		if err != nil {
			return total, fmt.Errorf("failed to load unsynced readings: %w", err)
		}
		if len(readings) == 0 {
			return total, nil
		}

		if err := u.upload(ctx, readings); err != nil {
			return total, err
		}

		ids := make([]string, len(readings))
		for i, r := range readings {
			ids[i] = r.ID
		}
		if err := u.source.MarkSynced(ctx, ids); err != nil {
			// The server has the batch; the rows will be re-sent next flush
			// and deduplicated by ID on the server side.
			u.logger.Warn("Uploaded batch could not be marked synced", "count", len(ids), "error", err)
			return total, err
		}

		total += len(readings)
		u.logger.Info("Telemetry batch uploaded", "count", len(readings))

		if len(readings) < u.batchSize {
			return total, nil
		}
	}
}

func (u *Uploader) upload(ctx context.Context, readings []store.StoredReading) error {
	payload, err := json.Marshal(&Batch{
		DeviceID: u.deviceID,
		SentAt:   time.Now().UTC(),
		Readings: readings,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal telemetry batch: %w", err)
	}

	url := u.baseURL + "/v1/telemetry/readings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create telemetry request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return fmt.Errorf("telemetry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telemetry endpoint returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
