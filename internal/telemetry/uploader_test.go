package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/davebirr/WellMonitor-sub000/internal/store"
)

type fakeSource struct {
	pending []store.StoredReading
	synced  []string
	failGet bool
}

func (s *fakeSource) UnsyncedReadings(ctx context.Context, limit int) ([]store.StoredReading, error) {
	if s.failGet {
		return nil, fmt.Errorf("database down")
	}
	if limit > len(s.pending) {
		limit = len(s.pending)
	}
	return s.pending[:limit], nil
}

func (s *fakeSource) MarkSynced(ctx context.Context, ids []string) error {
	s.synced = append(s.synced, ids...)
	remaining := s.pending[:0]
	for _, r := range s.pending {
		keep := true
		for _, id := range ids {
			if r.ID == id {
				keep = false
				break
			}
		}
		if keep {
			remaining = append(remaining, r)
		}
	}
	s.pending = remaining
	return nil
}

func pendingReadings(n int) []store.StoredReading {
	readings := make([]store.StoredReading, n)
	for i := range readings {
		readings[i] = store.StoredReading{
			ID:        fmt.Sprintf("reading-%d", i),
			DeviceID:  "well-pump-01",
			Status:    "Normal",
			Timestamp: time.Now().UTC(),
		}
	}
	return readings
}

func TestFlushUploadsAndMarksSynced(t *testing.T) {
	var got Batch
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/telemetry/readings" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("authorization = %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode batch: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	source := &fakeSource{pending: pendingReadings(3)}
	uploader := NewUploader(server.URL, "secret", "well-pump-01", source)

	count, err := uploader.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if count != 3 {
		t.Errorf("synced count = %d, want 3", count)
	}
	if len(source.synced) != 3 {
		t.Errorf("marked synced = %v", source.synced)
	}
	if got.DeviceID != "well-pump-01" || len(got.Readings) != 3 {
		t.Errorf("uploaded batch = device %q with %d readings", got.DeviceID, len(got.Readings))
	}
}

func TestFlushNothingPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no upload expected with nothing pending")
	}))
	defer server.Close()

	uploader := NewUploader(server.URL, "", "well-pump-01", &fakeSource{})
	count, err := uploader.Flush(context.Background())
	if err != nil || count != 0 {
		t.Errorf("Flush = %d, %v; want 0, nil", count, err)
	}
}

func TestFlushServerErrorLeavesReadingsPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	source := &fakeSource{pending: pendingReadings(2)}
	uploader := NewUploader(server.URL, "", "well-pump-01", source)

	count, err := uploader.Flush(context.Background())
	if err == nil {
		t.Fatal("expected error from failing endpoint")
	}
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
	if len(source.synced) != 0 {
		t.Errorf("failed upload must not mark readings synced, got %v", source.synced)
	}
}

func TestFlushDrainsMultipleBatches(t *testing.T) {
	uploads := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploads++
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	source := &fakeSource{pending: pendingReadings(defaultBatchSize + 5)}
	uploader := NewUploader(server.URL, "", "well-pump-01", source)

	count, err := uploader.Flush(context.Background())
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if count != defaultBatchSize+5 {
		t.Errorf("count = %d, want %d", count, defaultBatchSize+5)
	}
	if uploads != 2 {
		t.Errorf("uploads = %d, want 2", uploads)
	}
}

func TestFlushSourceErrorPropagates(t *testing.T) {
	uploader := NewUploader("http://localhost:0", "", "well-pump-01", &fakeSource{failGet: true})
	if _, err := uploader.Flush(context.Background()); err == nil {
		t.Error("expected error when the store is unreachable")
	}
}
