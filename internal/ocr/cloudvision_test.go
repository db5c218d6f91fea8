package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func visionServer(t *testing.T, data VisionData) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/v1/vision/extract-text":
			var req VisionRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("decode request: %v", err)
			}
			if req.Format != "base64" || req.Image == "" {
				t.Errorf("unexpected request: format=%q imageLen=%d", req.Format, len(req.Image))
			}
			json.NewEncoder(w).Encode(&VisionResponse{Success: true, Data: data})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestCloudVisionExtract(t *testing.T) {
	server := visionServer(t, VisionData{Text: "5.2", Confidence: 0.93, ModelUsed: "vision-lite"})
	defer server.Close()

	provider := NewCloudVisionProvider(server.URL, "key")
	if !provider.Initialize() {
		t.Fatal("provider should initialize against a healthy endpoint")
	}

	result, err := provider.Extract(context.Background(), []byte("jpeg bytes"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !result.Success || result.RawText != "5.2" || result.Confidence != 0.93 {
		t.Errorf("result = %+v", result)
	}
	if result.Provider != "cloud" {
		t.Errorf("provider = %q, want cloud", result.Provider)
	}
}

func TestCloudVisionEmptyTextIsUnsuccessful(t *testing.T) {
	server := visionServer(t, VisionData{Text: "", Confidence: 0.1})
	defer server.Close()

	provider := NewCloudVisionProvider(server.URL, "")
	result, err := provider.Extract(context.Background(), []byte("jpeg bytes"))
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.Success {
		t.Error("empty extraction should not report success")
	}
}

func TestCloudVisionUnavailableWithoutURL(t *testing.T) {
	provider := NewCloudVisionProvider("", "")
	if provider.Initialize() {
		t.Error("provider without a URL must report unavailable")
	}
}

func TestCloudVisionInitializeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	provider := NewCloudVisionProvider(server.URL, "")
	if provider.Initialize() {
		t.Error("non-OK health check should report unavailable")
	}
}
