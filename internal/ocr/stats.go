package ocr

import (
	"sync"
	"time"
)

// Stats accumulates extraction statistics across pipeline calls for external
// reporting. Reset is an explicit, separate operation.
type Stats struct {
	TotalCalls        int64         `json:"totalCalls"`
	Successes         int64         `json:"successes"`
	Failures          int64         `json:"failures"`
	AverageDuration   time.Duration `json:"averageDuration"`
	AverageConfidence float64       `json:"averageConfidence"`
}

type statsTracker struct {
	mu            sync.Mutex
	totalCalls    int64
	successes     int64
	failures      int64
	totalDuration time.Duration
	totalConf     float64
}

func (t *statsTracker) record(result *Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalCalls++
	t.totalDuration += result.Duration
	if result.Success {
		t.successes++
		t.totalConf += result.Confidence
	} else {
		t.failures++
	}
}

func (t *statsTracker) snapshot() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Stats{
		TotalCalls: t.totalCalls,
		Successes:  t.successes,
		Failures:   t.failures,
	}
	if t.totalCalls > 0 {
		s.AverageDuration = t.totalDuration / time.Duration(t.totalCalls)
	}
	if t.successes > 0 {
		s.AverageConfidence = t.totalConf / float64(t.successes)
	}
	return s
}

func (t *statsTracker) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalCalls = 0
	t.successes = 0
	t.failures = 0
	t.totalDuration = 0
	t.totalConf = 0
}
