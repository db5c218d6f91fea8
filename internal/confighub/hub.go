package confighub

import (
	"sync"

	"github.com/davebirr/WellMonitor-sub000/internal/logging"
)

// Hub is the lock-protected, hot-swappable store of runtime tunables. All
// components read their settings from it at the moment of use; a Replace from
// the remote configuration source changes behavior on the next read with no
// restart and no torn state.
type Hub struct {
	mu          sync.RWMutex
	current     ConfigSnapshot
	subscribers []func(ConfigSnapshot)
	logger      *logging.Logger
}

// NewHub creates a Hub seeded with the built-in defaults, so the rest of the
// system is operable before any external configuration has been received.
func NewHub() *Hub {
	return &Hub{
		current: Defaults(),
		logger:  logging.NewLogger("ConfigHub"),
	}
}

// Current returns the snapshot in effect. Non-blocking beyond the read lock;
// the returned value is a copy and safe to hold across a cycle.
func (h *Hub) Current() ConfigSnapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Replace validates the candidate, installs it atomically, and notifies
// subscribers. Out-of-range fields are substituted per-field (fail-soft) and
// logged; the swap itself never fails. Installing a snapshot equal to the
// current one is a no-op and produces no notification.
func (h *Hub) Replace(candidate ConfigSnapshot) {
	validated, warnings := Validate(candidate)
	for _, w := range warnings {
		h.logger.Warn("Config field substituted", "detail", w)
	}

	h.mu.Lock()
	if validated.Equal(h.current) {
		h.mu.Unlock()
		h.logger.Debug("Config unchanged, skipping swap")
		return
	}
	h.current = validated
	subscribers := make([]func(ConfigSnapshot), len(h.subscribers))
	copy(subscribers, h.subscribers)
	h.mu.Unlock()

	h.logger.Info("Config snapshot replaced",
		"resolution", validated.Capture.Width*validated.Capture.Height,
		"ocrProvider", validated.Ocr.Provider,
		"minConfidence", validated.Ocr.MinimumConfidence,
		"warnings", len(warnings))

	// Callbacks run outside the lock so a slow subscriber cannot block readers.
	for _, fn := range subscribers {
		fn(validated)
	}
}

// Apply decodes a raw remote document over the current snapshot and installs
// the result. This is the single entry point for the config refresh task.
func (h *Hub) Apply(doc map[string]interface{}) {
	h.Replace(Decode(h.Current(), doc))
}

// Subscribe registers a callback invoked after each successful swap. The
// callback receives the installed snapshot.
func (h *Hub) Subscribe(fn func(ConfigSnapshot)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribers = append(h.subscribers, fn)
}
