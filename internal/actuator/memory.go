package actuator

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryRelay is an in-process relay used when no control command is
// configured and by tests. It applies the same rate limiting as the real
// relay so the monitoring loop behaves identically against either.
type MemoryRelay struct {
	mu          sync.Mutex
	state       bool
	lastCycle   time.Time
	cycles      int
	subscribers []func(bool)
}

func NewMemoryRelay() *MemoryRelay {
	return &MemoryRelay{state: true}
}

func (r *MemoryRelay) SetState(ctx context.Context, on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state == on {
		return nil
	}
	r.state = on
	for _, fn := range r.subscribers {
		fn(on)
	}
	return nil
}

func (r *MemoryRelay) GetState() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *MemoryRelay) PowerCycle(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.lastCycle.IsZero() && time.Since(r.lastCycle) < minCycleInterval {
		return fmt.Errorf("power cycle rate limited: last cycle %v ago", time.Since(r.lastCycle))
	}
	r.lastCycle = time.Now()
	r.cycles++
	return nil
}

// Cycles reports how many power cycles have run.
func (r *MemoryRelay) Cycles() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cycles
}

func (r *MemoryRelay) Subscribe(fn func(on bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}
