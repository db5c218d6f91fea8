/**
 * Relay actuator for the WellMonitor agent
 *
 * The pump's power feed runs through a relay the agent can cycle when an
 * unsafe state is detected. The monitoring loop only sees the Relay
 * interface; the shipped implementation shells out to a relay control CLI
 * and enforces a minimum interval between automated power cycles so a
 * flapping reading cannot hammer the contactor.
 */

package actuator

import (
	"context"
	"fmt"
	"os/exec"
	"sync"
	"time"

	"github.com/davebirr/WellMonitor-sub000/internal/errors"
	"github.com/davebirr/WellMonitor-sub000/internal/logging"
)

// Relay is the actuator contract the monitoring loop consumes.
type Relay interface {
	SetState(ctx context.Context, on bool) error
	GetState() bool
	PowerCycle(ctx context.Context) error
	Subscribe(fn func(on bool))
}

const (
	// Settle time between off and on during a power cycle.
	cycleSettleDelay = 5 * time.Second

	// Minimum spacing between automated power cycles.
	minCycleInterval = 10 * time.Minute
)

// CommandRelay drives a relay through an external control command
// (e.g. a GPIO helper). The command is invoked as `<cmd> on|off`.
type CommandRelay struct {
	mu          sync.Mutex
	command     string
	state       bool
	lastCycle   time.Time
	subscribers []func(bool)
	logger      *logging.Logger
}

// NewCommandRelay creates a relay backed by the given control command.
func NewCommandRelay(command string) *CommandRelay {
	return &CommandRelay{
		command: command,
		state:   true, // the pump is powered when the agent starts
		logger:  logging.NewLogger("Relay"),
	}
}

// SetState switches the relay and notifies subscribers on change.
func (r *CommandRelay) SetState(ctx context.Context, on bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setStateLocked(ctx, on)
}

func (r *CommandRelay) setStateLocked(ctx context.Context, on bool) error {
	if r.state == on {
		return nil
	}

	arg := "off"
	if on {
		arg = "on"
	}

	cmd := exec.CommandContext(ctx, r.command, arg)
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.NewActuatorFailedError(arg,
			fmt.Errorf("relay command failed: %w (output: %s)", err, output))
	}

	r.state = on
	r.logger.Info("Relay state changed", "on", on)
	for _, fn := range r.subscribers {
		fn(on)
	}
	return nil
}

// GetState reports the last commanded state.
func (r *CommandRelay) GetState() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// PowerCycle turns the pump off, waits for the contactor to settle, and turns
// it back on. Cycles closer together than the minimum interval are refused.
func (r *CommandRelay) PowerCycle(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if since := time.Since(r.lastCycle); since < minCycleInterval {
		r.logger.Warn("Power cycle suppressed by rate limit",
			"sinceLast", since, "minimum", minCycleInterval)
		return fmt.Errorf("power cycle rate limited: last cycle %v ago", since)
	}

	if err := r.setStateLocked(ctx, false); err != nil {
		return err
	}

	select {
	case <-time.After(cycleSettleDelay):
	case <-ctx.Done():
		// Never leave the pump off because a shutdown interrupted the cycle.
		restoreCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := r.setStateLocked(restoreCtx, true); err != nil {
			r.logger.Error("Failed to restore power after interrupted cycle", "error", err)
		}
		return ctx.Err()
	}

	if err := r.setStateLocked(ctx, true); err != nil {
		return err
	}

	r.lastCycle = time.Now()
	r.logger.Info("Power cycle complete")
	return nil
}

// Subscribe registers a state-changed callback.
func (r *CommandRelay) Subscribe(fn func(on bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}
