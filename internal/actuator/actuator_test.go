package actuator

import (
	"context"
	"testing"
)

func TestMemoryRelayPowerCycleRateLimited(t *testing.T) {
	relay := NewMemoryRelay()

	if err := relay.PowerCycle(context.Background()); err != nil {
		t.Fatalf("first power cycle: %v", err)
	}
	if err := relay.PowerCycle(context.Background()); err == nil {
		t.Fatal("second immediate power cycle should be rate limited")
	}
	if relay.Cycles() != 1 {
		t.Errorf("cycles = %d, want 1", relay.Cycles())
	}
}

func TestMemoryRelaySetStateNotifiesOnChange(t *testing.T) {
	relay := NewMemoryRelay()

	var changes []bool
	relay.Subscribe(func(on bool) { changes = append(changes, on) })

	if err := relay.SetState(context.Background(), true); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("setting the current state should not notify, got %v", changes)
	}

	if err := relay.SetState(context.Background(), false); err != nil {
		t.Fatalf("SetState: %v", err)
	}
	if len(changes) != 1 || changes[0] != false {
		t.Errorf("changes = %v, want [false]", changes)
	}
	if relay.GetState() {
		t.Error("state should be off")
	}
}

func TestCommandRelayStartsPowered(t *testing.T) {
	relay := NewCommandRelay("true")
	if !relay.GetState() {
		t.Error("relay should report powered at startup")
	}
}

func TestCommandRelaySetState(t *testing.T) {
	// "true" accepts any arguments and exits zero, standing in for the GPIO helper.
	relay := NewCommandRelay("true")

	var changes []bool
	relay.Subscribe(func(on bool) { changes = append(changes, on) })

	if err := relay.SetState(context.Background(), false); err != nil {
		t.Fatalf("SetState off: %v", err)
	}
	if err := relay.SetState(context.Background(), false); err != nil {
		t.Fatalf("idempotent SetState off: %v", err)
	}
	if err := relay.SetState(context.Background(), true); err != nil {
		t.Fatalf("SetState on: %v", err)
	}

	if len(changes) != 2 {
		t.Errorf("notified %d times, want 2", len(changes))
	}
}

func TestCommandRelaySetStateCommandFailure(t *testing.T) {
	relay := NewCommandRelay("false")

	if err := relay.SetState(context.Background(), false); err == nil {
		t.Fatal("failing control command should surface an error")
	}
	if !relay.GetState() {
		t.Error("state must not change when the command fails")
	}
}
