package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DeviceID != "well-pump-01" {
		t.Errorf("DeviceID = %q", cfg.DeviceID)
	}
	if cfg.PrimaryCaptureCommand != "rpicam-still" || cfg.SecondaryCaptureCommand != "libcamera-still" {
		t.Errorf("capture commands = %q / %q", cfg.PrimaryCaptureCommand, cfg.SecondaryCaptureCommand)
	}
	if cfg.MonitorInterval != 30*time.Second {
		t.Errorf("MonitorInterval = %v", cfg.MonitorInterval)
	}
	if cfg.ConfigKey != "wellmonitor:config" {
		t.Errorf("ConfigKey = %q", cfg.ConfigKey)
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("MONITOR_INTERVAL", "45s")
	t.Setenv("DEVICE_ID", "well-pump-07")
	t.Setenv("QUEUE_CONCURRENCY", "4")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MonitorInterval != 45*time.Second {
		t.Errorf("MonitorInterval = %v, want 45s", cfg.MonitorInterval)
	}
	if cfg.DeviceID != "well-pump-07" {
		t.Errorf("DeviceID = %q", cfg.DeviceID)
	}
	if cfg.QueueConcurrency != 4 {
		t.Errorf("QueueConcurrency = %d", cfg.QueueConcurrency)
	}
}

func TestLoadConfigUnparsableValuesFallBack(t *testing.T) {
	t.Setenv("MONITOR_INTERVAL", "soon")
	t.Setenv("QUEUE_CONCURRENCY", "many")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.MonitorInterval != 30*time.Second {
		t.Errorf("MonitorInterval = %v, want default 30s", cfg.MonitorInterval)
	}
	if cfg.QueueConcurrency != 2 {
		t.Errorf("QueueConcurrency = %d, want default 2", cfg.QueueConcurrency)
	}
}

func TestValidateRejectsOutOfRangeIntervals(t *testing.T) {
	t.Setenv("MONITOR_INTERVAL", "1s")
	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for monitor interval below 5s")
	}
}
