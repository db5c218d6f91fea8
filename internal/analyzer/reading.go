package analyzer

import (
	"time"
)

// PumpStatus is the classified operating state of the pump for one cycle.
type PumpStatus string

const (
	StatusUnknown    PumpStatus = "Unknown"
	StatusOff        PumpStatus = "Off"
	StatusIdle       PumpStatus = "Idle"
	StatusNormal     PumpStatus = "Normal"
	StatusDry        PumpStatus = "Dry"
	StatusRapidCycle PumpStatus = "RapidCycle"
)

// Unsafe reports whether the status calls for automated corrective action.
func (s PumpStatus) Unsafe() bool {
	return s == StatusDry || s == StatusRapidCycle
}

// PumpReading is the typed result of one analysis. Produced once per
// monitoring cycle and forwarded to persistence and telemetry.
type PumpReading struct {
	Status      PumpStatus             `json:"status"`
	CurrentAmps *float64               `json:"currentAmps,omitempty"`
	Confidence  float64                `json:"confidence"`
	RawText     string                 `json:"rawText"`
	IsValid     bool                   `json:"isValid"`
	Timestamp   time.Time              `json:"timestamp"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
}
