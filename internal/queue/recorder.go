/**
 * Fire-and-forget recording via the Redis task queue
 *
 * The monitoring loop must never block on storage: readings and action log
 * entries are enqueued as asynq tasks and a separate consumer persists them.
 * Enqueue failures are logged and dropped; losing one reading is preferable
 * to stalling the sense-classify-act loop.
 */

package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/davebirr/WellMonitor-sub000/internal/analyzer"
	"github.com/davebirr/WellMonitor-sub000/internal/logging"
	"github.com/davebirr/WellMonitor-sub000/internal/store"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

const (
	TaskRecordReading = "reading:record"
	TaskRecordAction  = "action:record"

	QueueName = "wellmonitor"
)

// ReadingTask is the payload of a reading:record task.
type ReadingTask struct {
	ID       string               `json:"id"`
	DeviceID string               `json:"deviceId"`
	Reading  analyzer.PumpReading `json:"reading"`
}

// ActionTask is the payload of an action:record task.
type ActionTask struct {
	Entry store.ActionEntry `json:"entry"`
}

// Recorder enqueues readings and actions for asynchronous persistence.
type Recorder struct {
	client   *asynq.Client
	deviceID string
	logger   *logging.Logger
}

// NewRecorder creates a recorder publishing to the given Redis instance.
func NewRecorder(redisURL, deviceID string) (*Recorder, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	return &Recorder{
		client:   asynq.NewClient(opt),
		deviceID: deviceID,
		logger:   logging.NewLogger("Recorder"),
	}, nil
}

// Record enqueues one pump reading. Fire-and-forget: failures are logged,
// never propagated to the monitoring cycle.
func (r *Recorder) Record(reading *analyzer.PumpReading) {
	payload, err := json.Marshal(&ReadingTask{
		ID:       uuid.New().String(),
		DeviceID: r.deviceID,
		Reading:  *reading,
	})
	if err != nil {
		r.logger.Error("Failed to marshal reading task", "error", err)
		return
	}

	task := asynq.NewTask(TaskRecordReading, payload)
	if _, err := r.client.Enqueue(task,
		asynq.Queue(QueueName),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	); err != nil {
		r.logger.Warn("Failed to enqueue reading, dropping", "status", reading.Status, "error", err)
		return
	}
	r.logger.Debug("Reading enqueued", "status", reading.Status, "valid", reading.IsValid)
}

// RecordAction enqueues one relay action log entry.
func (r *Recorder) RecordAction(action, reason string, success bool, detail string) {
	payload, err := json.Marshal(&ActionTask{
		Entry: store.ActionEntry{
			ID:       uuid.New().String(),
			DeviceID: r.deviceID,
			Action:   action,
			Reason:   reason,
			Success:  success,
			Detail:   detail,
			Occurred: time.Now().UTC(),
		},
	})
	if err != nil {
		r.logger.Error("Failed to marshal action task", "error", err)
		return
	}

	task := asynq.NewTask(TaskRecordAction, payload)
	if _, err := r.client.Enqueue(task,
		asynq.Queue(QueueName),
		asynq.MaxRetry(5),
		asynq.Timeout(30*time.Second),
	); err != nil {
		r.logger.Warn("Failed to enqueue action, dropping", "action", action, "error", err)
		return
	}
	r.logger.Debug("Action enqueued", "action", action, "reason", reason)
}

// Close releases the queue client.
func (r *Recorder) Close() error {
	return r.client.Close()
}
