/**
 * Queue consumer for the WellMonitor agent
 *
 * Drains the recording queue and persists readings and relay actions to
 * PostgreSQL. Runs in-process alongside the monitoring loop; Asynq handles
 * retry with backoff so a transient database outage never loses a task
 * that made it into Redis.
 */

package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/davebirr/WellMonitor-sub000/internal/errors"
	"github.com/davebirr/WellMonitor-sub000/internal/logging"
	"github.com/davebirr/WellMonitor-sub000/internal/store"
	"github.com/hibiken/asynq"
)

// Consumer drains recording tasks into the store.
type Consumer struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	store  *store.PostgresStore
	config *ConsumerConfig
	logger *logging.Logger
}

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	RedisURL    string
	Concurrency int
	Store       *store.PostgresStore
}

// NewConsumer creates a consumer bound to the recording queue.
func NewConsumer(cfg *ConsumerConfig) (*Consumer, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("RedisURL is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("Store is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 2
	}

	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := logging.NewLogger("QueueConsumer")

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues: map[string]int{
				QueueName: 10,
				"default": 1,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				// Exponential backoff: 5s, 10s, 20s, capped at 60s.
				delay := time.Duration(5*(1<<uint(n))) * time.Second
				if delay > 60*time.Second {
					delay = 60 * time.Second
				}
				return delay
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Warn("Task processing error", "type", task.Type(), "error", err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	consumer := &Consumer{
		server: server,
		mux:    mux,
		store:  cfg.Store,
		config: cfg,
		logger: logger,
	}

	mux.HandleFunc(TaskRecordReading, consumer.handleRecordReading)
	mux.HandleFunc(TaskRecordAction, consumer.handleRecordAction)

	return consumer, nil
}

// Start begins draining the queue in a background goroutine.
func (c *Consumer) Start() error {
	c.logger.Info("Starting queue consumer", "concurrency", c.config.Concurrency, "queue", QueueName)

	go func() {
		if err := c.server.Run(c.mux); err != nil {
			c.logger.Error("Queue consumer stopped", "error", err)
		}
	}()
	return nil
}

// Stop shuts the consumer down gracefully, letting in-flight handlers finish.
func (c *Consumer) Stop() {
	c.logger.Info("Stopping queue consumer")
	c.server.Shutdown()
}

func (c *Consumer) handleRecordReading(ctx context.Context, task *asynq.Task) error {
	var payload ReadingTask
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal reading task: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := c.store.InsertReading(writeCtx, payload.ID, payload.DeviceID, &payload.Reading); err != nil {
		storageErr := errors.NewStorageFailedError("insert reading", err)
		c.logger.Warn("Failed to persist reading, task will retry",
			"id", payload.ID, "status", payload.Reading.Status, "error", storageErr)
		return storageErr
	}

	c.logger.Debug("Reading persisted", "id", payload.ID, "status", payload.Reading.Status)
	return nil
}

func (c *Consumer) handleRecordAction(ctx context.Context, task *asynq.Task) error {
	var payload ActionTask
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal action task: %w", err)
	}

	writeCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := c.store.InsertAction(writeCtx, &payload.Entry); err != nil {
		storageErr := errors.NewStorageFailedError("insert action", err)
		c.logger.Warn("Failed to persist action, task will retry",
			"id", payload.Entry.ID, "action", payload.Entry.Action, "error", storageErr)
		return storageErr
	}

	c.logger.Debug("Action persisted", "id", payload.Entry.ID, "action", payload.Entry.Action)
	return nil
}
