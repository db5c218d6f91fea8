/**
 * WellMonitor Agent - Main Entry Point
 *
 * Monitors a water well pump by photographing its LED current display,
 * extracting the text with OCR, and classifying the pump state. Unsafe
 * states (dry run, rapid cycling) trigger an automated power cycle
 * through the relay.
 *
 * Architecture:
 * - Capture orchestrator shelling out to the still-capture CLI
 * - Provider-polymorphic OCR pipeline (Tesseract / cloud vision / no-op)
 * - Keyword and threshold based pump status analyzer
 * - Hot-swappable runtime configuration from a Redis-held document
 * - Asynq queue decoupling persistence from the monitoring cycle
 * - PostgreSQL persistence with batched telemetry upload
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/davebirr/WellMonitor-sub000/internal/actuator"
	"github.com/davebirr/WellMonitor-sub000/internal/analyzer"
	"github.com/davebirr/WellMonitor-sub000/internal/capture"
	"github.com/davebirr/WellMonitor-sub000/internal/config"
	"github.com/davebirr/WellMonitor-sub000/internal/confighub"
	"github.com/davebirr/WellMonitor-sub000/internal/configsource"
	"github.com/davebirr/WellMonitor-sub000/internal/logging"
	"github.com/davebirr/WellMonitor-sub000/internal/monitor"
	"github.com/davebirr/WellMonitor-sub000/internal/ocr"
	"github.com/davebirr/WellMonitor-sub000/internal/queue"
	"github.com/davebirr/WellMonitor-sub000/internal/store"
	"github.com/davebirr/WellMonitor-sub000/internal/telemetry"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(".env.wellmonitor"); err != nil {
		log.Printf("Warning: .env.wellmonitor not found, using system environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logging.SetLevel(logging.ParseLevel(cfg.LogLevel))
	logger := logging.NewLogger("Agent")

	logger.Info("WellMonitor agent starting",
		"device", cfg.DeviceID,
		"redis", cfg.RedisURL,
		"monitorInterval", cfg.MonitorInterval)

	// Runtime configuration: defaults now, remote document on first refresh.
	hub := confighub.NewHub()

	fetcher, err := configsource.NewRedisSource(cfg.RedisURL, cfg.ConfigKey)
	if err != nil {
		log.Fatalf("Failed to initialize config source: %v", err)
	}
	defer fetcher.Close()

	camera := capture.NewOrchestrator(hub,
		cfg.PrimaryCaptureCommand, cfg.SecondaryCaptureCommand, cfg.TempDir)

	statusAnalyzer := analyzer.NewAnalyzer(hub)

	// Provider candidates in preference order; the pipeline keeps whichever
	// initialize and degrades to no-op results with none.
	candidates := []ocr.Provider{ocr.NewTesseractProvider(cfg.TesseractDataPath)}
	if cfg.CloudVisionURL != "" {
		candidates = append(candidates, ocr.NewCloudVisionProvider(cfg.CloudVisionURL, cfg.CloudVisionKey))
	}
	pipeline := ocr.NewPipeline(hub, statusAnalyzer, candidates...)
	defer pipeline.Dispose()

	var relay actuator.Relay
	if cfg.RelayCommand != "" {
		relay = actuator.NewCommandRelay(cfg.RelayCommand)
	} else {
		logger.Warn("No relay command configured, power cycles will be simulated")
		relay = actuator.NewMemoryRelay()
	}

	// Persistence and telemetry are optional: without a database the agent
	// still monitors and actuates, it just keeps no history.
	var (
		recorder  monitor.Recorder
		flusher   monitor.TelemetryFlusher
		dataStore *store.PostgresStore
		consumer  *queue.Consumer
	)
	if cfg.DatabaseURL != "" {
		dataStore, err = store.NewPostgresStore(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize store: %v", err)
		}
		defer dataStore.Close()

		queueRecorder, err := queue.NewRecorder(cfg.RedisURL, cfg.DeviceID)
		if err != nil {
			log.Fatalf("Failed to initialize recorder: %v", err)
		}
		defer queueRecorder.Close()
		recorder = queueRecorder

		consumer, err = queue.NewConsumer(&queue.ConsumerConfig{
			RedisURL:    cfg.RedisURL,
			Concurrency: cfg.QueueConcurrency,
			Store:       dataStore,
		})
		if err != nil {
			log.Fatalf("Failed to initialize queue consumer: %v", err)
		}
		if err := consumer.Start(); err != nil {
			log.Fatalf("Failed to start queue consumer: %v", err)
		}

		if cfg.TelemetryURL != "" {
			flusher = telemetry.NewUploader(cfg.TelemetryURL, cfg.TelemetryKey, cfg.DeviceID, dataStore)
		}
	} else {
		logger.Warn("No database configured, readings will not be persisted")
	}

	loop, err := monitor.NewLoop(monitor.Options{
		Hub:                   hub,
		Camera:                camera,
		Processor:             pipeline,
		Recorder:              recorder,
		Relay:                 relay,
		Fetcher:               fetcher,
		Telemetry:             flusher,
		MonitorInterval:       cfg.MonitorInterval,
		TelemetryInterval:     cfg.TelemetryInterval,
		ConfigRefreshInterval: cfg.ConfigRefreshInterval,
	})
	if err != nil {
		log.Fatalf("Failed to initialize monitoring loop: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := loop.Start(ctx); err != nil {
		log.Fatalf("Failed to start monitoring loop: %v", err)
	}
	logger.Info("WellMonitor agent ready")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-sigChan
	logger.Info("Shutdown signal received", "signal", sig.String())

	loop.Stop()
	if consumer != nil {
		consumer.Stop()
	}
	logger.Info("Shutdown complete")
}
