// Terminal 3D Core - industrial terminal data layer
//
// This is the main entry point for the terminal data layer service. It owns
// the in-memory equipment store, the filter engine, and the operation
// simulator that the 3D visualization client consumes in-process.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Dicommunitas/terminal-3d-core/internal/category"
	"github.com/Dicommunitas/terminal-3d-core/internal/entity"
	"github.com/Dicommunitas/terminal-3d-core/internal/events"
	"github.com/Dicommunitas/terminal-3d-core/internal/filter"
	"github.com/Dicommunitas/terminal-3d-core/internal/history"
	"github.com/Dicommunitas/terminal-3d-core/internal/infrastructure/config"
	"github.com/Dicommunitas/terminal-3d-core/internal/infrastructure/logging"
	"github.com/Dicommunitas/terminal-3d-core/internal/simulation"
	"github.com/Dicommunitas/terminal-3d-core/internal/telemetry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Terminal 3D Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Equipment store
	store := entity.NewStore()
	store.SetLogger(log.With("component", "entity"))

	if cfg.Data.File != "" {
		result, loadErr := store.LoadFile(cfg.Data.File)
		if loadErr != nil {
			return fmt.Errorf("loading initial data: %w", loadErr)
		}
		log.Info("initial data loaded",
			"file", cfg.Data.File,
			"equipment", result.Equipment,
			"annotations", result.Annotations,
			"skipped", result.Skipped,
		)
	}

	// Category tree, seeded from the categories referenced by the data set
	categories := category.NewTree()
	for _, e := range store.GetAll() {
		if e.CategoryID == nil {
			continue
		}
		if _, exists := categories.Get(*e.CategoryID); exists {
			continue
		}
		if upsertErr := categories.Upsert(category.Node{ID: *e.CategoryID, Name: *e.CategoryID}); upsertErr != nil {
			log.Warn("skipping category", "id", *e.CategoryID, "error", upsertErr)
		}
	}
	log.Info("category tree initialised", "categories", categories.Count())

	// Status channel
	bus := events.NewBus()
	bus.SetLogger(log.With("component", "events"))

	// Filter engine
	engine := filter.NewEngine(store, categories)
	engine.SetLogger(log.With("component", "filter"))
	_ = engine // consumed in-process by the visualization client

	// Cooperative scheduler: all operation ticks and jitter pulses run
	// serially on this goroutine.
	sched := simulation.NewScheduler()
	sched.SetLogger(log.With("component", "scheduler"))
	go sched.Run(ctx)

	// Operation simulator
	sim := simulation.NewSimulator(store, sched, bus, simulation.Config{
		TickInterval:   cfg.TickInterval(),
		SettleDelayMin: cfg.SettleDelayMin(),
		SettleDelayMax: cfg.SettleDelayMax(),
	})
	sim.SetLogger(log.With("component", "simulation"))
	log.Info("operation simulator initialised", "tick_interval", cfg.TickInterval())

	// History journal
	journal, err := history.Open(history.Config{DSN: cfg.History.DSN})
	if err != nil {
		return fmt.Errorf("opening history journal: %w", err)
	}
	defer func() {
		log.Info("closing history journal")
		if closeErr := journal.Close(); closeErr != nil {
			log.Error("error closing history journal", "error", closeErr)
		}
	}()
	journal.SetLogger(log.With("component", "history"))
	journalSubs := journal.Attach(bus)
	defer func() {
		for _, sub := range journalSubs {
			sub.Unsubscribe()
		}
	}()
	log.Info("history journal attached", "dsn", cfg.History.DSN)

	// Telemetry (optional)
	if cfg.InfluxDB.Enabled {
		influx, connErr := telemetry.Connect(cfg.InfluxDB)
		if connErr != nil {
			return fmt.Errorf("connecting telemetry: %w", connErr)
		}
		defer func() {
			log.Info("closing telemetry connection")
			if closeErr := influx.Close(); closeErr != nil {
				log.Error("error closing telemetry", "error", closeErr)
			}
		}()
		influx.SetOnError(func(writeErr error) {
			log.Warn("telemetry write failed", "error", writeErr)
		})
		telemetrySubs := influx.Attach(bus)
		defer func() {
			for _, sub := range telemetrySubs {
				sub.Unsubscribe()
			}
		}()
		log.Info("telemetry connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	}

	// Jitter driver (optional)
	jitter := simulation.NewJitter(store, sched, bus, simulation.JitterConfig{
		Enabled:              cfg.Simulation.Jitter.Enabled,
		Interval:             cfg.JitterInterval(),
		LevelAmplitude:       cfg.Simulation.Jitter.LevelAmplitude,
		TemperatureAmplitude: cfg.Simulation.Jitter.TemperatureAmplitude,
		PressureAmplitude:    cfg.Simulation.Jitter.PressureAmplitude,
	})
	jitter.SetLogger(log.With("component", "jitter"))
	jitter.Start()
	defer jitter.Stop()

	stats := store.GetStats()
	log.Info("terminal data layer ready",
		"scene", cfg.Scene.ID,
		"equipment", stats.TotalEquipment,
		"annotations", stats.TotalAnnotations,
	)

	<-ctx.Done()
	log.Info("shutdown signal received")
	return nil
}

// getConfigPath returns the config file path from args or the default.
func getConfigPath() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	if v := os.Getenv("TERMINAL3D_CONFIG"); v != "" {
		return v
	}
	return defaultConfigPath
}
