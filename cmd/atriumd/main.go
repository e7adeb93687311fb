// Atrium Core - Smart Space Automation Control Plane
//
// This is the main entry point for the Atrium core daemon. It wires the
// device directory, capability services, change listeners, platform
// adapters, and the HTTP/WebSocket API over a shared MQTT bus.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/atrium-home/atrium-core/migrations"

	"github.com/atrium-home/atrium-core/internal/aggregate"
	"github.com/atrium-home/atrium-core/internal/api"
	"github.com/atrium-home/atrium-core/internal/bridge"
	"github.com/atrium-home/atrium-core/internal/capability"
	"github.com/atrium-home/atrium-core/internal/command"
	"github.com/atrium-home/atrium-core/internal/directory"
	"github.com/atrium-home/atrium-core/internal/events"
	"github.com/atrium-home/atrium-core/internal/history"
	"github.com/atrium-home/atrium-core/internal/infrastructure/config"
	"github.com/atrium-home/atrium-core/internal/infrastructure/database"
	"github.com/atrium-home/atrium-core/internal/infrastructure/influxdb"
	"github.com/atrium-home/atrium-core/internal/infrastructure/logging"
	"github.com/atrium-home/atrium-core/internal/infrastructure/mqtt"
	"github.com/atrium-home/atrium-core/internal/listener"
	"github.com/atrium-home/atrium-core/internal/platform"
	"github.com/atrium-home/atrium-core/internal/roles"
	"github.com/atrium-home/atrium-core/internal/scene"
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

// bridgeQoS is the MQTT quality of service for directory and telemetry
// subscriptions. At-least-once is required so retained announcements are
// replayed after reconnects.
const bridgeQoS byte = 1

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
	log.Info("starting Atrium Core",
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

	// Open database and run migrations
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Core state: directory registry and event bus
	registry := directory.NewRegistry()
	registry.SetLogger(log)
	bus := events.NewBus()

	// Last-applied history (cache-only when InfluxDB is disabled)
	var store *history.Store
	if influxClient != nil {
		store = history.NewStore(influxClient)
	} else {
		store = history.NewStore(nil)
	}

	// Outbound command channel and platform adapters
	channel := command.NewChannel(time.Duration(cfg.Command.AttemptTimeout) * time.Second)
	channel.SetLogger(log)

	maxAttempts := cfg.Command.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = command.DefaultMaxAttempts
	}

	platforms := platform.NewRegistry()
	restPlatform := platform.NewRESTPlatform(channel, maxAttempts)
	restPlatform.SetLogger(log)
	platforms.Register(restPlatform)
	huePlatform := platform.NewHuePlatform(channel, maxAttempts)
	huePlatform.SetLogger(log)
	platforms.Register(huePlatform)
	platforms.Register(platform.NewMQTTPlatform(mqttClient, bridgeQoS))
	log.Info("platform adapters registered", "types", platforms.Types())

	// Per-capability role services, aggregators, and change listeners
	roleRepo := roles.NewSQLiteRepository(db)
	debounce := time.Duration(cfg.Listener.DebounceMS) * time.Millisecond

	roleServices := make(map[string]*roles.Service)
	aggregators := make(map[string]*aggregate.Aggregator)
	var listeners []*listener.Listener

	for _, desc := range capability.All() {
		svc := roles.NewService(desc, registry, roleRepo, bus)
		svc.SetLogger(log)
		roleServices[desc.Name] = svc

		agg := aggregate.NewAggregator(desc, registry, svc, store, modeProfiles(cfg.Modes[desc.Name]))
		aggregators[desc.Name] = agg

		lst := listener.New(desc, registry, agg, bus, debounce)
		lst.SetLogger(log)
		lst.Start()
		listeners = append(listeners, lst)
	}
	defer func() {
		for _, lst := range listeners {
			lst.Close()
		}
	}()
	log.Info("capability services started", "capabilities", len(roleServices))

	// Scene executor
	scenes := scene.NewExecutor(registry, platforms, bus)
	scenes.SetLogger(log)
	scenes.SetAppliedRecorder(store)
	if influxClient != nil {
		scenes.SetExecutionRecorder(influxClient)
	}

	// MQTT bridge: directory announcements in, domain events out
	br := bridge.New(mqttClient, registry, bus, bridgeQoS)
	br.SetLogger(log)
	if startErr := br.Start(); startErr != nil {
		return fmt.Errorf("starting MQTT bridge: %w", startErr)
	}
	br.MirrorEvents(mirroredKinds()...)
	log.Info("MQTT bridge started")

	// HTTP/WebSocket API
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		Directory:   registry,
		Roles:       roleServices,
		Aggregators: aggregators,
		Scenes:      scenes,
		Bus:         bus,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. Change listeners
	// 3. InfluxDB (if enabled)
	// 4. MQTT
	// 5. Database

	log.Info("Atrium Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses ATRIUM_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ATRIUM_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// modeProfiles converts configured mode profiles into the aggregator's form.
func modeProfiles(profiles []config.ModeProfileConfig) []aggregate.ModeProfile {
	out := make([]aggregate.ModeProfile, 0, len(profiles))
	for _, p := range profiles {
		rules := make([]aggregate.ModeRule, 0, len(p.Rules))
		for _, r := range p.Rules {
			rules = append(rules, aggregate.ModeRule{
				Role:  capability.Role(r.Role),
				On:    r.On,
				Level: r.Level,
			})
		}
		out = append(out, aggregate.ModeProfile{Name: p.Name, Rules: rules})
	}
	return out
}

// mirroredKinds lists the domain events republished to the MQTT event
// namespace for external consumers.
func mirroredKinds() []events.Kind {
	kinds := []events.Kind{
		events.KindDeviceUpdated,
		events.KindDeviceRemoved,
		events.KindSceneExecuted,
	}
	for _, desc := range capability.All() {
		kinds = append(kinds,
			events.StateChanged(desc.Name),
			events.TargetCreated(desc.Name),
			events.TargetUpdated(desc.Name),
			events.TargetDeleted(desc.Name),
		)
	}
	return kinds
}

// healthCheck verifies all infrastructure connections are healthy.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
