// HomeLink Core - Device Registry and Command Router
//
// This is the main entry point for the HomeLink Core service. It wires
// the device registry and dual-channel command router to the ambient
// infrastructure:
//   - SQLite-backed device overrides, layered over the config file
//   - MQTT state announcer (retained per-device state and availability)
//     and command bridge (inbound per-device set topics)
//   - InfluxDB routing observability (send outcomes, online flips)
//
// The LAN and cloud protocol adapters live outside this module and
// attach through the registry's transport interfaces. Until one is
// attached, both channels report offline and every send is routed as a
// no-op.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quayside/homelink-core/internal/announce"
	"github.com/quayside/homelink-core/internal/bus"
	"github.com/quayside/homelink-core/internal/device"
	"github.com/quayside/homelink-core/internal/infrastructure/config"
	"github.com/quayside/homelink-core/internal/infrastructure/database"
	"github.com/quayside/homelink-core/internal/infrastructure/influxdb"
	"github.com/quayside/homelink-core/internal/infrastructure/logging"
	"github.com/quayside/homelink-core/internal/infrastructure/mqtt"
	"github.com/quayside/homelink-core/internal/registry"
	"github.com/quayside/homelink-core/internal/transport"
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
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for
// testability. Returning an error allows main to handle exit codes
// consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting HomeLink Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "site", cfg.Site.ID)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Device overrides: config file first, database layered on top so
	// provisioned overrides win per attribute.
	stores := device.LayeredOverrides{staticOverrides(cfg)}

	// Open the override database (optional; empty path disables it)
	if cfg.Database.Path != "" {
		db, openErr := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if openErr != nil {
			return fmt.Errorf("opening database: %w", openErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database connected", "path", cfg.Database.Path)

		repo := device.NewSQLiteOverrideRepository(db.DB)
		if loadErr := repo.Load(ctx); loadErr != nil {
			return fmt.Errorf("loading device overrides: %w", loadErr)
		}
		stores = append(stores, repo)
	} else {
		log.Info("override database disabled")
	}

	// Signal bus and registry core
	signalBus := bus.New()
	signalBus.SetLogger(log)

	reg := registry.New(offlineLocal{}, offlineCloud{}, signalBus, device.Catalog{}, stores)
	reg.SetLogger(log)
	defer reg.Stop()

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		// State announcer mirrors registry signals onto retained topics.
		// Wired before device setup so registration is announced.
		// #nosec G115 -- qos validated to 0..2 by config.Validate
		announcer := announce.New(signalBus, mqttClient, reg, byte(cfg.MQTT.QoS))
		announcer.SetLogger(log)
		announcer.Start()

		// Command bridge routes inbound set-topic messages into the
		// registry. The subscription survives reconnects.
		// #nosec G115 -- qos validated to 0..2 by config.Validate
		commands := announce.NewCommandBridge(mqttClient, reg, byte(cfg.MQTT.QoS))
		commands.SetLogger(log)
		if err := commands.Start(); err != nil {
			return fmt.Errorf("subscribing to command topic: %w", err)
		}
		log.Info("command bridge subscribed",
			"topic", mqtt.Topics{}.DeviceCommandFilter())
	} else {
		log.Info("MQTT disabled, state announcer not started")
	}

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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		reg.SetRecorder(influxClient)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Register the statically configured devices. Devices discovered at
	// runtime (cloud announcements, DIY broadcasts) register themselves
	// through the transport signals.
	reg.SetupDevices(configuredDevices(cfg))
	log.Info("device registry initialised", "devices", reg.DeviceCount())

	// Verify all connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. InfluxDB (if enabled)
	// 2. MQTT (if enabled)
	// 3. Registry stop
	// 4. Database (if enabled)

	log.Info("HomeLink Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HOMELINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HOMELINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// staticOverrides converts the devices section of the config file into
// an override store.
func staticOverrides(cfg *config.Config) device.StaticOverrides {
	overrides := make(device.StaticOverrides, len(cfg.Devices))
	for id, attrs := range cfg.Devices {
		override := make(device.Override, len(attrs))
		for k, v := range attrs {
			override[k] = v
		}
		overrides[id] = override
	}
	return overrides
}

// configuredDevices builds registration records for every device id in
// the config file. Attributes are applied through the override store
// during setup, so the records here carry only the id.
func configuredDevices(cfg *config.Config) []*device.Device {
	devices := make([]*device.Device, 0, len(cfg.Devices))
	for id := range cfg.Devices {
		devices = append(devices, &device.Device{ID: id})
	}
	return devices
}

// healthCheck verifies the optional infrastructure connections.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// offlineLocal and offlineCloud are the channel implementations used
// until a protocol adapter attaches. Both report offline, which routes
// every send as a logged no-op.

type offlineLocal struct{}

func (offlineLocal) Online() bool { return false }

func (offlineLocal) Send(context.Context, *device.Device, transport.Params, string, time.Duration) transport.Outcome {
	return transport.OutcomeError
}

func (offlineLocal) CheckOffline(context.Context, *device.Device) {}

func (offlineLocal) DecryptMessage(*transport.Message, string) (transport.Params, error) {
	return nil, fmt.Errorf("local channel not attached")
}

type offlineCloud struct{}

func (offlineCloud) Online() bool { return false }

func (offlineCloud) Send(context.Context, *device.Device, transport.Params, string, time.Duration) transport.Outcome {
	return transport.OutcomeError
}
