// vesyncd - VeSync fleet control daemon
//
// This is the main entry point for the daemon. It holds one
// authenticated cloud session, keeps a reconciled local mirror of the
// account's device fleet, and exposes it over a local REST/WebSocket
// API with optional MQTT and InfluxDB telemetry egress.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/vesync-core/internal/api"
	"github.com/nerrad567/vesync-core/internal/auth"
	"github.com/nerrad567/vesync-core/internal/cloud"
	"github.com/nerrad567/vesync-core/internal/fleet"
	"github.com/nerrad567/vesync-core/internal/infrastructure/config"
	"github.com/nerrad567/vesync-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/vesync-core/internal/infrastructure/logging"
	"github.com/nerrad567/vesync-core/internal/infrastructure/mqtt"
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

// minUpdateInterval floors the background poll cycle. The vendor cloud
// rate-limits aggressively; polling faster than this gets the account
// throttled.
const minUpdateInterval = 10 * time.Second

func main() {
	// Context that cancels on interrupt signals (Ctrl+C, SIGTERM).
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting vesyncd",
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
	log = logging.New(cfg.Logging, version, cfg.Account.Redact)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Cloud client over the default HTTP transport.
	client := cloud.NewClient(cloud.Config{
		Timezone: cfg.Account.Timezone,
		Debug:    cfg.Account.Debug,
	}, nil)

	negotiator := auth.NewNegotiator(client, auth.Credentials{
		Username:    cfg.Account.Username,
		Password:    cfg.Account.Password,
		Region:      cfg.Account.Region,
		CountryCode: cfg.Account.CountryCode,
	}, log)

	interval := time.Duration(cfg.Fleet.UpdateInterval) * time.Second
	if interval < minUpdateInterval {
		interval = minUpdateInterval
	}

	metrics := fleet.NewMetrics(nil)
	manager := fleet.NewManager(client, negotiator, interval, log, metrics)

	log.Info("logging in", "region", cfg.Account.Region, "username", logging.Mask(cfg.Account.Username))
	if err := manager.Login(ctx); err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	sess := manager.Session()
	log.Info("session established",
		"region", sess.Region,
		"country_code", sess.CountryCode,
	)

	if err := manager.RefreshDevices(ctx); err != nil {
		return fmt.Errorf("initial device refresh: %w", err)
	}
	stats := manager.Stats()
	log.Info("fleet loaded", "devices", stats.Devices)

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

		publisher := mqtt.NewPublisher(mqttClient, log)
		events, unsubscribe := manager.Subscribe()
		defer unsubscribe()
		go publisher.Run(ctx, events)
	} else {
		log.Info("MQTT disabled")
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

		recorder := influxdb.NewRecorder(influxClient)
		events, unsubscribe := manager.Subscribe()
		defer unsubscribe()
		go recorder.Run(ctx, events)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the local API server (optional)
	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer, err = api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log,
			Fleet:   manager,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))
	} else {
		log.Info("API server disabled")
	}

	if err := healthCheck(ctx, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	// Background poll cycle. Update() carries its own throttle, so an
	// overlapping manual refresh through the API just makes a tick a
	// no-op.
	go updateLoop(ctx, manager, interval, log)

	log.Info("initialisation complete, waiting for shutdown signal")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	log.Info("vesyncd stopped")
	return nil
}

// updateLoop refreshes the fleet on the configured interval until the
// context is cancelled. Cloud failures are logged and retried on the
// next tick; a flaky WAN must not kill the daemon.
func updateLoop(ctx context.Context, manager *fleet.Manager, interval time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := manager.Update(ctx); err != nil {
				log.Warn("fleet update failed", "error", err)
			}
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses the VESYNC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("VESYNC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies the enabled infrastructure connections are
// healthy. Disabled components pass nil and are skipped.
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
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

	if apiServer != nil {
		if err := apiServer.HealthCheck(ctx); err != nil {
			return fmt.Errorf("api: %w", err)
		}
	}

	return nil
}
