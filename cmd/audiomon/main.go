// audiomon watches ALSA sound cards come and go and announces every PCM
// endpoint they expose.
//
// Cards present at startup are registered silently and show up in the
// device listing of the HTTP API; only later hotplug events from the udev
// netlink socket are announced. Events go out over MQTT, into InfluxDB and
// a local SQLite journal, and to WebSocket subscribers of the HTTP API.
// Every outlet is optional.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-audio/internal/alsa"
	"github.com/nerrad567/gray-logic-audio/internal/announce"
	"github.com/nerrad567/gray-logic-audio/internal/api"
	"github.com/nerrad567/gray-logic-audio/internal/history"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-audio/internal/loop"
	"github.com/nerrad567/gray-logic-audio/internal/monitor"
	"github.com/nerrad567/gray-logic-audio/internal/udev"
	"github.com/nerrad567/gray-logic-audio/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	defaultConfigPath = "configs/config.yaml"
	configEnvVar      = "AUDIOMON_CONFIG"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the monitor to its outlets and blocks until ctx is cancelled
// or a long-running component fails. Deferred closes run in reverse
// order of construction.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting audiomon",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"site", cfg.Site.ID,
		"level", cfg.Logging.Level,
	)

	checks := map[string]api.HealthChecker{}
	opts := announce.Options{
		SiteID:    cfg.Site.ID,
		QueueSize: cfg.Monitor.EventQueueSize,
	}

	// Journal
	var journal *history.SQLiteRepository
	if cfg.Database.Enabled {
		db, dbErr := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if dbErr != nil {
			return fmt.Errorf("opening database: %w", dbErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database ready", "path", db.Path())

		journal = history.NewSQLiteRepository(db.DB)
		opts.Journal = journal
		checks["database"] = db
	} else {
		log.Info("hotplug journal disabled")
	}

	// MQTT
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		mqttClient.SetLogger(log)
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
		opts.Publisher = mqttClient
		checks["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB
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
		opts.Metrics = influxClient
		checks["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Event loop and monitor
	group, err := udev.ParseGroup(cfg.Monitor.NetlinkGroup)
	if err != nil {
		return fmt.Errorf("monitor netlink group: %w", err)
	}

	lp, err := loop.New()
	if err != nil {
		return fmt.Errorf("creating event loop: %w", err)
	}
	defer lp.Close()

	mon := monitor.New(monitor.Options{
		Backend:        alsa.NewBackend(cfg.Monitor.DeviceDir),
		Source:         monitor.NewUdevSource(udev.New(cfg.Monitor.SysRoot, cfg.Monitor.UdevDataDir), group),
		Loop:           lp,
		Subsystem:      cfg.Monitor.Subsystem,
		IgnoreProperty: cfg.Monitor.IgnoreProperty,
	})
	mon.SetLogger(log)
	// Runs after the loop has stopped, so the monitor is not shared.
	defer func() {
		if closeErr := mon.Close(); closeErr != nil {
			log.Error("error closing monitor", "error", closeErr)
		}
	}()

	hub := api.NewHub(cfg.WebSocket, log)
	opts.Broadcaster = hub

	announcer := announce.New(opts)
	announcer.SetLogger(log)

	// The loop is not running yet, so the monitor can be driven directly.
	if err := mon.SetCallbacks(announcer); err != nil {
		return fmt.Errorf("starting hotplug monitoring: %w", err)
	}
	stats := mon.Stats()
	log.Info("initial scan complete", "cards", stats.Cards, "devices", stats.Devices)

	inventory := monitor.NewInventory(mon, lp)

	if mqttClient != nil {
		topic := mqtt.Topics{}.AudioRescan()
		if subErr := mqttClient.Subscribe(topic, byte(cfg.MQTT.QoS), rescanHandler(ctx, inventory, mqttClient, log)); subErr != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, subErr)
		}
	}

	// HTTP API
	if cfg.API.Enabled {
		deps := api.Deps{
			Config:    cfg.API,
			WS:        cfg.WebSocket,
			Logger:    log,
			Inventory: inventory,
			Checks:    checks,
			Drops:     announcer,
			Hub:       hub,
			Version:   version,
		}
		if journal != nil {
			deps.Journal = journal
		}
		server, apiErr := api.New(deps)
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if err := healthCheck(ctx, checks); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if runErr := lp.Run(gctx); runErr != nil {
			return fmt.Errorf("event loop: %w", runErr)
		}
		return nil
	})
	g.Go(func() error { return announcer.Run(gctx) })
	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})
	if journal != nil {
		pruner := history.NewPruner(journal, cfg.GetRetention(), cfg.GetPruneInterval())
		pruner.SetLogger(log)
		g.Go(func() error { return pruner.Run(gctx) })
	}
	if influxClient != nil {
		g.Go(func() error {
			return reportInventory(gctx, inventory, influxClient, cfg.Site.ID, inventoryReportInterval)
		})
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	err = g.Wait()
	if err != nil {
		log.Error("component failed, shutting down", "error", err)
	} else {
		log.Info("shutdown signal received, cleaning up")
	}

	if dropped := announcer.Dropped(); dropped > 0 {
		log.Warn("events dropped during run", "dropped", dropped)
	}
	return err
}

// getConfigPath returns the configuration file path.
// Uses AUDIOMON_CONFIG if set, otherwise the default.
func getConfigPath() string {
	if path := os.Getenv(configEnvVar); path != "" {
		return path
	}
	return defaultConfigPath
}
