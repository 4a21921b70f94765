package main

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/nerrad567/gray-logic-audio/internal/api"
	"github.com/nerrad567/gray-logic-audio/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-audio/internal/monitor"
)

const (
	// inventoryReportInterval is how often card and device counts are
	// written to InfluxDB.
	inventoryReportInterval = time.Minute

	// rescanTimeout bounds a rescan requested over MQTT.
	rescanTimeout = 10 * time.Second
)

// rescanner is the part of monitor.Inventory the command handler needs.
type rescanner interface {
	Rescan(ctx context.Context) (int, error)
}

// statsReader is the part of monitor.Inventory the reporter needs.
type statsReader interface {
	Stats(ctx context.Context) (monitor.Stats, error)
}

type jsonPublisher interface {
	PublishJSON(topic string, v any) error
}

type inventoryWriter interface {
	WriteInventory(site string, cards, devices int)
}

type cmdLogger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// rescanRequest is the optional body of a rescan command.
type rescanRequest struct {
	RequestID string `json:"request_id"`
}

// rescanResult is published on the rescan response topic.
type rescanResult struct {
	RequestID string `json:"request_id,omitempty"`
	Added     int    `json:"added"`
	Error     string `json:"error,omitempty"`
}

// rescanHandler answers rescan commands with the number of cards added.
// An empty or malformed body is treated as a request without an ID.
func rescanHandler(ctx context.Context, inv rescanner, pub jsonPublisher, log cmdLogger) mqtt.MessageHandler {
	return func(_ string, payload []byte) error {
		var req rescanRequest
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &req); err != nil {
				log.Warn("ignoring malformed rescan request body", "error", err)
			}
		}

		rctx, cancel := context.WithTimeout(ctx, rescanTimeout)
		defer cancel()

		res := rescanResult{RequestID: req.RequestID}
		added, err := inv.Rescan(rctx)
		if err != nil {
			res.Error = err.Error()
		} else {
			res.Added = added
		}
		log.Info("rescan requested over MQTT", "request_id", req.RequestID, "added", added, "error", res.Error)

		if pubErr := pub.PublishJSON(mqtt.Topics{}.AudioRescanResult(), res); pubErr != nil {
			return fmt.Errorf("publishing rescan result: %w", pubErr)
		}
		return nil
	}
}

// reportInventory writes the registry size every interval until ctx is
// done. A failed read skips that point.
func reportInventory(ctx context.Context, inv statsReader, w inventoryWriter, site string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if stats, err := inv.Stats(ctx); err == nil {
			w.WriteInventory(site, stats.Cards, stats.Devices)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// healthCheck verifies every configured infrastructure connection, in
// name order so failures are reported deterministically.
func healthCheck(ctx context.Context, checks map[string]api.HealthChecker) error {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := checks[name].HealthCheck(ctx); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}
