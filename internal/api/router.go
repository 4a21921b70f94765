package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-audio/internal/history"
	"github.com/nerrad567/gray-logic-audio/internal/monitor"
)

// healthCheckTimeout bounds each component check in the health endpoint.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeNotFound(w, "no such endpoint")
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		r.Get("/devices", s.handleListDevices)
		r.Get("/stats", s.handleStats)
		r.Get("/events", s.handleListEvents)
		r.Post("/rescan", s.handleRescan)

		r.Get(s.wsPath(), s.handleWebSocket)
	})

	return r
}

// wsPath is the WebSocket route under /api/v1.
func (s *Server) wsPath() string {
	if s.wsCfg.Path == "" {
		return "/ws"
	}
	return s.wsCfg.Path
}

// handleHealth reports the server and every registered component.
// Any failing component turns the response into a 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	components := make(map[string]string, len(s.checks))

	for name, checker := range s.checks {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := checker.HealthCheck(ctx)
		cancel()
		if err != nil {
			components[name] = err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		components[name] = "ok"
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
	})
}

// handleListDevices returns one descriptor per tracked PCM device.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.inventory.Devices(r.Context())
	if err != nil {
		s.logger.Error("listing devices", "error", err)
		writeInternalError(w, "failed to enumerate devices")
		return
	}
	if devices == nil {
		devices = []monitor.Descriptor{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"devices": devices,
		"count":   len(devices),
	})
}

// handleStats returns card and device counts.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.inventory.Stats(r.Context())
	if err != nil {
		s.logger.Error("reading registry stats", "error", err)
		writeInternalError(w, "failed to read stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// handleRescan looks for cards the monitor missed and reports how many
// were added.
func (s *Server) handleRescan(w http.ResponseWriter, r *http.Request) {
	added, err := s.inventory.Rescan(r.Context())
	if err != nil {
		s.logger.Error("rescan failed", "error", err)
		writeInternalError(w, "rescan failed")
		return
	}
	s.logger.Info("rescan requested over HTTP", "added", added)
	writeJSON(w, http.StatusOK, map[string]int{"added": added})
}

// handleListEvents returns journalled hotplug events, newest first.
//
// Query parameters: limit, offset, kind (added|changed|removed), card.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	if s.journal == nil {
		writeUnavailable(w, "event journal is disabled")
		return
	}

	q := r.URL.Query()
	filter := history.Filter{ALSACard: q.Get("card")}

	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeBadRequest(w, "limit must be a non-negative integer")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeBadRequest(w, "offset must be a non-negative integer")
		return
	}
	if k := q.Get("kind"); k != "" {
		if err := filter.Kind.UnmarshalText([]byte(k)); err != nil {
			writeBadRequest(w, "kind must be one of added, changed, removed")
			return
		}
	}

	result, err := s.journal.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing hotplug events", "error", err)
		writeInternalError(w, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

var errNegative = errors.New("negative value")

// intParam parses an optional non-negative integer query value.
func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errNegative
	}
	return n, nil
}
