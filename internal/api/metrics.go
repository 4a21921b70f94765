package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/gray-logic-audio/internal/monitor"
)

// SystemMetrics is the metrics endpoint response.
type SystemMetrics struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	WebSocket     WSMetrics        `json:"websocket"`
	Registry      *monitor.Stats   `json:"registry,omitempty"`
	Announcer     AnnouncerMetrics `json:"announcer"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// AnnouncerMetrics counts events lost before delivery.
type AnnouncerMetrics struct {
	Dropped uint64 `json:"dropped"`
}

// handleMetrics returns process and registry metrics. The registry block
// is omitted when the event loop does not answer in time.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
	}

	if s.hub != nil {
		metrics.WebSocket.ConnectedClients = s.hub.ClientCount()
	}
	if s.drops != nil {
		metrics.Announcer.Dropped = s.drops.Dropped()
	}

	if stats, err := s.inventory.Stats(r.Context()); err != nil {
		s.logger.Warn("registry stats unavailable for metrics", "error", err)
	} else {
		metrics.Registry = &stats
	}

	writeJSON(w, http.StatusOK, metrics)
}
