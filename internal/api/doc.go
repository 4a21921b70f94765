// Package api implements the HTTP REST API and WebSocket server for the
// audio hotplug monitor.
//
// This package provides:
//   - Read-only endpoints over the live device inventory and its counts
//   - The hotplug journal, newest first
//   - A rescan trigger for cards the monitor has not seen yet
//   - A WebSocket hub relaying device events as they are announced
//   - Middleware stack (request ID, logging, recovery, CORS)
//
// # Architecture
//
// Every inventory request is serialised onto the monitor's event loop
// through monitor.Inventory, so handlers never touch the card registry
// directly. Live events reach WebSocket clients through the Hub, which
// the announcer uses as its broadcaster; clients subscribe to the
// "audio.device_event" channel, optionally narrowed to sinks or sources.
//
// # Graceful Degradation
//
// The journal and the infrastructure health checks are optional. Without
// a journal the events endpoint answers 503; everything else still works.
package api
