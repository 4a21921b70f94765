package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurements written by the monitor.
const (
	MeasurementHotplug   = "audio_hotplug"
	MeasurementInventory = "audio_inventory"
)

// HotplugEvent is one announced device event.
type HotplugEvent struct {
	Kind  string // added, changed, removed
	Class string // Audio/Sink or Audio/Source
	Card  string // alsa.card, e.g. "hw:0,3"
	Site  string
	Time  time.Time
}

// hotplugPoint builds the audio_hotplug point for e: tags kind, class,
// card and site, one integer "count" field.
func hotplugPoint(e HotplugEvent) *write.Point {
	tags := map[string]string{
		"kind":  e.Kind,
		"class": e.Class,
	}
	if e.Card != "" {
		tags["card"] = e.Card
	}
	if e.Site != "" {
		tags["site"] = e.Site
	}
	ts := e.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	return write.NewPoint(MeasurementHotplug, tags, map[string]interface{}{"count": 1}, ts)
}

// inventoryPoint builds the audio_inventory gauge point.
func inventoryPoint(site string, cards, devices int, ts time.Time) *write.Point {
	tags := map[string]string{}
	if site != "" {
		tags["site"] = site
	}
	return write.NewPoint(MeasurementInventory, tags, map[string]interface{}{
		"cards":   cards,
		"devices": devices,
	}, ts)
}

// WriteHotplugEvent queues an audio_hotplug point. It never blocks.
func (c *Client) WriteHotplugEvent(e HotplugEvent) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(hotplugPoint(e))
}

// WriteInventory queues the current card and device counts.
func (c *Client) WriteInventory(site string, cards, devices int) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(inventoryPoint(site, cards, devices, time.Now()))
}
