// Package influxdb records audio hotplug metrics in InfluxDB v2.
//
// Every announced device event becomes one point in the audio_hotplug
// measurement, tagged by kind, class, card and site with an integer
// count field, so dashboards can sum plug/unplug activity per card.
// The audio_inventory measurement carries card and device gauges.
//
// Writes are non-blocking and batched by the client library; failures
// arrive asynchronously through SetOnError.
//
// Usage:
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteHotplugEvent(influxdb.HotplugEvent{Kind: "added", Class: "Audio/Sink", Card: "hw:0,0"})
package influxdb
