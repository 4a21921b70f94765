// Package announce fans hotplug events out of the monitor's event loop.
//
// An Announcer is the monitor's EventHandler. HandleEvent stamps each
// event with a UUID and time and queues it without blocking; Run
// drains the queue on its own goroutine and hands every event to the
// configured sinks:
//
//	monitor loop ──HandleEvent──▶ queue ──Run──┬─▶ MQTT   graylogic/audio/event/<kind>
//	                                           ├─▶ InfluxDB audio_hotplug
//	                                           ├─▶ SQLite hotplug_events
//	                                           └─▶ WebSocket audio.device_event
//
// When the queue is full the event is dropped and counted; the event
// loop is never stalled by a slow broker or disk. A failing sink is
// logged and does not stop delivery to the others.
package announce
