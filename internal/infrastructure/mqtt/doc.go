// Package mqtt connects the audio monitor to the Gray Logic MQTT bus.
//
// The monitor publishes one JSON message per hotplug event on
// graylogic/audio/event/<kind> and listens for rescan requests on
// graylogic/command/audio/rescan. Its availability is the retained
// message on graylogic/system/audiomon/status: "online" after each
// connect, "offline" on Close, and an "offline" Last Will when the
// connection drops.
//
// Subscriptions are tracked and restored after automatic reconnects.
// Handlers run on paho goroutines; panics are recovered and logged.
//
// Usage:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishJSON(mqtt.Topics{}.AudioEvent("added"), event)
package mqtt
