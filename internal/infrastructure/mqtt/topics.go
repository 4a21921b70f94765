package mqtt

import "fmt"

// TopicPrefix is the root of every Gray Logic topic.
const TopicPrefix = "graylogic"

// Topics builds the topics the audio monitor publishes and listens on.
//
//	mqtt.Topics{}.AudioEvent("added")   // graylogic/audio/event/added
//	mqtt.Topics{}.AudioRescan()         // graylogic/command/audio/rescan
type Topics struct{}

// AudioEvent is where hotplug events of one kind are published.
func (Topics) AudioEvent(kind string) string {
	return fmt.Sprintf("%s/audio/event/%s", TopicPrefix, kind)
}

// AllAudioEvents matches every AudioEvent topic.
func (Topics) AllAudioEvents() string {
	return TopicPrefix + "/audio/event/+"
}

// AudioRescan is the command topic that triggers a card rescan.
func (Topics) AudioRescan() string {
	return TopicPrefix + "/command/audio/rescan"
}

// AudioRescanResult carries the outcome of a rescan command.
func (Topics) AudioRescanResult() string {
	return TopicPrefix + "/response/audio/rescan"
}

// ServiceStatus is the retained online/offline topic of one service,
// also used as its Last Will topic.
func (Topics) ServiceStatus(service string) string {
	return fmt.Sprintf("%s/system/%s/status", TopicPrefix, service)
}
