package monitor

import (
	"fmt"
	"strings"
)

// EventKind is the kind of hotplug event delivered to an EventHandler.
type EventKind int

// Event kinds.
const (
	EventAdded EventKind = iota + 1
	EventChanged
	EventRemoved
)

// String returns "added", "changed" or "removed".
func (k EventKind) String() string {
	switch k {
	case EventAdded:
		return "added"
	case EventChanged:
		return "changed"
	case EventRemoved:
		return "removed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// MarshalText encodes the kind by name.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *EventKind) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "added":
		*k = EventAdded
	case "changed":
		*k = EventChanged
	case "removed":
		*k = EventRemoved
	default:
		return fmt.Errorf("%w: unknown event kind %q", ErrInvalidArgument, text)
	}
	return nil
}

// ItemState is the lifecycle state reported in a Descriptor.
type ItemState string

// StateAvailable is the only state the monitor reports.
const StateAvailable ItemState = "available"

// Classes and factory names reported in descriptors.
const (
	ClassSink   = "Audio/Sink"
	ClassSource = "Audio/Source"

	FactorySink   = "alsa-sink"
	FactorySource = "alsa-source"
)

// Property is one ordered key/value entry of a Descriptor.
type Property struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Descriptor is the flat record describing one PCM endpoint.
type Descriptor struct {
	ID      string     `json:"id"`
	Flags   uint32     `json:"flags"`
	State   ItemState  `json:"state"`
	Name    string     `json:"name"`
	Class   string     `json:"class"`
	Factory string     `json:"factory"`
	Info    []Property `json:"info"`
}

// Property returns the value of the first info entry with the given key.
func (d Descriptor) Property(key string) (string, bool) {
	for _, p := range d.Info {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// EventHandler receives hotplug events, one call per affected device.
//
// HandleEvent runs on the event loop goroutine and must not block.
type EventHandler interface {
	HandleEvent(kind EventKind, d Descriptor)
}

// EventHandlerFunc adapts a function to EventHandler.
type EventHandlerFunc func(kind EventKind, d Descriptor)

// HandleEvent calls f(kind, d).
func (f EventHandlerFunc) HandleEvent(kind EventKind, d Descriptor) { f(kind, d) }

// Stats summarises the registry.
type Stats struct {
	Cards   int `json:"cards"`
	Devices int `json:"devices"`
}
