package monitor

import (
	"fmt"

	"github.com/nerrad567/gray-logic-audio/internal/alsa"
	"github.com/nerrad567/gray-logic-audio/internal/udev"
)

// UnknownName is used when udev knows no model name for a card.
const UnknownName = "Unknown"

// firstNonEmpty returns the first non-empty property of dev among keys.
func firstNonEmpty(dev *udev.Device, keys ...string) string {
	for _, k := range keys {
		if v := dev.Property(k); v != "" {
			return v
		}
	}
	return ""
}

// deviceName resolves the display name of a card.
func deviceName(dev *udev.Device) string {
	if name := firstNonEmpty(dev, "ID_MODEL_FROM_DATABASE", "ID_MODEL_ENC", "ID_MODEL"); name != "" {
		return name
	}
	return UnknownName
}

// classify maps a stream direction to its class and factory.
func classify(direction alsa.Stream) (class, factory string, err error) {
	switch direction {
	case alsa.StreamPlayback:
		return ClassSink, FactorySink, nil
	case alsa.StreamCapture:
		return ClassSource, FactorySource, nil
	default:
		return "", "", fmt.Errorf("%w: %d", ErrInvalidDirection, int(direction))
	}
}

// buildDescriptor describes one device using fresh card info and a fresh
// PCM query on the card's control channel.
func buildDescriptor(card *Card, d *Device, info alsa.CardInfo) (Descriptor, error) {
	pcm, err := card.ctl.PCMInfo(d.Index, 0, d.Direction)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: pcm info for %s,%d: %w", ErrProbeFailed, card.Name, d.Index, err)
	}

	class, factory, err := classify(d.Direction)
	if err != nil {
		return Descriptor{}, err
	}

	dev := card.dev
	name := deviceName(dev)

	props := []Property{
		{"alsa.card", fmt.Sprintf("%s,%d", card.Name, d.Index)},
		{"alsa.card.id", info.ID},
		{"alsa.card.components", info.Components},
		{"alsa.card.driver", info.Driver},
		{"alsa.card.name", info.Name},
		{"alsa.card.longname", info.LongName},
		{"alsa.card.mixername", info.MixerName},
		{"udev-probed", "1"},
		{"device.api", "alsa"},
		{"alsa.pcm.id", pcm.ID},
		{"alsa.pcm.name", pcm.Name},
		{"alsa.pcm.subname", pcm.Subname},
	}

	add := func(key, value string) {
		if value != "" {
			props = append(props, Property{key, value})
		}
	}

	add("device.class", dev.Property("SOUND_CLASS"))
	busPath := dev.Property("ID_PATH")
	if busPath == "" {
		busPath = dev.Syspath()
	}
	add("device.bus_path", busPath)
	add("sysfs.path", dev.Syspath())
	add("udev.id", dev.Property("ID_ID"))
	add("device.bus", dev.Property("ID_BUS"))
	add("device.subsystem", dev.Property("SUBSYSTEM"))
	add("device.vendor.id", dev.Property("ID_VENDOR_ID"))
	add("device.vendor.name", firstNonEmpty(dev, "ID_VENDOR_FROM_DATABASE", "ID_VENDOR_ENC", "ID_VENDOR"))
	add("device.product.id", dev.Property("ID_MODEL_ID"))
	add("device.product.name", name)
	add("device.serial", dev.Property("ID_SERIAL"))
	add("device.form_factor", dev.Property("SOUND_FORM_FACTOR"))

	return Descriptor{
		ID:      name,
		Flags:   0,
		State:   StateAvailable,
		Name:    name,
		Class:   class,
		Factory: factory,
		Info:    props,
	}, nil
}
