package udev

import (
	"maps"
	"path"
)

// Well-known property keys.
const (
	PropAction    = "ACTION"
	PropDevpath   = "DEVPATH"
	PropSubsystem = "SUBSYSTEM"
	PropSeqnum    = "SEQNUM"
)

// Device is one udev device: a sysfs path and its property set.
//
// A Device is immutable once built.
type Device struct {
	syspath    string
	properties map[string]string
}

// NewDevice builds a Device from its sysfs path and properties.
// The properties map is copied.
func NewDevice(syspath string, properties map[string]string) *Device {
	return &Device{
		syspath:    syspath,
		properties: maps.Clone(properties),
	}
}

// Syspath returns the absolute sysfs path, e.g. /sys/devices/.../sound/card0.
func (d *Device) Syspath() string { return d.syspath }

// Devpath returns the kernel device path relative to sysfs, e.g. /devices/.../sound/card0.
func (d *Device) Devpath() string { return d.properties[PropDevpath] }

// Sysname returns the last element of the device path.
func (d *Device) Sysname() string {
	if p := d.Devpath(); p != "" {
		return path.Base(p)
	}
	return path.Base(d.syspath)
}

// Subsystem returns the SUBSYSTEM property.
func (d *Device) Subsystem() string { return d.properties[PropSubsystem] }

// Action returns the ACTION property. Devices from enumeration have none.
func (d *Device) Action() string { return d.properties[PropAction] }

// Property returns a property value, or "" when it is not set.
func (d *Device) Property(key string) string { return d.properties[key] }

// HasProperty reports whether key is set, even to an empty value.
func (d *Device) HasProperty(key string) bool {
	_, ok := d.properties[key]
	return ok
}

// Properties returns a copy of all properties.
func (d *Device) Properties() map[string]string {
	return maps.Clone(d.properties)
}
