package udev

import "fmt"

// Group selects a NETLINK_KOBJECT_UEVENT multicast group.
type Group uint32

// Multicast groups, as numbered by libudev.
const (
	GroupKernel Group = 1
	GroupUdev   Group = 2
)

// String returns the configuration name of the group.
func (g Group) String() string {
	switch g {
	case GroupKernel:
		return "kernel"
	case GroupUdev:
		return "udev"
	default:
		return fmt.Sprintf("group(%d)", uint32(g))
	}
}

// ParseGroup maps "kernel" or "udev" to a Group.
func ParseGroup(name string) (Group, error) {
	switch name {
	case "kernel":
		return GroupKernel, nil
	case "udev":
		return GroupUdev, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
}

// receiveBufferSize is large enough for any uevent (the kernel caps them at 2048
// bytes of environment; udev adds database properties).
const receiveBufferSize = 8192

// decode turns one datagram into a Device, applying the subsystem filter.
// It returns (nil, nil) for events of other subsystems.
func (m *Monitor) decode(data []byte) (*Device, error) {
	props, err := parseMessage(data)
	if err != nil {
		return nil, err
	}
	if m.subsystem != "" && props[PropSubsystem] != m.subsystem {
		return nil, nil
	}
	if m.group == GroupKernel && props[PropAction] != "remove" {
		m.ctx.mergeDatabase(props)
	}
	return NewDevice(m.ctx.syspath(props[PropDevpath]), props), nil
}
