// Package udev discovers devices through sysfs and the udev database and
// receives hotplug notifications over a NETLINK_KOBJECT_UEVENT socket.
//
// It covers the part of libudev the audio monitor needs without linking it:
//
//	┌────────────────────┐   Enumerate   ┌──────────────────────────────┐
//	│ /sys/class/<subsys>├──────────────►│                              │
//	│ /run/udev/data     │               │  *Device (properties map,    │
//	└────────────────────┘               │   DEVPATH, syspath, ACTION)  │
//	┌────────────────────┐   Receive     │                              │
//	│ netlink uevent     ├──────────────►│                              │
//	│ (kernel or udev)   │               └──────────────────────────────┘
//	└────────────────────┘
//
// Two netlink groups exist. GroupKernel carries raw kernel uevents, sent
// before udev rules run. GroupUdev carries the same events re-broadcast by
// udevd with rule-derived properties (ID_MODEL, ID_VENDOR_FROM_DATABASE, ...)
// attached, framed with a "libudev" header. Messages from both are parsed;
// kernel messages are enriched from the udev database when it has an entry.
//
// Monitor sockets are non-blocking. Receive returns (nil, nil) when nothing
// is pending, so the descriptor can be driven from an epoll loop.
package udev
