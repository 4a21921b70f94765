//go:build linux

package udev

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// Monitor is a non-blocking uevent subscription for one subsystem.
type Monitor struct {
	ctx       *Context
	group     Group
	subsystem string

	mu  sync.Mutex
	fd  int
	buf [receiveBufferSize]byte
}

// NewMonitor opens a netlink socket bound to group, delivering only events
// whose SUBSYSTEM equals subsystem (all events when subsystem is empty).
func (c *Context) NewMonitor(group Group, subsystem string) (*Monitor, error) {
	fd, err := unix.Socket(
		unix.AF_NETLINK,
		unix.SOCK_DGRAM|unix.SOCK_CLOEXEC|unix.SOCK_NONBLOCK,
		unix.NETLINK_KOBJECT_UEVENT,
	)
	if err != nil {
		return nil, fmt.Errorf("creating uevent socket: %w", err)
	}

	addr := &unix.SockaddrNetlink{
		Family: unix.AF_NETLINK,
		Groups: uint32(group),
	}
	if err := unix.Bind(fd, addr); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("binding uevent socket to %s group: %w", group, err)
	}

	return &Monitor{
		ctx:       c,
		group:     group,
		subsystem: subsystem,
		fd:        fd,
	}, nil
}

// FD returns the socket descriptor for readiness polling.
func (m *Monitor) FD() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fd
}

// Receive reads one pending event.
//
// It returns (nil, nil) when nothing is pending, when the event belongs to
// another subsystem, or when the sender is not trusted for the bound group.
func (m *Monitor) Receive() (*Device, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fd < 0 {
		return nil, unix.EBADF
	}

	n, from, err := unix.Recvfrom(m.fd, m.buf[:], unix.MSG_DONTWAIT)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			return nil, nil
		}
		return nil, fmt.Errorf("receiving uevent: %w", err)
	}

	nl, ok := from.(*unix.SockaddrNetlink)
	if !ok {
		return nil, nil
	}
	// Kernel events come from port 0; anything else on that group is spoofed.
	// udev events come from udevd, never from the kernel.
	switch m.group {
	case GroupKernel:
		if nl.Pid != 0 {
			return nil, nil
		}
	case GroupUdev:
		if nl.Pid == 0 {
			return nil, nil
		}
	}

	return m.decode(m.buf[:n])
}

// Close closes the socket. It is safe to call more than once.
func (m *Monitor) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fd < 0 {
		return nil
	}
	err := unix.Close(m.fd)
	m.fd = -1
	return err
}
