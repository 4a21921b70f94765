//go:build !linux

package udev

// Monitor is unavailable on this platform.
type Monitor struct {
	ctx       *Context
	group     Group
	subsystem string
}

// NewMonitor always fails on this platform.
func (c *Context) NewMonitor(Group, string) (*Monitor, error) {
	return nil, ErrUnsupported
}

// FD returns -1.
func (m *Monitor) FD() int { return -1 }

// Receive always fails on this platform.
func (m *Monitor) Receive() (*Device, error) { return nil, ErrUnsupported }

// Close does nothing.
func (m *Monitor) Close() error { return nil }
