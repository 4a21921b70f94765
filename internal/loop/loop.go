package loop

import "errors"

// Readiness flags for Source.Events, matching epoll.
const (
	EventIn  uint32 = 0x001
	EventErr uint32 = 0x008
	EventHup uint32 = 0x010
)

// Source is a file descriptor watched by the loop.
type Source struct {
	FD     int
	Events uint32
	Func   func(events uint32)
}

// Domain errors for the event loop.
var (
	// ErrClosed is returned once the loop has been closed.
	ErrClosed = errors.New("loop: closed")

	// ErrSourceExists is returned when a descriptor is added twice.
	ErrSourceExists = errors.New("loop: source already registered")

	// ErrUnknownSource is returned when removing a source that is not registered.
	ErrUnknownSource = errors.New("loop: source not registered")

	// ErrUnsupported is returned on platforms without epoll.
	ErrUnsupported = errors.New("loop: not supported on this platform")
)
