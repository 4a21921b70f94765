package alsa

import "errors"

// Domain errors for ALSA control access.
var (
	// ErrInvalidHandle is returned when a handle name is not of the form "hw:N".
	ErrInvalidHandle = errors.New("alsa: invalid handle name")

	// ErrClosed is returned when a closed control channel is used.
	ErrClosed = errors.New("alsa: control closed")

	// ErrUnsupported is returned on platforms without ALSA.
	ErrUnsupported = errors.New("alsa: not supported on this platform")
)
