package udev

import "errors"

// Domain errors for udev access.
var (
	// ErrMalformedMessage is returned for netlink payloads that are neither
	// kernel uevents nor libudev-framed messages.
	ErrMalformedMessage = errors.New("udev: malformed uevent message")

	// ErrUnknownGroup is returned by ParseGroup for unrecognised names.
	ErrUnknownGroup = errors.New("udev: unknown netlink group")

	// ErrUnsupported is returned on platforms without netlink.
	ErrUnsupported = errors.New("udev: not supported on this platform")
)
