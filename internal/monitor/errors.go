package monitor

import "errors"

// Domain errors for the monitor package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, monitor.ErrCardExists) {
//	    // card already tracked
//	}
var (
	// ErrFiltered is returned when a udev device is not an audio card the
	// monitor tracks: no card path, ignore-tagged, or a modem.
	ErrFiltered = errors.New("monitor: device filtered")

	// ErrCardExists is returned by CreateCard when the card id is already tracked.
	ErrCardExists = errors.New("monitor: card already exists")

	// ErrProbeFailed is returned when a card's control channel cannot be
	// opened or queried.
	ErrProbeFailed = errors.New("monitor: card probe failed")

	// ErrInvalidArgument is returned for nil required arguments.
	ErrInvalidArgument = errors.New("monitor: invalid argument")

	// ErrInvalidDirection is returned for a device whose stream direction is
	// neither playback nor capture.
	ErrInvalidDirection = errors.New("monitor: invalid stream direction")

	// ErrCardNotFound is returned when a device refers to a card that is no
	// longer registered.
	ErrCardNotFound = errors.New("monitor: card not found")
)
