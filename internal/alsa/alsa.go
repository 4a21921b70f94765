package alsa

import (
	"fmt"
	"strconv"
	"strings"
)

// Stream is a PCM stream direction.
type Stream int

// Stream directions, numbered as the kernel numbers them.
const (
	StreamPlayback Stream = 0
	StreamCapture  Stream = 1
)

// String returns the lower-case direction name.
func (s Stream) String() string {
	switch s {
	case StreamPlayback:
		return "playback"
	case StreamCapture:
		return "capture"
	default:
		return "stream(" + strconv.Itoa(int(s)) + ")"
	}
}

// CardInfo is the identification block reported by a card's control device.
type CardInfo struct {
	Card       int
	ID         string
	Driver     string
	Name       string
	LongName   string
	MixerName  string
	Components string
}

// PCMInfo describes one PCM device/subdevice in one direction.
type PCMInfo struct {
	Card            int
	Device          int
	Subdevice       int
	Stream          Stream
	ID              string
	Name            string
	Subname         string
	Class           int
	Subclass        int
	SubdevicesCount int
	SubdevicesAvail int
}

// Control is an open control channel for one card.
//
// A Control is not safe for concurrent use.
type Control interface {
	// CardInfo reads the card identification block.
	CardInfo() (CardInfo, error)

	// NextPCMDevice returns the next PCM device index after device.
	// Pass -1 to get the first. It returns -1 when there are no more.
	NextPCMDevice(device int) (int, error)

	// PCMInfo reports the given device/subdevice in one direction.
	// An error means the direction is not available on that device.
	PCMInfo(device, subdevice int, stream Stream) (PCMInfo, error)

	// Close releases the control channel.
	Close() error
}

// Backend opens control channels by card handle name.
type Backend interface {
	Open(name string) (Control, error)
}

// HandleName returns the control handle name for a card number ("hw:N").
func HandleName(card uint32) string {
	return fmt.Sprintf("hw:%d", card)
}

// ParseHandleName extracts the card number from a "hw:N" handle name.
func ParseHandleName(name string) (int, error) {
	rest, ok := strings.CutPrefix(name, "hw:")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHandle, name)
	}
	// "hw:N,D" names a PCM; the control channel only needs N.
	if i := strings.IndexByte(rest, ','); i >= 0 {
		rest = rest[:i]
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidHandle, name)
	}
	return n, nil
}

// cString converts a NUL-terminated fixed buffer to a Go string.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
