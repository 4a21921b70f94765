package udev

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
)

// libudev frames re-broadcast events with this header.
const (
	libudevPrefix     = "libudev\x00"
	libudevMagic      = 0xfeedcafe
	libudevHeaderSize = 40
)

// parseMessage decodes one netlink datagram into a property map.
//
// Kernel messages look like "add@/devices/...\0ACTION=add\0DEVPATH=...\0".
// udev messages start with a libudev header whose properties_off and
// properties_len fields locate a NUL-separated KEY=VALUE block.
func parseMessage(data []byte) (map[string]string, error) {
	var body []byte

	if bytes.HasPrefix(data, []byte(libudevPrefix)) {
		if len(data) < libudevHeaderSize {
			return nil, fmt.Errorf("%w: short libudev header (%d bytes)", ErrMalformedMessage, len(data))
		}
		if magic := binary.BigEndian.Uint32(data[8:12]); magic != libudevMagic {
			return nil, fmt.Errorf("%w: bad libudev magic %#x", ErrMalformedMessage, magic)
		}
		off := binary.NativeEndian.Uint32(data[16:20])
		n := binary.NativeEndian.Uint32(data[20:24])
		if off < libudevHeaderSize || uint64(off)+uint64(n) > uint64(len(data)) {
			return nil, fmt.Errorf("%w: properties out of range", ErrMalformedMessage)
		}
		body = data[off : off+n]
	} else {
		head, rest, ok := bytes.Cut(data, []byte{0})
		if !ok || !bytes.Contains(head, []byte("@/")) {
			return nil, fmt.Errorf("%w: missing action@devpath header", ErrMalformedMessage)
		}
		body = rest
	}

	props := parseProperties(body)
	if props[PropAction] == "" || props[PropDevpath] == "" {
		return nil, fmt.Errorf("%w: missing ACTION or DEVPATH", ErrMalformedMessage)
	}
	return props, nil
}

// parseProperties splits a NUL-separated KEY=VALUE block.
func parseProperties(body []byte) map[string]string {
	props := make(map[string]string)
	for _, field := range bytes.Split(body, []byte{0}) {
		key, value, ok := strings.Cut(string(field), "=")
		if !ok || key == "" {
			continue
		}
		props[key] = value
	}
	return props
}

// parseUeventFile parses a sysfs uevent file (newline-separated KEY=VALUE).
func parseUeventFile(data []byte) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(line, "=")
		if !ok || key == "" {
			continue
		}
		props[key] = value
	}
	return props
}

// parseDatabase extracts the E: (environment) records of a udev database file.
func parseDatabase(data []byte) map[string]string {
	props := make(map[string]string)
	for _, line := range strings.Split(string(data), "\n") {
		rec, ok := strings.CutPrefix(line, "E:")
		if !ok {
			continue
		}
		key, value, ok := strings.Cut(rec, "=")
		if !ok || key == "" {
			continue
		}
		props[key] = value
	}
	return props
}
