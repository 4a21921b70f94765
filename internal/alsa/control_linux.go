//go:build linux

package alsa

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultDeviceDir is where the kernel creates ALSA device nodes.
const DefaultDeviceDir = "/dev/snd"

// ctlBackend opens /dev/snd/controlC<N> nodes.
type ctlBackend struct {
	dir string
}

// NewBackend returns a Backend reading control nodes under dir.
// An empty dir means DefaultDeviceDir.
func NewBackend(dir string) Backend {
	if dir == "" {
		dir = DefaultDeviceDir
	}
	return &ctlBackend{dir: dir}
}

// Open opens the control channel for a "hw:N" handle.
func (b *ctlBackend) Open(name string) (Control, error) {
	card, err := ParseHandleName(name)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(b.dir, fmt.Sprintf("controlC%d", card))
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) {
		// Info requests work on a read-only descriptor.
		fd, err = unix.Open(path, unix.O_RDONLY|unix.O_CLOEXEC, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	return &ctl{fd: fd, path: path}, nil
}

// ctl is an open control device node.
type ctl struct {
	mu   sync.Mutex
	fd   int
	path string
}

func (c *ctl) ioctl(req uintptr, arg unsafe.Pointer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fd < 0 {
		return ErrClosed
	}
	for {
		_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(c.fd), req, uintptr(arg))
		if errno == unix.EINTR {
			continue
		}
		if errno != 0 {
			return errno
		}
		return nil
	}
}

func (c *ctl) CardInfo() (CardInfo, error) {
	var info sndCtlCardInfo
	if err := c.ioctl(sndrvCtlIoctlCardInfo, unsafe.Pointer(&info)); err != nil {
		return CardInfo{}, fmt.Errorf("card info on %s: %w", c.path, err)
	}
	return info.toCardInfo(), nil
}

func (c *ctl) NextPCMDevice(device int) (int, error) {
	next := int32(device)
	if err := c.ioctl(sndrvCtlIoctlPCMNextDevice, unsafe.Pointer(&next)); err != nil {
		return -1, fmt.Errorf("next pcm device on %s: %w", c.path, err)
	}
	return int(next), nil
}

func (c *ctl) PCMInfo(device, subdevice int, stream Stream) (PCMInfo, error) {
	info := sndPCMInfo{
		device:    uint32(device),
		subdevice: uint32(subdevice),
		stream:    int32(stream),
	}
	if err := c.ioctl(sndrvCtlIoctlPCMInfo, unsafe.Pointer(&info)); err != nil {
		return PCMInfo{}, fmt.Errorf("pcm info %d/%d %s on %s: %w", device, subdevice, stream, c.path, err)
	}
	return info.toPCMInfo(), nil
}

func (c *ctl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fd < 0 {
		return nil
	}
	err := unix.Close(c.fd)
	c.fd = -1
	return err
}
