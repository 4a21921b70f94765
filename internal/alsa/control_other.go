//go:build !linux

package alsa

// DefaultDeviceDir is where the kernel creates ALSA device nodes.
const DefaultDeviceDir = "/dev/snd"

type unsupportedBackend struct{}

// NewBackend returns a Backend that cannot open anything on this platform.
func NewBackend(string) Backend { return unsupportedBackend{} }

func (unsupportedBackend) Open(string) (Control, error) { return nil, ErrUnsupported }
