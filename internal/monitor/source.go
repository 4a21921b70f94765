package monitor

import "github.com/nerrad567/gray-logic-audio/internal/udev"

// udevSource is the Source backed by sysfs and a netlink uevent socket.
type udevSource struct {
	ctx   *udev.Context
	group udev.Group
}

// NewUdevSource returns a Source that scans ctx and subscribes on group.
func NewUdevSource(ctx *udev.Context, group udev.Group) Source {
	return udevSource{ctx: ctx, group: group}
}

func (s udevSource) Enumerate(subsystem string) ([]*udev.Device, error) {
	return s.ctx.Enumerate(subsystem)
}

func (s udevSource) Subscribe(subsystem string) (Subscription, error) {
	m, err := s.ctx.NewMonitor(s.group, subsystem)
	if err != nil {
		return nil, err
	}
	return m, nil
}
