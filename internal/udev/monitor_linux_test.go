//go:build linux

package udev

import "testing"

func TestMonitor_OpenReceiveClose(t *testing.T) {
	m, err := New("", "").NewMonitor(GroupUdev, "sound")
	if err != nil {
		t.Skipf("netlink uevent socket unavailable: %v", err)
	}

	if m.FD() < 0 {
		t.Fatal("FD() < 0 on open monitor")
	}

	// Nothing is normally pending; anything that is must be a sound event.
	dev, err := m.Receive()
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if dev != nil && dev.Subsystem() != "sound" {
		t.Errorf("Receive() delivered subsystem %q", dev.Subsystem())
	}

	if err := m.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if _, err := m.Receive(); err == nil {
		t.Error("Receive() after Close() expected error")
	}
}
