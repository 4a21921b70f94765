package monitor

import (
	"errors"
	"testing"

	"github.com/nerrad567/gray-logic-audio/internal/alsa"
	"github.com/nerrad567/gray-logic-audio/internal/udev"
)

// probedCard creates card 0 with one device index on a fresh registry.
func probedCard(t *testing.T, dev *udev.Device) *Card {
	t.Helper()
	backend := newFakeBackend()
	backend.addCard(0, 0)
	card, err := NewRegistry(backend, "").CreateCard(dev)
	if err != nil {
		t.Fatalf("CreateCard() error = %v", err)
	}
	return card
}

func TestDeviceName(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]string
		want  string
	}{
		{
			name: "database name wins",
			props: map[string]string{
				"ID_MODEL_FROM_DATABASE": "Cannon Lake PCH cAVS",
				"ID_MODEL_ENC":           "Encoded\\x20Model",
				"ID_MODEL":               "Model",
			},
			want: "Cannon Lake PCH cAVS",
		},
		{
			name:  "encoded before plain",
			props: map[string]string{"ID_MODEL_ENC": "USB\\x20Audio", "ID_MODEL": "USB_Audio"},
			want:  "USB\\x20Audio",
		},
		{name: "plain model", props: map[string]string{"ID_MODEL": "USB_Audio"}, want: "USB_Audio"},
		{name: "empty values skipped", props: map[string]string{"ID_MODEL_FROM_DATABASE": "", "ID_MODEL": "M"}, want: "M"},
		{name: "unknown", props: nil, want: UnknownName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deviceName(cardDevice(0, "", tt.props)); got != tt.want {
				t.Errorf("deviceName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildDescriptor_Playback(t *testing.T) {
	card := probedCard(t, cardDevice(0, "", nil))
	dev := card.Devices()[0]

	d, err := buildDescriptor(card, dev, card.ctl.(*fakeCtl).hw.info)
	if err != nil {
		t.Fatalf("buildDescriptor() error = %v", err)
	}

	if d.Class != ClassSink || d.Factory != FactorySink {
		t.Errorf("class/factory = %q/%q, want %q/%q", d.Class, d.Factory, ClassSink, FactorySink)
	}
	if d.ID != UnknownName || d.Name != UnknownName {
		t.Errorf("id/name = %q/%q, want %q", d.ID, d.Name, UnknownName)
	}
	if d.State != StateAvailable || d.Flags != 0 {
		t.Errorf("state/flags = %q/%d", d.State, d.Flags)
	}

	syspath := "/sys/devices/pci0000:00/0000:00:1f.3/sound/card0"
	want := []Property{
		{"alsa.card", "hw:0,0"},
		{"alsa.card.id", "Card0"},
		{"alsa.card.components", "FAKE:0001"},
		{"alsa.card.driver", "snd_fake"},
		{"alsa.card.name", "Fake Card 0"},
		{"alsa.card.longname", "Fake Card 0 at fake0"},
		{"alsa.card.mixername", "Fake Mixer"},
		{"udev-probed", "1"},
		{"device.api", "alsa"},
		{"alsa.pcm.id", "pcm0"},
		{"alsa.pcm.name", "Fake PCM 0"},
		{"alsa.pcm.subname", "subdevice #0"},
		{"device.bus_path", syspath},
		{"sysfs.path", syspath},
		{"device.subsystem", "sound"},
		{"device.product.name", UnknownName},
	}
	if len(d.Info) != len(want) {
		t.Fatalf("info has %d entries, want %d: %v", len(d.Info), len(want), d.Info)
	}
	for i := range want {
		if d.Info[i] != want[i] {
			t.Errorf("info[%d] = %v, want %v", i, d.Info[i], want[i])
		}
	}
}

func TestBuildDescriptor_UdevProperties(t *testing.T) {
	card := probedCard(t, cardDevice(0, "", map[string]string{
		"SOUND_CLASS":             "",
		"ID_PATH":                 "pci-0000:00:14.0-usb-0:2:1.0",
		"ID_ID":                   "usb-Generic_USB_Audio-00",
		"ID_BUS":                  "usb",
		"ID_VENDOR_ID":            "0bda",
		"ID_VENDOR_ENC":           "Generic",
		"ID_VENDOR_FROM_DATABASE": "Realtek Semiconductor Corp.",
		"ID_MODEL_ID":             "4014",
		"ID_MODEL":                "USB_Audio",
		"ID_SERIAL":               "Generic_USB_Audio_200901010001",
		"SOUND_FORM_FACTOR":       "headset",
	}))
	dev := card.Devices()[1]

	d, err := buildDescriptor(card, dev, card.ctl.(*fakeCtl).hw.info)
	if err != nil {
		t.Fatalf("buildDescriptor() error = %v", err)
	}
	if d.Class != ClassSource || d.Factory != FactorySource {
		t.Errorf("class/factory = %q/%q, want source", d.Class, d.Factory)
	}
	if d.Name != "USB_Audio" || d.ID != d.Name {
		t.Errorf("id/name = %q/%q, want USB_Audio", d.ID, d.Name)
	}

	checks := map[string]string{
		"device.bus_path":     "pci-0000:00:14.0-usb-0:2:1.0",
		"udev.id":             "usb-Generic_USB_Audio-00",
		"device.bus":          "usb",
		"device.vendor.id":    "0bda",
		"device.vendor.name":  "Realtek Semiconductor Corp.",
		"device.product.id":   "4014",
		"device.product.name": "USB_Audio",
		"device.serial":       "Generic_USB_Audio_200901010001",
		"device.form_factor":  "headset",
	}
	for key, want := range checks {
		got, ok := d.Property(key)
		if !ok || got != want {
			t.Errorf("Property(%q) = %q, %v; want %q", key, got, ok, want)
		}
	}
	if _, ok := d.Property("device.class"); ok {
		t.Error("empty SOUND_CLASS should be omitted")
	}

	// Optional keys keep their relative order after the fixed block.
	order := []string{
		"device.bus_path", "sysfs.path", "udev.id", "device.bus", "device.subsystem",
		"device.vendor.id", "device.vendor.name", "device.product.id",
		"device.product.name", "device.serial", "device.form_factor",
	}
	tail := d.Info[12:]
	if len(tail) != len(order) {
		t.Fatalf("optional entries = %v", tail)
	}
	for i, key := range order {
		if tail[i].Key != key {
			t.Errorf("optional[%d] = %q, want %q", i, tail[i].Key, key)
		}
	}
}

func TestBuildDescriptor_InvalidDirection(t *testing.T) {
	card := probedCard(t, cardDevice(0, "", nil))
	bad := &Device{CardID: 0, Index: 0, Direction: alsa.Stream(7), Enabled: true}
	card.ctl.(*fakeCtl).hw.pcm[0] = append(card.ctl.(*fakeCtl).hw.pcm[0], alsa.Stream(7))

	_, err := buildDescriptor(card, bad, alsa.CardInfo{})
	if !errors.Is(err, ErrInvalidDirection) {
		t.Errorf("buildDescriptor() error = %v, want ErrInvalidDirection", err)
	}
}

func TestBuildDescriptor_PCMQueryFails(t *testing.T) {
	card := probedCard(t, cardDevice(0, "", nil))
	gone := &Device{CardID: 0, Index: 9, Direction: alsa.StreamPlayback, Enabled: true}

	_, err := buildDescriptor(card, gone, alsa.CardInfo{})
	if !errors.Is(err, ErrProbeFailed) {
		t.Errorf("buildDescriptor() error = %v, want ErrProbeFailed", err)
	}
}

func TestEventKind_Text(t *testing.T) {
	for _, k := range []EventKind{EventAdded, EventChanged, EventRemoved} {
		text, err := k.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%d) error = %v", k, err)
		}
		var got EventKind
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText(%q) error = %v", text, err)
		}
		if got != k {
			t.Errorf("round trip of %v gave %v", k, got)
		}
	}

	var k EventKind
	if err := k.UnmarshalText([]byte("bind")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("UnmarshalText(bind) error = %v, want ErrInvalidArgument", err)
	}
	if s := EventKind(9).String(); s != "event(9)" {
		t.Errorf("String() = %q", s)
	}
}

func TestClassifyAction(t *testing.T) {
	tests := []struct {
		action string
		want   EventKind
		wantOK bool
	}{
		{"add", EventAdded, true},
		{"change", EventChanged, true},
		{"", EventChanged, true},
		{"remove", EventRemoved, true},
		{"bind", 0, false},
		{"unbind", 0, false},
		{"move", 0, false},
	}
	for _, tt := range tests {
		got, ok := classifyAction(tt.action)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("classifyAction(%q) = %v, %v; want %v, %v", tt.action, got, ok, tt.want, tt.wantOK)
		}
	}
}
