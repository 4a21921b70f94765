package udev

import (
	"encoding/binary"
	"errors"
	"testing"
)

// libudevMessage frames properties the way udevd does on the udev group.
func libudevMessage(props string) []byte {
	header := make([]byte, libudevHeaderSize)
	copy(header, libudevPrefix)
	binary.BigEndian.PutUint32(header[8:12], libudevMagic)
	binary.NativeEndian.PutUint32(header[12:16], libudevHeaderSize)
	binary.NativeEndian.PutUint32(header[16:20], libudevHeaderSize)
	binary.NativeEndian.PutUint32(header[20:24], uint32(len(props)))
	return append(header, props...)
}

func TestParseMessage_Kernel(t *testing.T) {
	data := []byte(
		"add@/devices/pci0000:00/0000:00:1f.3/sound/card0\x00" +
			"ACTION=add\x00" +
			"DEVPATH=/devices/pci0000:00/0000:00:1f.3/sound/card0\x00" +
			"SUBSYSTEM=sound\x00" +
			"SEQNUM=4242\x00",
	)

	props, err := parseMessage(data)
	if err != nil {
		t.Fatalf("parseMessage() error = %v", err)
	}
	if props[PropAction] != "add" {
		t.Errorf("ACTION = %q, want add", props[PropAction])
	}
	if props[PropDevpath] != "/devices/pci0000:00/0000:00:1f.3/sound/card0" {
		t.Errorf("DEVPATH = %q", props[PropDevpath])
	}
	if props[PropSeqnum] != "4242" {
		t.Errorf("SEQNUM = %q, want 4242", props[PropSeqnum])
	}
}

func TestParseMessage_Libudev(t *testing.T) {
	data := libudevMessage(
		"ACTION=change\x00" +
			"DEVPATH=/devices/pci0000:00/0000:00:14.0/usb1/1-2/1-2:1.0/sound/card1\x00" +
			"SUBSYSTEM=sound\x00" +
			"ID_MODEL_FROM_DATABASE=USB Audio\x00" +
			"SOUND_FORM_FACTOR=headset\x00",
	)

	props, err := parseMessage(data)
	if err != nil {
		t.Fatalf("parseMessage() error = %v", err)
	}
	if props[PropAction] != "change" {
		t.Errorf("ACTION = %q, want change", props[PropAction])
	}
	if props["ID_MODEL_FROM_DATABASE"] != "USB Audio" {
		t.Errorf("ID_MODEL_FROM_DATABASE = %q", props["ID_MODEL_FROM_DATABASE"])
	}
	if props["SOUND_FORM_FACTOR"] != "headset" {
		t.Errorf("SOUND_FORM_FACTOR = %q", props["SOUND_FORM_FACTOR"])
	}
}

func TestParseMessage_Malformed(t *testing.T) {
	badMagic := libudevMessage("ACTION=add\x00DEVPATH=/x\x00")
	binary.BigEndian.PutUint32(badMagic[8:12], 0xdeadbeef)

	outOfRange := libudevMessage("ACTION=add\x00DEVPATH=/x\x00")
	binary.NativeEndian.PutUint32(outOfRange[20:24], 4096)

	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"no header", []byte("ACTION=add\x00DEVPATH=/x\x00")},
		{"short libudev", []byte("libudev\x00abcd")},
		{"bad magic", badMagic},
		{"properties out of range", outOfRange},
		{"missing devpath", []byte("add@/x\x00ACTION=add\x00SUBSYSTEM=sound\x00")},
		{"missing action", []byte("add@/x\x00DEVPATH=/x\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := parseMessage(tt.data); !errors.Is(err, ErrMalformedMessage) {
				t.Errorf("parseMessage() error = %v, want ErrMalformedMessage", err)
			}
		})
	}
}

func TestParseDatabase(t *testing.T) {
	data := []byte("I:12345678\n" +
		"E:ID_MODEL=Generic\n" +
		"E:ID_PATH=pci-0000:00:1f.3\n" +
		"E:SOUND_FORM_FACTOR=internal\n" +
		"G:seat\n" +
		"E:broken\n")

	props := parseDatabase(data)

	if len(props) != 3 {
		t.Errorf("got %d properties, want 3: %v", len(props), props)
	}
	if props["ID_PATH"] != "pci-0000:00:1f.3" {
		t.Errorf("ID_PATH = %q", props["ID_PATH"])
	}
}

func TestParseUeventFile(t *testing.T) {
	props := parseUeventFile([]byte("MAJOR=116\nMINOR=2\nDEVNAME=snd/controlC0\n"))
	if props["MAJOR"] != "116" || props["DEVNAME"] != "snd/controlC0" {
		t.Errorf("parseUeventFile() = %v", props)
	}
}

func TestDatabaseID(t *testing.T) {
	tests := []struct {
		name  string
		props map[string]string
		want  string
	}{
		{
			name:  "card without node",
			props: map[string]string{PropSubsystem: "sound", PropDevpath: "/devices/x/sound/card0"},
			want:  "+sound:card0",
		},
		{
			name:  "control node",
			props: map[string]string{PropSubsystem: "sound", PropDevpath: "/devices/x/sound/card0/controlC0", "MAJOR": "116", "MINOR": "2"},
			want:  "c116:2",
		},
		{
			name:  "block node",
			props: map[string]string{PropSubsystem: "block", PropDevpath: "/devices/x/block/sda", "MAJOR": "8", "MINOR": "0"},
			want:  "b8:0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := databaseID(tt.props); got != tt.want {
				t.Errorf("databaseID() = %q, want %q", got, tt.want)
			}
		})
	}
}
