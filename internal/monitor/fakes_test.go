package monitor

import (
	"errors"
	"fmt"
	"sort"

	"github.com/nerrad567/gray-logic-audio/internal/alsa"
	"github.com/nerrad567/gray-logic-audio/internal/loop"
	"github.com/nerrad567/gray-logic-audio/internal/udev"
)

var errFake = errors.New("fake failure")

// fakeHW describes one card as the fake backend reports it.
type fakeHW struct {
	info    alsa.CardInfo
	openErr error
	infoErr error
	nextErr error
	// pcm maps a device index to its usable directions.
	pcm map[int][]alsa.Stream
}

// fakeBackend serves fakeHW entries by "hw:N" name.
type fakeBackend struct {
	cards map[string]*fakeHW
	opens map[string]int
	ctls  []*fakeCtl
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{cards: map[string]*fakeHW{}, opens: map[string]int{}}
}

// addCard registers a card with playback and capture on each given index.
func (b *fakeBackend) addCard(id uint32, indices ...int) *fakeHW {
	hw := &fakeHW{
		info: alsa.CardInfo{
			Card:       int(id),
			ID:         fmt.Sprintf("Card%d", id),
			Driver:     "snd_fake",
			Name:       fmt.Sprintf("Fake Card %d", id),
			LongName:   fmt.Sprintf("Fake Card %d at fake0", id),
			MixerName:  "Fake Mixer",
			Components: "FAKE:0001",
		},
		pcm: map[int][]alsa.Stream{},
	}
	for _, i := range indices {
		hw.pcm[i] = []alsa.Stream{alsa.StreamPlayback, alsa.StreamCapture}
	}
	b.cards[alsa.HandleName(id)] = hw
	return hw
}

func (b *fakeBackend) Open(name string) (alsa.Control, error) {
	b.opens[name]++
	hw, ok := b.cards[name]
	if !ok {
		return nil, fmt.Errorf("no such card %s: %w", name, errFake)
	}
	if hw.openErr != nil {
		return nil, hw.openErr
	}
	c := &fakeCtl{hw: hw}
	b.ctls = append(b.ctls, c)
	return c, nil
}

type fakeCtl struct {
	hw     *fakeHW
	closed bool
}

func (c *fakeCtl) CardInfo() (alsa.CardInfo, error) {
	if c.closed {
		return alsa.CardInfo{}, alsa.ErrClosed
	}
	if c.hw.infoErr != nil {
		return alsa.CardInfo{}, c.hw.infoErr
	}
	return c.hw.info, nil
}

func (c *fakeCtl) NextPCMDevice(device int) (int, error) {
	if c.hw.nextErr != nil {
		return -1, c.hw.nextErr
	}
	indices := make([]int, 0, len(c.hw.pcm))
	for i := range c.hw.pcm {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	for _, i := range indices {
		if i > device {
			return i, nil
		}
	}
	return -1, nil
}

func (c *fakeCtl) PCMInfo(device, subdevice int, stream alsa.Stream) (alsa.PCMInfo, error) {
	if c.closed {
		return alsa.PCMInfo{}, alsa.ErrClosed
	}
	for _, s := range c.hw.pcm[device] {
		if s == stream {
			return alsa.PCMInfo{
				Card:      c.hw.info.Card,
				Device:    device,
				Subdevice: subdevice,
				Stream:    stream,
				ID:        fmt.Sprintf("pcm%d", device),
				Name:      fmt.Sprintf("Fake PCM %d", device),
				Subname:   "subdevice #0",
			}, nil
		}
	}
	return alsa.PCMInfo{}, fmt.Errorf("pcm %d %s: %w", device, stream, errFake)
}

func (c *fakeCtl) Close() error {
	c.closed = true
	return nil
}

// fakeSource returns a fixed device list and hands out fakeSubs.
type fakeSource struct {
	present      []*udev.Device
	enumerateErr error
	subscribeErr error
	enumerations int
	subs         []*fakeSub
}

func (s *fakeSource) Enumerate(string) ([]*udev.Device, error) {
	s.enumerations++
	if s.enumerateErr != nil {
		return nil, s.enumerateErr
	}
	return s.present, nil
}

func (s *fakeSource) Subscribe(string) (Subscription, error) {
	if s.subscribeErr != nil {
		return nil, s.subscribeErr
	}
	sub := &fakeSub{fd: 100 + len(s.subs)}
	s.subs = append(s.subs, sub)
	return sub, nil
}

// last returns the most recent subscription.
func (s *fakeSource) last() *fakeSub { return s.subs[len(s.subs)-1] }

type fakeSub struct {
	fd     int
	queue  []*udev.Device
	err    error
	closed bool
}

func (s *fakeSub) FD() int { return s.fd }

func (s *fakeSub) Receive() (*udev.Device, error) {
	if s.err != nil {
		return nil, s.err
	}
	if len(s.queue) == 0 {
		return nil, nil
	}
	dev := s.queue[0]
	s.queue = s.queue[1:]
	return dev, nil
}

func (s *fakeSub) Close() error {
	s.closed = true
	return nil
}

// fakeLoop records sources and lets tests fire them.
type fakeLoop struct {
	sources map[int]*loop.Source
	addErr  error
}

func newFakeLoop() *fakeLoop { return &fakeLoop{sources: map[int]*loop.Source{}} }

func (l *fakeLoop) AddSource(src *loop.Source) error {
	if l.addErr != nil {
		return l.addErr
	}
	l.sources[src.FD] = src
	return nil
}

func (l *fakeLoop) RemoveSource(src *loop.Source) error {
	if _, ok := l.sources[src.FD]; !ok {
		return loop.ErrUnknownSource
	}
	delete(l.sources, src.FD)
	return nil
}

// fire delivers one readiness callback to every source.
func (l *fakeLoop) fire() {
	for _, src := range l.sources {
		src.Func(loop.EventIn)
	}
}

// recorder is an EventHandler that keeps every event.
type recorder struct {
	events []recordedEvent
}

type recordedEvent struct {
	kind EventKind
	desc Descriptor
}

func (r *recorder) HandleEvent(kind EventKind, d Descriptor) {
	r.events = append(r.events, recordedEvent{kind, d})
}

// cardDevice builds a udev device for /sound/card<id> with extra properties.
func cardDevice(id uint32, action string, extra map[string]string) *udev.Device {
	devpath := fmt.Sprintf("/devices/pci0000:00/0000:00:1f.3/sound/card%d", id)
	props := map[string]string{
		udev.PropDevpath:   devpath,
		udev.PropSubsystem: "sound",
	}
	if action != "" {
		props[udev.PropAction] = action
	}
	for k, v := range extra {
		props[k] = v
	}
	return udev.NewDevice("/sys"+devpath, props)
}

// testMonitor wires a Monitor to fresh fakes.
type testMonitor struct {
	*Monitor
	backend *fakeBackend
	source  *fakeSource
	loop    *fakeLoop
	events  *recorder
}

func newTestMonitor() *testMonitor {
	tm := &testMonitor{
		backend: newFakeBackend(),
		source:  &fakeSource{},
		loop:    newFakeLoop(),
		events:  &recorder{},
	}
	tm.Monitor = New(Options{Backend: tm.backend, Source: tm.source, Loop: tm.loop})
	return tm
}

// deliver queues a notification on the active subscription and fires the loop.
func (tm *testMonitor) deliver(dev *udev.Device) {
	sub := tm.source.last()
	sub.queue = append(sub.queue, dev)
	tm.loop.fire()
}

// sweep enumerates from index 0 to the end.
func sweep(m *Monitor) ([]Descriptor, error) {
	var (
		out   []Descriptor
		index uint32
	)
	for {
		d, err := m.Enumerate(&index)
		if err != nil {
			return out, err
		}
		if d == nil {
			return out, nil
		}
		out = append(out, *d)
	}
}
