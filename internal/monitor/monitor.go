package monitor

import (
	"errors"
	"fmt"

	"github.com/nerrad567/gray-logic-audio/internal/alsa"
	"github.com/nerrad567/gray-logic-audio/internal/loop"
	"github.com/nerrad567/gray-logic-audio/internal/udev"
)

// DefaultSubsystem is the udev subsystem sound cards live in.
const DefaultSubsystem = "sound"

// Subscription is an open hotplug notification stream.
type Subscription interface {
	FD() int
	// Receive returns the next pending device, or nil when none is pending.
	Receive() (*udev.Device, error)
	Close() error
}

// Source lists present devices and opens hotplug subscriptions.
type Source interface {
	Enumerate(subsystem string) ([]*udev.Device, error)
	Subscribe(subsystem string) (Subscription, error)
}

// EventLoop watches descriptors and calls back on readiness.
type EventLoop interface {
	AddSource(src *loop.Source) error
	RemoveSource(src *loop.Source) error
}

// Options configures a Monitor.
type Options struct {
	Backend        alsa.Backend
	Source         Source
	Loop           EventLoop
	Subsystem      string // default DefaultSubsystem
	IgnoreProperty string // default DefaultIgnoreProperty
}

// Monitor ties the registry to a notification source and one subscriber.
//
// A Monitor is not safe for concurrent use; call it from the goroutine
// running its event loop.
type Monitor struct {
	registry  *Registry
	source    Source
	loop      EventLoop
	subsystem string
	logger    Logger

	handler EventHandler
	sub     Subscription
	src     *loop.Source
	scanned bool
	cursor  cursor
}

// New creates a Monitor with an empty registry.
func New(opts Options) *Monitor {
	subsystem := opts.Subsystem
	if subsystem == "" {
		subsystem = DefaultSubsystem
	}
	return &Monitor{
		registry:  NewRegistry(opts.Backend, opts.IgnoreProperty),
		source:    opts.Source,
		loop:      opts.Loop,
		subsystem: subsystem,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the monitor and its registry.
func (m *Monitor) SetLogger(logger Logger) {
	m.logger = logger
	m.registry.SetLogger(logger)
}

// Registry returns the card registry.
func (m *Monitor) Registry() *Registry { return m.registry }

// SetCallbacks registers or clears the event subscriber.
//
// With a non-nil handler it runs the initial scan if it has not run yet,
// opens a new hotplug subscription (closing any previous one) and adds it
// to the event loop. With nil it removes the subscription from the loop
// and closes it.
func (m *Monitor) SetCallbacks(h EventHandler) error {
	if h == nil {
		m.handler = nil
		return m.unsubscribe()
	}

	if err := m.scan(); err != nil {
		return err
	}

	sub, err := m.source.Subscribe(m.subsystem)
	if err != nil {
		return fmt.Errorf("subscribing to %s events: %w", m.subsystem, err)
	}

	if err := m.unsubscribe(); err != nil {
		m.logger.Warn("releasing previous subscription", "error", err)
	}

	src := &loop.Source{
		FD:     sub.FD(),
		Events: loop.EventIn | loop.EventErr,
		Func:   m.onReadable,
	}
	if err := m.loop.AddSource(src); err != nil {
		m.handler = nil
		if cerr := sub.Close(); cerr != nil {
			m.logger.Warn("closing unregistered subscription", "error", cerr)
		}
		return fmt.Errorf("registering %s events with loop: %w", m.subsystem, err)
	}

	m.sub = sub
	m.src = src
	m.handler = h
	m.logger.Info("hotplug monitoring started", "subsystem", m.subsystem)
	return nil
}

// unsubscribe detaches and closes the current subscription, if any.
func (m *Monitor) unsubscribe() error {
	var errs []error
	if m.src != nil {
		if err := m.loop.RemoveSource(m.src); err != nil {
			errs = append(errs, err)
		}
		m.src = nil
	}
	if m.sub != nil {
		if err := m.sub.Close(); err != nil {
			errs = append(errs, err)
		}
		m.sub = nil
	}
	return errors.Join(errs...)
}

// scan creates a card for every present device, once.
func (m *Monitor) scan() error {
	if m.scanned {
		return nil
	}
	if _, err := m.createPresent(); err != nil {
		return err
	}
	m.scanned = true
	return nil
}

// createPresent runs CreateCard over the subsystem's current devices and
// returns the cards that were new.
func (m *Monitor) createPresent() ([]*Card, error) {
	devices, err := m.source.Enumerate(m.subsystem)
	if err != nil {
		return nil, fmt.Errorf("enumerating %s devices: %w", m.subsystem, err)
	}

	var created []*Card
	for _, dev := range devices {
		card, err := m.registry.CreateCard(dev)
		if err != nil {
			continue
		}
		created = append(created, card)
	}
	return created, nil
}

// Rescan creates cards for present devices the registry is missing, such
// as cards whose add notification was lost, and announces each as
// EventAdded. It returns the number of cards added.
func (m *Monitor) Rescan() (int, error) {
	created, err := m.createPresent()
	if err != nil {
		return 0, err
	}
	m.scanned = true

	for _, card := range created {
		m.emit(EventAdded, card)
	}
	return len(created), nil
}

// Enumerate returns the device at position *index of the flattened device
// sequence and advances *index, or (nil, nil) past the end.
//
// Callers start at 0 and pass the updated index back on each call. An
// index of 0 or lower than the last one handed out, or any registry change
// since the previous call, restarts the walk from the first device.
func (m *Monitor) Enumerate(index *uint32) (*Descriptor, error) {
	if index == nil {
		return nil, ErrInvalidArgument
	}
	if err := m.scan(); err != nil {
		return nil, err
	}

	m.cursor.seek(m.registry, *index)
	if m.cursor.lastSeen != *index {
		return nil, nil
	}

	card, dev := m.cursor.current(m.registry.cards)
	if dev == nil {
		return nil, nil
	}

	info, err := m.registry.cardInfo(card)
	if err != nil {
		return nil, err
	}
	d, err := buildDescriptor(card, dev, info)
	if err != nil {
		return nil, err
	}

	*index++
	m.cursor.lastSeen++
	m.cursor.next(m.registry.cards)
	return &d, nil
}

// Stats counts registered cards and devices.
func (m *Monitor) Stats() Stats { return m.registry.Stats() }

// Close unsubscribes and releases every card.
func (m *Monitor) Close() error {
	m.handler = nil
	return errors.Join(m.unsubscribe(), m.registry.Close())
}
