package monitor

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-audio/internal/alsa"
	"github.com/nerrad567/gray-logic-audio/internal/udev"
)

// Logger defines the logging interface used by the monitor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// DefaultIgnoreProperty is the udev property that hides a card.
const DefaultIgnoreProperty = "PULSE_IGNORE"

// Card is a sound card with an open control channel.
type Card struct {
	ID   uint32
	Name string

	dev     *udev.Device
	ctl     alsa.Control
	devices []*Device
}

// Udev returns the udev device the card was created from.
func (c *Card) Udev() *udev.Device { return c.dev }

// Devices returns the card's devices in creation order.
func (c *Card) Devices() []*Device {
	out := make([]*Device, len(c.devices))
	copy(out, c.devices)
	return out
}

// createDevice appends a device for a probed (index, direction) pair.
func (c *Card) createDevice(index int, direction alsa.Stream) *Device {
	d := &Device{
		CardID:    c.ID,
		Index:     index,
		Direction: direction,
		Enabled:   true,
	}
	c.devices = append(c.devices, d)
	return d
}

// freeDevice drops a device from the card.
func (c *Card) freeDevice(d *Device) {
	for i, cur := range c.devices {
		if cur == d {
			c.devices = append(c.devices[:i], c.devices[i+1:]...)
			return
		}
	}
}

// Device is one usable PCM endpoint of a card. CardID refers back to the
// owning card; resolve it with Registry.FindCard.
type Device struct {
	CardID    uint32
	Index     int
	Direction alsa.Stream
	Enabled   bool
}

// Registry owns the known cards in creation order.
//
// A Registry is not safe for concurrent use.
type Registry struct {
	backend        alsa.Backend
	ignoreProperty string
	logger         Logger

	cards []*Card

	// generation changes on every card insertion or removal.
	generation uint64
}

// NewRegistry creates an empty registry probing cards through backend.
// Devices carrying ignoreProperty are filtered out; an empty value selects
// DefaultIgnoreProperty.
func NewRegistry(backend alsa.Backend, ignoreProperty string) *Registry {
	if ignoreProperty == "" {
		ignoreProperty = DefaultIgnoreProperty
	}
	return &Registry{
		backend:        backend,
		ignoreProperty: ignoreProperty,
		logger:         noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// ResolveCardID extracts the card number from a udev device.
//
// It rejects devices carrying the ignore property, devices whose SOUND_CLASS
// is "modem", and devices whose path does not end in "/card<N>".
func (r *Registry) ResolveCardID(dev *udev.Device) (uint32, bool) {
	if dev == nil {
		return 0, false
	}
	if dev.HasProperty(r.ignoreProperty) {
		return 0, false
	}
	if dev.Property("SOUND_CLASS") == "modem" {
		return 0, false
	}
	return parseCardID(dev.Devpath())
}

// parseCardID parses the number from a path whose last element is "card<N>".
func parseCardID(devpath string) (uint32, bool) {
	i := strings.LastIndexByte(devpath, '/')
	if i < 0 {
		return 0, false
	}
	num, ok := strings.CutPrefix(devpath[i+1:], "card")
	if !ok || num == "" {
		return 0, false
	}
	// Leading digits only, the way the kernel names cards.
	end := 0
	for end < len(num) && num[end] >= '0' && num[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	id, err := strconv.ParseUint(num[:end], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(id), true
}

// CreateCard probes and registers the card behind dev.
//
// It returns ErrFiltered when dev is not a tracked card and ErrCardExists
// when the card is already registered; an existing card is not re-probed.
// Probe failures wrap ErrProbeFailed. The card is linked into the registry
// only once its control channel is open, its info answered and its PCM
// devices walked; on failure nothing is linked and the channel is closed.
func (r *Registry) CreateCard(dev *udev.Device) (*Card, error) {
	id, ok := r.ResolveCardID(dev)
	if !ok {
		return nil, ErrFiltered
	}
	if r.FindCard(id) != nil {
		return nil, fmt.Errorf("%w: card %d", ErrCardExists, id)
	}

	card := &Card{
		ID:   id,
		Name: alsa.HandleName(id),
		dev:  dev,
	}

	ctl, err := r.backend.Open(card.Name)
	if err != nil {
		r.logger.Error("can't open control for card", "card", card.Name, "error", err)
		return nil, fmt.Errorf("%w: opening %s: %w", ErrProbeFailed, card.Name, err)
	}
	card.ctl = ctl

	if err := r.probe(card); err != nil {
		if cerr := ctl.Close(); cerr != nil {
			r.logger.Warn("closing control after failed probe", "card", card.Name, "error", cerr)
		}
		return nil, err
	}

	r.cards = append(r.cards, card)
	r.generation++

	r.logger.Info("card added", "card", card.Name, "devices", len(card.devices))
	return card, nil
}

// probe reads card info and creates a device per usable PCM direction.
func (r *Registry) probe(card *Card) error {
	if _, err := card.ctl.CardInfo(); err != nil {
		r.logger.Error("can't get card info", "card", card.Name, "error", err)
		return fmt.Errorf("%w: card info for %s: %w", ErrProbeFailed, card.Name, err)
	}

	index := -1
	for {
		next, err := card.ctl.NextPCMDevice(index)
		if err != nil {
			r.logger.Error("error iterating devices", "card", card.Name, "error", err)
			return fmt.Errorf("%w: iterating devices of %s: %w", ErrProbeFailed, card.Name, err)
		}
		if next < 0 {
			return nil
		}
		if next <= index {
			// A backend that does not advance would loop forever.
			return fmt.Errorf("%w: %s returned device %d after %d", ErrProbeFailed, card.Name, next, index)
		}
		index = next

		for _, dir := range []alsa.Stream{alsa.StreamPlayback, alsa.StreamCapture} {
			if _, err := card.ctl.PCMInfo(index, 0, dir); err != nil {
				r.logger.Debug("pcm direction unavailable", "card", card.Name, "device", index, "stream", dir.String())
				continue
			}
			card.createDevice(index, dir)
		}
	}
}

// RemoveCard frees the card's devices, unlinks it and closes its control channel.
func (r *Registry) RemoveCard(card *Card) {
	for i, c := range r.cards {
		if c != card {
			continue
		}
		for _, d := range card.Devices() {
			card.freeDevice(d)
		}
		r.cards = append(r.cards[:i], r.cards[i+1:]...)
		r.generation++

		if card.ctl != nil {
			if err := card.ctl.Close(); err != nil {
				r.logger.Warn("closing control", "card", card.Name, "error", err)
			}
		}
		r.logger.Info("card removed", "card", card.Name)
		return
	}
}

// FindCard returns the card with the given id, or nil.
func (r *Registry) FindCard(id uint32) *Card {
	for _, c := range r.cards {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Cards returns the registered cards in creation order.
func (r *Registry) Cards() []*Card {
	out := make([]*Card, len(r.cards))
	copy(out, r.cards)
	return out
}

// Stats counts cards and devices.
func (r *Registry) Stats() Stats {
	s := Stats{Cards: len(r.cards)}
	for _, c := range r.cards {
		s.Devices += len(c.devices)
	}
	return s
}

// Close removes every card, closing all control channels.
func (r *Registry) Close() error {
	var errs []error
	for _, c := range r.cards {
		if c.ctl != nil {
			if err := c.ctl.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing %s: %w", c.Name, err))
			}
		}
		c.devices = nil
	}
	r.cards = nil
	r.generation++
	return errors.Join(errs...)
}

// cardInfo re-queries a card's control channel.
func (r *Registry) cardInfo(card *Card) (alsa.CardInfo, error) {
	info, err := card.ctl.CardInfo()
	if err != nil {
		return alsa.CardInfo{}, fmt.Errorf("%w: card info for %s: %w", ErrProbeFailed, card.Name, err)
	}
	return info, nil
}
