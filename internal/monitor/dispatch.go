package monitor

import (
	"errors"

	"github.com/nerrad567/gray-logic-audio/internal/loop"
)

// classifyAction maps a udev action to an event kind. A missing action
// counts as a change; unknown actions such as "bind" are not events.
func classifyAction(action string) (EventKind, bool) {
	switch action {
	case "add":
		return EventAdded, true
	case "change", "":
		return EventChanged, true
	case "remove":
		return EventRemoved, true
	default:
		return 0, false
	}
}

// onReadable is the loop callback for the subscription descriptor.
func (m *Monitor) onReadable(events uint32) {
	if events&(loop.EventErr|loop.EventHup) != 0 {
		m.logger.Warn("hotplug socket error condition", "events", events)
	}
	m.dispatch()
}

// dispatch handles one pending notification.
func (m *Monitor) dispatch() {
	if m.sub == nil {
		return
	}
	dev, err := m.sub.Receive()
	if err != nil {
		m.logger.Warn("receiving hotplug event", "error", err)
		return
	}
	if dev == nil {
		return
	}

	kind, ok := classifyAction(dev.Action())
	if !ok {
		return
	}

	var card *Card
	switch kind {
	case EventAdded, EventChanged:
		created, err := m.registry.CreateCard(dev)
		switch {
		case err == nil:
			card = created
		case errors.Is(err, ErrCardExists) && kind == EventChanged:
			// Known card: re-announce its devices as they are, no re-probe.
			id, _ := m.registry.ResolveCardID(dev)
			card = m.registry.FindCard(id)
		default:
			return
		}
	case EventRemoved:
		id, ok := m.registry.ResolveCardID(dev)
		if !ok {
			return
		}
		card = m.registry.FindCard(id)
	}
	if card == nil {
		return
	}

	m.logger.Debug("hotplug event", "kind", kind.String(), "card", card.Name)

	m.emit(kind, card)

	// Dropped even when emit could not describe the card: the control
	// channel of an unplugged card stops answering before the remove arrives.
	if kind == EventRemoved {
		m.registry.RemoveCard(card)
	}
}

// emit sends one event per device of card. It reports false, emitting
// nothing, when the card info re-query fails.
func (m *Monitor) emit(kind EventKind, card *Card) bool {
	info, err := m.registry.cardInfo(card)
	if err != nil {
		m.logger.Warn("card info unavailable, event not delivered", "kind", kind.String(), "card", card.Name, "error", err)
		return false
	}

	for _, dev := range card.devices {
		d, err := buildDescriptor(card, dev, info)
		if err != nil {
			m.logger.Warn("describing device", "card", card.Name, "device", dev.Index, "error", err)
			continue
		}
		if m.handler != nil {
			m.handler.HandleEvent(kind, d)
		}
	}
	return true
}
