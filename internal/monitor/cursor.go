package monitor

// cursor is the enumeration position over the flattened device sequence.
//
// lastSeen counts the devices already handed out since the last reset and
// (card, dev) locates the next one. generation pins the registry layout the
// position was computed against; any insertion or removal invalidates it.
type cursor struct {
	lastSeen   uint32
	card       int
	dev        int
	generation uint64
}

// reset moves the cursor to the head of the sequence.
func (c *cursor) reset(generation uint64) {
	c.lastSeen = 0
	c.card = 0
	c.dev = 0
	c.generation = generation
}

// settle skips cards with no remaining devices so the position names a
// device or the end of the sequence.
func (c *cursor) settle(cards []*Card) {
	for c.card < len(cards) && c.dev >= len(cards[c.card].devices) {
		c.card++
		c.dev = 0
	}
}

// current returns the card and device under the cursor, or nils at the end.
func (c *cursor) current(cards []*Card) (*Card, *Device) {
	c.settle(cards)
	if c.card >= len(cards) {
		return nil, nil
	}
	card := cards[c.card]
	return card, card.devices[c.dev]
}

// next advances one device. It reports false at the end of the sequence.
func (c *cursor) next(cards []*Card) bool {
	c.settle(cards)
	if c.card >= len(cards) {
		return false
	}
	c.dev++
	c.settle(cards)
	return true
}

// seek positions the cursor on the index-th device, resetting first when
// the caller restarted, went backwards, or the registry changed.
func (c *cursor) seek(r *Registry, index uint32) {
	if index == 0 || index < c.lastSeen || c.generation != r.generation {
		c.reset(r.generation)
	}
	for c.lastSeen < index {
		if !c.next(r.cards) {
			return
		}
		c.lastSeen++
	}
}
