package monitor

import "context"

// Invoker runs a function on the goroutine that owns the Monitor.
type Invoker interface {
	Invoke(ctx context.Context, fn func()) error
}

// Inventory gives other goroutines serialised access to a Monitor.
//
// Every method runs its work on the monitor's event loop through Invoke,
// so it is safe for concurrent use.
type Inventory struct {
	mon *Monitor
	inv Invoker
}

// NewInventory wraps mon, running calls through inv.
func NewInventory(mon *Monitor, inv Invoker) *Inventory {
	return &Inventory{mon: mon, inv: inv}
}

// Devices describes every tracked device by walking Enumerate from index 0
// to the end. The first enumeration error aborts the sweep.
func (i *Inventory) Devices(ctx context.Context) ([]Descriptor, error) {
	var (
		out []Descriptor
		err error
	)
	ierr := i.inv.Invoke(ctx, func() {
		out = make([]Descriptor, 0)
		var index uint32
		for {
			var d *Descriptor
			d, err = i.mon.Enumerate(&index)
			if err != nil || d == nil {
				return
			}
			out = append(out, *d)
		}
	})
	if ierr != nil {
		return nil, ierr
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stats counts tracked cards and devices.
func (i *Inventory) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	if err := i.inv.Invoke(ctx, func() { s = i.mon.Stats() }); err != nil {
		return Stats{}, err
	}
	return s, nil
}

// Rescan adds cards missing from the registry and returns how many were added.
func (i *Inventory) Rescan(ctx context.Context) (int, error) {
	var (
		n   int
		err error
	)
	if ierr := i.inv.Invoke(ctx, func() { n, err = i.mon.Rescan() }); ierr != nil {
		return 0, ierr
	}
	return n, err
}
