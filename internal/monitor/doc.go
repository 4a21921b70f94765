// Package monitor tracks ALSA sound cards and their PCM endpoints and
// reports them to a single subscriber.
//
// It serves two interfaces over the same in-memory topology: a pull-based
// enumeration (Monitor.Enumerate, driven by a caller-held index) and a
// push-based hotplug event stream (EventHandler, fed by udev notifications
// arriving through the event loop).
//
// Architecture:
//
//	┌──────────────┐  readiness  ┌─────────────────────────────────────────┐
//	│ udev monitor ├────────────►│ Monitor.dispatch                        │
//	└──────────────┘  (loop)     │  1. classify action (add/change/remove) │
//	                             │  2. Registry.CreateCard / FindCard      │
//	┌──────────────┐  Enumerate  │  3. re-query card info                  │
//	│ host / API   ├────────────►│  4. buildDescriptor per device ─────────┼──► EventHandler
//	└──────────────┘  (cursor)   │  5. Registry.RemoveCard on remove       │
//	                             └─────────────────────────────────────────┘
//	                                   │
//	                                   ▼
//	                     Registry: []*Card ─► Card.devices []*Device
//
// The flattened device sequence used by the cursor is the concatenation of
// each card's devices in card creation order. It is derived on demand and
// never stored separately.
//
// # Thread Safety
//
// None. The Registry, the cursor and the dispatcher assume one goroutine:
// the one running the event loop. Other goroutines go through Inventory,
// which serialises calls onto the loop with Invoke.
//
// # Known Limitations
//
// A "change" notification for a card that is already tracked does not
// re-probe its PCM devices; the current devices are re-announced as
// EventChanged. Devices that appear on an existing card without the card
// itself being removed and re-added are therefore not picked up.
//
// A "remove" notification drops the card even when its metadata can no
// longer be read, which is the usual state of an unplugged card. No
// EventRemoved is delivered for its devices in that case; the failure is
// logged and subscribers only see the card vanish from enumeration.
//
// # Usage
//
//	mon := monitor.New(monitor.Options{
//	    Backend: alsa.NewBackend(""),
//	    Source:  monitor.NewUdevSource(udev.New("", ""), udev.GroupUdev),
//	    Loop:    evloop,
//	})
//	mon.SetLogger(log)
//	if err := mon.SetCallbacks(handler); err != nil {
//	    return err
//	}
//
//	var index uint32
//	for {
//	    d, err := mon.Enumerate(&index)
//	    if err != nil || d == nil {
//	        break
//	    }
//	    fmt.Println(d.Name, d.Class)
//	}
package monitor
