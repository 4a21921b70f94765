// Package loop provides a single-goroutine epoll event loop.
//
// Everything the loop runs (readiness callbacks and invoked closures) runs
// on the goroutine executing Run, one at a time. State touched only from
// there needs no locking. Other goroutines hand work to the loop with
// Invoke, which queues a closure, wakes the loop through an eventfd and
// waits for the closure to finish.
//
//	    AddSource(fd)                 Invoke(fn)
//	        │                              │
//	        ▼                              ▼
//	┌──────────────┐  readiness   ┌──────────────┐
//	│    epoll     │─────────────►│  Run loop    │──► Source.Func(events)
//	│  + eventfd   │◄─────────────│  goroutine   │──► queued fn()
//	└──────────────┘    wake      └──────────────┘
//
// Invoke must not be called from code already running on the loop; it
// would wait for itself.
//
// Run is single-use. After it returns, queued and new Invoke calls fail
// with ErrClosed immediately; sources may still be removed until Close.
package loop
