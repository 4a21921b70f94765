//go:build linux

package loop

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// maxEvents is the number of readiness events taken per epoll_wait.
const maxEvents = 16

// Loop multiplexes sources and invoked closures onto one goroutine.
type Loop struct {
	epfd   int
	wakefd int

	mu      sync.Mutex
	sources map[int]*Source
	pending []func()
	closed  bool
	stopped bool

	done     chan struct{}
	doneOnce sync.Once
}

// New creates an epoll instance and its wakeup eventfd.
func New() (*Loop, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("creating epoll: %w", err)
	}

	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("creating eventfd: %w", err)
	}

	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, fmt.Errorf("watching eventfd: %w", err)
	}

	return &Loop{
		epfd:    epfd,
		wakefd:  wakefd,
		sources: make(map[int]*Source),
		done:    make(chan struct{}),
	}, nil
}

// AddSource starts watching src.FD for src.Events.
func (l *Loop) AddSource(src *Source) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if _, ok := l.sources[src.FD]; ok {
		return fmt.Errorf("%w: fd %d", ErrSourceExists, src.FD)
	}

	ev := unix.EpollEvent{Events: src.Events, Fd: int32(src.FD)}
	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_ADD, src.FD, &ev); err != nil {
		return fmt.Errorf("adding fd %d: %w", src.FD, err)
	}
	l.sources[src.FD] = src
	return nil
}

// RemoveSource stops watching src. Events already collected for it in the
// current iteration are discarded.
func (l *Loop) RemoveSource(src *Source) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if cur, ok := l.sources[src.FD]; !ok || cur != src {
		return fmt.Errorf("%w: fd %d", ErrUnknownSource, src.FD)
	}
	delete(l.sources, src.FD)

	if err := unix.EpollCtl(l.epfd, unix.EPOLL_CTL_DEL, src.FD, nil); err != nil && !errors.Is(err, unix.EBADF) {
		return fmt.Errorf("removing fd %d: %w", src.FD, err)
	}
	return nil
}

// Invoke runs fn on the loop goroutine and waits for it to return.
//
// If ctx ends first, Invoke returns ctx.Err() and fn is skipped if it has
// not started yet.
func (l *Loop) Invoke(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	var (
		once      sync.Once
		cancelled bool
		state     sync.Mutex
	)

	task := func() {
		state.Lock()
		skip := cancelled
		state.Unlock()
		if !skip {
			fn()
		}
		once.Do(func() { close(finished) })
	}

	l.mu.Lock()
	if l.closed || l.stopped {
		l.mu.Unlock()
		return ErrClosed
	}
	l.pending = append(l.pending, task)
	l.mu.Unlock()

	if err := l.wake(); err != nil {
		return err
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrClosed
	case <-ctx.Done():
		state.Lock()
		cancelled = true
		state.Unlock()
		return ctx.Err()
	}
}

// Run dispatches events until ctx is cancelled or the loop is closed.
//
// Once Run returns the loop is stopped: closures still queued are dropped,
// their Invoke calls and any later ones fail with ErrClosed, and Run
// cannot be started again. Sources stay registered until Close.
func (l *Loop) Run(ctx context.Context) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrClosed
	}
	l.mu.Unlock()
	defer l.stop()

	stop := context.AfterFunc(ctx, func() { _ = l.wake() })
	defer stop()

	var events [maxEvents]unix.EpollEvent
	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return ErrClosed
		}

		n, err := unix.EpollWait(l.epfd, events[:], -1)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			return fmt.Errorf("epoll wait: %w", err)
		}

		for i := range n {
			fd := int(events[i].Fd)
			if fd == l.wakefd {
				l.drainWake()
				continue
			}

			l.mu.Lock()
			src, ok := l.sources[fd]
			l.mu.Unlock()
			if ok && src.Func != nil {
				src.Func(events[i].Events)
			}
		}

		l.runPending()
	}
}

// stop marks the loop as no longer dispatching and releases Invoke waiters.
func (l *Loop) stop() {
	l.mu.Lock()
	l.stopped = true
	l.pending = nil
	l.mu.Unlock()
	l.doneOnce.Do(func() { close(l.done) })
}

// runPending executes queued closures in submission order.
func (l *Loop) runPending() {
	l.mu.Lock()
	tasks := l.pending
	l.pending = nil
	l.mu.Unlock()

	for _, task := range tasks {
		task()
	}
}

func (l *Loop) wake() error {
	var buf [8]byte
	buf[0] = 1
	_, err := unix.Write(l.wakefd, buf[:])
	if errors.Is(err, unix.EAGAIN) {
		// Counter saturated; a wakeup is already pending.
		return nil
	}
	return err
}

func (l *Loop) drainWake() {
	var buf [8]byte
	_, _ = unix.Read(l.wakefd, buf[:])
}

// Close releases the epoll instance. Pending and future Invoke calls fail
// with ErrClosed. Registered sources are not closed.
func (l *Loop) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.doneOnce.Do(func() { close(l.done) })
	l.sources = map[int]*Source{}
	l.pending = nil
	l.mu.Unlock()

	_ = l.wake()
	err := unix.Close(l.epfd)
	if cerr := unix.Close(l.wakefd); err == nil {
		err = cerr
	}
	return err
}
