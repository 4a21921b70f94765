//go:build !linux

package loop

import "context"

// Loop is unavailable on this platform.
type Loop struct{}

// New always fails on this platform.
func New() (*Loop, error) { return nil, ErrUnsupported }

// AddSource always fails on this platform.
func (l *Loop) AddSource(*Source) error { return ErrUnsupported }

// RemoveSource always fails on this platform.
func (l *Loop) RemoveSource(*Source) error { return ErrUnsupported }

// Invoke always fails on this platform.
func (l *Loop) Invoke(context.Context, func()) error { return ErrUnsupported }

// Run always fails on this platform.
func (l *Loop) Run(context.Context) error { return ErrUnsupported }

// Close does nothing.
func (l *Loop) Close() error { return nil }
