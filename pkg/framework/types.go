package framework

import (
	"context"
	"time"
)

// Named is an abstraction for things with a name.
type Named interface {
	Name() string
}

// Runnable defines a generic interface for background runners.
type Runnable interface {
	Run(context.Context) error
}

// RunFunc is the func form of Runnable.
type RunFunc func(context.Context) error

// Run implements Runnable.
func (f RunFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// Controller is one unit of control logic invoked every loop iteration.
type Controller interface {
	Control(ctx context.Context, now time.Time) error
}

// ControlFunc defines the func form of Controller.
type ControlFunc func(ctx context.Context, now time.Time) error

// Control implements Controller.
func (f ControlFunc) Control(ctx context.Context, now time.Time) error {
	return f(ctx, now)
}
