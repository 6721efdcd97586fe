package framework

import (
	"context"
	"time"

	"github.com/golang/glog"
)

// Loop runs controllers at a fixed interval. It is the control-context
// counterpart of the motor cadence loop: controller errors are logged
// and never stop the loop.
type Loop struct {
	Interval time.Duration

	controllers []Controller
	wakeUpCh    chan struct{}
}

// NewLoop creates a Loop with the given iteration interval.
func NewLoop(interval time.Duration) *Loop {
	return &Loop{
		Interval: interval,
		wakeUpCh: make(chan struct{}, 1),
	}
}

// Add registers controllers, run in registration order each iteration.
func (l *Loop) Add(ctls ...Controller) *Loop {
	l.controllers = append(l.controllers, ctls...)
	return l
}

// TriggerNext schedules an extra iteration immediately.
func (l *Loop) TriggerNext() {
	select {
	case l.wakeUpCh <- struct{}{}:
	default:
	}
}

// Run implements Runnable.
func (l *Loop) Run(ctx context.Context) error {
	interval := l.Interval
	if interval == 0 {
		interval = 100 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			l.runIteration(ctx, now)
		case <-l.wakeUpCh:
			l.runIteration(ctx, time.Now())
		}
	}
}

func (l *Loop) runIteration(ctx context.Context, now time.Time) {
	for _, ctl := range l.controllers {
		if err := ctl.Control(ctx, now); err != nil {
			glog.Errorf("controller error: %v", err)
		}
	}
}
