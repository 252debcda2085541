package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Dispatcher fans events out to notifiers in the background. Dispatch never
// blocks on delivery and failures are only logged.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	log       *zap.Logger
	wg        sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. Each delivery is bounded by timeout.
func NewDispatcher(log *zap.Logger, timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		notifiers: notifiers,
		timeout:   timeout,
		log:       log,
	}
}

// Dispatch starts delivery of ev to every notifier and returns immediately.
func (d *Dispatcher) Dispatch(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}
	for _, n := range d.notifiers {
		d.wg.Add(1)
		go d.deliver(n, ev)
	}
}

func (d *Dispatcher) deliver(n Notifier, ev Event) {
	defer d.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			d.log.Warn("notifier panicked",
				zap.String("event", ev.Name),
				zap.String("session_id", ev.SessionID),
				zap.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	if err := n.Notify(ctx, ev); err != nil {
		d.log.Warn("notification failed",
			zap.String("event", ev.Name),
			zap.String("session_id", ev.SessionID),
			zap.Error(err),
		)
	}
}

// Wait blocks until all in-flight deliveries have finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
