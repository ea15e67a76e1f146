package worker

import (
	"context"
	"time"
)

// Worker long-running unit driven by the worker command
type Worker interface {
	Run(ctx context.Context) error
}

// TickWorker repeats onTick until the context ends, backing off after a
// failed tick
type TickWorker struct {
	Delay    time.Duration
	ErrDelay time.Duration
}

func (w *TickWorker) StartTick(ctx context.Context, onTick func(ctx context.Context) error) error {
	delay := w.Delay
	if delay <= 0 {
		delay = time.Second
	}

	errDelay := w.ErrDelay
	if errDelay <= 0 {
		errDelay = 5 * time.Second
	}

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			if err := onTick(ctx); err != nil {
				timer.Reset(errDelay)
			} else {
				timer.Reset(delay)
			}
		}
	}
}
