package application

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer is a serial task throttle: the first Wait returns immediately, every
// later Wait blocks until the configured interval has passed since the
// previous one. It makes "why serial, why delayed" an explicit policy instead
// of sleeps scattered through loop bodies.
type Pacer struct {
	lim *rate.Limiter
}

// NewPacer builds a pacer with a fixed inter-task interval. A non-positive
// interval disables throttling.
func NewPacer(interval time.Duration) *Pacer {
	if interval <= 0 {
		return &Pacer{}
	}
	return &Pacer{lim: rate.NewLimiter(rate.Every(interval), 1)}
}

// Wait blocks until the next task may start, respecting the context.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil || p.lim == nil {
		return ctx.Err()
	}
	return p.lim.Wait(ctx)
}
