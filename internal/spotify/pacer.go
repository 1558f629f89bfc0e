package spotify

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer serializes outbound Spotify calls so that no two start closer
// together than the configured interval, across every caller sharing the
// instance. One Pacer is constructed in main and shared by all handlers.
type Pacer struct {
	lim *rate.Limiter
}

func NewPacer(minInterval time.Duration) *Pacer {
	if minInterval <= 0 {
		minInterval = 600 * time.Millisecond
	}
	return &Pacer{lim: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Do blocks until a slot is free, then runs task. Waiters are released in
// arrival order. A failing task does not block later callers.
func (p *Pacer) Do(ctx context.Context, task func() error) error {
	if err := p.lim.Wait(ctx); err != nil {
		return err
	}
	return task()
}
