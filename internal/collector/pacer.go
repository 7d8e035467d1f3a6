package collector

import (
	"context"
	"time"
)

// Pacer spaces replayed samples at interval/speedup so that a simulated
// session runs at the recorded cadence, or faster.
type Pacer struct {
	period time.Duration
	next   time.Time
	now    func() time.Time
}

// NewPacer returns a pacer for interval seconds sped up by speedup.
func NewPacer(interval int, speedup float64) *Pacer {
	if speedup <= 0 {
		speedup = 1
	}
	return &Pacer{
		period: time.Duration(float64(interval) * float64(time.Second) / speedup),
		now:    time.Now,
	}
}

// Period is the wall time between consecutive samples.
func (p *Pacer) Period() time.Duration {
	return p.period
}

// Wait blocks until the next sample is due. The first sample is due one
// period after the first call.
func (p *Pacer) Wait(ctx context.Context) error {
	now := p.now()
	if p.next.IsZero() {
		p.next = now.Add(p.period)
	}

	if d := p.next.Sub(now); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	p.next = p.next.Add(p.period)
	// A consumer that fell behind does not get a burst of catch-up samples.
	if now := p.now(); p.next.Before(now) {
		p.next = now.Add(p.period)
	}
	return nil
}
