// Package ratelimit provides the proactive inter-request throttle used by
// the per-unit collection loops. The throttle exists to avoid triggering
// rate limits in the first place; reactive backoff after a throttling
// signal lives in pkg/retry.
package ratelimit

import (
	"context"
	"time"

	"igcollect/pkg/logger"
)

// Pacer applies a fixed delay after every unit plus a longer pause after
// every N units. Not safe for concurrent use; collection loops are
// strictly sequential.
type Pacer struct {
	// PerUnitDelay is applied after every unit
	PerUnitDelay time.Duration
	// PauseEvery triggers the longer pause after this many units (0 disables)
	PauseEvery int
	// Pause is the longer pause duration
	Pause time.Duration

	count  int
	logger logger.Logger
}

// NewPacer creates a pacer with the given profile
func NewPacer(perUnit time.Duration, pauseEvery int, pause time.Duration, log logger.Logger) *Pacer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pacer{
		PerUnitDelay: perUnit,
		PauseEvery:   pauseEvery,
		Pause:        pause,
		logger:       log,
	}
}

// Wait blocks for the pacing delay owed after one completed unit. Returns
// early with the context error on cancellation.
func (p *Pacer) Wait(ctx context.Context) error {
	p.count++

	delay := p.PerUnitDelay
	if p.PauseEvery > 0 && p.count%p.PauseEvery == 0 {
		p.logger.InfoWithFields("pacing pause", map[string]interface{}{
			"units":         p.count,
			"pause_seconds": p.Pause.Seconds(),
		})
		delay += p.Pause
	}

	return sleep(ctx, delay)
}

// Count returns the number of units waited on so far
func (p *Pacer) Count() int {
	return p.count
}

// Reset clears the unit counter
func (p *Pacer) Reset() {
	p.count = 0
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
