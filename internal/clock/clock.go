// Package clock keeps an approximately current hour of day in an atomic
// cell so the query path never has to ask the OS for the time.
package clock

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/23skdu/adfiller/internal/metrics"
	"github.com/rs/zerolog"
)

// DefaultTickInterval is how often the hour is resampled.
const DefaultTickInterval = 5 * time.Second

// Clock is a cached hour-of-day. Readers may observe a value up to one tick
// interval stale.
type Clock struct {
	hour     atomic.Int32
	interval time.Duration
	now      func() time.Time
	logger   zerolog.Logger
}

// New returns a Clock already holding the current local hour.
func New(interval time.Duration, logger zerolog.Logger) *Clock {
	return newClock(interval, time.Now, logger)
}

func newClock(interval time.Duration, now func() time.Time, logger zerolog.Logger) *Clock {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	c := &Clock{
		interval: interval,
		now:      now,
		logger:   logger.With().Str("component", "clock").Logger(),
	}
	c.sample()
	return c
}

// Hour returns the cached hour in [0, 24).
func (c *Clock) Hour() int {
	return int(c.hour.Load())
}

// Run resamples the hour every tick until ctx is cancelled.
func (c *Clock) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info().Dur("interval", c.interval).Msg("clock started")
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.sample()
		}
	}
}

func (c *Clock) sample() {
	h := int32(c.now().Hour())
	if prev := c.hour.Swap(h); prev != h {
		metrics.ClockHour.Set(float64(h))
		c.logger.Debug().Int32("hour", h).Msg("hour changed")
	}
}
