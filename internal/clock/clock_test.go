package clock

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SeedsCurrentHour(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 3, 1, 17, 45, 0, 0, time.UTC) }

	c := newClock(time.Hour, now, zerolog.Nop())
	assert.Equal(t, 17, c.Hour())
}

func TestNew_DefaultInterval(t *testing.T) {
	c := New(0, zerolog.Nop())
	assert.Equal(t, DefaultTickInterval, c.interval)
	assert.GreaterOrEqual(t, c.Hour(), 0)
	assert.Less(t, c.Hour(), 24)
}

func TestRun_TracksHourChanges(t *testing.T) {
	var hour atomic.Int32
	hour.Store(4)
	now := func() time.Time {
		return time.Date(2024, 3, 1, int(hour.Load()), 0, 0, 0, time.UTC)
	}

	c := newClock(time.Millisecond, now, zerolog.Nop())
	require.Equal(t, 4, c.Hour())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	hour.Store(5)
	assert.Eventually(t, func() bool { return c.Hour() == 5 }, time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
