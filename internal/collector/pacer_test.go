package collector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacerPeriod(t *testing.T) {
	cases := []struct {
		interval int
		speedup  float64
		want     time.Duration
	}{
		{1, 1, time.Second},
		{5, 10, 500 * time.Millisecond},
		{2, 0, 2 * time.Second},
		{3, 0.5, 6 * time.Second},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NewPacer(tc.interval, tc.speedup).Period(), "%d/%g", tc.interval, tc.speedup)
	}
}

func TestPacerSpacesWaits(t *testing.T) {
	p := NewPacer(1, 50) // 20ms
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, p.Wait(ctx))
	}
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestPacerNoCatchUpBurst(t *testing.T) {
	now := time.Unix(1000, 0)
	p := NewPacer(1, 1)
	p.now = func() time.Time { return now }

	// first call schedules one period ahead; move the clock past it
	p.next = now.Add(-10 * time.Second)
	require.NoError(t, p.Wait(context.Background()))
	assert.Equal(t, now.Add(time.Second), p.next)
}

func TestPacerCancel(t *testing.T) {
	p := NewPacer(60, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Wait(ctx), context.Canceled)
}
