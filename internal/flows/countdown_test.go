package flows

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastCountdown(seconds int) *Countdown {
	c := NewCountdown(seconds)
	c.interval = 2 * time.Millisecond
	return c
}

func TestCountdownUnstartedAllowsResend(t *testing.T) {
	c := NewCountdown(60)
	assert.True(t, c.CanResend())
	assert.Equal(t, 0, c.Remaining())
}

func TestCountdownBlocksUntilElapsed(t *testing.T) {
	c := fastCountdown(3)
	c.Start()
	assert.False(t, c.CanResend())

	require.Eventually(t, c.CanResend, time.Second, time.Millisecond)
	assert.Equal(t, 0, c.Remaining())
}

func TestCountdownRestartResetsRemaining(t *testing.T) {
	c := fastCountdown(50)
	c.Start()
	defer c.Stop()

	require.Eventually(t, func() bool { return c.Remaining() < 50 }, time.Second, time.Millisecond)

	c.Start()
	assert.False(t, c.CanResend())
	assert.Greater(t, c.Remaining(), 45)
}

func TestCountdownStopFreezesRemaining(t *testing.T) {
	c := fastCountdown(50)
	c.Start()
	c.Stop()

	frozen := c.Remaining()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, frozen, c.Remaining())
}
