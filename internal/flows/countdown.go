package flows

import (
	"sync"
	"time"
)

// Countdown gates a resend action behind a cooldown, decremented once per
// tick. Remaining hits zero, resend becomes possible again.
type Countdown struct {
	seconds  int
	interval time.Duration

	mu        sync.Mutex
	remaining int
	stop      chan struct{}
}

// NewCountdown creates a countdown of the given length. It does not start
// ticking until Start is called.
func NewCountdown(seconds int) *Countdown {
	return &Countdown{seconds: seconds, interval: time.Second}
}

// Start begins (or restarts) the countdown from its full length.
func (c *Countdown) Start() {
	c.mu.Lock()
	if c.stop != nil {
		close(c.stop)
	}
	c.stop = make(chan struct{})
	c.remaining = c.seconds
	stop := c.stop
	c.mu.Unlock()

	go c.run(stop)
}

func (c *Countdown) run(stop chan struct{}) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			if c.remaining > 0 {
				c.remaining--
			}
			done := c.remaining == 0
			c.mu.Unlock()
			if done {
				return
			}
		}
	}
}

// Remaining reports whole seconds left until resend is allowed.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// CanResend is true once the countdown has fully elapsed (or never started).
func (c *Countdown) CanResend() bool {
	return c.Remaining() == 0
}

// Stop halts ticking without resetting the remaining value.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}
