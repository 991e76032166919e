package frame

import "time"

// TimeSource reports the seconds elapsed since its previous sample.
// The orchestrator samples it once per tick.
type TimeSource interface {
	Elapsed() float64
}

// SystemClock measures wall time with the monotonic clock
type SystemClock struct {
	last time.Time
	now  func() time.Time
}

// NewSystemClock creates a clock whose first sample measures from now
func NewSystemClock() *SystemClock {
	return &SystemClock{last: time.Now(), now: time.Now}
}

func (c *SystemClock) Elapsed() float64 {
	t := c.now()
	dt := t.Sub(c.last).Seconds()
	c.last = t
	return dt
}

// FixedClock advances by the same step every sample, for tests and
// offline renders that must not depend on wall time
type FixedClock struct {
	Step float64
}

func (c FixedClock) Elapsed() float64 {
	return c.Step
}
