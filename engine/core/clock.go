package core

import "time"

// TimeSource returns the current time. Tests swap it for a manual clock.
type TimeSource func() time.Time

// Clock measures wall time between two Record calls.
type Clock struct {
	now       TimeSource
	startTime time.Time
	started   bool
}

func NewClock() *Clock {
	return NewClockWithSource(time.Now)
}

func NewClockWithSource(source TimeSource) *Clock {
	if source == nil {
		source = time.Now
	}
	return &Clock{now: source}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = c.now()
	c.started = true
}

// Record marks the current time as the new reference point.
func (c *Clock) Record() {
	c.Start()
}

// Stops the provided clock. Does not reset the reference point.
func (c *Clock) Stop() {
	c.started = false
}

// Elapsed returns the seconds since the last Start/Record. Non-started clocks
// report zero.
func (c *Clock) Elapsed() float64 {
	if !c.started {
		return 0
	}
	return c.now().Sub(c.startTime).Seconds()
}

func (c *Clock) IsStarted() bool {
	return c.started
}
