package domain

import "time"

// Clock supplies wall-clock time
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns T. Tests move it by assigning T.
type FixedClock struct {
	T time.Time
}

// Now returns the fixed time
func (c *FixedClock) Now() time.Time { return c.T }
