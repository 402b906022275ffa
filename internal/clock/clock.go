// internal/clock/clock.go
package clock

import "time"

// Clock is the time source used by every bounded wait in the fixture.
// Deadlines are computed from Now; Sleep is the only suspension point.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time        { return time.Now() }
func (Real) Sleep(d time.Duration) { time.Sleep(d) }

// Spin busy-waits for d on the wall clock.
// Used for bit-pulse delays: too short for the scheduler, never a cancellation point.
func Spin(d time.Duration) {
	if d <= 0 {
		return
	}
	end := time.Now().Add(d)
	for time.Now().Before(end) {
	}
}
