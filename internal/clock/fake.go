// internal/clock/fake.go
package clock

import (
	"sync"
	"time"
)

// Fake is a manual clock for tests.
// Sleep advances the clock instantly; OnSleep (optional) observes every advance.
type Fake struct {
	mu  sync.Mutex
	now time.Time

	// OnSleep is called after each Sleep with the new time.
	OnSleep func(now time.Time)
}

// NewFake returns a fake clock starting at a fixed instant.
func NewFake() *Fake {
	return &Fake{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) Sleep(d time.Duration) {
	f.Advance(d)
}

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	now := f.now
	cb := f.OnSleep
	f.mu.Unlock()

	if cb != nil {
		cb(now)
	}
}
