// internal/sequencer/report.go
package sequencer

import (
	"time"

	"github.com/tamzrod/swd-fixture/internal/swd"
)

// Report is the outcome of one run, finalised once during cleanup.
type Report struct {
	Result     Result
	IDCode     uint32     // identity actually read; zero if the SWD step never ran
	Attempts   int        // verify attempts made
	LastStatus swd.Status // status of the last verify attempt; meaningful only when Attempts > 0
	Duration   time.Duration

	// Step is where the run ended: the failing step, or StepDone.
	Step Step
}

// DurationMs returns the duration in whole milliseconds.
func (r Report) DurationMs() uint32 {
	return uint32(r.Duration / time.Millisecond)
}
