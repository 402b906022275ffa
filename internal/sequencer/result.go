// internal/sequencer/result.go
package sequencer

import "fmt"

// Result is the outcome of one production test run.
// Values are published verbatim on the status block and MUST NOT be renumbered.
type Result uint16

const (
	Pass             Result = 0
	FailSafetyOpen   Result = 1  // lid interlock open
	FailStuckOn      Result = 2  // load energised before the test
	FailNoLatch      Result = 3  // load did not turn on after latch
	FailStuckLatched Result = 4  // load did not turn off after unlatch
	FailSWDError     Result = 5  // unclassified protocol failure
	FailTimeout      Result = 6  // run deadline expired
	FailIncomplete   Result = 7  // reserved: previous run interrupted by power loss
	FailNoTarget     Result = 8  // no valid ack: empty socket or dead target
	FailWrongIDCode  Result = 9  // bus healthy, wrong part
	FailBusError     Result = 10 // WAIT, FAULT, parity or timeout on the wire
)

var resultNames = map[Result]string{
	Pass:             "PASS",
	FailSafetyOpen:   "FAIL_SAFETY_OPEN",
	FailStuckOn:      "FAIL_STUCK_ON",
	FailNoLatch:      "FAIL_NO_LATCH",
	FailStuckLatched: "FAIL_STUCK_LATCHED",
	FailSWDError:     "FAIL_SWD_ERROR",
	FailTimeout:      "FAIL_TIMEOUT",
	FailIncomplete:   "FAIL_INCOMPLETE",
	FailNoTarget:     "FAIL_NO_TARGET",
	FailWrongIDCode:  "FAIL_WRONG_IDCODE",
	FailBusError:     "FAIL_BUS_ERROR",
}

func (r Result) String() string {
	if s, ok := resultNames[r]; ok {
		return s
	}
	return fmt.Sprintf("FAIL_UNKNOWN(%d)", uint16(r))
}

// Passed reports r == Pass.
func (r Result) Passed() bool { return r == Pass }

// Step identifies a point in the test sequence.
type Step uint8

const (
	StepNone Step = iota
	StepLidCheck
	StepPreCheck
	StepLatch
	StepVerifyOn
	StepUnlatch
	StepVerifyOff
	StepFinalLid
	StepSWDVerify
	StepDebugProbe
	StepDone
)

var stepNames = [...]string{
	StepNone:       "none",
	StepLidCheck:   "lid_check",
	StepPreCheck:   "pre_check",
	StepLatch:      "latch",
	StepVerifyOn:   "verify_on",
	StepUnlatch:    "unlatch",
	StepVerifyOff:  "verify_off",
	StepFinalLid:   "final_lid",
	StepSWDVerify:  "swd_verify",
	StepDebugProbe: "debug_probe",
	StepDone:       "done",
}

func (s Step) String() string {
	if int(s) < len(stepNames) {
		return stepNames[s]
	}
	return fmt.Sprintf("step(%d)", uint8(s))
}
