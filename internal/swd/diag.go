// internal/swd/diag.go
package swd

import "log/slog"

// VerifyResult is the outcome of VerifyTarget.
type VerifyResult struct {
	Status   Status // status of the last attempt
	IDCode   uint32 // DPIDR of the last attempt; meaningful only when Status is OK
	Attempts int    // attempts made, 1..Config.VerifyAttempts

	// BusHealthy reports that the last exchange completed cleanly.
	// True with a mismatching IDCode means the bus works but the part is wrong.
	BusHealthy bool
}

// Passed reports an OK exchange with the expected identity.
func (r VerifyResult) Passed(expected uint32) bool {
	return r.Status == OK && r.IDCode == expected
}

// IntegrityFailure records one failed integrity iteration.
type IntegrityFailure struct {
	Iteration int
	Status    Status
	IDCode    uint32
}

// IntegrityResult summarises IntegrityTest.
type IntegrityResult struct {
	Iterations int
	Passes     int
	Fails      int

	// Failures holds the first few failures for diagnostics.
	Failures []IntegrityFailure
}

const maxIntegrityFailures = 3

// ResetTarget pulses nRST and waits for the target to come out of reset.
func (e *Engine) ResetTarget() {
	e.debug("reset target", slog.Duration("assert", e.cfg.ResetAssert))
	e.port.SetReset(true)
	e.clk.Sleep(e.cfg.ResetAssert)
	e.port.SetReset(false)
	e.clk.Sleep(e.cfg.ResetSettle)
}

// ReadIDCode reconnects and reads DPIDR without a target reset.
func (e *Engine) ReadIDCode() (uint32, Status) {
	e.Connect()
	return e.ReadDP(DPIDR)
}

// IntegrityTest resets the target once and reads the identity iterations
// times. It reports OK only when every read returned the expected IDCODE.
func (e *Engine) IntegrityTest(iterations int) (IntegrityResult, Status) {
	res := IntegrityResult{Iterations: iterations}

	e.ResetTarget()

	for i := 0; i < iterations; i++ {
		id, st := e.ReadIDCode()
		if st == OK && id == e.cfg.ExpectedIDCode {
			res.Passes++
			continue
		}

		res.Fails++
		if len(res.Failures) < maxIntegrityFailures {
			res.Failures = append(res.Failures, IntegrityFailure{Iteration: i, Status: st, IDCode: id})
			e.info("integrity iteration failed",
				slog.Int("iteration", i),
				slog.String("status", st.String()),
				hex32("idcode", id),
			)
		}
	}

	e.info("integrity test",
		slog.Int("passed", res.Passes),
		slog.Int("iterations", iterations),
	)

	if res.Fails > 0 {
		return res, Error
	}
	return res, OK
}

// VerifyTarget proves the target is alive and correctly provisioned.
//
// Each attempt resets the target, reconnects and reads DPIDR. A FAULT is
// followed by AbortRecovery before the next attempt. Attempts are separated
// by Config.RetryDelay.
func (e *Engine) VerifyTarget() VerifyResult {
	var res VerifyResult

	for attempt := 1; attempt <= e.cfg.VerifyAttempts; attempt++ {
		res.Attempts = attempt

		e.ResetTarget()
		id, st := e.ReadIDCode()
		res.Status = st
		res.IDCode = id

		if st == OK && id == e.cfg.ExpectedIDCode {
			e.info("idcode ok", hex32("idcode", id), slog.Int("attempt", attempt))
			break
		}

		if attempt == e.cfg.VerifyAttempts {
			break
		}

		e.info("verify attempt failed",
			slog.Int("attempt", attempt),
			slog.String("status", st.String()),
			hex32("idcode", id),
		)
		if st == Fault {
			e.AbortRecovery()
		}
		e.clk.Sleep(e.cfg.RetryDelay)
	}

	res.BusHealthy = res.Status == OK

	if res.Status == OK && res.IDCode != e.cfg.ExpectedIDCode {
		e.info("wrong idcode", hex32("got", res.IDCode), hex32("expected", e.cfg.ExpectedIDCode))
	} else if res.Status != OK {
		e.info("verify failed", slog.Int("attempts", res.Attempts), slog.String("status", res.Status.String()))
	}
	return res
}

// AbortRecovery clears every sticky error flag with a raw ABORT write and
// resynchronises the line. It never retries.
func (e *Engine) AbortRecovery() Status {
	ack := e.writeRaw(dpWrite(ABORT), AbortClearAll)
	e.LineReset()
	e.Idle(e.cfg.IdleCycles)
	e.debug("abort recovery", slog.String("ack", statusForAck(ack).String()))
	return statusForAck(ack)
}

// SafeState parks the lines: clock idle, data released, reset deasserted.
func (e *Engine) SafeState() {
	e.port.SetClock(false)
	e.port.HostDrive(false)
	e.port.SetReset(false)
}
