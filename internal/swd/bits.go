// internal/swd/bits.go
package swd

import "github.com/tamzrod/swd-fixture/internal/clock"

// ---- low-level bit helpers ----
//
// The target samples SWDIO on the rising clock edge and changes its own
// output there too; the host samples while the clock is high.

func (e *Engine) delay() {
	clock.Spin(e.cfg.HalfPeriod)
}

// pulse clocks once without touching SWDIO.
func (e *Engine) pulse() {
	e.delay()
	e.port.SetClock(true)
	e.delay()
	e.port.SetClock(false)
}

func (e *Engine) writeBit(bit bool) {
	e.port.SetData(bit)
	e.delay()
	e.port.SetClock(true)
	e.delay()
	e.port.SetClock(false)
}

func (e *Engine) readBit() bool {
	e.delay()
	e.port.SetClock(true)
	e.delay()
	bit := e.port.Data()
	e.port.SetClock(false)
	return bit
}

func (e *Engine) writeBits(v uint32, n int) {
	for i := 0; i < n; i++ {
		e.writeBit((v>>i)&1 != 0)
	}
}

func (e *Engine) readBits(n int) uint32 {
	var v uint32
	for i := 0; i < n; i++ {
		if e.readBit() {
			v |= 1 << i
		}
	}
	return v
}

// turnToTarget releases SWDIO and clocks the turnaround cycle.
func (e *Engine) turnToTarget() {
	e.port.HostDrive(false)
	e.pulse()
}

// turnToHost takes SWDIO back and clocks the turnaround cycle with the line low.
func (e *Engine) turnToHost() {
	e.port.HostDrive(true)
	e.port.SetData(false)
	e.pulse()
}
