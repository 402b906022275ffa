// internal/swd/line.go
package swd

import "log/slog"

// Idle clocks n cycles with the host driving SWDIO low.
func (e *Engine) Idle(n int) {
	e.port.HostDrive(true)
	e.port.SetData(false)
	for i := 0; i < n; i++ {
		e.pulse()
	}
}

// LineReset holds SWDIO high for Config.LineResetClocks clocks.
// The default (56) is deliberately above the protocol minimum of 50.
func (e *Engine) LineReset() {
	e.debug("line reset", slog.Int("clocks", e.cfg.LineResetClocks))
	e.port.HostDrive(true)
	e.port.SetData(true)
	for i := 0; i < e.cfg.LineResetClocks; i++ {
		e.pulse()
	}
}

// SelectSWD sends the 16-bit JTAG-to-SWD switch sequence, LSB first.
func (e *Engine) SelectSWD() {
	e.debug("jtag to swd", slog.String("sequence", "0xE79E"))
	e.port.HostDrive(true)
	e.writeBits(uint32(SelectSequence), 16)
}

// Connect brings a target in an unknown mode onto the SWD bus:
// line reset, select sequence, line reset, idle.
// At least two idle cycles must follow the last line reset before the first request.
func (e *Engine) Connect() {
	e.LineReset()
	e.SelectSWD()
	e.LineReset()
	e.Idle(max(e.cfg.IdleCycles, 2))
}
