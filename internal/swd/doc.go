// Package swd implements a bit-banged ARM Serial Wire Debug host.
//
// # Layers
//
// The package is built bottom-up:
//
//	Port         wire capability: clock, data, direction, reset (see internal/hw)
//	bits         one clock pulse while driving or sampling one data bit
//	line         line reset, JTAG-to-SWD select sequence, idle padding
//	Transfer     request / turnaround / ack / data / parity, WAIT-FAULT-desync policy
//	registers    DP and AP register access, posted AP reads, debug power-up
//	memory       MEM-AP single word and auto-increment block transfers
//	diag         IDCODE readout, integrity probe, verify with retries
//
// # Status, not errors
//
// Every operation returns a Status describing the wire exchange. Status values
// are data: the engine never panics and never returns a Go error. Callers
// above (the test sequencer) turn a Status into a failure classification.
//
// # Timing
//
// Bit timing uses busy-wait half periods (Config.HalfPeriod). Millisecond
// waits (WAIT back-off, reset pulses, retry delays) go through the injected
// clock.Clock so tests run instantly. Every wait loop carries its own
// deadline.
//
// # Concurrency
//
// An Engine owns its Port. It is not safe for concurrent use; exactly one
// flow may drive the lines at a time.
package swd
