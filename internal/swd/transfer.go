// internal/swd/transfer.go
package swd

import "log/slog"

// Transfer performs one complete SWD exchange.
//
// For writes, data is sent after an OK ack. For reads, the returned word is
// valid only when the status is OK.
//
// Policy, all inside this call:
//   - WAIT: idle padding, back-off, retry the whole exchange; bounded by
//     Config.WaitRetries and by one Config.WaitTimeout deadline.
//   - FAULT: one raw ABORT write clearing every sticky flag, then Fault.
//   - anything else: line reset and idle to resynchronise, then Error. Never retried here.
func (e *Engine) Transfer(req Request, data uint32) (uint32, Status) {
	deadline := e.clk.Now().Add(e.cfg.WaitTimeout)

	for retry := 0; retry < e.cfg.WaitRetries; retry++ {
		ack := e.header(req)

		switch ack {
		case ackOK:
			if req.Read {
				return e.readData(req)
			}
			e.writeData(data)
			e.debug("write ok", slog.String("req", req.String()), hex32("data", data))
			return 0, OK

		case ackWait:
			e.debug("ack wait", slog.String("req", req.String()), slog.Int("retry", retry+1))
			e.Idle(e.cfg.IdleCycles)
			e.clk.Sleep(e.cfg.WaitBackoff)
			if e.clk.Now().After(deadline) {
				e.debug("wait deadline expired", slog.Duration("timeout", e.cfg.WaitTimeout))
				return 0, Timeout
			}

		case ackFault:
			e.debug("ack fault, clearing sticky errors", slog.String("req", req.String()))
			e.Idle(e.cfg.IdleCycles)
			e.writeRaw(dpWrite(ABORT), AbortClearAll)
			return 0, Fault

		default:
			e.debug("protocol error, line reset", slog.String("req", req.String()), slog.Int("ack", int(ack)))
			e.Idle(e.cfg.IdleCycles)
			e.LineReset()
			e.Idle(e.cfg.IdleCycles)
			return 0, Error
		}
	}

	e.debug("wait retries exhausted", slog.Int("retries", e.cfg.WaitRetries))
	return 0, Wait
}

// header sends the request byte, turns the line around and returns the 3-bit ack.
func (e *Engine) header(req Request) uint8 {
	e.port.HostDrive(true)
	e.writeBits(uint32(req.Byte()), 8)
	e.turnToTarget()
	return uint8(e.readBits(3))
}

func (e *Engine) readData(req Request) (uint32, Status) {
	v := e.readBits(32)
	par := b2u8(e.readBit())

	// turnaround back to host folds into the first idle cycle
	e.Idle(e.cfg.IdleCycles)

	if par != Parity32(v) {
		e.debug("parity error", slog.String("req", req.String()), hex32("data", v))
		return 0, ParityError
	}
	e.debug("read ok", slog.String("req", req.String()), hex32("data", v))
	return v, OK
}

func (e *Engine) writeData(v uint32) {
	e.turnToHost()
	e.writeBits(v, 32)
	e.writeBit(Parity32(v) == 1)
	e.Idle(e.cfg.IdleCycles)
}

// writeRaw writes one register with no retry and no classification.
// The ack is sampled and returned but never acted on, so the FAULT handler
// inside Transfer can use it without re-entering Transfer.
func (e *Engine) writeRaw(req Request, v uint32) uint8 {
	ack := e.header(req)
	e.writeData(v)
	return ack
}
