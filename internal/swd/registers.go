// internal/swd/registers.go
package swd

// ReadDP reads one debug port register.
func (e *Engine) ReadDP(addr uint8) (uint32, Status) {
	return e.Transfer(dpRead(addr), 0)
}

// WriteDP writes one debug port register.
func (e *Engine) WriteDP(addr uint8, v uint32) Status {
	_, st := e.Transfer(dpWrite(addr), v)
	return st
}

// WriteAP writes one access port register in the currently selected bank.
func (e *Engine) WriteAP(addr uint8, v uint32) Status {
	_, st := e.Transfer(apWrite(addr), v)
	return st
}

// ReadAP reads one access port register.
//
// AP reads are posted: the data phase of an AP read returns the result of the
// previous AP read. ReadAP issues the AP read and then collects its value
// from RDBUFF, so callers see one synchronous read.
func (e *Engine) ReadAP(addr uint8) (uint32, Status) {
	if _, st := e.Transfer(apRead(addr), 0); st != OK {
		return 0, st
	}
	return e.ReadDP(RDBUFF)
}

// PowerUpDebug requests debug and system power domains and waits for both
// acknowledges, then identifies AP 0 through its IDR.
//
// The acknowledge poll is bounded by Config.PowerUpTimeout; expiry yields Timeout.
func (e *Engine) PowerUpDebug() Status {
	if st := e.WriteDP(CTRLSTAT, PowerUpReq); st != OK {
		return st
	}

	deadline := e.clk.Now().Add(e.cfg.PowerUpTimeout)
	for {
		v, st := e.ReadDP(CTRLSTAT)
		if st != OK {
			return st
		}
		if v&PowerUpAck == PowerUpAck {
			break
		}
		if e.clk.Now().After(deadline) {
			e.info("debug power-up not acknowledged", hex32("ctrlstat", v))
			return Timeout
		}
		e.clk.Sleep(e.cfg.WaitBackoff)
	}

	if st := e.WriteDP(SELECT, IDRBank); st != OK {
		return st
	}
	idr, st := e.ReadAP(IDR)
	if st != OK {
		return st
	}
	if idr != 0 {
		e.info("mem-ap found", hex32("idr", idr))
	} else {
		e.info("ap 0 reports no identity", hex32("idr", idr))
	}

	return e.WriteDP(SELECT, 0)
}
