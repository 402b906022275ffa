// internal/swd/memory.go
package swd

import "log/slog"

// ---- MEM-AP ----
//
// AP 0 bank 0 must be selected (the state PowerUpDebug leaves behind).

const (
	cswSingle = CSWSize32 | CSWAddrIncOff | CSWDbgStatus
	cswBlock  = CSWSize32 | CSWAddrIncSgl | CSWDbgStatus
)

// MemRead32 reads one 32-bit word from target memory.
func (e *Engine) MemRead32(addr uint32) (uint32, Status) {
	if st := e.WriteAP(CSW, cswSingle); st != OK {
		return 0, st
	}
	if st := e.WriteAP(TAR, addr); st != OK {
		return 0, st
	}
	return e.ReadAP(DRW)
}

// MemWrite32 writes one 32-bit word to target memory.
func (e *Engine) MemWrite32(addr, v uint32) Status {
	if st := e.WriteAP(CSW, cswSingle); st != OK {
		return st
	}
	if st := e.WriteAP(TAR, addr); st != OK {
		return st
	}
	return e.WriteAP(DRW, v)
}

// MemReadBlock reads n consecutive words starting at addr using TAR
// auto-increment.
//
// The first DRW read only primes the pipeline. Each following DRW read
// returns the previous word and the last word comes from RDBUFF, so the
// block costs exactly n+1 register reads. n == 0 touches nothing.
//
// TAR auto-increment is only guaranteed inside a 1 KiB boundary; callers
// crossing one must split the block.
func (e *Engine) MemReadBlock(addr uint32, n int) ([]uint32, Status) {
	if n <= 0 {
		return nil, OK
	}

	if st := e.WriteAP(CSW, cswBlock); st != OK {
		return nil, st
	}
	if st := e.WriteAP(TAR, addr); st != OK {
		return nil, st
	}

	if _, st := e.Transfer(apRead(DRW), 0); st != OK {
		return nil, st
	}

	words := make([]uint32, n)
	for i := 0; i < n-1; i++ {
		v, st := e.Transfer(apRead(DRW), 0)
		if st != OK {
			e.debug("block read stopped", slog.Int("word", i), slog.String("status", st.String()))
			return words[:i], st
		}
		words[i] = v
	}

	v, st := e.ReadDP(RDBUFF)
	if st != OK {
		return words[:n-1], st
	}
	words[n-1] = v
	return words, OK
}
