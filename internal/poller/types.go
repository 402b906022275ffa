// internal/poller/types.go
package poller

import "time"

// ReadBlock describes one Modbus bit read geometry.
// Geometry only: no semantics.
type ReadBlock struct {
	FC       uint8 // 1 coils, 2 discrete inputs
	Address  uint16
	Quantity uint16
}

// BlockResult is the raw result of a single read.
type BlockResult struct {
	FC       uint8
	Address  uint16
	Quantity uint16
	Bits     []bool
}

// PollResult is a snapshot produced by one poll cycle.
type PollResult struct {
	Name string
	At   time.Time

	Blocks []BlockResult
	Err    error // non-nil means the poll cycle failed
}

// Bit returns the value read at addr for function code fc.
// ok is false when the cycle failed or did not cover addr.
func (r PollResult) Bit(fc uint8, addr uint16) (v, ok bool) {
	if r.Err != nil {
		return false, false
	}
	for _, b := range r.Blocks {
		if b.FC != fc || addr < b.Address {
			continue
		}
		i := int(addr - b.Address)
		if i < len(b.Bits) {
			return b.Bits[i], true
		}
	}
	return false, false
}
