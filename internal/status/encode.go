// internal/status/encode.go
package status

// Encode converts a Snapshot into the live slots of a status block.
// Name slots are left zero; the writer owns them.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerDevice)

	regs[SlotResult] = s.Result
	regs[SlotSWDStatus] = s.SWDStatus
	regs[SlotAttempts] = s.Attempts
	regs[SlotIDCodeHi], regs[SlotIDCodeLo] = Split32(s.IDCode)
	regs[SlotDurationHi], regs[SlotDurationLo] = Split32(s.DurationMs)
	regs[SlotUnitHi], regs[SlotUnitLo] = Split32(s.Unit)
	regs[SlotSessionHi], regs[SlotSessionLo] = Split32(s.Session)
	regs[SlotHeartbeat] = s.Heartbeat

	return regs
}

// Split32 returns the big-endian register pair for v.
func Split32(v uint32) (hi, lo uint16) {
	return uint16(v >> 16), uint16(v)
}

// EncodeName packs up to 16 ASCII characters into 8 registers.
// Each register stores two ASCII bytes in big-endian order.
func EncodeName(name string) []uint16 {
	out := make([]uint16, SlotDeviceNameSlots)

	b := []byte(name)
	if len(b) > DeviceNameMaxChars {
		b = b[:DeviceNameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < DeviceNameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
