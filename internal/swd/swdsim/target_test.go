// internal/swd/swdsim/target_test.go
package swdsim

import "testing"

// minimal host: just enough framing to poke the target directly

func clockOut(t *Target, bit bool) {
	t.HostDrive(true)
	t.SetData(bit)
	t.SetClock(true)
	t.SetClock(false)
}

func clockIn(t *Target) bool {
	t.HostDrive(false)
	t.SetClock(true)
	b := t.Data()
	t.SetClock(false)
	return b
}

func lineReset(t *Target) {
	for i := 0; i < 56; i++ {
		clockOut(t, true)
	}
}

func connect(t *Target) {
	lineReset(t)
	for i := 0; i < 16; i++ {
		clockOut(t, selectSequence>>i&1 != 0)
	}
	lineReset(t)
	clockOut(t, false)
	clockOut(t, false)
}

func readDPIDR(t *Target) (ack uint8, v uint32) {
	const req = 0xA5
	for i := 0; i < 8; i++ {
		clockOut(t, req>>i&1 != 0)
	}
	clockIn(t) // turnaround
	for i := 0; i < 3; i++ {
		if clockIn(t) {
			ack |= 1 << i
		}
	}
	if ack != ackOK {
		return ack, 0
	}
	for i := 0; i < 32; i++ {
		if clockIn(t) {
			v |= 1 << i
		}
	}
	clockIn(t) // parity
	clockOut(t, false)
	clockOut(t, false)
	return ack, v
}

func TestTarget_SelectSequence(t *testing.T) {
	tgt := New(0x0BC11477)

	connect(tgt)

	if !tgt.InSWD() {
		t.Fatalf("select sequence not recognised")
	}
	if tgt.Stats().Selects != 1 {
		t.Fatalf("selects=%d", tgt.Stats().Selects)
	}
}

func TestTarget_IgnoresRequestsBeforeSelect(t *testing.T) {
	tgt := New(0x0BC11477)

	lineReset(tgt)
	clockOut(tgt, false)
	clockOut(tgt, false)

	ack, _ := readDPIDR(tgt)
	if ack != 0b111 {
		t.Fatalf("expected no answer before select, ack=%03b", ack)
	}
}

func TestTarget_ReadDPIDR(t *testing.T) {
	tgt := New(0x0BC11477)
	connect(tgt)

	ack, v := readDPIDR(tgt)
	if ack != ackOK {
		t.Fatalf("ack=%03b", ack)
	}
	if v != 0x0BC11477 {
		t.Fatalf("idcode=0x%08X", v)
	}
	if tgt.Stats().Contention != 0 {
		t.Fatalf("contention=%d", tgt.Stats().Contention)
	}
}

func TestTarget_ResetDropsSWDMode(t *testing.T) {
	tgt := New(0x0BC11477)
	connect(tgt)

	tgt.SetReset(true)
	tgt.SetReset(false)

	if tgt.InSWD() {
		t.Fatalf("target still in SWD mode after nRST")
	}
	if tgt.Stats().Resets != 1 {
		t.Fatalf("resets=%d", tgt.Stats().Resets)
	}
}

func TestTarget_HeldInResetIsSilent(t *testing.T) {
	tgt := New(0x0BC11477)
	tgt.SetReset(true)

	connect(tgt)
	ack, _ := readDPIDR(tgt)
	if ack != 0b111 {
		t.Fatalf("target answered while held in reset: ack=%03b", ack)
	}
}

func TestParity(t *testing.T) {
	if parity(0) || !parity(1) || parity(3) || !parity(0x80000000) {
		t.Fatalf("parity mismatch")
	}
}
