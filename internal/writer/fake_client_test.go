// internal/writer/fake_client_test.go
package writer

import "errors"

// ---- fake endpoint client ----

type writeCall struct {
	unitID uint8
	addr   uint16
	fc     uint8
	bits   []bool
	regs   []uint16
}

type fakeEndpointClient struct {
	writes []writeCall

	lastRegsAddr uint16
	lastRegs     []uint16

	failNext int // fail this many upcoming writes
}

var errFakeWrite = errors.New("fake write failure")

func (f *fakeEndpointClient) WriteCoils(unitID uint8, addr uint16, bits []bool) error {
	if f.failNext > 0 {
		f.failNext--
		return errFakeWrite
	}
	f.writes = append(f.writes, writeCall{
		unitID: unitID,
		addr:   addr,
		fc:     5,
		bits:   append([]bool(nil), bits...),
	})
	return nil
}

func (f *fakeEndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if f.failNext > 0 {
		f.failNext--
		return errFakeWrite
	}
	f.writes = append(f.writes, writeCall{
		unitID: unitID,
		addr:   addr,
		fc:     16,
		regs:   append([]uint16(nil), regs...),
	})
	f.lastRegsAddr = addr
	f.lastRegs = append([]uint16(nil), regs...)
	return nil
}
