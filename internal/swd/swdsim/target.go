// internal/swd/swdsim/target.go
package swdsim

// Target is a wire-level simulated SWD target: a debug port with one MEM-AP
// in front of a word-addressed memory.
//
// It implements the engine's port interface directly, so the real host code
// clocks every bit through it. The target samples host bits on the rising
// clock edge and changes its own output on the rising edge of cycles it drives.
//
// Script fields (IDCode, Present, Waits, ...) are read while the clock runs
// and may be changed between operations. Target is not safe for concurrent use.
type Target struct {
	// ---- identity and presence ----

	IDCode uint32
	APIDR  uint32

	// Present=false models an empty socket: nothing ever drives SWDIO.
	Present bool

	// NoPowerAck makes CTRL/STAT never acknowledge a power-up request.
	NoPowerAck bool

	// ---- scripted misbehaviour, consumed one request at a time ----

	Waits         int  // next N requests answer WAIT
	AlwaysWait    bool // every request answers WAIT
	Faults        int  // next N requests answer FAULT and latch a sticky error
	Silent        int  // next N requests get no answer (target loses sync)
	CorruptParity int  // next N read data phases carry a wrong parity bit

	// Memory backs MEM-AP DRW accesses. Unmapped words read as zero.
	Memory map[uint32]uint32

	// ---- wire state ----

	clk         bool
	hostDriving bool
	hostLevel   bool
	inReset     bool

	driving bool
	out     bool

	state state
	ones  int

	shift uint64
	nbits int

	req    request
	ack    uint8
	rdata  uint32
	rpar   bool
	swd    bool // JTAG-to-SWD select seen since the last reset
	stuck  bool // sticky error latched
	ctrl   uint32
	sel    uint32
	posted uint32
	csw    uint32
	tar    uint32

	stats Stats
	log   []Txn
}

// Txn is one completed exchange as seen by the target.
type Txn struct {
	AP   bool
	Read bool
	Addr uint8
	Ack  uint8
	Data uint32
}

// Stats counts target-side events.
type Stats struct {
	Requests   int // valid request headers
	Aborts     int // ABORT writes, any ack
	Resets     int // nRST assertions
	Selects    int // JTAG-to-SWD sequences recognised
	Contention int // cycles where host and target both drove SWDIO
}

type request struct {
	ap   bool
	read bool
	addr uint8
}

type state uint8

const (
	stLost      state = iota // waiting for a line reset
	stReset                  // line reset seen, SWDIO still high
	stSelect                 // capturing the select sequence
	stIdle                   // between packets
	stRequest                // capturing request bits
	stTurnAck                // turnaround before ack
	stAck                    // driving ack
	stReadData               // driving 32 data bits + parity
	stTurnHost               // turnaround back to host
	stWriteData              // sampling 32 data bits + parity
)

const (
	ackOK    uint8 = 0b001
	ackWait  uint8 = 0b010
	ackFault uint8 = 0b100

	resetOnes      = 50
	selectSequence = 0xE79E

	// default AP identity: AHB-AP, ARM designer
	defaultAPIDR = 0x04770031

	dpidr    = 0x00
	ctrlstat = 0x04
	selectDP = 0x08
	rdbuff   = 0x0C

	cswReg = 0x00
	tarReg = 0x04
	drwReg = 0x0C
	idrReg = 0x0C

	stickyErr     = 1 << 5
	powerUpReq    = 1<<28 | 1<<30
	powerUpAck    = 1<<29 | 1<<31
	cdbgPwrUpAck  = 1 << 29
	abortStickies = 0x1E
	cswAddrIncSgl = 1 << 4
	cswAddrIncMsk = 3 << 4
)

// New returns a present, healthy target reporting idcode.
func New(idcode uint32) *Target {
	return &Target{
		IDCode:  idcode,
		APIDR:   defaultAPIDR,
		Present: true,
		Memory:  make(map[uint32]uint32),
	}
}

// ------------------------------------------------------------
// Port
// ------------------------------------------------------------

func (t *Target) SetClock(active bool) {
	rising := active && !t.clk
	t.clk = active
	if rising {
		t.edge()
	}
}

func (t *Target) SetData(high bool) { t.hostLevel = high }

func (t *Target) HostDrive(drive bool) { t.hostDriving = drive }

// Data returns the SWDIO level: the target's bit while it drives, the host's
// level while the host drives, otherwise the pull-up.
func (t *Target) Data() bool {
	if t.driving {
		return t.out
	}
	if t.hostDriving {
		return t.hostLevel
	}
	return true
}

func (t *Target) SetReset(asserted bool) {
	if asserted && !t.inReset {
		t.stats.Resets++
		t.powerOnReset()
	}
	t.inReset = asserted
}

// ------------------------------------------------------------
// inspection
// ------------------------------------------------------------

// Stats returns the event counters.
func (t *Target) Stats() Stats { return t.stats }

// Log returns every completed exchange in order.
func (t *Target) Log() []Txn { return append([]Txn(nil), t.log...) }

// ClearLog drops the exchange log.
func (t *Target) ClearLog() { t.log = nil }

// Sticky reports whether a sticky error is latched.
func (t *Target) Sticky() bool { return t.stuck }

// InSWD reports whether the target has accepted the select sequence.
func (t *Target) InSWD() bool { return t.swd }

func (t *Target) powerOnReset() {
	t.state = stLost
	t.ones = 0
	t.driving = false
	t.swd = false
	t.stuck = false
	t.ctrl = 0
	t.sel = 0
	t.posted = 0
	t.csw = 0
	t.tar = 0
}

// ------------------------------------------------------------
// wire state machine
// ------------------------------------------------------------

func (t *Target) sample() bool {
	if t.hostDriving {
		return t.hostLevel
	}
	return true
}

func (t *Target) drive(bit bool) {
	if t.hostDriving {
		t.stats.Contention++
	}
	t.driving = true
	t.out = bit
}

func (t *Target) edge() {
	t.driving = false
	if t.inReset || !t.Present {
		return
	}
	if t.state >= stTurnAck && t.state <= stTurnHost {
		t.ones = 0
	}

	switch t.state {
	case stTurnAck:
		t.state = stAck
		t.nbits = 0
		return

	case stAck:
		t.drive(t.ack>>t.nbits&1 != 0)
		t.nbits++
		if t.nbits < 3 {
			return
		}
		switch {
		case t.ack == ackOK && t.req.read:
			t.state = stReadData
			t.nbits = 0
		case t.ack == ackOK:
			t.state = stTurnHost
			t.nbits = -1 // write data follows the turnaround
		default:
			t.state = stTurnHost
		}
		return

	case stReadData:
		if t.nbits < 32 {
			t.drive(t.rdata>>t.nbits&1 != 0)
		} else {
			t.drive(t.rpar)
		}
		t.nbits++
		if t.nbits == 33 {
			t.state = stTurnHost
		}
		return

	case stTurnHost:
		if t.nbits == -1 {
			t.state = stWriteData
			t.nbits = 0
			t.shift = 0
		} else {
			t.state = stIdle
		}
		return
	}

	// host-driven cycles
	bit := t.sample()
	if bit {
		t.ones++
	} else {
		t.ones = 0
	}

	if t.ones >= resetOnes {
		t.state = stReset
		return
	}

	switch t.state {
	case stLost:

	case stReset:
		if bit {
			return
		}
		if t.swd {
			t.state = stIdle
			return
		}
		t.state = stSelect
		t.shift = 0
		t.nbits = 1

	case stSelect:
		if bit {
			t.shift |= 1 << t.nbits
		}
		t.nbits++
		if t.nbits == 16 {
			if t.shift == selectSequence {
				t.swd = true
				t.stats.Selects++
			}
			t.state = stLost
		}

	case stIdle:
		if bit {
			t.state = stRequest
			t.shift = 1
			t.nbits = 1
		}

	case stRequest:
		if bit {
			t.shift |= 1 << t.nbits
		}
		t.nbits++
		if t.nbits == 8 {
			t.header(uint8(t.shift))
		}

	case stWriteData:
		if t.nbits < 32 {
			if bit {
				t.shift |= 1 << t.nbits
			}
			t.nbits++
			return
		}
		v := uint32(t.shift)
		if parity(v) == bit {
			t.write(v)
		}
		t.log = append(t.log, Txn{AP: t.req.ap, Addr: t.req.addr, Ack: ackOK, Data: v})
		t.state = stIdle
		t.ones = 0
	}
}

// header validates a request byte and decides the ack.
func (t *Target) header(b uint8) {
	start, ap, rd := b&1, b>>1&1, b>>2&1
	a2, a3, par, stop, park := b>>3&1, b>>4&1, b>>5&1, b>>6&1, b>>7&1

	if start != 1 || stop != 0 || park != 1 || par != ap^rd^a2^a3 || !t.swd {
		t.state = stLost
		return
	}

	t.req = request{ap: ap == 1, read: rd == 1, addr: a2<<2 | a3<<3}
	t.stats.Requests++

	isAbort := !t.req.ap && !t.req.read && t.req.addr == dpidr
	if isAbort {
		t.stats.Aborts++
	}

	switch {
	case t.Silent > 0 && !isAbort:
		t.Silent--
		t.state = stLost
		return
	case (t.AlwaysWait || t.Waits > 0) && !isAbort:
		if t.Waits > 0 {
			t.Waits--
		}
		t.ack = ackWait
	case t.Faults > 0 && !isAbort:
		t.Faults--
		t.stuck = true
		t.ack = ackFault
	case t.stuck && !t.exempt():
		t.ack = ackFault
	case t.req.ap && t.ctrl&cdbgPwrUpAck == 0:
		t.stuck = true
		t.ack = ackFault
	default:
		t.ack = ackOK
	}

	if t.ack != ackOK {
		t.log = append(t.log, Txn{AP: t.req.ap, Read: t.req.read, Addr: t.req.addr, Ack: t.ack})
	} else if t.req.read {
		t.rdata = t.read()
		t.rpar = parity(t.rdata)
		if t.CorruptParity > 0 {
			t.CorruptParity--
			t.rpar = !t.rpar
		}
		t.log = append(t.log, Txn{AP: t.req.ap, Read: true, Addr: t.req.addr, Ack: ackOK, Data: t.rdata})
	}

	t.state = stTurnAck
}

// exempt lists the accesses a DP answers even with a sticky error latched.
func (t *Target) exempt() bool {
	if t.req.ap {
		return false
	}
	if t.req.read {
		return t.req.addr == dpidr || t.req.addr == ctrlstat
	}
	return t.req.addr == dpidr // ABORT
}

// ------------------------------------------------------------
// register model
// ------------------------------------------------------------

func (t *Target) read() uint32 {
	if !t.req.ap {
		switch t.req.addr {
		case dpidr:
			return t.IDCode
		case ctrlstat:
			v := t.ctrl
			if t.stuck {
				v |= stickyErr
			}
			return v
		case selectDP:
			return 0
		case rdbuff:
			return t.posted
		}
		return 0
	}

	// AP reads are posted: return the previous result, latch this one.
	prev := t.posted
	t.posted = t.apRead(t.req.addr)
	return prev
}

func (t *Target) apRead(addr uint8) uint32 {
	bank := t.sel >> 4 & 0xF
	if bank == 0xF {
		if addr == idrReg {
			return t.APIDR
		}
		return 0
	}
	if bank != 0 {
		return 0
	}
	switch addr {
	case cswReg:
		return t.csw
	case tarReg:
		return t.tar
	case drwReg:
		v := t.Memory[t.tar]
		t.advance()
		return v
	}
	return 0
}

func (t *Target) write(v uint32) {
	if !t.req.ap {
		switch t.req.addr {
		case dpidr: // ABORT
			if v&abortStickies != 0 {
				t.stuck = false
			}
		case ctrlstat:
			t.ctrl = v &^ powerUpAck
			if v&powerUpReq == powerUpReq && !t.NoPowerAck {
				t.ctrl |= powerUpAck
			}
		case selectDP:
			t.sel = v
		}
		return
	}

	if t.sel>>4&0xF != 0 {
		return
	}
	switch t.req.addr {
	case cswReg:
		t.csw = v
	case tarReg:
		t.tar = v
	case drwReg:
		t.Memory[t.tar] = v
		t.advance()
	}
}

func (t *Target) advance() {
	if t.csw&cswAddrIncMsk == cswAddrIncSgl {
		t.tar += 4
	}
}

func parity(v uint32) bool {
	v ^= v >> 16
	v ^= v >> 8
	v ^= v >> 4
	v ^= v >> 2
	v ^= v >> 1
	return v&1 != 0
}
