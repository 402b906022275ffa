// internal/swd/constants.go
package swd

// Wire-level constants. These values are defined by the ARM Debug Interface
// and MUST NOT be configurable.

// ---- SEQUENCES ----

// SelectSequence is the JTAG-to-SWD switch pattern, sent LSB first.
const SelectSequence uint16 = 0xE79E

// MinLineResetClocks is the protocol minimum for a line reset.
const MinLineResetClocks = 50

// DefaultLineResetClocks adds margin over the minimum.
const DefaultLineResetClocks = 56

// ---- ACK ----

const (
	ackOK    uint8 = 0b001
	ackWait  uint8 = 0b010
	ackFault uint8 = 0b100
)

// ---- DP REGISTERS ----

const (
	DPIDR    uint8 = 0x00 // read-only
	ABORT    uint8 = 0x00 // write-only
	CTRLSTAT uint8 = 0x04
	SELECT   uint8 = 0x08
	RDBUFF   uint8 = 0x0C
)

// ---- AP REGISTERS (MEM-AP) ----

const (
	CSW uint8 = 0x00
	TAR uint8 = 0x04
	DRW uint8 = 0x0C

	// IDR lives at 0xFC: bank 0xF, register 0x0C.
	IDR     uint8  = 0x0C
	IDRBank uint32 = 0xF0
)

// ---- ABORT BITS ----

const (
	AbortDAPAbort   uint32 = 1 << 0
	AbortSTKCMPCLR  uint32 = 1 << 1
	AbortSTKERRCLR  uint32 = 1 << 2
	AbortWDERRCLR   uint32 = 1 << 3
	AbortORUNERRCLR uint32 = 1 << 4

	AbortClearAll = AbortDAPAbort | AbortSTKCMPCLR | AbortSTKERRCLR | AbortWDERRCLR | AbortORUNERRCLR
)

// ---- CTRL/STAT BITS ----

const (
	CDBGPWRUPREQ uint32 = 1 << 28
	CDBGPWRUPACK uint32 = 1 << 29
	CSYSPWRUPREQ uint32 = 1 << 30
	CSYSPWRUPACK uint32 = 1 << 31

	PowerUpReq = CDBGPWRUPREQ | CSYSPWRUPREQ
	PowerUpAck = CDBGPWRUPACK | CSYSPWRUPACK
)

// ---- CSW BITS ----

const (
	CSWSize32     uint32 = 2 << 0
	CSWAddrIncOff uint32 = 0 << 4
	CSWAddrIncSgl uint32 = 1 << 4
	CSWDbgStatus  uint32 = 1 << 6
)

// ---- TARGET ----

// IDCodeSTM32G030 is the DPIDR of the Cortex-M0+ debug port on the target family.
const IDCodeSTM32G030 uint32 = 0x0BC11477
