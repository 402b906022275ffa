// internal/swd/request.go
package swd

import (
	"fmt"
	"math/bits"
)

// Request is one SWD packet header.
// Immutable once built; Byte encodes it for the wire.
type Request struct {
	AP   bool  // true: access port, false: debug port
	Read bool  // true: read, false: write
	Addr uint8 // register offset; only A[3:2] are transmitted
}

func dpRead(addr uint8) Request  { return Request{Read: true, Addr: addr} }
func dpWrite(addr uint8) Request { return Request{Addr: addr} }
func apRead(addr uint8) Request  { return Request{AP: true, Read: true, Addr: addr} }
func apWrite(addr uint8) Request { return Request{AP: true, Addr: addr} }

func (r Request) a2() uint8 { return (r.Addr >> 2) & 1 }
func (r Request) a3() uint8 { return (r.Addr >> 3) & 1 }

func (r Request) String() string {
	port, dir := "DP", "WR"
	if r.AP {
		port = "AP"
	}
	if r.Read {
		dir = "RD"
	}
	return fmt.Sprintf("%s %s 0x%02X", port, dir, r.Addr&0x0C)
}

// Byte returns the 8-bit request, bit 0 first on the wire:
//
//	bit0 Start(1) bit1 APnDP bit2 RnW bit3 A2 bit4 A3 bit5 Parity bit6 Stop(0) bit7 Park(1)
func (r Request) Byte() uint8 {
	ap, rd := b2u8(r.AP), b2u8(r.Read)
	parity := ap ^ rd ^ r.a2() ^ r.a3()

	return 1<<0 |
		ap<<1 |
		rd<<2 |
		r.a2()<<3 |
		r.a3()<<4 |
		parity<<5 |
		0<<6 |
		1<<7
}

// Parity32 returns the even-parity bit of v: 1 when v has an odd number of set bits.
func Parity32(v uint32) uint8 {
	return uint8(bits.OnesCount32(v) & 1)
}

func b2u8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
