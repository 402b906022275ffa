// internal/swd/status.go
package swd

import "fmt"

// Status classifies one wire exchange.
// Every engine operation yields exactly one Status.
type Status uint8

const (
	OK          Status = iota // exchange accepted; data valid
	Wait                      // target answered WAIT until retries ran out
	Fault                     // target answered FAULT (sticky error latched)
	ParityError               // read data failed the parity check
	Timeout                   // a wall-clock bound expired
	Error                     // no valid ack: bus desynchronised or no target
)

var statusNames = [...]string{
	OK:          "OK",
	Wait:        "ACK_WAIT",
	Fault:       "ACK_FAULT",
	ParityError: "PARITY_ERROR",
	Timeout:     "TIMEOUT",
	Error:       "ERROR",
}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Statuses lists every defined Status value.
func Statuses() []Status {
	return []Status{OK, Wait, Fault, ParityError, Timeout, Error}
}

// statusForAck maps a raw 3-bit ack to the status a caller would see
// without any retry.
func statusForAck(ack uint8) Status {
	switch ack {
	case ackOK:
		return OK
	case ackWait:
		return Wait
	case ackFault:
		return Fault
	default:
		return Error
	}
}
