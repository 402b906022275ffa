// internal/sequencer/classify.go
package sequencer

import "github.com/tamzrod/swd-fixture/internal/swd"

// Classify maps a verify outcome to a Result.
//
//	OK, identity == expected   Pass
//	OK, identity != expected   FailWrongIDCode
//	Error                      FailNoTarget
//	Fault, ParityError         FailBusError
//	Wait, Timeout              FailBusError
//	anything else              FailSWDError
func Classify(v swd.VerifyResult, expected uint32) Result {
	switch v.Status {
	case swd.OK:
		if v.IDCode == expected {
			return Pass
		}
		return FailWrongIDCode
	case swd.Error:
		return FailNoTarget
	case swd.Fault, swd.ParityError:
		return FailBusError
	case swd.Wait, swd.Timeout:
		return FailBusError
	default:
		return FailSWDError
	}
}
