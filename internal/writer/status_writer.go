// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/tamzrod/swd-fixture/internal/status"
)

// StatusWriter is the delivery-only contract for fixture status.
// It receives a snapshot and writes it verbatim.
// No logic, no state, no interpretation.
type StatusWriter interface {
	WriteStatus(s status.Snapshot) error
}

// deviceStatusWriter is the concrete implementation used by the station.
type deviceStatusWriter struct {
	plan *StatusPlan
	cli  endpointClient

	needFull bool
	last     []uint16
	nameRegs []uint16
}

// NewDeviceStatusWriter builds a status writer if status is enabled.
// If plan.Status is nil, status is disabled.
// cli must be connected to plan.Status.Endpoint.
func NewDeviceStatusWriter(plan Plan, cli endpointClient) (StatusWriter, bool) {
	if plan.Status == nil {
		return nil, false
	}

	return &deviceStatusWriter{
		plan:     plan.Status,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		nameRegs: status.EncodeName(plan.Status.DeviceName),
	}, true
}

// liveSlot is one register group updated incrementally.
type liveSlot struct {
	name  string
	start int
	n     int
}

// Paired hi/lo slots travel together so a reader never sees a torn value.
var liveSlots = []liveSlot{
	{"result", status.SlotResult, 1},
	{"swd_status", status.SlotSWDStatus, 1},
	{"attempts", status.SlotAttempts, 1},
	{"idcode", status.SlotIDCodeHi, 2},
	{"duration", status.SlotDurationHi, 2},
	{"unit", status.SlotUnitHi, 2},
	{"session", status.SlotSessionHi, 2},
	{"heartbeat", status.SlotHeartbeat, 1},
}

// WriteStatus delivers a fixture status snapshot into status memory.
// On any write failure, the next successful call will re-assert the full block.
func (sw *deviceStatusWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil || sw.plan == nil {
		return errors.New("status writer: disabled")
	}
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}

	baseAddr := sw.baseAddr()
	unitID := sw.plan.UnitID
	regs := status.Encode(s)

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		copy(regs[status.SlotDeviceNameStart:], sw.nameRegs)

		if err := sw.cli.WriteRegisters(unitID, baseAddr, regs); err != nil {
			sw.needFull = true
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}

		sw.needFull = false
		sw.last = regs
		return nil
	}

	var errs []string

	for _, ls := range liveSlots {
		next := regs[ls.start : ls.start+ls.n]
		if slices.Equal(sw.last[ls.start:ls.start+ls.n], next) {
			continue
		}

		if err := sw.cli.WriteRegisters(unitID, baseAddr+uint16(ls.start), next); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d %s write failed: %v", ls.start, ls.name, err))
			continue
		}
		copy(sw.last[ls.start:], next)
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt, re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *deviceStatusWriter) baseAddr() uint16 {
	// Each fixture owns a fixed SlotsPerDevice block.
	return sw.plan.BaseSlot * status.SlotsPerDevice
}
