// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// endpointClient is the exact contract the writer uses.
// IMPORTANT: There must be NO other version of this interface anywhere.
type endpointClient interface {
	WriteCoils(unitID uint8, addr uint16, bits []bool) error
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// releaseOrder is the order SetAll walks the planned outputs:
// pogo lines before indicators.
var releaseOrder = []string{OutPogoStart, OutPogoStop, OutLEDGreen, OutLEDRed}

// CoilWriter drives named fixture outputs on a remote I/O module.
// Every call reaches the wire: output state is never assumed from history.
type CoilWriter struct {
	plan *CoilPlan
	cli  endpointClient
}

// NewCoilWriter builds a coil writer if coils are planned.
// cli must be connected to plan.Coils.Endpoint.
func NewCoilWriter(plan Plan, cli endpointClient) (*CoilWriter, bool) {
	if plan.Coils == nil {
		return nil, false
	}
	return &CoilWriter{plan: plan.Coils, cli: cli}, true
}

// Set writes one named output.
func (w *CoilWriter) Set(name string, on bool) error {
	if w == nil || w.plan == nil {
		return errors.New("coil writer: disabled")
	}
	if w.cli == nil {
		return fmt.Errorf("coil writer: missing client for endpoint %s", w.plan.Endpoint)
	}

	addr, ok := w.plan.Coils[name]
	if !ok {
		return fmt.Errorf("coil writer: unknown output %q", name)
	}

	if err := w.cli.WriteCoils(w.plan.UnitID, addr, []bool{on}); err != nil {
		return fmt.Errorf("coil writer: %s (coil %d): %w", name, addr, err)
	}
	return nil
}

// SetAll writes every planned output to the same level, pogo lines first,
// then any other planned output in name order.
// All outputs are attempted; the first error is returned.
func (w *CoilWriter) SetAll(on bool) error {
	if w == nil || w.plan == nil {
		return errors.New("coil writer: disabled")
	}

	var first error
	for _, n := range w.order() {
		if err := w.Set(n, on); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (w *CoilWriter) order() []string {
	names := make([]string, 0, len(w.plan.Coils))
	for _, n := range releaseOrder {
		if _, ok := w.plan.Coils[n]; ok {
			names = append(names, n)
		}
	}

	var rest []string
	for n := range w.plan.Coils {
		if !slices.Contains(releaseOrder, n) {
			rest = append(rest, n)
		}
	}
	sort.Strings(rest)

	return append(names, rest...)
}
