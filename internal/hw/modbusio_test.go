// internal/hw/modbusio_test.go
package hw

import (
	"errors"
	"strings"
	"testing"

	"github.com/tamzrod/swd-fixture/internal/clock"
	"github.com/tamzrod/swd-fixture/internal/config"
	"github.com/tamzrod/swd-fixture/internal/poller"
	"github.com/tamzrod/swd-fixture/internal/sequencer"
	"github.com/tamzrod/swd-fixture/internal/swd"
	"github.com/tamzrod/swd-fixture/internal/writer"
)

// ---- fakes ----

type fakeInputs struct {
	bits []bool // discrete inputs from address 0
	err  error
}

func (f *fakeInputs) PollOnce() poller.PollResult {
	if f.err != nil {
		return poller.PollResult{Err: f.err}
	}
	return poller.PollResult{
		Blocks: []poller.BlockResult{
			{FC: 2, Address: 0, Quantity: uint16(len(f.bits)), Bits: f.bits},
		},
	}
}

type coilWrite struct {
	addr uint16
	on   bool
}

// fakeCoils is a coil endpoint for a real writer.CoilWriter.
type fakeCoils struct {
	writes []coilWrite
	fail   bool
	state  map[uint16]bool
}

func (f *fakeCoils) WriteCoils(unitID uint8, addr uint16, bits []bool) error {
	f.writes = append(f.writes, coilWrite{addr, bits[0]})
	if f.fail {
		return errors.New("write refused")
	}
	if f.state == nil {
		f.state = map[uint16]bool{}
	}
	f.state[addr] = bits[0]
	return nil
}

func (f *fakeCoils) WriteRegisters(uint8, uint16, []uint16) error { return nil }

var testInputs = config.ModbusInputs{Lid: 0, Load: 1, StartButton: 2}

// coil addresses
const (
	coilStart uint16 = iota
	coilStop
	coilGreen
	coilRed
)

func newCoilWriter(t *testing.T, cli *fakeCoils) *writer.CoilWriter {
	t.Helper()
	w, ok := writer.NewCoilWriter(writer.Plan{
		Coils: &writer.CoilPlan{
			Endpoint: "rack",
			UnitID:   1,
			Coils: map[string]uint16{
				writer.OutPogoStart: coilStart,
				writer.OutPogoStop:  coilStop,
				writer.OutLEDGreen:  coilGreen,
				writer.OutLEDRed:    coilRed,
			},
		},
	}, cli)
	if !ok {
		t.Fatalf("coil writer should be enabled")
	}
	return w
}

// ---- tests ----

func TestModbusIO_Inputs(t *testing.T) {
	in := &fakeInputs{bits: []bool{false, true, true}}
	m := NewModbusIO(in, newCoilWriter(t, &fakeCoils{}), testInputs, nil)

	if m.LidOpen() {
		t.Fatalf("lid should read closed")
	}
	if !m.LoadOn() || !m.StartPressed() {
		t.Fatalf("load and button should read on")
	}
	if Volts(m.LoadVoltage()) != 3.3 {
		t.Fatalf("unexpected voltage %v", m.LoadVoltage())
	}
}

func TestModbusIO_FailSafeOnReadError(t *testing.T) {
	in := &fakeInputs{err: errors.New("timeout")}
	m := NewModbusIO(in, newCoilWriter(t, &fakeCoils{}), testInputs, nil)

	if !m.LidOpen() {
		t.Fatalf("unreadable lid must read open")
	}
	if m.LoadOn() {
		t.Fatalf("unreadable load must read off")
	}
	if m.StartPressed() {
		t.Fatalf("unreadable button must read released")
	}

	in.err = nil
	in.bits = []bool{false, false, false}
	if !m.LidOpen() {
		t.Fatalf("first lid read after a failed read must report open")
	}
	if m.LidOpen() {
		t.Fatalf("lid should read closed after recovery")
	}
}

func TestModbusIO_FailedLoadReadTripsLid(t *testing.T) {
	in := &fakeInputs{bits: []bool{false, true, false}}
	m := NewModbusIO(in, newCoilWriter(t, &fakeCoils{}), testInputs, nil)

	in.err = errors.New("timeout")
	_ = m.LoadOn()
	in.err = nil

	if !m.LidOpen() {
		t.Fatalf("lid check after a dropped load read must report open")
	}
}

func TestModbusIO_Outputs(t *testing.T) {
	cli := &fakeCoils{}
	m := NewModbusIO(&fakeInputs{}, newCoilWriter(t, cli), testInputs, nil)

	m.SetStart(true)
	m.SetStop(false)
	m.SetLEDs(true, false)

	want := []coilWrite{
		{coilStart, true},
		{coilStop, false},
		{coilGreen, true},
		{coilRed, false},
	}
	if len(cli.writes) != len(want) {
		t.Fatalf("expected %d writes, got %d", len(want), len(cli.writes))
	}
	for i := range want {
		if cli.writes[i] != want[i] {
			t.Fatalf("write %d: got %+v want %+v", i, cli.writes[i], want[i])
		}
	}
}

func TestModbusIO_HaltPogoFirstAndComplete(t *testing.T) {
	cli := &fakeCoils{fail: true}
	m := NewModbusIO(&fakeInputs{}, newCoilWriter(t, cli), testInputs, nil)

	if err := m.Halt(); err == nil {
		t.Fatalf("expected write error to surface")
	}
	if len(cli.writes) != 4 {
		t.Fatalf("every output must be attempted, got %d", len(cli.writes))
	}
	if cli.writes[0].addr != coilStart || cli.writes[1].addr != coilStop {
		t.Fatalf("pogo lines must be released first: %+v", cli.writes)
	}
	for _, w := range cli.writes {
		if w.on {
			t.Fatalf("halt drove coil %d on", w.addr)
		}
	}
}

func TestOpenModbusIO_RequiresCoilPlan(t *testing.T) {
	if _, _, err := OpenModbusIO(&config.Config{}, nil); err == nil {
		t.Fatalf("expected error without modbus_io")
	}

	// inputs configured but the backend never plans coils
	cfg := &config.Config{}
	cfg.Fixture.IOBackend = config.BackendGPIO
	cfg.Fixture.ModbusIO = &config.ModbusIOConfig{Endpoint: "127.0.0.1:1", Inputs: testInputs}

	_, _, err := OpenModbusIO(cfg, nil)
	if err == nil || !strings.Contains(err.Error(), "no coil outputs planned") {
		t.Fatalf("expected coil plan error, got %v", err)
	}
}

// ---- full run over a stuck-latched unit ----

// latchedRack is a remote I/O module wired to a unit whose load latches and
// never drops. One poll can be scripted to fail.
type latchedRack struct {
	coils   *fakeCoils
	fail    bool
	latched bool
}

func (r *latchedRack) PollOnce() poller.PollResult {
	if r.fail {
		r.fail = false
		return poller.PollResult{Err: errors.New("poll timeout")}
	}
	if r.coils.state[coilStart] && r.coils.state[coilStop] {
		r.latched = true
	}
	return poller.PollResult{
		Blocks: []poller.BlockResult{
			{FC: 2, Address: 0, Quantity: 3, Bits: []bool{false, r.latched, false}},
		},
	}
}

func runStuckLatched(t *testing.T, dropAt sequencer.Step) sequencer.Report {
	t.Helper()

	clk := clock.NewFake()
	cli := &fakeCoils{}
	rack := &latchedRack{coils: cli}
	m := NewModbusIO(rack, newCoilWriter(t, cli), testInputs, nil)

	target := NewSim(swd.IDCodeSTM32G030, clk).Target
	eng := swd.New(target, swd.WithHalfPeriod(0), swd.WithClock(clk))

	seq, err := sequencer.New(sequencer.Config{
		Clock: clk,
		Heartbeat: func(s sequencer.Step) {
			if s == dropAt {
				rack.fail = true
			}
		},
	}, m, eng)
	if err != nil {
		t.Fatalf("sequencer: %v", err)
	}

	rep, err := seq.Run()
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return rep
}

func TestModbusIO_StuckLatchedUnitFails(t *testing.T) {
	if rep := runStuckLatched(t, sequencer.StepNone); rep.Result != sequencer.FailStuckLatched {
		t.Fatalf("expected FAIL_STUCK_LATCHED, got %s", rep.Result)
	}
}

func TestModbusIO_DroppedVerifyOffReadNeverPasses(t *testing.T) {
	rep := runStuckLatched(t, sequencer.StepVerifyOff)

	if rep.Result == sequencer.Pass {
		t.Fatalf("stuck-latched unit passed after a dropped read")
	}
	if rep.Result != sequencer.FailSafetyOpen || rep.Step != sequencer.StepFinalLid {
		t.Fatalf("expected FAIL_SAFETY_OPEN at final_lid, got %s at %s", rep.Result, rep.Step)
	}
}
