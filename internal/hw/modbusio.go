// internal/hw/modbusio.go
package hw

import (
	"io"
	"log/slog"

	"github.com/pkg/errors"
	"periph.io/x/conn/v3/physic"

	"github.com/tamzrod/swd-fixture/internal/config"
	"github.com/tamzrod/swd-fixture/internal/poller"
	"github.com/tamzrod/swd-fixture/internal/writer"
)

// inputReader is satisfied by *poller.Poller.
type inputReader interface {
	PollOnce() poller.PollResult
}

// outputWriter is satisfied by *writer.CoilWriter.
type outputWriter interface {
	Set(name string, on bool) error
	SetAll(on bool) error
}

// ModbusIO is FixtureIO on a remote Modbus TCP I/O module.
// Discrete inputs are ON for lid open, load on and button pressed;
// coils are ON for pogo pressed and LED lit.
// Every read is a fresh poll.
//
// A failed read answers "off" for load and button, and latches a lid-open
// report for the next LidOpen call. No single default is safe at both load
// checks, so a run that loses one input read always aborts at its next lid
// check instead of trusting the default.
type ModbusIO struct {
	in     inputReader
	out    outputWriter
	inputs config.ModbusInputs
	log    *slog.Logger

	failing bool
	tripped bool // a read failed since the last LidOpen
}

// NewModbusIO wires an input poller and an output writer. log may be nil.
func NewModbusIO(in inputReader, out outputWriter, inputs config.ModbusInputs, log *slog.Logger) *ModbusIO {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &ModbusIO{in: in, out: out, inputs: inputs, log: log}
}

// OpenModbusIO dials the I/O module and drives every output safe.
// The returned closer releases both connections.
func OpenModbusIO(c *config.Config, log *slog.Logger) (*ModbusIO, func() error, error) {
	m := c.Fixture.ModbusIO
	if m == nil {
		return nil, nil, errors.New("hw: modbus_io config required")
	}

	plan, err := writer.BuildPlan(c)
	if err != nil {
		return nil, nil, err
	}
	if plan.Coils == nil {
		return nil, nil, errors.Errorf("hw: no coil outputs planned for %s (io_backend %q)", m.Endpoint, c.Fixture.IOBackend)
	}

	p, closePoller, err := poller.Build(m)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "hw: modbus inputs %s", m.Endpoint)
	}

	cli, err := writer.BuildEndpointClient(m.Endpoint, m.TimeoutMs)
	if err != nil {
		_ = closePoller()
		return nil, nil, errors.Wrapf(err, "hw: modbus outputs %s", m.Endpoint)
	}
	coils, _ := writer.NewCoilWriter(plan, cli) // plan.Coils checked above

	mio := NewModbusIO(p, coils, m.Inputs, log)
	if err := mio.Halt(); err != nil {
		_ = cli.Close()
		_ = closePoller()
		return nil, nil, err
	}

	closeAll := func() error {
		err := cli.Close()
		if perr := closePoller(); err == nil {
			err = perr
		}
		return err
	}
	return mio, closeAll, nil
}

func (m *ModbusIO) input(addr uint16) (v, ok bool) {
	res := m.in.PollOnce()
	v, ok = res.Bit(2, addr)
	if !ok {
		m.tripped = true
	}

	switch {
	case !ok && !m.failing:
		m.failing = true
		m.log.Warn("modbus inputs unavailable, failing safe", slog.Any("err", res.Err))
	case ok && m.failing:
		m.failing = false
		m.log.Info("modbus inputs restored")
	}
	return v, ok
}

// LidOpen reports open when the module cannot be read, and once after any
// earlier failed read.
func (m *ModbusIO) LidOpen() bool {
	v, ok := m.input(m.inputs.Lid)
	if m.tripped {
		m.tripped = false
		return true
	}
	return !ok || v
}

func (m *ModbusIO) LoadOn() bool {
	v, ok := m.input(m.inputs.Load)
	return ok && v
}

func (m *ModbusIO) StartPressed() bool {
	v, ok := m.input(m.inputs.StartButton)
	return ok && v
}

func (m *ModbusIO) SetStart(pressed bool) { m.set(writer.OutPogoStart, pressed) }

func (m *ModbusIO) SetStop(pressed bool) { m.set(writer.OutPogoStop, pressed) }

func (m *ModbusIO) SetLEDs(green, red bool) {
	m.set(writer.OutLEDGreen, green)
	m.set(writer.OutLEDRed, red)
}

func (m *ModbusIO) LoadVoltage() physic.ElectricPotential { return senseVoltage(m.LoadOn()) }

// Halt releases the pogo lines before the LEDs. Every output is attempted.
func (m *ModbusIO) Halt() error {
	return m.out.SetAll(false)
}

func (m *ModbusIO) String() string { return "modbus-io" }

func (m *ModbusIO) set(name string, on bool) {
	if err := m.out.Set(name, on); err != nil {
		m.log.Warn("modbus output write failed", slog.String("output", name), slog.Bool("on", on), slog.Any("err", err))
	}
}
