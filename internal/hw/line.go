// internal/hw/line.go
package hw

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
)

// Probe line drivers. Both implement swd.Port.
//
// Direct wiring: SWCLK idles low, nRST is active low, SWDIO is one
// bidirectional pin with a pull-up.
//
// Isolated wiring (one optocoupler per signal): every host output is
// inverted at the barrier and SWDIO is split into an output and an input
// pin, the input also inverted.

// ---- direct ----

// SharedLine drives direct wiring.
type SharedLine struct {
	clk, dio, nrst gpio.PinIO

	data    gpio.Level
	driving bool
	err     error
}

// NewSharedLine parks the pins in their idle levels.
func NewSharedLine(clk, dio, nrst gpio.PinIO) (*SharedLine, error) {
	if err := clk.Out(gpio.Low); err != nil {
		return nil, errors.Wrapf(err, "hw: swclk %s", clk)
	}
	if err := dio.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, errors.Wrapf(err, "hw: swdio %s", dio)
	}
	if err := nrst.Out(gpio.High); err != nil {
		return nil, errors.Wrapf(err, "hw: nrst %s", nrst)
	}
	return &SharedLine{clk: clk, dio: dio, nrst: nrst, data: gpio.High}, nil
}

func (l *SharedLine) SetClock(active bool) { l.note(l.clk.Out(gpio.Level(active))) }

func (l *SharedLine) SetData(high bool) {
	l.data = gpio.Level(high)
	if l.driving {
		l.note(l.dio.Out(l.data))
	}
}

func (l *SharedLine) Data() bool { return bool(l.dio.Read()) }

func (l *SharedLine) HostDrive(drive bool) {
	l.driving = drive
	if drive {
		l.note(l.dio.Out(l.data))
		return
	}
	l.note(l.dio.In(gpio.PullUp, gpio.NoEdge))
}

func (l *SharedLine) SetReset(asserted bool) { l.note(l.nrst.Out(gpio.Level(!asserted))) }

// Err returns the first pin error seen since construction.
func (l *SharedLine) Err() error { return l.err }

func (l *SharedLine) note(err error) {
	if err != nil && l.err == nil {
		l.err = errors.Wrap(err, "hw: probe line")
	}
}

// ---- isolated ----

// SplitLine drives opto-isolated wiring.
type SplitLine struct {
	clk, out, in, nrst gpio.PinIO

	data    bool
	driving bool
	err     error
}

// NewSplitLine parks the pins so the target sees clock low, SWDIO released
// and nRST deasserted.
func NewSplitLine(clk, out, in, nrst gpio.PinIO) (*SplitLine, error) {
	if err := clk.Out(gpio.High); err != nil {
		return nil, errors.Wrapf(err, "hw: swclk %s", clk)
	}
	if err := out.Out(gpio.Low); err != nil {
		return nil, errors.Wrapf(err, "hw: swdio_out %s", out)
	}
	if err := in.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, errors.Wrapf(err, "hw: swdio_in %s", in)
	}
	if err := nrst.Out(gpio.Low); err != nil {
		return nil, errors.Wrapf(err, "hw: nrst %s", nrst)
	}
	return &SplitLine{clk: clk, out: out, in: in, nrst: nrst, data: true}, nil
}

func (l *SplitLine) SetClock(active bool) { l.note(l.clk.Out(gpio.Level(!active))) }

func (l *SplitLine) SetData(high bool) {
	l.data = high
	if l.driving {
		l.note(l.out.Out(gpio.Level(!high)))
	}
}

// Data reads the receiving optocoupler; its output is inverted.
func (l *SplitLine) Data() bool { return !bool(l.in.Read()) }

// HostDrive has no direction to switch; releasing parks the sending
// optocoupler dark so the target pull-up wins.
func (l *SplitLine) HostDrive(drive bool) {
	l.driving = drive
	if drive {
		l.note(l.out.Out(gpio.Level(!l.data)))
		return
	}
	l.note(l.out.Out(gpio.Low))
}

func (l *SplitLine) SetReset(asserted bool) { l.note(l.nrst.Out(gpio.Level(asserted))) }

// Err returns the first pin error seen since construction.
func (l *SplitLine) Err() error { return l.err }

func (l *SplitLine) note(err error) {
	if err != nil && l.err == nil {
		l.err = errors.Wrap(err, "hw: probe line")
	}
}
