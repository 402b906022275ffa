// internal/hw/gpio.go
package hw

import (
	"github.com/pkg/errors"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/tamzrod/swd-fixture/internal/config"
	"github.com/tamzrod/swd-fixture/internal/swd"
)

// ErrPinNotFound is returned when a configured pin name is unknown to the host.
var ErrPinNotFound = errors.New("hw: pin not found")

// Init loads the host GPIO drivers. Safe to call more than once.
func Init() error {
	if _, err := host.Init(); err != nil {
		return errors.Wrap(err, "hw: host init")
	}
	return nil
}

func lookup(role, name string) (gpio.PinIO, error) {
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Wrapf(ErrPinNotFound, "%s %q", role, name)
	}
	return p, nil
}

// OpenProbe resolves the SWD pins and returns the port for the configured wiring.
// Init must have been called.
func OpenProbe(pins config.PinConfig, wiring string) (swd.Port, error) {
	clk, err := lookup("swclk", pins.SWCLK)
	if err != nil {
		return nil, err
	}
	nrst, err := lookup("nrst", pins.NRST)
	if err != nil {
		return nil, err
	}

	if wiring == config.WiringIsolated {
		out, err := lookup("swdio_out", pins.SWDIOOut)
		if err != nil {
			return nil, err
		}
		in, err := lookup("swdio_in", pins.SWDIOIn)
		if err != nil {
			return nil, err
		}
		return NewSplitLine(clk, out, in, nrst)
	}

	dio, err := lookup("swdio", pins.SWDIO)
	if err != nil {
		return nil, err
	}
	return NewSharedLine(clk, dio, nrst)
}

// ------------------------------------------------------------
// GPIO fixture
// ------------------------------------------------------------

// GPIOFixture is FixtureIO on local GPIO.
//
// Levels: pogo START/STOP are active low (released = high), the lid switch
// is normally closed to ground (high = open), the start button is active
// low and the LEDs are active high. Optional pins left unset read as
// released and drive nothing.
type GPIOFixture struct {
	start, stop gpio.PinIO
	load, lid   gpio.PinIO
	button      gpio.PinIO
	green, red  gpio.PinIO
}

// OpenGPIOFixture resolves the fixture pins and drives every output safe.
// Init must have been called.
func OpenGPIOFixture(pins config.PinConfig) (*GPIOFixture, error) {
	var (
		f   GPIOFixture
		err error
	)

	required := []struct {
		role string
		name string
		dst  *gpio.PinIO
	}{
		{"pogo_start", pins.PogoStart, &f.start},
		{"pogo_stop", pins.PogoStop, &f.stop},
		{"load_sense", pins.LoadSense, &f.load},
		{"lid_switch", pins.LidSwitch, &f.lid},
	}
	for _, r := range required {
		if *r.dst, err = lookup(r.role, r.name); err != nil {
			return nil, err
		}
	}

	optional := []struct {
		role string
		name string
		dst  *gpio.PinIO
	}{
		{"start_button", pins.StartButton, &f.button},
		{"led_green", pins.LEDGreen, &f.green},
		{"led_red", pins.LEDRed, &f.red},
	}
	for _, o := range optional {
		if o.name == "" {
			continue
		}
		if *o.dst, err = lookup(o.role, o.name); err != nil {
			return nil, err
		}
	}

	return NewGPIOFixture(f.start, f.stop, f.load, f.lid, f.button, f.green, f.red)
}

// NewGPIOFixture configures already resolved pins. button, green and red may be nil.
func NewGPIOFixture(start, stop, load, lid, button, green, red gpio.PinIO) (*GPIOFixture, error) {
	f := &GPIOFixture{
		start:  start,
		stop:   stop,
		load:   load,
		lid:    lid,
		button: button,
		green:  green,
		red:    red,
	}

	// outputs first: nothing may be pressed while inputs come up
	if err := f.Halt(); err != nil {
		return nil, err
	}

	if err := lid.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, errors.Wrapf(err, "hw: lid_switch %s", lid)
	}
	if err := load.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, errors.Wrapf(err, "hw: load_sense %s", load)
	}
	if button != nil {
		if err := button.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return nil, errors.Wrapf(err, "hw: start_button %s", button)
		}
	}
	return f, nil
}

func (f *GPIOFixture) LidOpen() bool { return f.lid.Read() == gpio.High }

func (f *GPIOFixture) LoadOn() bool { return f.load.Read() == gpio.High }

func (f *GPIOFixture) StartPressed() bool {
	return f.button != nil && f.button.Read() == gpio.Low
}

// SetStart and SetStop ignore pin errors; Halt reports them.
func (f *GPIOFixture) SetStart(pressed bool) { _ = f.start.Out(pogoLevel(pressed)) }

func (f *GPIOFixture) SetStop(pressed bool) { _ = f.stop.Out(pogoLevel(pressed)) }

func (f *GPIOFixture) SetLEDs(green, red bool) {
	if f.green != nil {
		_ = f.green.Out(gpio.Level(green))
	}
	if f.red != nil {
		_ = f.red.Out(gpio.Level(red))
	}
}

func (f *GPIOFixture) LoadVoltage() physic.ElectricPotential { return senseVoltage(f.LoadOn()) }

// Halt implements conn.Resource.
func (f *GPIOFixture) Halt() error {
	if err := f.start.Out(gpio.High); err != nil {
		return errors.Wrapf(err, "hw: pogo_start %s", f.start)
	}
	if err := f.stop.Out(gpio.High); err != nil {
		return errors.Wrapf(err, "hw: pogo_stop %s", f.stop)
	}
	for _, led := range []gpio.PinIO{f.green, f.red} {
		if led == nil {
			continue
		}
		if err := led.Out(gpio.Low); err != nil {
			return errors.Wrapf(err, "hw: led %s", led)
		}
	}
	return nil
}

func (f *GPIOFixture) String() string { return "gpio-fixture" }

func pogoLevel(pressed bool) gpio.Level {
	if pressed {
		return gpio.Low
	}
	return gpio.High
}
