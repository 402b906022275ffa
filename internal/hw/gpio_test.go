// internal/hw/gpio_test.go
package hw

import (
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type gpioPins struct {
	start, stop, load, lid, button, green, red *gpiotest.Pin
}

func newGPIOFixture(t *testing.T) (*GPIOFixture, gpioPins) {
	t.Helper()

	p := gpioPins{
		start:  &gpiotest.Pin{N: "POGO_START"},
		stop:   &gpiotest.Pin{N: "POGO_STOP"},
		load:   &gpiotest.Pin{N: "LOAD"},
		lid:    &gpiotest.Pin{N: "LID"},
		button: &gpiotest.Pin{N: "BUTTON"},
		green:  &gpiotest.Pin{N: "LED_G", L: gpio.High},
		red:    &gpiotest.Pin{N: "LED_R", L: gpio.High},
	}

	f, err := NewGPIOFixture(p.start, p.stop, p.load, p.lid, p.button, p.green, p.red)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return f, p
}

func TestGPIOFixture_StartsSafe(t *testing.T) {
	_, p := newGPIOFixture(t)

	if p.start.L != gpio.High || p.stop.L != gpio.High {
		t.Fatalf("pogo lines must idle released (high)")
	}
	if p.green.L != gpio.Low || p.red.L != gpio.Low {
		t.Fatalf("LEDs must start off")
	}
}

func TestGPIOFixture_Polarity(t *testing.T) {
	f, p := newGPIOFixture(t)

	f.SetStart(true)
	f.SetStop(true)
	if p.start.L != gpio.Low || p.stop.L != gpio.Low {
		t.Fatalf("pogo lines are active low")
	}

	p.lid.L = gpio.High
	if !f.LidOpen() {
		t.Fatalf("high lid level means open")
	}
	p.lid.L = gpio.Low
	if f.LidOpen() {
		t.Fatalf("low lid level means closed")
	}

	p.button.L = gpio.Low
	if !f.StartPressed() {
		t.Fatalf("button is active low")
	}

	p.load.L = gpio.High
	if !f.LoadOn() || Volts(f.LoadVoltage()) != 3.3 {
		t.Fatalf("load on should read 3.3V, got %v", f.LoadVoltage())
	}

	f.SetLEDs(true, false)
	if p.green.L != gpio.High || p.red.L != gpio.Low {
		t.Fatalf("LEDs are active high")
	}

	if err := f.Halt(); err != nil {
		t.Fatalf("halt failed: %v", err)
	}
	if p.start.L != gpio.High || p.stop.L != gpio.High || p.green.L != gpio.Low {
		t.Fatalf("halt must release pogo lines and clear LEDs")
	}
}

func TestGPIOFixture_OptionalPins(t *testing.T) {
	f, err := NewGPIOFixture(
		&gpiotest.Pin{N: "POGO_START"},
		&gpiotest.Pin{N: "POGO_STOP"},
		&gpiotest.Pin{N: "LOAD"},
		&gpiotest.Pin{N: "LID"},
		nil, nil, nil,
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.StartPressed() {
		t.Fatalf("missing button must read released")
	}
	f.SetLEDs(true, true)
}
