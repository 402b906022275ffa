// internal/hw/fixture.go
package hw

import (
	"periph.io/x/conn/v3/physic"
)

// FixtureIO is the station side of the fixture: pogo outputs, sense inputs,
// the operator button and the result LEDs.
//
// Implementations fail safe: an input that cannot be read reports lid open,
// load off and button released. A failed load or button read must also make
// the next LidOpen report open, so a run never passes a load check on a
// default value.
type FixtureIO interface {
	LidOpen() bool
	LoadOn() bool
	StartPressed() bool

	// SetStart and SetStop drive the pogo lines; pressed=false is the safe level.
	SetStart(pressed bool)
	SetStop(pressed bool)

	SetLEDs(green, red bool)

	// LoadVoltage is the reported load rail level (binary sense: 3.3V or 0V).
	LoadVoltage() physic.ElectricPotential

	// Halt releases both pogo lines and turns the LEDs off.
	Halt() error
}

// LoadOnVoltage is reported while the load sense input is active.
const LoadOnVoltage = 3300 * physic.MilliVolt

// Volts converts v for the result log.
func Volts(v physic.ElectricPotential) float64 {
	return float64(v) / float64(physic.Volt)
}

func senseVoltage(on bool) physic.ElectricPotential {
	if on {
		return LoadOnVoltage
	}
	return 0
}
