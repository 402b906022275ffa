// internal/swd/port.go
package swd

// Port is the wire capability the engine drives.
// Implementations hide wiring polarity (direct vs opto-isolated) and
// whether SWDIO is one bidirectional pin or split in/out pins.
type Port interface {
	// SetClock drives SWCLK. active=true is the level the target sees as high.
	SetClock(active bool)

	// SetData drives SWDIO while the host owns the line.
	SetData(high bool)

	// Data samples SWDIO as seen from the target side.
	Data() bool

	// HostDrive hands the data line to the host (true) or releases it to the target (false).
	HostDrive(drive bool)

	// SetReset drives nRST. asserted=true holds the target in reset.
	SetReset(asserted bool)
}

// lineErrer is implemented by ports that keep a sticky pin error.
type lineErrer interface {
	Err() error
}

// LineErr returns the port's pin error, or nil when the port keeps none.
func (e *Engine) LineErr() error {
	if p, ok := e.port.(lineErrer); ok {
		return p.Err()
	}
	return nil
}
