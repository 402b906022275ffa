// internal/config/validate.go
package config

import (
	"fmt"
)

// ValidationError reports the first invalid field found by Validate.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// minLineResetClocks mirrors the SWD protocol minimum.
const minLineResetClocks = 50

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values are accepted where Normalize supplies a default.
func Validate(cfg *Config) error {
	if cfg == nil {
		return invalid("config", "nil")
	}

	f := cfg.Fixture

	// ------------------------------------------------------------
	// FIXTURE
	// ------------------------------------------------------------

	switch f.Mode {
	case "", ModeHardware, ModeSimulation:
	default:
		return invalid("fixture.mode", "unknown mode %q (want %s|%s)", f.Mode, ModeHardware, ModeSimulation)
	}

	switch f.IOBackend {
	case "", BackendGPIO, BackendModbus:
	default:
		return invalid("fixture.io_backend", "unknown backend %q (want %s|%s)", f.IOBackend, BackendGPIO, BackendModbus)
	}

	if err := asciiOnly("fixture.name", f.Name); err != nil {
		return err
	}

	hardware := f.Mode == "" || f.Mode == ModeHardware

	// ---- SWD pins (hardware mode, any backend) ----
	if hardware {
		if f.Pins.SWCLK == "" {
			return invalid("fixture.pins.swclk", "required in hardware mode")
		}
		if f.Pins.NRST == "" {
			return invalid("fixture.pins.nrst", "required in hardware mode")
		}

		if cfg.SWD.Wiring == WiringIsolated {
			if f.Pins.SWDIOOut == "" || f.Pins.SWDIOIn == "" {
				return invalid("fixture.pins", "isolated wiring needs swdio_out and swdio_in")
			}
		} else if f.Pins.SWDIO == "" {
			return invalid("fixture.pins.swdio", "required for direct wiring")
		}
	}

	// ---- fixture I/O ----
	if hardware && f.IOBackend == BackendModbus {
		if err := validateModbusIO(f.ModbusIO); err != nil {
			return err
		}
	} else if hardware {
		required := map[string]string{
			"pogo_start": f.Pins.PogoStart,
			"pogo_stop":  f.Pins.PogoStop,
			"load_sense": f.Pins.LoadSense,
			"lid_switch": f.Pins.LidSwitch,
		}
		for _, name := range []string{"pogo_start", "pogo_stop", "load_sense", "lid_switch"} {
			if required[name] == "" {
				return invalid("fixture.pins."+name, "required for the gpio backend")
			}
		}
	}

	if hardware {
		if err := uniquePins(f); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------
	// SWD
	// ------------------------------------------------------------

	s := cfg.SWD

	switch s.Wiring {
	case "", WiringDirect, WiringIsolated:
	default:
		return invalid("swd.wiring", "unknown wiring %q (want %s|%s)", s.Wiring, WiringDirect, WiringIsolated)
	}

	if s.LineResetClocks != 0 && s.LineResetClocks < minLineResetClocks {
		return invalid("swd.line_reset_clocks", "%d is below the protocol minimum of %d", s.LineResetClocks, minLineResetClocks)
	}

	nonNegative := []struct {
		field string
		v     int
	}{
		{"swd.half_period_us", s.HalfPeriodUs},
		{"swd.idle_cycles", s.IdleCycles},
		{"swd.wait_retries", s.WaitRetries},
		{"swd.wait_timeout_ms", s.WaitTimeoutMs},
		{"swd.powerup_timeout_ms", s.PowerUpTimeoutMs},
		{"swd.verify_attempts", s.VerifyAttempts},
		{"swd.retry_delay_ms", s.RetryDelayMs},
		{"swd.integrity_iterations", s.IntegrityIterations},
		{"test.settle_ms", cfg.Test.SettleMs},
		{"test.poll_ms", cfg.Test.PollMs},
		{"test.deadline_ms", cfg.Test.DeadlineMs},
	}
	for _, n := range nonNegative {
		if n.v < 0 {
			return invalid(n.field, "must be >= 0, got %d", n.v)
		}
	}

	// ------------------------------------------------------------
	// TEST
	// ------------------------------------------------------------

	if cfg.Test.ProbeAddress%4 != 0 {
		return invalid("test.probe_address", "0x%08X is not word aligned", cfg.Test.ProbeAddress)
	}
	if cfg.Test.PollMs > 0 && cfg.Test.SettleMs > 0 && cfg.Test.PollMs > cfg.Test.SettleMs {
		return invalid("test.poll_ms", "poll interval %dms exceeds settle %dms", cfg.Test.PollMs, cfg.Test.SettleMs)
	}

	// ------------------------------------------------------------
	// STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if st := cfg.Status; st != nil {
		if st.Endpoint == "" {
			return invalid("status.endpoint", "required when status is enabled")
		}
		if st.TimeoutMs < 0 {
			return invalid("status.timeout_ms", "must be >= 0, got %d", st.TimeoutMs)
		}
		if err := asciiOnly("status.device_name", st.DeviceName); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	switch cfg.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return invalid("log.level", "unknown level %q", cfg.Log.Level)
	}

	return nil
}

func validateModbusIO(m *ModbusIOConfig) error {
	if m == nil {
		return invalid("fixture.modbus_io", "required for the modbus backend")
	}
	if m.Endpoint == "" {
		return invalid("fixture.modbus_io.endpoint", "required")
	}
	if m.TimeoutMs < 0 {
		return invalid("fixture.modbus_io.timeout_ms", "must be >= 0, got %d", m.TimeoutMs)
	}

	in := map[uint16]string{}
	for _, p := range []struct {
		name string
		addr uint16
	}{
		{"lid", m.Inputs.Lid},
		{"load", m.Inputs.Load},
		{"start_button", m.Inputs.StartButton},
	} {
		if prev, ok := in[p.addr]; ok {
			return invalid("fixture.modbus_io.inputs."+p.name, "address %d already used by %s", p.addr, prev)
		}
		in[p.addr] = p.name
	}

	coils := map[uint16]string{}
	for _, p := range []struct {
		name string
		addr uint16
	}{
		{"pogo_start", m.Coils.PogoStart},
		{"pogo_stop", m.Coils.PogoStop},
		{"led_green", m.Coils.LEDGreen},
		{"led_red", m.Coils.LEDRed},
	} {
		if prev, ok := coils[p.addr]; ok {
			return invalid("fixture.modbus_io.coils."+p.name, "address %d already used by %s", p.addr, prev)
		}
		coils[p.addr] = p.name
	}

	return nil
}

// uniquePins rejects one GPIO line bound to two functions.
func uniquePins(f FixtureConfig) error {
	p := f.Pins
	owner := map[string]string{}

	named := []struct{ name, pin string }{
		{"swclk", p.SWCLK},
		{"swdio", p.SWDIO},
		{"swdio_out", p.SWDIOOut},
		{"swdio_in", p.SWDIOIn},
		{"nrst", p.NRST},
	}
	if f.IOBackend != BackendModbus {
		named = append(named, []struct{ name, pin string }{
			{"pogo_start", p.PogoStart},
			{"pogo_stop", p.PogoStop},
			{"load_sense", p.LoadSense},
			{"lid_switch", p.LidSwitch},
			{"start_button", p.StartButton},
			{"led_green", p.LEDGreen},
			{"led_red", p.LEDRed},
		}...)
	}

	for _, n := range named {
		if n.pin == "" {
			continue
		}
		if prev, ok := owner[n.pin]; ok {
			return invalid("fixture.pins."+n.name, "pin %s already used by %s", n.pin, prev)
		}
		owner[n.pin] = n.name
	}
	return nil
}

func asciiOnly(field, s string) error {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return invalid(field, "must contain ASCII characters only")
		}
	}
	return nil
}
