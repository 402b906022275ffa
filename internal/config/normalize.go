// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultName                = "FIXTURE-01"
	DefaultFirmwareVersion     = "dev"
	DefaultHalfPeriodDirectUs  = 1
	DefaultHalfPeriodIsolated  = 2
	DefaultLineResetClocks     = 56
	DefaultIdleCycles          = 4
	DefaultWaitRetries         = 8
	DefaultWaitTimeoutMs       = 200
	DefaultPowerUpTimeoutMs    = 100
	DefaultVerifyAttempts      = 3
	DefaultRetryDelayMs        = 50
	DefaultExpectedIDCode      = 0x0BC11477
	DefaultIntegrityIterations = 10
	DefaultSettleMs            = 500
	DefaultPollMs              = 20
	DefaultDeadlineMs          = 5000
	DefaultProbeAddress        = 0x08000000
	DefaultCountersPath        = "fixture-counters.yaml"
	DefaultModbusTimeoutMs     = 1000
	DefaultLogLevel            = "info"

	deviceNameMaxChars = 16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ------------------------------------------------------------
	// FIXTURE
	// ------------------------------------------------------------

	f := &cfg.Fixture
	if f.Name == "" {
		f.Name = DefaultName
	}
	if f.FirmwareVersion == "" {
		f.FirmwareVersion = DefaultFirmwareVersion
	}
	if f.Mode == "" {
		f.Mode = ModeHardware
	}
	if f.IOBackend == "" {
		f.IOBackend = BackendGPIO
	}
	if f.ModbusIO != nil && f.ModbusIO.TimeoutMs == 0 {
		f.ModbusIO.TimeoutMs = DefaultModbusTimeoutMs
	}

	// ------------------------------------------------------------
	// SWD
	// ------------------------------------------------------------

	s := &cfg.SWD
	if s.Wiring == "" {
		s.Wiring = WiringDirect
	}
	if s.HalfPeriodUs == 0 {
		// optocouplers need the slower clock
		if s.Wiring == WiringIsolated {
			s.HalfPeriodUs = DefaultHalfPeriodIsolated
		} else {
			s.HalfPeriodUs = DefaultHalfPeriodDirectUs
		}
	}
	setDefault(&s.LineResetClocks, DefaultLineResetClocks)
	setDefault(&s.IdleCycles, DefaultIdleCycles)
	setDefault(&s.WaitRetries, DefaultWaitRetries)
	setDefault(&s.WaitTimeoutMs, DefaultWaitTimeoutMs)
	setDefault(&s.PowerUpTimeoutMs, DefaultPowerUpTimeoutMs)
	setDefault(&s.VerifyAttempts, DefaultVerifyAttempts)
	setDefault(&s.RetryDelayMs, DefaultRetryDelayMs)
	setDefault(&s.IntegrityIterations, DefaultIntegrityIterations)
	if s.ExpectedIDCode == 0 {
		s.ExpectedIDCode = DefaultExpectedIDCode
	}

	// ------------------------------------------------------------
	// TEST / STORAGE / LOG
	// ------------------------------------------------------------

	setDefault(&cfg.Test.SettleMs, DefaultSettleMs)
	setDefault(&cfg.Test.PollMs, DefaultPollMs)
	setDefault(&cfg.Test.DeadlineMs, DefaultDeadlineMs)
	if cfg.Test.ProbeAddress == 0 {
		cfg.Test.ProbeAddress = DefaultProbeAddress
	}

	if cfg.Storage.CountersPath == "" {
		cfg.Storage.CountersPath = DefaultCountersPath
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}

	// ------------------------------------------------------------
	// STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if st := cfg.Status; st != nil {
		if st.TimeoutMs == 0 {
			st.TimeoutMs = DefaultModbusTimeoutMs
		}
		if st.DeviceName == "" {
			st.DeviceName = f.Name
		}

		// Normalize device_name:
		// - ASCII already validated
		// - Truncate to max 16 characters
		if len(st.DeviceName) > deviceNameMaxChars {
			st.DeviceName = st.DeviceName[:deviceNameMaxChars]
		}
	}
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
