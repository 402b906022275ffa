// internal/config/config.go
package config

type Config struct {
	Fixture FixtureConfig `yaml:"fixture"`
	SWD     SWDConfig     `yaml:"swd"`
	Test    TestConfig    `yaml:"test"`
	Storage StorageConfig `yaml:"storage"`
	Log     LogConfig     `yaml:"log"`

	// Status block publisher (optional, opt-in)
	Status *StatusConfig `yaml:"status"`
}

// ---- FIXTURE ----

const (
	ModeHardware   = "hardware"
	ModeSimulation = "simulation"

	BackendGPIO   = "gpio"
	BackendModbus = "modbus"
)

type FixtureConfig struct {
	Name            string `yaml:"name"`
	FirmwareVersion string `yaml:"firmware_version"`
	Mode            string `yaml:"mode"`       // hardware | simulation
	IOBackend       string `yaml:"io_backend"` // gpio | modbus (fixture I/O only; SWD is always GPIO)

	Pins     PinConfig       `yaml:"pins"`
	ModbusIO *ModbusIOConfig `yaml:"modbus_io"`
}

// PinConfig names GPIO lines as the host driver registry knows them (e.g. "GPIO17").
type PinConfig struct {
	SWCLK    string `yaml:"swclk"`
	SWDIO    string `yaml:"swdio"`     // direct wiring
	SWDIOOut string `yaml:"swdio_out"` // isolated wiring, host-to-target
	SWDIOIn  string `yaml:"swdio_in"`  // isolated wiring, target-to-host
	NRST     string `yaml:"nrst"`

	PogoStart   string `yaml:"pogo_start"`
	PogoStop    string `yaml:"pogo_stop"`
	LoadSense   string `yaml:"load_sense"`
	LidSwitch   string `yaml:"lid_switch"`
	StartButton string `yaml:"start_button"`
	LEDGreen    string `yaml:"led_green"`
	LEDRed      string `yaml:"led_red"`
}

// ---- MODBUS REMOTE I/O ----

type ModbusIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	TimeoutMs int    `yaml:"timeout_ms"`

	// discrete inputs (FC 2): ON = lid open / load on / button pressed
	Inputs ModbusInputs `yaml:"inputs"`

	// coils (FC 5/15): ON = pogo pressed / LED lit
	Coils ModbusCoils `yaml:"coils"`
}

type ModbusInputs struct {
	Lid         uint16 `yaml:"lid"`
	Load        uint16 `yaml:"load"`
	StartButton uint16 `yaml:"start_button"`
}

type ModbusCoils struct {
	PogoStart uint16 `yaml:"pogo_start"`
	PogoStop  uint16 `yaml:"pogo_stop"`
	LEDGreen  uint16 `yaml:"led_green"`
	LEDRed    uint16 `yaml:"led_red"`
}

// ---- SWD ----

const (
	WiringDirect   = "direct"
	WiringIsolated = "isolated"
)

type SWDConfig struct {
	Wiring              string `yaml:"wiring"` // direct | isolated
	HalfPeriodUs        int    `yaml:"half_period_us"`
	LineResetClocks     int    `yaml:"line_reset_clocks"`
	IdleCycles          int    `yaml:"idle_cycles"`
	WaitRetries         int    `yaml:"wait_retries"`
	WaitTimeoutMs       int    `yaml:"wait_timeout_ms"`
	PowerUpTimeoutMs    int    `yaml:"powerup_timeout_ms"`
	VerifyAttempts      int    `yaml:"verify_attempts"`
	RetryDelayMs        int    `yaml:"retry_delay_ms"`
	ExpectedIDCode      uint32 `yaml:"expected_idcode"`
	IntegrityIterations int    `yaml:"integrity_iterations"`
}

// ---- TEST SEQUENCE ----

type TestConfig struct {
	SettleMs     int    `yaml:"settle_ms"`
	PollMs       int    `yaml:"poll_ms"`
	DeadlineMs   int    `yaml:"deadline_ms"`
	ProbeAddress uint32 `yaml:"probe_address"`
}

// ---- STORAGE ----

type StorageConfig struct {
	CountersPath string `yaml:"counters_path"`
}

// ---- STATUS BLOCK ----

type StatusConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	BaseSlot   uint16 `yaml:"base_slot"`
	TimeoutMs  int    `yaml:"timeout_ms"`
	DeviceName string `yaml:"device_name"`
}

// ---- LOG ----

type LogConfig struct {
	Level   string `yaml:"level"`    // debug | info | warn | error
	CSVPath string `yaml:"csv_path"` // optional CSV copy of the result log
}
