// internal/swd/options.go
package swd

import (
	"log/slog"
	"time"

	"github.com/tamzrod/swd-fixture/internal/clock"
)

// Config holds the engine timing, retry and target settings.
type Config struct {
	// HalfPeriod is the SWCLK half period. Opto-isolated wiring needs a longer one.
	HalfPeriod time.Duration

	// LineResetClocks is the number of SWDIO-high clocks in a line reset (>= MinLineResetClocks).
	LineResetClocks int

	// IdleCycles is the idle padding after every transaction.
	IdleCycles int

	// WaitRetries bounds WAIT retries inside one Transfer.
	WaitRetries int

	// WaitTimeout bounds one Transfer on the wall clock.
	WaitTimeout time.Duration

	// WaitBackoff is the pause between WAIT retries.
	WaitBackoff time.Duration

	// PowerUpTimeout bounds the CTRL/STAT acknowledge poll.
	PowerUpTimeout time.Duration

	// VerifyAttempts is the number of connect attempts in VerifyTarget.
	VerifyAttempts int

	// RetryDelay separates VerifyTarget attempts.
	RetryDelay time.Duration

	// ResetAssert and ResetSettle shape the nRST pulse.
	ResetAssert time.Duration
	ResetSettle time.Duration

	// ExpectedIDCode is the DPIDR of a correctly provisioned target.
	ExpectedIDCode uint32

	// Clock is the time source for millisecond waits and deadlines.
	Clock clock.Clock

	// Logger receives wire diagnostics (optional).
	Logger *slog.Logger
}

func defaultConfig() Config {
	return Config{
		HalfPeriod:      1 * time.Microsecond,
		LineResetClocks: DefaultLineResetClocks,
		IdleCycles:      4,
		WaitRetries:     8,
		WaitTimeout:     200 * time.Millisecond,
		WaitBackoff:     100 * time.Microsecond,
		PowerUpTimeout:  100 * time.Millisecond,
		VerifyAttempts:  3,
		RetryDelay:      50 * time.Millisecond,
		ResetAssert:     20 * time.Millisecond,
		ResetSettle:     10 * time.Millisecond,
		ExpectedIDCode:  IDCodeSTM32G030,
		Clock:           clock.Real{},
	}
}

// Option is a functional option for configuring the Engine.
type Option func(*Config)

// WithHalfPeriod sets the SWCLK half period.
func WithHalfPeriod(d time.Duration) Option {
	return func(c *Config) {
		if d >= 0 {
			c.HalfPeriod = d
		}
	}
}

// WithLineResetClocks sets the line reset length. Values below the protocol minimum are ignored.
func WithLineResetClocks(n int) Option {
	return func(c *Config) {
		if n >= MinLineResetClocks {
			c.LineResetClocks = n
		}
	}
}

// WithIdleCycles sets the idle padding after each transaction.
// The first idle cycle doubles as the turnaround, so at least one is kept.
func WithIdleCycles(n int) Option {
	return func(c *Config) {
		if n >= 1 {
			c.IdleCycles = n
		}
	}
}

// WithWaitPolicy sets the WAIT retry bound and the per-transfer deadline.
//
// Example:
//
//	eng := swd.New(port, swd.WithWaitPolicy(8, 200*time.Millisecond))
func WithWaitPolicy(retries int, timeout time.Duration) Option {
	return func(c *Config) {
		if retries > 0 {
			c.WaitRetries = retries
		}
		if timeout > 0 {
			c.WaitTimeout = timeout
		}
	}
}

// WithPowerUpTimeout bounds the debug power-up acknowledge poll.
func WithPowerUpTimeout(d time.Duration) Option {
	return func(c *Config) {
		if d > 0 {
			c.PowerUpTimeout = d
		}
	}
}

// WithVerifyPolicy sets the VerifyTarget attempt count and inter-attempt delay.
func WithVerifyPolicy(attempts int, delay time.Duration) Option {
	return func(c *Config) {
		if attempts > 0 {
			c.VerifyAttempts = attempts
		}
		if delay >= 0 {
			c.RetryDelay = delay
		}
	}
}

// WithExpectedIDCode sets the identity a good target must report.
func WithExpectedIDCode(id uint32) Option {
	return func(c *Config) {
		c.ExpectedIDCode = id
	}
}

// WithClock injects the time source.
func WithClock(clk clock.Clock) Option {
	return func(c *Config) {
		if clk != nil {
			c.Clock = clk
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}
