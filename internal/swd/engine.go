// internal/swd/engine.go
package swd

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/tamzrod/swd-fixture/internal/clock"
)

// Engine is the SWD host: bit I/O, line sequences and the transaction engine
// over one Port, plus the register, memory and diagnostic layers built on it.
type Engine struct {
	port Port
	cfg  Config
	clk  clock.Clock
	log  *slog.Logger
}

// New creates an engine driving port.
//
// Example:
//
//	eng := swd.New(port,
//	    swd.WithHalfPeriod(2*time.Microsecond),
//	    swd.WithExpectedIDCode(swd.IDCodeSTM32G030),
//	)
func New(port Port, opts ...Option) *Engine {
	if port == nil {
		panic("swd: port cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Engine{
		port: port,
		cfg:  cfg,
		clk:  cfg.Clock,
		log:  log,
	}
}

// Config returns the effective configuration.
func (e *Engine) Config() Config { return e.cfg }

// ExpectedIDCode returns the identity a good target must report.
func (e *Engine) ExpectedIDCode() uint32 { return e.cfg.ExpectedIDCode }

func (e *Engine) debug(msg string, attrs ...slog.Attr) {
	e.log.LogAttrs(context.Background(), slog.LevelDebug, msg, attrs...)
}

func (e *Engine) info(msg string, attrs ...slog.Attr) {
	e.log.LogAttrs(context.Background(), slog.LevelInfo, msg, attrs...)
}

func hex32(key string, v uint32) slog.Attr {
	return slog.String(key, fmt.Sprintf("0x%08X", v))
}
