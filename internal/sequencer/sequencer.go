// internal/sequencer/sequencer.go
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/tamzrod/swd-fixture/internal/clock"
	"github.com/tamzrod/swd-fixture/internal/swd"
)

// ErrBusy is returned when a run is requested while another is in flight.
var ErrBusy = errors.New("sequencer: run already in progress")

// Fixture is the physical side of the test: pogo outputs and the two sense inputs.
type Fixture interface {
	LidOpen() bool
	LoadOn() bool

	// SetStart and SetStop drive the pogo lines; pressed=false is the safe level.
	SetStart(pressed bool)
	SetStop(pressed bool)
}

// Probe is the debug side of the test. *swd.Engine satisfies it.
type Probe interface {
	VerifyTarget() swd.VerifyResult
	PowerUpDebug() swd.Status
	MemRead32(addr uint32) (uint32, swd.Status)
	ExpectedIDCode() uint32
	SafeState()
}

// Config is the runtime config the sequencer needs.
// Zero durations take the defaults below.
type Config struct {
	Settle       time.Duration // per settle window (500ms)
	PollInterval time.Duration // interlock poll slice (20ms)
	Deadline     time.Duration // whole run (5s)
	ProbeAddress uint32        // informational memory read after a pass

	Clock  clock.Clock
	Logger *slog.Logger

	// Heartbeat is called at every step boundary (optional).
	Heartbeat func(Step)
}

const (
	DefaultSettle       = 500 * time.Millisecond
	DefaultPollInterval = 20 * time.Millisecond
	DefaultDeadline     = 5 * time.Second
	DefaultProbeAddress = 0x08000000
)

// Sequencer runs the production test. One run at a time.
type Sequencer struct {
	cfg   Config
	fix   Fixture
	probe Probe
	clk   clock.Clock
	log   *slog.Logger
	sem   *semaphore.Weighted
}

// New creates a sequencer over fix and probe.
func New(cfg Config, fix Fixture, probe Probe) (*Sequencer, error) {
	if fix == nil {
		return nil, errors.New("sequencer: fixture required")
	}
	if probe == nil {
		return nil, errors.New("sequencer: probe required")
	}
	if cfg.Settle < 0 || cfg.PollInterval < 0 || cfg.Deadline < 0 {
		return nil, errors.New("sequencer: durations must be >= 0")
	}

	if cfg.Settle == 0 {
		cfg.Settle = DefaultSettle
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	if cfg.Deadline == 0 {
		cfg.Deadline = DefaultDeadline
	}
	if cfg.ProbeAddress == 0 {
		cfg.ProbeAddress = DefaultProbeAddress
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Sequencer{
		cfg:   cfg,
		fix:   fix,
		probe: probe,
		clk:   cfg.Clock,
		log:   cfg.Logger,
		sem:   semaphore.NewWeighted(1),
	}, nil
}

// Run executes one full test cycle.
// It returns ErrBusy, without touching hardware, if a run is already in flight.
//
// Both pogo outputs are released and the probe lines parked on every return
// path. A panic inside a collaborator still runs that cleanup and then
// continues unwinding.
func (s *Sequencer) Run() (Report, error) {
	if !s.sem.TryAcquire(1) {
		return Report{}, ErrBusy
	}
	defer s.sem.Release(1)

	return s.run(), nil
}

// ------------------------------------------------------------
// sequence
// ------------------------------------------------------------

func (s *Sequencer) run() (rep Report) {
	start := s.clk.Now()
	deadline := start.Add(s.cfg.Deadline)

	defer func() {
		s.fix.SetStart(false)
		s.fix.SetStop(false)
		s.probe.SafeState()
		rep.Duration = s.clk.Now().Sub(start)

		s.log.LogAttrs(context.Background(), slog.LevelInfo, "test finished",
			slog.String("result", rep.Result.String()),
			slog.String("step", rep.Step.String()),
			slog.Int("attempts", rep.Attempts),
			slog.String("idcode", fmt.Sprintf("0x%08X", rep.IDCode)),
			slog.Duration("duration", rep.Duration),
		)
	}()

	fail := func(r Result, msg string) Report {
		rep.Result = r
		s.log.Info(msg, slog.String("step", rep.Step.String()))
		return rep
	}

	mark := func(step Step) {
		rep.Step = step
		if s.cfg.Heartbeat != nil {
			s.cfg.Heartbeat(step)
		}
	}

	// enter starts a step: heartbeat, then the run deadline.
	enter := func(step Step) bool {
		mark(step)
		if s.clk.Now().After(deadline) {
			rep.Result = FailTimeout
			s.log.Info("deadline expired", slog.String("step", step.String()))
			return false
		}
		return true
	}

	// ---- 1. interlock ----
	if !enter(StepLidCheck) {
		return rep
	}
	if s.fix.LidOpen() {
		return fail(FailSafetyOpen, "lid open, test aborted")
	}

	// ---- 2. pre-check ----
	if !enter(StepPreCheck) {
		return rep
	}
	if s.fix.LoadOn() {
		return fail(FailStuckOn, "load already energised")
	}

	// ---- 3. latch ----
	if !enter(StepLatch) {
		return rep
	}
	s.fix.SetStart(true)
	s.fix.SetStop(true)
	if !s.settle() {
		return fail(FailSafetyOpen, "lid opened while latching")
	}

	// ---- 4. verify on ----
	if !enter(StepVerifyOn) {
		return rep
	}
	if !s.fix.LoadOn() {
		return fail(FailNoLatch, "load did not turn on")
	}

	// ---- 5. unlatch ----
	if !enter(StepUnlatch) {
		return rep
	}
	s.fix.SetStart(false)
	s.fix.SetStop(false)
	if !s.settle() {
		return fail(FailSafetyOpen, "lid opened while unlatching")
	}

	// ---- 6. verify off ----
	if !enter(StepVerifyOff) {
		return rep
	}
	if s.fix.LoadOn() {
		return fail(FailStuckLatched, "load stuck on after unlatch")
	}

	// ---- 7. interlock before SWD ----
	if !enter(StepFinalLid) {
		return rep
	}
	if s.fix.LidOpen() {
		return fail(FailSafetyOpen, "lid opened before swd check")
	}

	// ---- 8. SWD verify ----
	if !enter(StepSWDVerify) {
		return rep
	}
	v := s.probe.VerifyTarget()
	rep.IDCode = v.IDCode
	rep.Attempts = v.Attempts
	rep.LastStatus = v.Status

	if r := Classify(v, s.probe.ExpectedIDCode()); r != Pass {
		return fail(r, "swd verify failed")
	}

	// ---- 9. informational debug probe ----
	// Never affects the result; skipped once the deadline has passed.
	mark(StepDebugProbe)
	if s.clk.Now().After(deadline) {
		s.log.Info("deadline reached after verify, debug probe skipped")
	} else {
		s.debugProbe()
	}

	mark(StepDone)
	rep.Result = Pass
	return rep
}

// settle waits Config.Settle in slices of at most Config.PollInterval and
// polls the lid after each slice. It returns false as soon as the lid opens.
func (s *Sequencer) settle() bool {
	end := s.clk.Now().Add(s.cfg.Settle)
	for {
		remaining := end.Sub(s.clk.Now())
		if remaining <= 0 {
			return true
		}
		s.clk.Sleep(min(remaining, s.cfg.PollInterval))
		if s.fix.LidOpen() {
			return false
		}
	}
}

// debugProbe powers up the debug domain and reads one word. Never affects the result.
func (s *Sequencer) debugProbe() {
	if st := s.probe.PowerUpDebug(); st != swd.OK {
		s.log.Info("debug power-up failed, not a test failure", slog.String("status", st.String()))
		return
	}

	v, st := s.probe.MemRead32(s.cfg.ProbeAddress)
	if st != swd.OK {
		s.log.Info("memory probe failed, not a test failure", slog.String("status", st.String()))
		return
	}
	s.log.Info("memory probe",
		slog.String("addr", fmt.Sprintf("0x%08X", s.cfg.ProbeAddress)),
		slog.String("value", fmt.Sprintf("0x%08X", v)),
	)
}
