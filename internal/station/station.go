// internal/station/station.go
package station

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"

	"github.com/tamzrod/swd-fixture/internal/clock"
	"github.com/tamzrod/swd-fixture/internal/hw"
	"github.com/tamzrod/swd-fixture/internal/resultlog"
	"github.com/tamzrod/swd-fixture/internal/sequencer"
	"github.com/tamzrod/swd-fixture/internal/status"
	"github.com/tamzrod/swd-fixture/internal/swd"
	"github.com/tamzrod/swd-fixture/internal/writer"
)

// State is the operator-facing station state.
type State uint8

const (
	Idle    State = iota // waiting for the start button
	Testing              // start accepted, run pending
	Result               // verdict shown until the lid opens
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Testing:
		return "TESTING"
	case Result:
		return "RESULT"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Probe is the debug side. *swd.Engine satisfies it.
type Probe interface {
	sequencer.Probe
	IntegrityTest(iterations int) (swd.IntegrityResult, swd.Status)
	LineErr() error
}

// Counters is satisfied by *store.Store.
type Counters interface {
	BeginSession() (uint32, error)
	NextUnit() (uint32, error)
}

// Results is satisfied by *resultlog.Logger.
type Results interface {
	Header()
	Entry(e resultlog.Entry) error
}

// Blink is one LED blink pattern: Count cycles of Half on, Half off.
type Blink struct {
	Count int
	Half  time.Duration
}

// Config is the runtime config the station needs.
// Zero values take the defaults below.
type Config struct {
	Tick                time.Duration // main loop period (20ms)
	Debounce            time.Duration // start button confirm delay (50ms)
	Heartbeat           time.Duration // status heartbeat period (1s)
	IntegrityIterations int           // boot self-test reads (10)

	BootBlink  Blink // green 3x200ms
	FailBlink  Blink // red 5x300ms, then solid
	AbortBlink Blink // red 3x100ms

	Sequencer sequencer.Config

	Clock  clock.Clock
	Logger *slog.Logger
}

var (
	DefaultTick                = 20 * time.Millisecond
	DefaultDebounce            = 50 * time.Millisecond
	DefaultHeartbeat           = time.Second
	DefaultIntegrityIterations = 10

	DefaultBootBlink  = Blink{Count: 3, Half: 200 * time.Millisecond}
	DefaultFailBlink  = Blink{Count: 5, Half: 300 * time.Millisecond}
	DefaultAbortBlink = Blink{Count: 3, Half: 100 * time.Millisecond}
)

// Station is the fixture main loop: operator interlock, test dispatch,
// result indication, logging and status publishing.
type Station struct {
	cfg      Config
	io       hw.FixtureIO
	probe    Probe
	seq      *sequencer.Sequencer
	counters Counters
	results  Results
	status   writer.StatusWriter // nil when disabled

	clk clock.Clock
	log *slog.Logger

	state    State
	unit     uint32
	session  uint32
	snap     status.Snapshot
	lastBeat time.Time
	last     *sequencer.Report
}

// New builds a station and its sequencer. sw may be nil.
func New(cfg Config, fio hw.FixtureIO, probe Probe, counters Counters, results Results, sw writer.StatusWriter) (*Station, error) {
	if fio == nil {
		return nil, errors.New("station: fixture io required")
	}
	if probe == nil {
		return nil, errors.New("station: probe required")
	}
	if counters == nil {
		return nil, errors.New("station: counters required")
	}
	if results == nil {
		return nil, errors.New("station: result log required")
	}

	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = DefaultHeartbeat
	}
	if cfg.IntegrityIterations <= 0 {
		cfg.IntegrityIterations = DefaultIntegrityIterations
	}
	if cfg.BootBlink == (Blink{}) {
		cfg.BootBlink = DefaultBootBlink
	}
	if cfg.FailBlink == (Blink{}) {
		cfg.FailBlink = DefaultFailBlink
	}
	if cfg.AbortBlink == (Blink{}) {
		cfg.AbortBlink = DefaultAbortBlink
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	s := &Station{
		cfg:      cfg,
		io:       fio,
		probe:    probe,
		counters: counters,
		results:  results,
		status:   sw,
		clk:      cfg.Clock,
		log:      cfg.Logger,
	}

	sc := cfg.Sequencer
	sc.Clock = cfg.Clock
	if sc.Logger == nil {
		sc.Logger = cfg.Logger
	}
	sc.Heartbeat = s.onStep

	seq, err := sequencer.New(sc, fio, probe)
	if err != nil {
		return nil, err
	}
	s.seq = seq

	return s, nil
}

// State returns the current station state.
func (s *Station) State() State { return s.state }

// Unit returns the last unit number assigned.
func (s *Station) Unit() uint32 { return s.unit }

// LastReport returns the report of the most recent run, if any.
func (s *Station) LastReport() (sequencer.Report, bool) {
	if s.last == nil {
		return sequencer.Report{}, false
	}
	return *s.last, true
}

// Run boots the station and drives the main loop until ctx is done.
// Outputs are left safe on return.
func (s *Station) Run(ctx context.Context) error {
	s.Boot()
	defer s.forceSafe()

	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("station stopping")
			return ctx.Err()
		case <-ticker.C:
			s.Tick()
		}
	}
}

// ------------------------------------------------------------
// boot
// ------------------------------------------------------------

// Boot runs the start-up sequence: safe outputs, session counter, boot blink,
// SWD integrity self-test and the result log header.
func (s *Station) Boot() {
	s.forceSafe()

	session, err := s.counters.BeginSession()
	if err != nil {
		s.log.Warn("session counter not persisted", slog.Any("err", err))
	}
	s.session = session
	s.snap = status.Idle(session)
	s.log.Info("session started", slog.Uint64("session", uint64(session)))

	s.blink(true, s.cfg.BootBlink)

	s.integrity()

	s.results.Header()
	s.lastBeat = s.clk.Now()
	s.publish()

	s.state = Idle
	s.log.Info("fixture ready, waiting for operator")
}

func (s *Station) integrity() {
	n := s.cfg.IntegrityIterations
	s.log.Info("running swd integrity self-test", slog.Int("iterations", n))

	res, st := s.probe.IntegrityTest(n)
	s.probe.SafeState()
	s.checkLines("integrity self-test")

	if st != swd.OK {
		attrs := []any{
			slog.Int("passed", res.Passes),
			slog.Int("iterations", n),
		}
		if len(res.Failures) > 0 {
			f := res.Failures[0]
			attrs = append(attrs,
				slog.Int("first_iteration", f.Iteration),
				slog.String("first_status", f.Status.String()),
			)
		}
		s.log.Warn("swd integrity degraded, check pogo contact", attrs...)
		return
	}
	s.log.Info("swd integrity ok", slog.Int("passed", res.Passes), slog.Int("iterations", n))
}

// ------------------------------------------------------------
// main loop
// ------------------------------------------------------------

// Tick runs one main loop iteration.
func (s *Station) Tick() {
	s.beat()

	// ---- global interlock ----
	if s.state == Testing && s.io.LidOpen() {
		s.log.Warn("lid opened during test, aborting")
		s.forceSafe()
		s.blink(false, s.cfg.AbortBlink)
		s.state = Idle
		return
	}

	switch s.state {
	case Idle:
		s.io.SetLEDs(false, false)
		if s.startPressed() && !s.io.LidOpen() {
			unit, err := s.counters.NextUnit()
			if err != nil {
				s.log.Warn("unit counter not persisted", slog.Any("err", err))
			}
			s.unit = unit
			s.log.Info("starting test", slog.Uint64("unit", uint64(unit)))
			s.state = Testing
		}

	case Testing:
		s.runTest()
		s.state = Result

	case Result:
		if s.io.LidOpen() {
			s.log.Info("lid opened, back to idle")
			s.io.SetLEDs(false, false)
			s.state = Idle
		}

	default:
		s.log.Error("invalid station state, forcing safe", slog.String("state", s.state.String()))
		s.forceSafe()
		s.state = Idle
	}
}

// startPressed confirms a press after the debounce delay.
func (s *Station) startPressed() bool {
	if !s.io.StartPressed() {
		return false
	}
	s.clk.Sleep(s.cfg.Debounce)
	return s.io.StartPressed()
}

func (s *Station) runTest() {
	s.io.SetLEDs(true, true)

	rep, err := s.seq.Run()
	if err != nil {
		// single loop owns the sequencer; busy means a wiring bug
		s.log.Error("sequencer refused run", slog.Any("err", err))
		s.forceSafe()
		return
	}
	s.last = &rep

	s.forceSafe()
	s.checkLines(fmt.Sprintf("unit %d", s.unit))

	// sampled after release, as the operator sees the rail
	volts := hw.Volts(s.io.LoadVoltage())

	swdStatus := "NONE"
	if rep.Attempts > 0 {
		swdStatus = rep.LastStatus.String()
	}

	err = s.results.Entry(resultlog.Entry{
		Unit:       s.unit,
		Status:     rep.Result.String(),
		Voltage:    volts,
		IDCode:     rep.IDCode,
		Attempts:   rep.Attempts,
		SWDStatus:  swdStatus,
		DurationMs: rep.DurationMs(),
	})
	if err != nil {
		s.log.Warn("result not appended", slog.Any("err", err))
	}

	s.snap.Result = uint16(rep.Result)
	s.snap.SWDStatus = status.SWDNotRun
	if rep.Attempts > 0 {
		s.snap.SWDStatus = uint16(rep.LastStatus)
	}
	s.snap.Attempts = uint16(rep.Attempts)
	s.snap.IDCode = rep.IDCode
	s.snap.DurationMs = rep.DurationMs()
	s.snap.Unit = s.unit
	s.publish()

	if rep.Result.Passed() {
		s.io.SetLEDs(true, false)
		s.log.Info("unit passed",
			slog.Uint64("unit", uint64(s.unit)),
			slog.Duration("duration", rep.Duration),
		)
		return
	}

	s.blink(false, s.cfg.FailBlink)
	s.io.SetLEDs(false, true)
	s.log.Info("unit failed",
		slog.Uint64("unit", uint64(s.unit)),
		slog.String("result", rep.Result.String()),
		slog.Duration("duration", rep.Duration),
	)
}

// ------------------------------------------------------------
// helpers
// ------------------------------------------------------------

func (s *Station) forceSafe() {
	if err := s.io.Halt(); err != nil {
		s.log.Error("outputs not confirmed safe", slog.Any("err", err))
	}
}

// blink flashes one LED; the other stays off.
func (s *Station) blink(green bool, b Blink) {
	for i := 0; i < b.Count; i++ {
		s.io.SetLEDs(green, !green)
		s.clk.Sleep(b.Half)
		s.io.SetLEDs(false, false)
		s.clk.Sleep(b.Half)
	}
}

// onStep keeps the heartbeat alive while a run blocks the loop.
func (s *Station) onStep(step sequencer.Step) {
	s.log.Debug("step", slog.String("step", step.String()))
	s.beat()
}

// beat advances the heartbeat once per elapsed period.
func (s *Station) beat() {
	if s.lastBeat.IsZero() {
		return
	}
	now := s.clk.Now()
	if now.Sub(s.lastBeat) < s.cfg.Heartbeat {
		return
	}
	s.lastBeat = now
	s.snap.Heartbeat++
	s.publish()
}

// checkLines reports a probe pin failure, which otherwise only shows up as
// a missing target.
func (s *Station) checkLines(during string) {
	if err := s.probe.LineErr(); err != nil {
		s.log.Error("probe pin failure", slog.Any("err", errors.Wrap(err, during)))
	}
}

func (s *Station) publish() {
	if s.status == nil {
		return
	}
	if err := s.status.WriteStatus(s.snap); err != nil {
		s.log.Warn("status block write failed", slog.Any("err", err))
	}
}
