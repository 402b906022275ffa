// internal/station/station_test.go
package station

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/tamzrod/swd-fixture/internal/clock"
	"github.com/tamzrod/swd-fixture/internal/hw"
	"github.com/tamzrod/swd-fixture/internal/resultlog"
	"github.com/tamzrod/swd-fixture/internal/sequencer"
	"github.com/tamzrod/swd-fixture/internal/status"
	"github.com/tamzrod/swd-fixture/internal/store"
	"github.com/tamzrod/swd-fixture/internal/swd"
	"github.com/tamzrod/swd-fixture/internal/swd/swdsim"
)

// ---- fakes ----

type fakeStatus struct {
	snaps []status.Snapshot
}

func (f *fakeStatus) WriteStatus(s status.Snapshot) error {
	f.snaps = append(f.snaps, s)
	return nil
}

func (f *fakeStatus) last() status.Snapshot {
	return f.snaps[len(f.snaps)-1]
}

type rig struct {
	st     *Station
	sim    *hw.Sim
	clk    *clock.Fake
	out    *bytes.Buffer
	status *fakeStatus
}

func newRig(t *testing.T) *rig {
	t.Helper()

	clk := clock.NewFake()
	sim := hw.NewSim(swd.IDCodeSTM32G030, clk)
	eng := swd.New(sim.Target, swd.WithHalfPeriod(0), swd.WithClock(clk))
	out := &bytes.Buffer{}
	fs := &fakeStatus{}

	st, err := New(
		Config{Clock: clk},
		sim,
		eng,
		store.Memory(),
		resultlog.New(out, "1.0.0", clk),
		fs,
	)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	st.Boot()

	return &rig{st: st, sim: sim, clk: clk, out: out, status: fs}
}

// start presses the button and ticks until the run is pending.
func (r *rig) start(t *testing.T) {
	t.Helper()
	r.sim.PressStart()
	r.st.Tick()
	if r.st.State() != Testing {
		t.Fatalf("expected TESTING after start, got %s", r.st.State())
	}
}

// ---- tests ----

func TestBoot(t *testing.T) {
	r := newRig(t)

	if r.st.State() != Idle {
		t.Fatalf("expected IDLE after boot, got %s", r.st.State())
	}
	if !strings.HasPrefix(r.out.String(), "LOG_HEADER, Timestamp_ms") {
		t.Fatalf("header missing: %q", r.out.String())
	}
	if len(r.status.snaps) != 1 {
		t.Fatalf("expected one boot status write, got %d", len(r.status.snaps))
	}
	snap := r.status.last()
	if snap.Result != status.ResultNone || snap.Session != 1 {
		t.Fatalf("unexpected boot snapshot %+v", snap)
	}
	if r.sim.Target.Stats().Resets == 0 {
		t.Fatalf("integrity self-test did not touch the target")
	}
	if g, red := r.sim.LEDs(); g || red {
		t.Fatalf("LEDs should be off after boot blink")
	}
}

func TestPassFlow(t *testing.T) {
	r := newRig(t)

	r.st.Tick()
	if r.st.State() != Idle {
		t.Fatalf("no press: expected IDLE, got %s", r.st.State())
	}

	r.start(t)
	if r.st.Unit() != 1 {
		t.Fatalf("expected unit 1, got %d", r.st.Unit())
	}

	r.st.Tick()
	if r.st.State() != Result {
		t.Fatalf("expected RESULT, got %s", r.st.State())
	}

	rep, ok := r.st.LastReport()
	if !ok || rep.Result != sequencer.Pass {
		t.Fatalf("expected pass, got %+v", rep)
	}
	if g, red := r.sim.LEDs(); !g || red {
		t.Fatalf("pass should show solid green, got green=%v red=%v", g, red)
	}
	if start, stop := r.sim.Pogo(); start || stop {
		t.Fatalf("pogo lines left pressed")
	}

	if !strings.Contains(r.out.String(), ", 001, PASS, 0.00, 0x0BC11477, 1, OK, ") {
		t.Fatalf("unexpected log:\n%s", r.out.String())
	}

	snap := r.status.last()
	if snap.Result != uint16(sequencer.Pass) || snap.Unit != 1 || snap.IDCode != swd.IDCodeSTM32G030 {
		t.Fatalf("unexpected status %+v", snap)
	}
	if snap.SWDStatus != uint16(swd.OK) || snap.Attempts != 1 || snap.DurationMs == 0 {
		t.Fatalf("unexpected status %+v", snap)
	}

	// lid open clears the verdict
	r.sim.SetLid(true)
	r.st.Tick()
	if r.st.State() != Idle {
		t.Fatalf("expected IDLE after lid open, got %s", r.st.State())
	}
	if g, red := r.sim.LEDs(); g || red {
		t.Fatalf("LEDs should clear in IDLE")
	}
}

func TestFailFlow_NoLatch(t *testing.T) {
	r := newRig(t)
	r.sim.SetNoLatch(true)

	r.start(t)
	before := r.clk.Now()
	r.st.Tick()

	rep, _ := r.st.LastReport()
	if rep.Result != sequencer.FailNoLatch {
		t.Fatalf("expected FAIL_NO_LATCH, got %s", rep.Result)
	}
	if g, red := r.sim.LEDs(); g || !red {
		t.Fatalf("fail should end solid red, got green=%v red=%v", g, red)
	}

	// 5 x (300 on + 300 off) after the run itself
	if elapsed := r.clk.Now().Sub(before); elapsed < rep.Duration+3*time.Second {
		t.Fatalf("fail blink too short: %v (run %v)", elapsed, rep.Duration)
	}
	if !strings.Contains(r.out.String(), ", FAIL_NO_LATCH, 0.00, 0x00000000, 0, NONE, ") {
		t.Fatalf("unexpected log:\n%s", r.out.String())
	}
	if r.status.last().SWDStatus != status.SWDNotRun {
		t.Fatalf("swd status should read not-run")
	}
}

func TestFailFlow_WrongPart(t *testing.T) {
	r := newRig(t)
	r.sim.Target.IDCode = 0x12345678

	r.start(t)
	r.st.Tick()

	rep, _ := r.st.LastReport()
	if rep.Result != sequencer.FailWrongIDCode {
		t.Fatalf("expected FAIL_WRONG_IDCODE, got %s", rep.Result)
	}
	if r.status.last().IDCode != 0x12345678 {
		t.Fatalf("status should carry the identity read")
	}
}

func TestLidOpenBlocksStart(t *testing.T) {
	r := newRig(t)
	r.sim.SetLid(true)

	r.sim.PressStart()
	r.st.Tick()

	if r.st.State() != Idle || r.st.Unit() != 0 {
		t.Fatalf("start must be refused with the lid open: %s unit=%d", r.st.State(), r.st.Unit())
	}
}

func TestGlobalInterlockAbortsPendingRun(t *testing.T) {
	r := newRig(t)

	r.start(t)
	r.sim.SetLid(true)
	r.st.Tick()

	if r.st.State() != Idle {
		t.Fatalf("expected IDLE after interlock, got %s", r.st.State())
	}
	if _, ran := r.st.LastReport(); ran {
		t.Fatalf("run must not start with the lid open")
	}
	if g, red := r.sim.LEDs(); g || red {
		t.Fatalf("abort should leave LEDs off")
	}
}

func TestDebounceRejectsShortPress(t *testing.T) {
	r := newRig(t)

	r.sim.PressStart()
	r.clk.Advance(hw.PressHold - 10*time.Millisecond)
	r.st.Tick()

	if r.st.State() != Idle {
		t.Fatalf("press released inside the debounce window must be ignored")
	}
}

func TestHeartbeat(t *testing.T) {
	r := newRig(t)

	r.st.Tick()
	if n := len(r.status.snaps); n != 1 {
		t.Fatalf("no heartbeat before a period elapses, got %d writes", n)
	}

	r.clk.Advance(time.Second)
	r.st.Tick()
	if hb := r.status.last().Heartbeat; hb != 1 {
		t.Fatalf("expected heartbeat 1, got %d", hb)
	}

	r.clk.Advance(time.Second)
	r.st.Tick()
	if hb := r.status.last().Heartbeat; hb != 2 {
		t.Fatalf("expected heartbeat 2, got %d", hb)
	}
}

func TestHeartbeatDuringRun(t *testing.T) {
	r := newRig(t)
	r.start(t)

	before := r.status.last().Heartbeat
	r.st.Tick()

	// settle windows alone take a second; step boundaries keep the beat going
	if r.status.last().Heartbeat <= before {
		t.Fatalf("heartbeat stalled during the run")
	}
}

func TestUnitCounterAdvancesPerRun(t *testing.T) {
	r := newRig(t)

	for want := uint32(1); want <= 3; want++ {
		r.sim.SetLid(false)
		r.start(t)
		r.st.Tick()
		if r.st.Unit() != want {
			t.Fatalf("expected unit %d, got %d", want, r.st.Unit())
		}
		r.sim.SetLid(true)
		r.st.Tick()
	}
}

func TestNew_Validation(t *testing.T) {
	clk := clock.NewFake()
	sim := hw.NewSim(swd.IDCodeSTM32G030, clk)
	eng := swd.New(sim.Target, swd.WithClock(clk))
	logr := resultlog.New(&bytes.Buffer{}, "", clk)

	if _, err := New(Config{}, nil, eng, store.Memory(), logr, nil); err == nil {
		t.Fatalf("expected error without fixture io")
	}
	if _, err := New(Config{}, sim, nil, store.Memory(), logr, nil); err == nil {
		t.Fatalf("expected error without probe")
	}
	if _, err := New(Config{}, sim, eng, nil, logr, nil); err == nil {
		t.Fatalf("expected error without counters")
	}
	if _, err := New(Config{}, sim, eng, store.Memory(), nil, nil); err == nil {
		t.Fatalf("expected error without result log")
	}
	if _, err := New(Config{}, sim, eng, store.Memory(), logr, nil); err != nil {
		t.Fatalf("status writer is optional: %v", err)
	}
}

// pinFaultPort is a probe port that reports a stuck pin error.
type pinFaultPort struct {
	*swdsim.Target
	err error
}

func (p *pinFaultPort) Err() error { return p.err }

func TestProbePinFailureIsLogged(t *testing.T) {
	clk := clock.NewFake()
	sim := hw.NewSim(swd.IDCodeSTM32G030, clk)
	port := &pinFaultPort{Target: sim.Target, err: errors.New("swclk write refused")}
	eng := swd.New(port, swd.WithHalfPeriod(0), swd.WithClock(clk))

	logs := &bytes.Buffer{}
	st, err := New(
		Config{Clock: clk, Logger: slog.New(slog.NewTextHandler(logs, nil))},
		sim,
		eng,
		store.Memory(),
		resultlog.New(&bytes.Buffer{}, "", clk),
		nil,
	)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	st.Boot()
	if !strings.Contains(logs.String(), "probe pin failure") ||
		!strings.Contains(logs.String(), "integrity self-test: swclk write refused") {
		t.Fatalf("boot did not report the pin error:\n%s", logs.String())
	}

	logs.Reset()
	sim.PressStart()
	st.Tick()
	st.Tick()
	if !strings.Contains(logs.String(), "unit 1: swclk write refused") {
		t.Fatalf("run did not report the pin error:\n%s", logs.String())
	}
}

func TestHealthyProbeLogsNoPinFailure(t *testing.T) {
	clk := clock.NewFake()
	sim := hw.NewSim(swd.IDCodeSTM32G030, clk)
	eng := swd.New(sim.Target, swd.WithHalfPeriod(0), swd.WithClock(clk))

	logs := &bytes.Buffer{}
	st, _ := New(
		Config{Clock: clk, Logger: slog.New(slog.NewTextHandler(logs, nil))},
		sim, eng, store.Memory(), resultlog.New(&bytes.Buffer{}, "", clk), nil,
	)
	st.Boot()

	if strings.Contains(logs.String(), "probe pin failure") {
		t.Fatalf("unexpected pin failure report:\n%s", logs.String())
	}
}

type longRunCounters struct{ session, unit uint32 }

func (c *longRunCounters) BeginSession() (uint32, error) { c.session++; return c.session, nil }
func (c *longRunCounters) NextUnit() (uint32, error)     { c.unit++; return c.unit, nil }

func TestSessionBeyond16Bits(t *testing.T) {
	clk := clock.NewFake()
	sim := hw.NewSim(swd.IDCodeSTM32G030, clk)
	eng := swd.New(sim.Target, swd.WithHalfPeriod(0), swd.WithClock(clk))
	fs := &fakeStatus{}

	st, err := New(Config{Clock: clk}, sim, eng, &longRunCounters{session: 70000},
		resultlog.New(&bytes.Buffer{}, "", clk), fs)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	st.Boot()

	if got := fs.last().Session; got != 70001 {
		t.Fatalf("expected session 70001, got %d", got)
	}
}
