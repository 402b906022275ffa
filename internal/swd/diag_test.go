// internal/swd/diag_test.go
package swd

import (
	"testing"
	"time"

	"github.com/tamzrod/swd-fixture/internal/swd/swdsim"
)

func TestVerifyTarget(t *testing.T) {
	cases := []struct {
		name     string
		setup    func(tgt *swdsim.Target)
		status   Status
		attempts int
		healthy  bool
		passed   bool
	}{
		{
			name:     "healthy",
			status:   OK,
			attempts: 1,
			healthy:  true,
			passed:   true,
		},
		{
			name:     "wrong idcode",
			setup:    func(tgt *swdsim.Target) { tgt.IDCode = 0x0BB11477 },
			status:   OK,
			attempts: 3,
			healthy:  true,
		},
		{
			name:     "empty socket",
			setup:    func(tgt *swdsim.Target) { tgt.Present = false },
			status:   Error,
			attempts: 3,
		},
		{
			name:     "always wait",
			setup:    func(tgt *swdsim.Target) { tgt.AlwaysWait = true },
			status:   Wait,
			attempts: 3,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			e, tgt, _ := newTestEngine(t)

			if c.setup != nil {
				c.setup(tgt)
			}

			res := e.VerifyTarget()

			if res.Status != c.status {
				t.Fatalf("status=%s want %s", res.Status, c.status)
			}
			if res.Attempts != c.attempts {
				t.Fatalf("attempts=%d want %d", res.Attempts, c.attempts)
			}
			if res.BusHealthy != c.healthy {
				t.Fatalf("BusHealthy=%v want %v", res.BusHealthy, c.healthy)
			}
			if res.Passed(IDCodeSTM32G030) != c.passed {
				t.Fatalf("Passed=%v want %v", res.Passed(IDCodeSTM32G030), c.passed)
			}
		})
	}
}

func TestVerifyTarget_FaultRecoversBeforeRetry(t *testing.T) {
	e, tgt, _ := newTestEngine(t)
	tgt.Faults = 1

	res := e.VerifyTarget()

	if !res.Passed(IDCodeSTM32G030) {
		t.Fatalf("expected pass on second attempt: %+v", res)
	}
	if res.Attempts != 2 {
		t.Fatalf("attempts=%d want 2", res.Attempts)
	}

	// one ABORT from the transfer, one from AbortRecovery
	if n := tgt.Stats().Aborts; n != 2 {
		t.Fatalf("aborts=%d want 2", n)
	}
}

func TestVerifyTarget_Timing(t *testing.T) {
	e, tgt, clk := newTestEngine(t)
	tgt.Present = false

	start := clk.Now()
	e.VerifyTarget()

	// 3 x (20ms reset + 10ms settle) + 2 x 50ms retry delay
	want := 3*30*time.Millisecond + 2*50*time.Millisecond
	if got := clk.Now().Sub(start); got != want {
		t.Fatalf("elapsed=%s want %s", got, want)
	}
	if n := tgt.Stats().Resets; n != 3 {
		t.Fatalf("resets=%d want 3", n)
	}
}

func TestIntegrityTest(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		e, tgt, _ := newTestEngine(t)

		res, st := e.IntegrityTest(10)
		if st != OK {
			t.Fatalf("status=%s", st)
		}
		if res.Passes != 10 || res.Fails != 0 || len(res.Failures) != 0 {
			t.Fatalf("unexpected result %+v", res)
		}
		if n := tgt.Stats().Resets; n != 1 {
			t.Fatalf("expected a single target reset, got %d", n)
		}
	})

	t.Run("wrong part", func(t *testing.T) {
		e, tgt, _ := newTestEngine(t)
		tgt.IDCode = 0x2BA01477

		res, st := e.IntegrityTest(10)
		if st != Error {
			t.Fatalf("status=%s", st)
		}
		if res.Fails != 10 {
			t.Fatalf("fails=%d", res.Fails)
		}
		if len(res.Failures) != 3 {
			t.Fatalf("expected the first 3 failures kept, got %d", len(res.Failures))
		}
		if res.Failures[0].IDCode != 0x2BA01477 || res.Failures[2].Iteration != 2 {
			t.Fatalf("unexpected failures %+v", res.Failures)
		}
	})
}

func TestAbortRecovery(t *testing.T) {
	e, tgt, _ := newTestEngine(t)
	e.Connect()

	if st := e.AbortRecovery(); st != OK {
		t.Fatalf("status=%s", st)
	}
	if tgt.Stats().Aborts != 1 {
		t.Fatalf("aborts=%d", tgt.Stats().Aborts)
	}
	if _, st := e.ReadDP(DPIDR); st != OK {
		t.Fatalf("bus not usable after recovery: %s", st)
	}
}

func TestSafeState(t *testing.T) {
	p := &recPort{clk: true, drive: true, reset: true}
	e := New(p, WithHalfPeriod(0))

	e.SafeState()

	if p.clk || p.drive || p.reset {
		t.Fatalf("lines not parked: clk=%v drive=%v reset=%v", p.clk, p.drive, p.reset)
	}
}
