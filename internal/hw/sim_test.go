// internal/hw/sim_test.go
package hw

import (
	"testing"
	"time"

	"github.com/tamzrod/swd-fixture/internal/clock"
	"github.com/tamzrod/swd-fixture/internal/swd"
)

func TestSim_LatchModel(t *testing.T) {
	cases := []struct {
		name        string
		start, stop bool
		before      bool
		want        bool
	}{
		{"both pressed latches", true, true, false, true},
		{"both released drops", false, false, true, false},
		{"stop alone drops", false, true, true, false},
		{"start alone holds on", true, false, true, true},
		{"start alone holds off", true, false, false, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := NewSim(swd.IDCodeSTM32G030, clock.NewFake())
			if c.before {
				s.SetStart(true)
				s.SetStop(true)
			}

			s.SetStop(c.stop)
			s.SetStart(c.start)

			if got := s.LoadOn(); got != c.want {
				t.Fatalf("load on: got %v want %v", got, c.want)
			}
		})
	}
}

func TestSim_Voltage(t *testing.T) {
	s := NewSim(swd.IDCodeSTM32G030, clock.NewFake())

	if Volts(s.LoadVoltage()) != 0 {
		t.Fatalf("unlatched load should read 0V")
	}
	s.SetStart(true)
	s.SetStop(true)
	if Volts(s.LoadVoltage()) != 3.3 {
		t.Fatalf("latched load should read 3.3V, got %v", s.LoadVoltage())
	}
}

func TestSim_FaultInjection(t *testing.T) {
	s := NewSim(swd.IDCodeSTM32G030, clock.NewFake())

	s.SetStuckOn(true)
	if !s.LoadOn() {
		t.Fatalf("stuck load should read on")
	}
	s.SetStuckOn(false)

	s.SetNoLatch(true)
	s.SetStart(true)
	s.SetStop(true)
	if s.LoadOn() {
		t.Fatalf("latch should not engage")
	}
}

func TestSim_ButtonPressHolds(t *testing.T) {
	clk := clock.NewFake()
	s := NewSim(swd.IDCodeSTM32G030, clk)

	if s.StartPressed() {
		t.Fatalf("button should start released")
	}

	s.PressStart()
	clk.Advance(PressHold - time.Millisecond)
	if !s.StartPressed() {
		t.Fatalf("button should still be held")
	}
	clk.Advance(time.Millisecond)
	if s.StartPressed() {
		t.Fatalf("button should release after %v", PressHold)
	}
}

func TestSim_HaltReleasesEverything(t *testing.T) {
	s := NewSim(swd.IDCodeSTM32G030, clock.NewFake())
	s.SetStart(true)
	s.SetStop(true)
	s.SetLEDs(true, true)

	if err := s.Halt(); err != nil {
		t.Fatal(err)
	}

	start, stop := s.Pogo()
	green, red := s.LEDs()
	if start || stop || green || red || s.LoadOn() {
		t.Fatalf("halt left state behind: %v %v %v %v", start, stop, green, red)
	}
}

func TestSim_EngineReadsTarget(t *testing.T) {
	clk := clock.NewFake()
	s := NewSim(swd.IDCodeSTM32G030, clk)

	e := swd.New(s.Target, swd.WithHalfPeriod(0), swd.WithClock(clk))

	v := e.VerifyTarget()
	if !v.Passed(swd.IDCodeSTM32G030) {
		t.Fatalf("expected pass, got %+v", v)
	}

	if st := e.PowerUpDebug(); st != swd.OK {
		t.Fatalf("power-up failed: %s", st)
	}
	w, st := e.MemRead32(0x08000000)
	if st != swd.OK || w != SimProbeWord {
		t.Fatalf("probe read: 0x%08X %s", w, st)
	}
}
