// internal/hw/sim.go
package hw

import (
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"

	"github.com/tamzrod/swd-fixture/internal/clock"
	"github.com/tamzrod/swd-fixture/internal/swd/swdsim"
)

// PressHold is how long a simulated button press stays down.
const PressHold = 150 * time.Millisecond

// SimProbeWord is preloaded at the default probe address of the simulated part.
const SimProbeWord = 0xDEADBEEF

// Sim is the bench double: the fixture latch model plus a wire-level SWD
// target on the probe port.
//
// Latch model: both pogo lines pressed latch the load on; stop pressed
// alone or both released drop it; start pressed alone holds the state.
type Sim struct {
	// Target is the probe port. Drive it from one goroutine only.
	Target *swdsim.Target

	clk clock.Clock

	mu         sync.Mutex
	start      bool
	stop       bool
	latched    bool
	lidOpen    bool
	pressUntil time.Time
	green, red bool

	// bench fault injection
	stuckOn bool
	noLatch bool
}

// NewSim returns a closed-lid fixture holding a healthy part reporting idcode.
func NewSim(idcode uint32, clk clock.Clock) *Sim {
	if clk == nil {
		clk = clock.Real{}
	}
	t := swdsim.New(idcode)
	t.Memory[0x08000000] = SimProbeWord
	return &Sim{Target: t, clk: clk}
}

// ---- bench controls ----

// PressStart holds the start button down for PressHold.
func (s *Sim) PressStart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pressUntil = s.clk.Now().Add(PressHold)
}

// SetLid opens or closes the lid.
func (s *Sim) SetLid(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lidOpen = open
}

// SetStuckOn makes the load read on regardless of the pogo lines.
func (s *Sim) SetStuckOn(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stuckOn = v
}

// SetNoLatch makes the latch never engage.
func (s *Sim) SetNoLatch(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noLatch = v
}

// LEDs returns the current LED state.
func (s *Sim) LEDs() (green, red bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.green, s.red
}

// Pogo returns the current pogo line state (true = pressed).
func (s *Sim) Pogo() (start, stop bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.start, s.stop
}

// ---- FixtureIO ----

func (s *Sim) LidOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lidOpen
}

func (s *Sim) LoadOn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stuckOn || s.latched
}

func (s *Sim) StartPressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.clk.Now().Before(s.pressUntil)
}

func (s *Sim) SetStart(pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start = pressed
	s.update()
}

func (s *Sim) SetStop(pressed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stop = pressed
	s.update()
}

func (s *Sim) SetLEDs(green, red bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.green, s.red = green, red
}

func (s *Sim) LoadVoltage() physic.ElectricPotential { return senseVoltage(s.LoadOn()) }

func (s *Sim) Halt() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.start, s.stop = false, false
	s.green, s.red = false, false
	s.update()
	return nil
}

func (s *Sim) String() string { return "sim-fixture" }

// update applies the latch model. Caller holds mu.
func (s *Sim) update() {
	switch {
	case s.start && s.stop:
		s.latched = !s.noLatch
	case s.stop, !s.start:
		s.latched = false
	}
}
