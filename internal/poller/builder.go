// internal/poller/builder.go
package poller

import (
	"errors"
	"time"

	cfg "github.com/tamzrod/swd-fixture/internal/config"
	pmodbus "github.com/tamzrod/swd-fixture/internal/poller/modbus"
)

// Build constructs a Poller over the fixture discrete inputs.
// Connection is reused while healthy.
// On transport death, Poller discards the client and uses factory on a future poll.
// No retries, no loops, no semantics.
func Build(m *cfg.ModbusIOConfig) (*Poller, func() error, error) {
	if m == nil {
		return nil, nil, errors.New("poller: modbus_io config required")
	}

	// client factory: ONE attempt per call
	factory := func() (Client, error) {
		return pmodbus.New(pmodbus.Config{
			Endpoint: m.Endpoint,
			UnitID:   m.UnitID,
			Timeout:  time.Duration(m.TimeoutMs) * time.Millisecond,
		})
	}

	// initial client (fail fast at startup)
	client, err := factory()
	if err != nil {
		return nil, nil, err
	}

	p, err := New(
		Config{
			Name:  m.Endpoint,
			Reads: []ReadBlock{InputSpan(m.Inputs.Lid, m.Inputs.Load, m.Inputs.StartButton)},
		},
		client,
		factory,
	)
	if err != nil {
		return nil, nil, err
	}

	return p, p.Close, nil
}

// InputSpan returns the single FC 2 block covering every address.
func InputSpan(addrs ...uint16) ReadBlock {
	lo, hi := addrs[0], addrs[0]
	for _, a := range addrs[1:] {
		lo = min(lo, a)
		hi = max(hi, a)
	}
	return ReadBlock{FC: 2, Address: lo, Quantity: hi - lo + 1}
}
