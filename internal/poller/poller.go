// internal/poller/poller.go
package poller

import (
	"errors"
	"fmt"
	"io"
	"time"
)

// Client abstracts Modbus operations needed by the poller.
// The poller depends on geometry only.
type Client interface {
	ReadCoils(addr, qty uint16) ([]bool, error)          // FC 1
	ReadDiscreteInputs(addr, qty uint16) ([]bool, error) // FC 2
}

// Factory makes one connection attempt per call.
type Factory func() (Client, error)

// Config is the minimal runtime config the poller needs.
type Config struct {
	Name  string
	Reads []ReadBlock
}

// Poller is a dumb, on-demand reader.
// It is not safe for concurrent use.
type Poller struct {
	cfg     Config
	client  Client
	factory Factory
}

// New creates a poller with immutable config.
// client may be nil when factory is set; the first poll dials.
func New(cfg Config, client Client, factory Factory) (*Poller, error) {
	if cfg.Name == "" {
		return nil, errors.New("poller: name required")
	}
	if len(cfg.Reads) == 0 {
		return nil, errors.New("poller: at least one read block required")
	}
	for _, rb := range cfg.Reads {
		if rb.FC != 1 && rb.FC != 2 {
			return nil, fmt.Errorf("poller: unsupported function code %d", rb.FC)
		}
		if rb.Quantity == 0 {
			return nil, errors.New("poller: read quantity must be > 0")
		}
	}
	if client == nil && factory == nil {
		return nil, errors.New("poller: client or factory required")
	}
	return &Poller{cfg: cfg, client: client, factory: factory}, nil
}

// PollOnce performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle.
// On failure the client is discarded and the next cycle redials.
func (p *Poller) PollOnce() PollResult {
	res := PollResult{
		Name: p.cfg.Name,
		At:   time.Now(),
	}

	if p.client == nil {
		if p.factory == nil {
			res.Err = errors.New("poller: no client")
			return res
		}
		c, err := p.factory()
		if err != nil {
			res.Err = fmt.Errorf("poller: connect: %w", err)
			return res
		}
		p.client = c
	}

	var blocks []BlockResult

	for _, rb := range p.cfg.Reads {
		var (
			bits []bool
			err  error
		)
		switch rb.FC {
		case 1:
			bits, err = p.client.ReadCoils(rb.Address, rb.Quantity)
		case 2:
			bits, err = p.client.ReadDiscreteInputs(rb.Address, rb.Quantity)
		}
		if err == nil && len(bits) < int(rb.Quantity) {
			err = fmt.Errorf("poller: short read fc=%d: got %d bits want %d", rb.FC, len(bits), rb.Quantity)
		}
		if err != nil {
			p.discard()
			res.Err = err
			return res
		}
		blocks = append(blocks, BlockResult{
			FC: rb.FC, Address: rb.Address, Quantity: rb.Quantity, Bits: bits,
		})
	}

	// Commit only if all reads succeeded
	res.Blocks = blocks
	return res
}

// Close releases the current client, if any.
func (p *Poller) Close() error {
	if c, ok := p.client.(io.Closer); ok {
		p.client = nil
		return c.Close()
	}
	p.client = nil
	return nil
}

func (p *Poller) discard() {
	if p.factory == nil {
		// nothing to redial with; keep the client
		return
	}
	_ = p.Close()
}
