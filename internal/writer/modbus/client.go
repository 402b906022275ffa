// internal/writer/modbus/client.go
package modbus

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/goburrow/modbus"
	"github.com/pkg/errors"
)

// ErrNoEndpoint is returned for an empty endpoint address.
var ErrNoEndpoint = errors.New("writer modbus: endpoint required")

// EndpointClient owns one TCP connection to a PLC or I/O module.
//
// The connection is dialled lazily by the first request, so a fixture
// boots even while its PLC is down. A failed request drops the connection
// and the next one redials. Requests are serialized: the unit id lives on
// the shared handler.
type EndpointClient struct {
	endpoint string

	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

type Config struct {
	Endpoint string
	Timeout  time.Duration
}

func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, ErrNoEndpoint
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	return &EndpointClient{
		endpoint: cfg.Endpoint,
		handler:  h,
		client:   modbus.NewClient(h),
	}, nil
}

func (c *EndpointClient) String() string { return c.endpoint }

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handler.Close()
}

// WriteCoils uses FC 5 for a single coil and FC 15 otherwise.
func (c *EndpointClient) WriteCoils(unitID uint8, addr uint16, bits []bool) error {
	if len(bits) == 1 {
		return c.do(unitID, "write coil", addr, func(cl modbus.Client) error {
			_, err := cl.WriteSingleCoil(addr, coilValue(bits[0]))
			return err
		})
	}
	return c.do(unitID, "write coils", addr, func(cl modbus.Client) error {
		_, err := cl.WriteMultipleCoils(addr, uint16(len(bits)), packBits(bits))
		return err
	})
}

// WriteRegisters uses FC 16.
func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	return c.do(unitID, "write registers", addr, func(cl modbus.Client) error {
		_, err := cl.WriteMultipleRegisters(addr, uint16(len(regs)), packRegisters(regs))
		return err
	})
}

func (c *EndpointClient) do(unitID uint8, op string, addr uint16, fn func(modbus.Client) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handler.SlaveId = unitID
	if err := fn(c.client); err != nil {
		// goburrow redials on the next send
		_ = c.handler.Close()
		return errors.Wrapf(err, "%s %s unit=%d addr=%d", c.endpoint, op, unitID, addr)
	}
	return nil
}

func coilValue(on bool) uint16 {
	if on {
		return 0xFF00
	}
	return 0x0000
}

// packBits packs coils LSB first, as FC 15 expects.
func packBits(bits []bool) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, on := range bits {
		if on {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, 2*len(regs))
	for i, r := range regs {
		binary.BigEndian.PutUint16(out[2*i:], r)
	}
	return out
}
