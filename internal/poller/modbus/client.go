// internal/poller/modbus/client.go
package modbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/goburrow/modbus"
)

// Client implements poller.Client using Modbus TCP.
// This adapter is geometry-only: it issues requests and unpacks raw responses.
type Client struct {
	handler *modbus.TCPClientHandler
	client  modbus.Client
}

// Config is minimal transport config.
type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
}

// New creates a connected Modbus TCP client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus client: endpoint required")
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout
	h.SlaveId = cfg.UnitID

	if err := h.Connect(); err != nil {
		return nil, err
	}

	return &Client{
		handler: h,
		client:  modbus.NewClient(h),
	}, nil
}

// Close closes the TCP connection.
func (c *Client) Close() error {
	if c == nil || c.handler == nil {
		return nil
	}
	return c.handler.Close()
}

// ---- poller.Client interface ----

func (c *Client) ReadCoils(addr, qty uint16) ([]bool, error) {
	data, err := c.client.ReadCoils(addr, qty)
	if err != nil {
		return nil, fmt.Errorf("modbus: read coils %d+%d: %w", addr, qty, err)
	}
	return unpackBits(data, int(qty))
}

func (c *Client) ReadDiscreteInputs(addr, qty uint16) ([]bool, error) {
	data, err := c.client.ReadDiscreteInputs(addr, qty)
	if err != nil {
		return nil, fmt.Errorf("modbus: read discrete inputs %d+%d: %w", addr, qty, err)
	}
	return unpackBits(data, int(qty))
}

// ---- helpers (pure geometry) ----

func unpackBits(data []byte, count int) ([]bool, error) {
	if len(data)*8 < count {
		return nil, errors.New("modbus: read-bits payload shorter than quantity")
	}
	out := make([]bool, count)
	for i := 0; i < count; i++ {
		out[i] = data[i/8]&(1<<(i%8)) != 0
	}
	return out, nil
}
