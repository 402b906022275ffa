// internal/writer/modbus/client_test.go
package modbus

import (
	"testing"
	"time"
)

func TestPackBits_LSBFirst(t *testing.T) {
	got := packBits([]bool{true, false, true, false, false, false, false, false, true})

	if len(got) != 2 {
		t.Fatalf("expected 2 bytes, got %d", len(got))
	}
	if got[0] != 0x05 || got[1] != 0x01 {
		t.Fatalf("unexpected packing % X", got)
	}
}

func TestPackRegisters_BigEndian(t *testing.T) {
	got := packRegisters([]uint16{0x0BC1, 0x1477})

	want := []byte{0x0B, 0xC1, 0x14, 0x77}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: expected 0x%02X got 0x%02X", i, want[i], got[i])
		}
	}
}

func TestNewEndpointClient_RequiresEndpoint(t *testing.T) {
	if _, err := NewEndpointClient(Config{}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}

func TestNewEndpointClient_DialsLazily(t *testing.T) {
	// nothing listens here; construction must still succeed
	c, err := NewEndpointClient(Config{Endpoint: "127.0.0.1:1", Timeout: 50 * time.Millisecond})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer c.Close()

	if c.String() != "127.0.0.1:1" {
		t.Fatalf("unexpected endpoint %q", c.String())
	}
	if err := c.WriteRegisters(1, 0, []uint16{1}); err == nil {
		t.Fatalf("expected write to an unreachable endpoint to fail")
	}
}

func TestCoilValue(t *testing.T) {
	if coilValue(true) != 0xFF00 || coilValue(false) != 0 {
		t.Fatalf("unexpected FC 5 encoding")
	}
}
