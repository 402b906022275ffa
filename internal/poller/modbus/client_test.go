// internal/poller/modbus/client_test.go
package modbus

import "testing"

func TestUnpackBits_LSBFirst(t *testing.T) {
	bits, err := unpackBits([]byte{0x05, 0x01}, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []bool{true, false, true, false, false, false, false, false, true}
	for i := range want {
		if bits[i] != want[i] {
			t.Fatalf("bit %d: expected %v got %v", i, want[i], bits[i])
		}
	}
}

func TestUnpackBits_Short(t *testing.T) {
	if _, err := unpackBits([]byte{0xFF}, 9); err == nil {
		t.Fatalf("expected error for short payload")
	}
}

func TestNew_RequiresEndpoint(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}
}
