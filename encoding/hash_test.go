package encoding

import "testing"

func TestDoubleSHA256(t *testing.T) {
	got := DoubleSHA256([]byte("hello"))
	first := SHA256([]byte("hello"))
	second := SHA256(first[:])
	if got != Hash256(second) {
		t.Fatalf("DoubleSHA256 mismatch: got %x want %x", got, second)
	}
}

func TestHash160Length(t *testing.T) {
	h := Hash160([]byte("some public key bytes"))
	if len(h) != 20 {
		t.Fatalf("expected 20 bytes, got %d", len(h))
	}
}

func TestHashDisplayRoundTrip(t *testing.T) {
	h := DoubleSHA256([]byte("block header bytes"))
	s := h.String()
	back, err := HashFromDisplayHex(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if back != h {
		t.Fatalf("round-trip mismatch: got %x want %x", back, h)
	}
}

func TestHexRoundTrip(t *testing.T) {
	b := []byte{0x00, 0xff, 0x10, 0xab}
	s := ToHex(b)
	if s != "00ff10ab" {
		t.Fatalf("unexpected hex: %s", s)
	}
	back, err := FromHex("00FF10AB")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ToHex(back) != s {
		t.Fatalf("case-insensitive round-trip failed")
	}
}
