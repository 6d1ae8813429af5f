package encoding

import "testing"

func TestVarIntRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 0xfc, 0xfd, 0xffff, 0x10000, 0xffffffff, 0x100000000, 1 << 40}
	for _, n := range cases {
		buf := PutVarInt(nil, n)
		off := 0
		got, err := ReadVarInt(buf, &off)
		if err != nil {
			t.Fatalf("n=%d: unexpected error: %v", n, err)
		}
		if got != n {
			t.Fatalf("n=%d: got %d", n, got)
		}
		if off != len(buf) {
			t.Fatalf("n=%d: did not consume entire buffer", n)
		}
	}
}

func TestVarIntRejectsNonMinimal(t *testing.T) {
	buf := []byte{0xfd, 0x10, 0x00} // encodes 0x10 but should be a single byte
	off := 0
	if _, err := ReadVarInt(buf, &off); err == nil {
		t.Fatalf("expected non-minimal encoding to be rejected")
	}
}

func TestVarIntTruncated(t *testing.T) {
	buf := []byte{0xfe, 0x01}
	off := 0
	if _, err := ReadVarInt(buf, &off); err == nil {
		t.Fatalf("expected truncated varint to error")
	}
}
