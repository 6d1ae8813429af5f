package encoding

import "testing"

func TestBase58CheckRoundTrip(t *testing.T) {
	payload := Hash160([]byte("recipient pubkey"))
	s := Base58CheckEncode(0x00, payload[:])
	version, got, err := Base58CheckDecode(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if version != 0x00 {
		t.Fatalf("version mismatch: got %x", version)
	}
	if string(got) != string(payload[:]) {
		t.Fatalf("payload mismatch")
	}
}

func TestBase58CheckDetectsCorruption(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	s := Base58CheckEncode(0x80, payload)
	corrupted := []rune(s)
	// Flip the last character, which lives in the checksum region.
	if corrupted[len(corrupted)-1] == 'a' {
		corrupted[len(corrupted)-1] = 'b'
	} else {
		corrupted[len(corrupted)-1] = 'a'
	}
	if _, _, err := Base58CheckDecode(string(corrupted)); err == nil {
		t.Fatalf("expected checksum mismatch to be detected")
	}
}
