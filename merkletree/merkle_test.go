package merkletree

import (
	"testing"

	"archivalnode/encoding"
)

func leaf(b byte) encoding.Hash256 {
	var h encoding.Hash256
	h[0] = b
	return h
}

func TestRootEmpty(t *testing.T) {
	if got := Root(nil); got != encoding.ZeroHash {
		t.Fatalf("expected zero hash, got %x", got)
	}
}

func TestRootSingle(t *testing.T) {
	l := leaf(1)
	if got := Root([]encoding.Hash256{l}); got != l {
		t.Fatalf("single-leaf root should equal the leaf itself")
	}
}

func TestRootOddDuplicatesLast(t *testing.T) {
	a, b, c := leaf(1), leaf(2), leaf(3)
	got := Root([]encoding.Hash256{a, b, c})

	ab := encoding.DoubleSHA256(append(append([]byte{}, a[:]...), b[:]...))
	cc := encoding.DoubleSHA256(append(append([]byte{}, c[:]...), c[:]...))
	want := encoding.DoubleSHA256(append(append([]byte{}, ab[:]...), cc[:]...))

	if got != want {
		t.Fatalf("odd-count duplication mismatch: got %x want %x", got, want)
	}
}

func TestProofRoundTrip(t *testing.T) {
	ids := []encoding.Hash256{leaf(1), leaf(2), leaf(3), leaf(4), leaf(5)}
	root := Root(ids)
	for i := range ids {
		path, err := Proof(ids, i)
		if err != nil {
			t.Fatalf("index %d: unexpected error: %v", i, err)
		}
		if !VerifyProof(ids[i], path, root) {
			t.Fatalf("index %d: proof failed to verify", i)
		}
	}
}

func TestProofIndexOutOfRange(t *testing.T) {
	ids := []encoding.Hash256{leaf(1)}
	if _, err := Proof(ids, 5); err == nil {
		t.Fatalf("expected out-of-range index to error")
	}
}
