// Package encoding implements the hash and wire-encoding primitives every
// other package builds on: SHA-256/double-SHA-256/hash160, hex helpers,
// CompactSize varints, and Base58Check.
package encoding

import (
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // RIPEMD-160 has no stdlib replacement.
)

// Hash256 is a 32-byte double-SHA-256 digest, stored in natural (internal,
// little-endian-producing) byte order. Display code reverses it; see
// Reversed and String.
type Hash256 [32]byte

// ZeroHash is the all-zero Hash256 used as the coinbase's prev-txid and the
// empty merkle root.
var ZeroHash = Hash256{}

// SHA256 returns the single SHA-256 digest of b.
func SHA256(b []byte) [32]byte {
	return sha256.Sum256(b)
}

// DoubleSHA256 returns SHA256(SHA256(b)), the hash used for block headers
// and transaction ids throughout this module.
func DoubleSHA256(b []byte) Hash256 {
	first := sha256.Sum256(b)
	second := sha256.Sum256(first[:])
	return Hash256(second)
}

// Hash160 returns RIPEMD160(SHA256(b)), the 20-byte digest used for
// pay-to-public-key-hash scripts and addresses.
func Hash160(b []byte) [20]byte {
	sh := sha256.Sum256(b)
	r := ripemd160.New()
	_, _ = r.Write(sh[:])
	var out [20]byte
	copy(out[:], r.Sum(nil))
	return out
}

// ToHex lower-cases and hex-encodes b.
func ToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// FromHex decodes a case-insensitive hex string back into bytes.
func FromHex(s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidEncoding("hex: " + err.Error())
	}
	return b, nil
}

// Reversed returns a copy of h with byte order reversed. Used to produce
// the "RPC byte order" display form of a hash.
func (h Hash256) Reversed() Hash256 {
	var out Hash256
	for i := range h {
		out[i] = h[len(h)-1-i]
	}
	return out
}

// String renders h in reversed-byte hex, matching Bitcoin's conventional
// display order for block/transaction hashes.
func (h Hash256) String() string {
	rev := h.Reversed()
	return ToHex(rev[:])
}

// HashFromDisplayHex parses a reversed-byte-order hex string (as produced by
// String) back into internal natural byte order.
func HashFromDisplayHex(s string) (Hash256, error) {
	b, err := FromHex(s)
	if err != nil {
		return Hash256{}, err
	}
	if len(b) != 32 {
		return Hash256{}, ErrInvalidEncoding("hash256: expected 32 bytes")
	}
	var out Hash256
	for i, v := range b {
		out[len(b)-1-i] = v
	}
	return out, nil
}
