// Package keys implements secp256k1 key generation, ECDSA signing and
// verification, and the public-key -> hash160 -> address derivation chain.
//
// UTXO and wallet lookups must key by hash160-hex, never by the Base58
// address string; address derivation is purely a display concern. See
// PubKeyHash and Address below.
package keys

import (
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"archivalnode/encoding"
)

// PubKeyHash is the 20-byte hash160 of a serialized public key. Lookups in
// the UTXO set and mempool are always keyed by this type (or its hex form),
// never by Address, to avoid the silent-wrong-balance failure that comes
// from conflating the two encodings.
type PubKeyHash [20]byte

// Hex renders the hash in lowercase hex, the canonical UTXO lookup key.
func (h PubKeyHash) Hex() string { return encoding.ToHex(h[:]) }

// PubKeyHashFromHex parses the canonical hex form produced by Hex.
func PubKeyHashFromHex(s string) (PubKeyHash, error) {
	b, err := encoding.FromHex(s)
	if err != nil {
		return PubKeyHash{}, err
	}
	if len(b) != 20 {
		return PubKeyHash{}, encoding.ErrInvalidEncoding("pubkeyhash: expected 20 bytes")
	}
	var out PubKeyHash
	copy(out[:], b)
	return out, nil
}

// Address is the Base58Check display form of a PubKeyHash. It is produced
// only at display boundaries and is never used as a map key internally.
type Address string

// KeyPair holds a secp256k1 private/public key pair.
type KeyPair struct {
	Priv *secp256k1.PrivateKey
	Pub  *secp256k1.PublicKey
}

// GenerateKeyPair produces a uniformly random secp256k1 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("keys: generate: %w", err)
	}
	return &KeyPair{Priv: priv, Pub: priv.PubKey()}, nil
}

// SerializePubKey returns the compressed SEC1 encoding of pub. Compressed
// encoding is used consistently everywhere a serialized public key is
// needed (signature scripts, hash160 input) so hash160(pubkey) is stable
// for a given key.
func SerializePubKey(pub *secp256k1.PublicKey) []byte {
	return pub.SerializeCompressed()
}

// PubKeyToHash160 computes hash160(serialize(pubkey)).
func PubKeyToHash160(pub *secp256k1.PublicKey) PubKeyHash {
	return PubKeyHash(encoding.Hash160(SerializePubKey(pub)))
}

// PubKeyToAddress derives the mainnet-style P2PKH display address for pub,
// using the 0x00 version byte (spec §6 "External Interfaces").
func PubKeyToAddress(pub *secp256k1.PublicKey) Address {
	h := PubKeyToHash160(pub)
	return Address(encoding.Base58CheckEncode(0x00, h[:]))
}

// Sign produces a deterministic ECDSA signature (RFC 6979) over message
// using priv. Deterministic signing is recommended, not required, for
// consensus; we take it because it makes test vectors reproducible.
func Sign(priv *secp256k1.PrivateKey, message [32]byte) *ecdsa.Signature {
	return ecdsa.Sign(priv, message[:])
}

// Verify checks an ECDSA signature over message against pub.
func Verify(pub *secp256k1.PublicKey, message [32]byte, sig *ecdsa.Signature) bool {
	return sig.Verify(message[:], pub)
}

// ParsePubKey parses a compressed or uncompressed SEC1-encoded public key.
func ParsePubKey(b []byte) (*secp256k1.PublicKey, error) {
	pub, err := secp256k1.ParsePubKey(b)
	if err != nil {
		return nil, encoding.ErrInvalidEncoding("keys: invalid public key encoding")
	}
	return pub, nil
}

// ParseSignature parses a DER-encoded ECDSA signature.
func ParseSignature(b []byte) (*ecdsa.Signature, error) {
	sig, err := ecdsa.ParseDERSignature(b)
	if err != nil {
		return nil, encoding.ErrInvalidEncoding("keys: invalid signature encoding")
	}
	return sig, nil
}
