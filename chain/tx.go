// Package chain implements the transaction and block data model: bit-exact
// serialization, txid/block-hash computation, coinbase construction, and
// the P2PKH-template signature/pubkey script encoding.
package chain

import (
	"encoding/hex"
	"fmt"

	"archivalnode/encoding"
)

// CompressedPubKeyHexLen is the fixed length, in hex characters, of a
// compressed secp256k1 public key (33 raw bytes). The P2PKH-template
// signature_script is `signature_hex || pubkey_hex`; because the pubkey
// half always has this exact length, a signature_script can be split
// unambiguously without a length prefix between the two halves.
const CompressedPubKeyHexLen = 66

// TransactionInput spends a previously-unspent output.
type TransactionInput struct {
	PrevTxid        encoding.Hash256
	PrevIndex       uint32
	SignatureScript []byte // ASCII hex text: signature_hex || pubkey_hex
	Sequence        uint32
}

// TransactionOutput pays value satoshis to whoever can produce a signature
// and public key matching PubKeyScript.
type TransactionOutput struct {
	Value        int64
	PubKeyScript []byte // ASCII hex text: hash160(recipient pubkey)
}

// Transaction is the core unit of value transfer.
type Transaction struct {
	Version  uint32
	Inputs   []TransactionInput
	Outputs  []TransactionOutput
	Locktime uint32
}

// CoinbasePrevIndex is the sentinel previous-output index (0xFFFFFFFF) that
// marks a coinbase input.
const CoinbasePrevIndex = 0xFFFFFFFF

// IsCoinbase reports whether tx has the single coinbase input shape: one
// input spending the zero hash at index 0xFFFFFFFF.
func (tx *Transaction) IsCoinbase() bool {
	if len(tx.Inputs) != 1 {
		return false
	}
	in := tx.Inputs[0]
	return in.PrevTxid == encoding.ZeroHash && in.PrevIndex == CoinbasePrevIndex
}

// Hash160Hex returns the hash160-hex recipient of an output's pubkey
// script, the canonical UTXO lookup key per spec §4.2.
func (o TransactionOutput) Hash160Hex() string {
	return string(o.PubKeyScript)
}

// IsDust reports whether the output's value is below threshold. Dust
// outputs are never rejected outright; callers may use this to flag them.
func (o TransactionOutput) IsDust(threshold int64) bool {
	return o.Value < threshold
}

// NewP2PKHOutput builds an output paying value to the given recipient
// hash160.
func NewP2PKHOutput(value int64, recipient [20]byte) TransactionOutput {
	return TransactionOutput{
		Value:        value,
		PubKeyScript: []byte(hex.EncodeToString(recipient[:])),
	}
}

// SplitSignatureScript splits a P2PKH signature_script into its signature
// and pubkey halves.
func SplitSignatureScript(sigScript []byte) (sigHex, pubKeyHex string, err error) {
	if len(sigScript) < CompressedPubKeyHexLen {
		return "", "", fmt.Errorf("chain: signature_script too short")
	}
	cut := len(sigScript) - CompressedPubKeyHexLen
	return string(sigScript[:cut]), string(sigScript[cut:]), nil
}

// BuildSignatureScript concatenates a DER-encoded signature and a
// compressed public key into the P2PKH signature_script encoding.
func BuildSignatureScript(derSig []byte, compressedPubKey []byte) []byte {
	sigHex := hex.EncodeToString(derSig)
	pubHex := hex.EncodeToString(compressedPubKey)
	return []byte(sigHex + pubHex)
}

// Serialize writes tx in the exact wire format consensus code hashes and
// compares: version (4 LE), varint input count, each input (32-byte
// prev_txid, 4 LE index, varint+bytes signature_script, 4 LE sequence),
// varint output count, each output (8 LE value, varint+bytes
// pubkey_script), 4 LE locktime.
func (tx *Transaction) Serialize() []byte {
	out := make([]byte, 0, 64+len(tx.Inputs)*64+len(tx.Outputs)*40)
	out = encoding.AppendU32LE(out, tx.Version)

	out = encoding.PutVarInt(out, uint64(len(tx.Inputs)))
	for _, in := range tx.Inputs {
		out = append(out, in.PrevTxid[:]...)
		out = encoding.AppendU32LE(out, in.PrevIndex)
		out = encoding.PutVarInt(out, uint64(len(in.SignatureScript)))
		out = append(out, in.SignatureScript...)
		out = encoding.AppendU32LE(out, in.Sequence)
	}

	out = encoding.PutVarInt(out, uint64(len(tx.Outputs)))
	for _, o := range tx.Outputs {
		out = encoding.AppendU64LE(out, uint64(o.Value))
		out = encoding.PutVarInt(out, uint64(len(o.PubKeyScript)))
		out = append(out, o.PubKeyScript...)
	}

	out = encoding.AppendU32LE(out, tx.Locktime)
	return out
}

// DeserializeTransaction parses a Transaction from its wire encoding,
// returning the number of bytes consumed.
func DeserializeTransaction(b []byte) (*Transaction, int, error) {
	off := 0
	tx := &Transaction{}

	version, err := encoding.ReadU32LE(b, &off)
	if err != nil {
		return nil, 0, err
	}
	tx.Version = version

	inCount, err := encoding.ReadVarInt(b, &off)
	if err != nil {
		return nil, 0, err
	}
	tx.Inputs = make([]TransactionInput, 0, inCount)
	for i := uint64(0); i < inCount; i++ {
		prevTxidBytes, err := encoding.ReadBytes(b, &off, 32)
		if err != nil {
			return nil, 0, err
		}
		var prevTxid encoding.Hash256
		copy(prevTxid[:], prevTxidBytes)

		prevIndex, err := encoding.ReadU32LE(b, &off)
		if err != nil {
			return nil, 0, err
		}

		sigScriptLen, err := encoding.ReadVarInt(b, &off)
		if err != nil {
			return nil, 0, err
		}
		sigScript, err := encoding.ReadBytes(b, &off, int(sigScriptLen))
		if err != nil {
			return nil, 0, err
		}

		sequence, err := encoding.ReadU32LE(b, &off)
		if err != nil {
			return nil, 0, err
		}

		tx.Inputs = append(tx.Inputs, TransactionInput{
			PrevTxid:        prevTxid,
			PrevIndex:       prevIndex,
			SignatureScript: append([]byte(nil), sigScript...),
			Sequence:        sequence,
		})
	}

	outCount, err := encoding.ReadVarInt(b, &off)
	if err != nil {
		return nil, 0, err
	}
	tx.Outputs = make([]TransactionOutput, 0, outCount)
	for i := uint64(0); i < outCount; i++ {
		value, err := encoding.ReadU64LE(b, &off)
		if err != nil {
			return nil, 0, err
		}
		scriptLen, err := encoding.ReadVarInt(b, &off)
		if err != nil {
			return nil, 0, err
		}
		script, err := encoding.ReadBytes(b, &off, int(scriptLen))
		if err != nil {
			return nil, 0, err
		}
		tx.Outputs = append(tx.Outputs, TransactionOutput{
			Value:        int64(value),
			PubKeyScript: append([]byte(nil), script...),
		})
	}

	locktime, err := encoding.ReadU32LE(b, &off)
	if err != nil {
		return nil, 0, err
	}
	tx.Locktime = locktime

	return tx, off, nil
}

// Txid is double-SHA256 of the transaction's wire serialization.
func (tx *Transaction) Txid() encoding.Hash256 {
	return encoding.DoubleSHA256(tx.Serialize())
}

// SighashPreimage serializes tx with every input's SignatureScript cleared,
// the canonical form signed and verified by the P2PKH template: a signer
// cannot commit to a signature_script that embeds itself. All inputs are
// cleared, not just the one being signed, since a signature_script never
// carries script-level branching here to exempt.
func (tx *Transaction) SighashPreimage() []byte {
	clone := Transaction{
		Version:  tx.Version,
		Outputs:  tx.Outputs,
		Locktime: tx.Locktime,
	}
	clone.Inputs = make([]TransactionInput, len(tx.Inputs))
	for i, in := range tx.Inputs {
		clone.Inputs[i] = TransactionInput{
			PrevTxid:  in.PrevTxid,
			PrevIndex: in.PrevIndex,
			Sequence:  in.Sequence,
		}
	}
	return clone.Serialize()
}

// Sighash is the digest signed and verified for the P2PKH template:
// double-SHA256 of SighashPreimage.
func (tx *Transaction) Sighash() encoding.Hash256 {
	return encoding.DoubleSHA256(tx.SighashPreimage())
}

// CreateCoinbase builds the block's first transaction: a single input
// spending the zero outpoint, whose signature_script encodes height
// (BIP34-style) and extra_nonce so that re-rolling extra_nonce on nonce
// exhaustion always produces a distinct coinbase txid.
func CreateCoinbase(height uint64, reward int64, recipient [20]byte, extraNonce uint64) Transaction {
	script := make([]byte, 0, 16)
	script = encoding.AppendU64LE(script, height)
	script = encoding.AppendU64LE(script, extraNonce)

	return Transaction{
		Version: 1,
		Inputs: []TransactionInput{{
			PrevTxid:        encoding.ZeroHash,
			PrevIndex:       CoinbasePrevIndex,
			SignatureScript: script,
			Sequence:        0xFFFFFFFF,
		}},
		Outputs: []TransactionOutput{
			NewP2PKHOutput(reward, recipient),
		},
		Locktime: 0,
	}
}
