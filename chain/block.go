package chain

import (
	"archivalnode/encoding"
	"archivalnode/merkletree"
)

// HeaderSize is the fixed, bit-exact wire size of a BlockHeader.
const HeaderSize = 4 + 32 + 32 + 4 + 4 + 4

// MaxBlockSize is the maximum serialized size of a block, in bytes.
const MaxBlockSize = 1_000_000

// BlockHeader is the 80-byte proof-of-work header. Field order and
// endianness below are consensus-critical and must not be reordered.
type BlockHeader struct {
	Version       uint32
	PrevBlockHash encoding.Hash256
	MerkleRoot    encoding.Hash256
	Timestamp     uint32
	NBits         uint32
	Nonce         uint32
}

// Block is a header plus its ordered transaction list. Transactions[0] must
// be the coinbase; no other transaction may be a coinbase.
type Block struct {
	Header       BlockHeader
	Transactions []Transaction
}

// Serialize writes the header in its exact 80-byte wire form.
func (h BlockHeader) Serialize() []byte {
	out := make([]byte, 0, HeaderSize)
	out = encoding.AppendU32LE(out, h.Version)
	out = append(out, h.PrevBlockHash[:]...)
	out = append(out, h.MerkleRoot[:]...)
	out = encoding.AppendU32LE(out, h.Timestamp)
	out = encoding.AppendU32LE(out, h.NBits)
	out = encoding.AppendU32LE(out, h.Nonce)
	return out
}

// DeserializeBlockHeader parses an 80-byte header.
func DeserializeBlockHeader(b []byte) (BlockHeader, error) {
	if len(b) != HeaderSize {
		return BlockHeader{}, encoding.ErrInvalidEncoding("block: header must be exactly 80 bytes")
	}
	off := 0
	var h BlockHeader

	version, _ := encoding.ReadU32LE(b, &off)
	h.Version = version

	prevBytes, _ := encoding.ReadBytes(b, &off, 32)
	copy(h.PrevBlockHash[:], prevBytes)

	merkleBytes, _ := encoding.ReadBytes(b, &off, 32)
	copy(h.MerkleRoot[:], merkleBytes)

	ts, _ := encoding.ReadU32LE(b, &off)
	h.Timestamp = ts

	nbits, _ := encoding.ReadU32LE(b, &off)
	h.NBits = nbits

	nonce, _ := encoding.ReadU32LE(b, &off)
	h.Nonce = nonce

	return h, nil
}

// Hash computes the block hash: SHA256(SHA256(serialize(header))).
func (h BlockHeader) Hash() encoding.Hash256 {
	return encoding.DoubleSHA256(h.Serialize())
}

// Serialize writes the full block: header followed by varint(tx count) and
// each transaction's serialization.
func (b *Block) Serialize() []byte {
	out := make([]byte, 0, HeaderSize+len(b.Transactions)*128)
	out = append(out, b.Header.Serialize()...)
	out = encoding.PutVarInt(out, uint64(len(b.Transactions)))
	for i := range b.Transactions {
		out = append(out, b.Transactions[i].Serialize()...)
	}
	return out
}

// DeserializeBlock parses a Block from its wire encoding.
func DeserializeBlock(b []byte) (*Block, error) {
	if len(b) < HeaderSize {
		return nil, encoding.ErrInvalidEncoding("block: truncated header")
	}
	header, err := DeserializeBlockHeader(b[:HeaderSize])
	if err != nil {
		return nil, err
	}

	off := HeaderSize
	txCount, err := encoding.ReadVarInt(b, &off)
	if err != nil {
		return nil, err
	}

	txs := make([]Transaction, 0, txCount)
	for i := uint64(0); i < txCount; i++ {
		tx, consumed, err := DeserializeTransaction(b[off:])
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
		off += consumed
	}

	return &Block{Header: header, Transactions: txs}, nil
}

// Txids returns the txid of every transaction in order.
func (b *Block) Txids() []encoding.Hash256 {
	ids := make([]encoding.Hash256, len(b.Transactions))
	for i := range b.Transactions {
		ids[i] = b.Transactions[i].Txid()
	}
	return ids
}

// MerkleRoot computes the merkle root of the block's transactions.
func (b *Block) MerkleRoot() encoding.Hash256 {
	return merkletree.Root(b.Txids())
}

// Hash returns the block's header hash.
func (b *Block) Hash() encoding.Hash256 {
	return b.Header.Hash()
}

// HasDuplicateTxids reports whether any two transactions share a txid.
func (b *Block) HasDuplicateTxids() bool {
	seen := make(map[encoding.Hash256]struct{}, len(b.Transactions))
	for _, id := range b.Txids() {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
