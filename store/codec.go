package store

import (
	"encoding/binary"
	"fmt"

	"archivalnode/utxo"
)

// encodeOutpointKey mirrors the teacher's 36-byte outpoint key layout
// (32-byte txid || 4-byte little-endian index), unchanged because it is
// already a minimal, collision-free key for this spec's OutPoint.
func encodeOutpointKey(op utxo.OutPoint) []byte {
	out := make([]byte, 36)
	copy(out[:32], op.Txid[:])
	binary.LittleEndian.PutUint32(out[32:], op.Index)
	return out
}

func decodeOutpointKey(b []byte) (utxo.OutPoint, error) {
	if len(b) != 36 {
		return utxo.OutPoint{}, fmt.Errorf("store: outpoint key: expected 36 bytes, got %d", len(b))
	}
	var op utxo.OutPoint
	copy(op.Txid[:], b[:32])
	op.Index = binary.LittleEndian.Uint32(b[32:])
	return op, nil
}

// encodeUTXOEntry lays out: value i64le | block_height u64le | is_coinbase
// u8 | pubkey_script (remainder, hex text as stored on Entry).
func encodeUTXOEntry(e utxo.Entry) []byte {
	out := make([]byte, 8+8+1+len(e.PubKeyScript))
	binary.LittleEndian.PutUint64(out[0:8], uint64(e.Value))
	binary.LittleEndian.PutUint64(out[8:16], e.BlockHeight)
	if e.IsCoinbase {
		out[16] = 1
	}
	copy(out[17:], e.PubKeyScript)
	return out
}

func decodeUTXOEntry(b []byte) (utxo.Entry, error) {
	if len(b) < 17 {
		return utxo.Entry{}, fmt.Errorf("store: utxo entry: truncated")
	}
	return utxo.Entry{
		Value:        int64(binary.LittleEndian.Uint64(b[0:8])),
		BlockHeight:  binary.LittleEndian.Uint64(b[8:16]),
		IsCoinbase:   b[16] == 1,
		PubKeyScript: append([]byte(nil), b[17:]...),
	}, nil
}
