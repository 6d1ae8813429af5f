package chainstate

import (
	"encoding/json"
	"fmt"

	"archivalnode/chain"
	"archivalnode/consensusrules"
	"archivalnode/encoding"
)

// Snapshot is the JSON-serializable external view of a coordinator: every
// block in original acceptance order, the full UTXO set, pending mempool
// transactions, the tip set, and the best tip. Re-importing a snapshot
// replays its blocks in the recorded order, which reproduces the original
// best_tip even across equal-height, first-seen-wins forks.
type Snapshot struct {
	BestTip string              `json:"best_tip"`
	Tips    []string            `json:"tips"`
	Blocks  []snapshotBlock     `json:"blocks"`
	UTXO    []snapshotUTXOEntry `json:"utxo"`
	Mempool []string            `json:"mempool"` // hex-encoded transaction wire bytes
}

type snapshotBlock struct {
	Hash         string   `json:"hash"`
	Height       uint64   `json:"height"`
	Header       string   `json:"header"`       // hex of the 80-byte header
	Transactions []string `json:"transactions"` // hex of each transaction's wire bytes
}

type snapshotUTXOEntry struct {
	Txid         string `json:"txid"`
	Index        uint32 `json:"index"`
	Value        int64  `json:"value"`
	PubKeyScript string `json:"pubkey_script"`
	BlockHeight  uint64 `json:"block_height"`
	IsCoinbase   bool   `json:"is_coinbase"`
}

// Export builds a Snapshot of the coordinator's entire current state.
func (c *Coordinator) Export() *Snapshot {
	snap := &Snapshot{
		BestTip: c.bestTip.String(),
		Blocks:  make([]snapshotBlock, 0, len(c.insertOrder)),
	}
	for hash := range c.tips {
		snap.Tips = append(snap.Tips, hash.String())
	}
	for _, hash := range c.insertOrder {
		block := c.blocks[hash]
		txs := make([]string, len(block.Transactions))
		for i := range block.Transactions {
			txs[i] = encoding.ToHex(block.Transactions[i].Serialize())
		}
		snap.Blocks = append(snap.Blocks, snapshotBlock{
			Hash:         hash.String(),
			Height:       c.meta[hash].height,
			Header:       encoding.ToHex(block.Header.Serialize()),
			Transactions: txs,
		})
	}
	for op, entry := range c.utxo.Entries() {
		snap.UTXO = append(snap.UTXO, snapshotUTXOEntry{
			Txid:         op.Txid.String(),
			Index:        op.Index,
			Value:        entry.Value,
			PubKeyScript: string(entry.PubKeyScript),
			BlockHeight:  entry.BlockHeight,
			IsCoinbase:   entry.IsCoinbase,
		})
	}
	for _, tx := range c.pool.All() {
		snap.Mempool = append(snap.Mempool, encoding.ToHex(tx.Serialize()))
	}
	return snap
}

// ExportJSON marshals the coordinator's snapshot to JSON.
func (c *Coordinator) ExportJSON() ([]byte, error) {
	return json.Marshal(c.Export())
}

// Import rebuilds a coordinator by replaying a snapshot's blocks, in their
// recorded order, against a fresh genesis, then re-offering its pending
// mempool transactions. Replaying rather than restoring the UTXO set and
// index maps directly guarantees internal consistency: the only path by
// which a coordinator's state changes is AddBlock.
func Import(snap *Snapshot, params consensusrules.Params) (*Coordinator, error) {
	c := New(params)
	genesisHash := c.bestTip

	for _, sb := range snap.Blocks {
		hash, err := encoding.HashFromDisplayHex(sb.Hash)
		if err != nil {
			return nil, fmt.Errorf("chainstate: import: bad block hash %q: %w", sb.Hash, err)
		}
		if hash == genesisHash {
			continue
		}
		block, err := decodeSnapshotBlock(sb)
		if err != nil {
			return nil, err
		}
		if err := c.AddBlock(block); err != nil {
			return nil, fmt.Errorf("chainstate: import: replaying block %s: %w", sb.Hash, err)
		}
	}

	for _, txHex := range snap.Mempool {
		raw, err := encoding.FromHex(txHex)
		if err != nil {
			continue
		}
		tx, _, err := chain.DeserializeTransaction(raw)
		if err != nil {
			continue
		}
		_ = c.AddTransaction(*tx)
	}

	if got := c.bestTip.String(); got != snap.BestTip {
		return nil, fmt.Errorf("chainstate: import: replay produced best_tip %s, snapshot recorded %s", got, snap.BestTip)
	}
	return c, nil
}

// ImportJSON unmarshals data into a Snapshot and imports it. External
// collaborators (see the store package) that persist a snapshot's fields
// under their own storage layout can reassemble equivalent JSON and hand
// it here rather than depending on Snapshot's unexported element types.
func ImportJSON(data []byte, params consensusrules.Params) (*Coordinator, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("chainstate: import: %w", err)
	}
	return Import(&snap, params)
}

func decodeSnapshotBlock(sb snapshotBlock) (*chain.Block, error) {
	headerBytes, err := encoding.FromHex(sb.Header)
	if err != nil {
		return nil, fmt.Errorf("chainstate: import: bad header hex: %w", err)
	}
	header, err := chain.DeserializeBlockHeader(headerBytes)
	if err != nil {
		return nil, err
	}
	txs := make([]chain.Transaction, len(sb.Transactions))
	for i, txHex := range sb.Transactions {
		raw, err := encoding.FromHex(txHex)
		if err != nil {
			return nil, fmt.Errorf("chainstate: import: bad transaction hex: %w", err)
		}
		tx, _, err := chain.DeserializeTransaction(raw)
		if err != nil {
			return nil, err
		}
		txs[i] = *tx
	}
	return &chain.Block{Header: header, Transactions: txs}, nil
}
