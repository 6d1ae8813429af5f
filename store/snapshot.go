package store

import (
	"encoding/json"
	"fmt"

	"archivalnode/chain"
	"archivalnode/chainstate"
	"archivalnode/consensusrules"
	"archivalnode/encoding"
	"archivalnode/utxo"
)

// jsonSnapshot mirrors the field tags of chainstate.Snapshot without
// depending on its unexported element types, so this package can decode
// Coordinator.ExportJSON() output directly into bbolt records. Pending
// mempool transactions are intentionally not persisted: they are not part
// of any committed chain state and Load's contract is to reconstruct the
// chain, not pre-seed the mempool.
type jsonSnapshot struct {
	BestTip string `json:"best_tip"`
	Blocks  []struct {
		Hash         string   `json:"hash"`
		Height       uint64   `json:"height"`
		Header       string   `json:"header"`
		Transactions []string `json:"transactions"`
	} `json:"blocks"`
	UTXO []struct {
		Txid         string `json:"txid"`
		Index        uint32 `json:"index"`
		Value        int64  `json:"value"`
		PubKeyScript string `json:"pubkey_script"`
		BlockHeight  uint64 `json:"block_height"`
		IsCoinbase   bool   `json:"is_coinbase"`
	} `json:"utxo"`
}

// Persist writes the coordinator's complete current state — every
// accepted block in acceptance order, the live UTXO set, and the best
// tip — into the bbolt database, then commits a manifest recording the
// new best tip and height. A partially-written bbolt update is rolled
// back by bbolt itself; the manifest is only advanced after every block
// and UTXO record in this call has been committed. Blocks written before a
// crash mid-Persist stay in the database: Load replays them too, and
// returns an error if the resulting best tip differs from the manifest's.
func Persist(d *DB, c *chainstate.Coordinator) error {
	raw, err := c.ExportJSON()
	if err != nil {
		return fmt.Errorf("store: persist: export: %w", err)
	}
	var snap jsonSnapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return fmt.Errorf("store: persist: decode export: %w", err)
	}

	for seq, b := range snap.Blocks {
		headerBytes, err := encoding.FromHex(b.Header)
		if err != nil {
			return fmt.Errorf("store: persist: block %s: bad header hex: %w", b.Hash, err)
		}
		header, err := chain.DeserializeBlockHeader(headerBytes)
		if err != nil {
			return err
		}
		txs := make([]chain.Transaction, len(b.Transactions))
		for i, txHex := range b.Transactions {
			txRaw, err := encoding.FromHex(txHex)
			if err != nil {
				return fmt.Errorf("store: persist: block %s: bad tx hex: %w", b.Hash, err)
			}
			tx, _, err := chain.DeserializeTransaction(txRaw)
			if err != nil {
				return err
			}
			txs[i] = *tx
		}
		block := chain.Block{Header: header, Transactions: txs}
		hash := block.Hash()
		if err := d.putBlockSequence(uint64(seq), hash, b.Height, block.Serialize()); err != nil {
			return fmt.Errorf("store: persist: block %s: %w", b.Hash, err)
		}
	}

	if err := d.clearUTXO(); err != nil {
		return fmt.Errorf("store: persist: clear utxo: %w", err)
	}
	for _, u := range snap.UTXO {
		txid, err := encoding.HashFromDisplayHex(u.Txid)
		if err != nil {
			return fmt.Errorf("store: persist: utxo: bad txid %q: %w", u.Txid, err)
		}
		op := utxo.OutPoint{Txid: txid, Index: u.Index}
		entry := utxo.Entry{
			Value:        u.Value,
			PubKeyScript: []byte(u.PubKeyScript),
			BlockHeight:  u.BlockHeight,
			IsCoinbase:   u.IsCoinbase,
		}
		if err := d.putUTXO(encodeOutpointKey(op), encodeUTXOEntry(entry)); err != nil {
			return fmt.Errorf("store: persist: utxo: %w", err)
		}
	}

	m := &Manifest{
		SchemaVersion: SchemaVersionV1,
		ChainIDHex:    d.chainIDHex,
		BestTipHex:    snap.BestTip,
		Height:        c.Height(),
		BlockCount:    uint64(len(snap.Blocks)),
	}
	if err := writeManifestAtomic(d.chainDir, m); err != nil {
		return fmt.Errorf("store: persist: manifest: %w", err)
	}
	d.manifest = m
	return nil
}

// Load reconstructs a coordinator by replaying every stored block, in
// original acceptance order, through chainstate.New + AddBlock — the same
// replay-not-restore strategy chainstate.Import uses for JSON snapshots,
// so Load re-validates every block rather than trusting the bytes on
// disk. The UTXO bucket is not consulted directly; it exists so external
// tools can inspect balances without spinning up a coordinator.
func Load(d *DB, params consensusrules.Params) (*chainstate.Coordinator, error) {
	blocks, err := d.orderedBlocks()
	if err != nil {
		return nil, fmt.Errorf("store: load: %w", err)
	}

	c := chainstate.New(params)
	genesisHash := c.BestTip()

	for _, raw := range blocks {
		block, err := chain.DeserializeBlock(raw)
		if err != nil {
			return nil, fmt.Errorf("store: load: deserialize block: %w", err)
		}
		if block.Hash() == genesisHash {
			continue
		}
		if err := c.AddBlock(block); err != nil {
			return nil, fmt.Errorf("store: load: replaying block %s: %w", block.Hash(), err)
		}
	}

	if d.manifest != nil && d.manifest.BestTipHex != "" {
		if got := c.BestTip().String(); got != d.manifest.BestTipHex {
			return nil, fmt.Errorf("store: load: replay produced best_tip %s, manifest recorded %s", got, d.manifest.BestTipHex)
		}
	}
	return c, nil
}
