package powtarget

import (
	"archivalnode/chain"
	"archivalnode/encoding"
)

// Template is an assembled mining candidate: a coinbase plus the mempool
// transactions selected to follow it, along with the extra_nonce already
// baked into the coinbase's signature_script.
type Template struct {
	Height      uint64
	PrevHash    encoding.Hash256
	Timestamp   uint32
	NBits       uint32
	Coinbase    chain.Transaction
	Txs         []chain.Transaction
	ExtraNonce  uint64
	RecipientH  [20]byte
	BlockReward int64
}

// assembleBlock builds the full Block (header + coinbase + txs) for the
// current extra_nonce, recomputing the coinbase and merkle root.
func (t *Template) assembleBlock(nonce uint32) *chain.Block {
	txs := make([]chain.Transaction, 0, len(t.Txs)+1)
	txs = append(txs, t.Coinbase)
	txs = append(txs, t.Txs...)

	block := &chain.Block{Transactions: txs}
	block.Header.Version = 1
	block.Header.PrevBlockHash = t.PrevHash
	block.Header.Timestamp = t.Timestamp
	block.Header.NBits = t.NBits
	block.Header.Nonce = nonce
	block.Header.MerkleRoot = block.MerkleRoot()
	return block
}

// rerollExtraNonce increments the template's extra_nonce, rebuilding the
// coinbase transaction so its txid (and therefore the merkle root) changes.
func (t *Template) rerollExtraNonce() {
	t.ExtraNonce++
	t.Coinbase = chain.CreateCoinbase(t.Height, t.BlockReward, t.RecipientH, t.ExtraNonce)
}

// Mine searches nonces [0, 2^32) for a header hash meeting target. On full
// exhaustion it rolls the coinbase's extra_nonce (changing the merkle root)
// and restarts from nonce 0. It returns the first solved block found.
func Mine(tmpl *Template) *chain.Block {
	for {
		block := tmpl.assembleBlock(0)
		for nonce := uint32(0); ; nonce++ {
			block.Header.Nonce = nonce
			if MeetsDifficultyTarget(block.Header.Hash(), tmpl.NBits) {
				return block
			}
			if nonce == 0xFFFFFFFF {
				break
			}
		}
		tmpl.rerollExtraNonce()
	}
}

// InstantMine produces a block with nonce=0 and does not check the target.
// Such blocks fail ordinary validation; this mode exists only for tests
// that bypass proof-of-work checking (e.g. constructing a chain quickly to
// exercise reorg logic).
func InstantMine(tmpl *Template) *chain.Block {
	return tmpl.assembleBlock(0)
}
