// Package chainstate implements the chain coordinator: the block store,
// height index, tip set, best-tip selection, and the glue between the
// miner, the validator, the UTXO ledger, and the mempool.
package chainstate

import (
	"fmt"
	"time"

	"archivalnode/chain"
	"archivalnode/consensusrules"
	"archivalnode/encoding"
	"archivalnode/mempool"
	"archivalnode/powtarget"
	"archivalnode/utxo"
	"archivalnode/validate"
)

// BlockSink is the single entry point a miner uses to submit a solved
// block. Keeping it separate from the coordinator's concrete type (see
// ChainView in the validate package) means the miner and validator never
// need to depend on each other, only on these two narrow interfaces.
type BlockSink interface {
	AddBlock(block *chain.Block) error
}

type blockMeta struct {
	height   uint64
	prevHash encoding.Hash256
}

// Coordinator owns the block store, the live UTXO set, and the mempool. It
// is not safe for concurrent use: per spec, exactly one logical actor
// mutates chain state at a time.
type Coordinator struct {
	params consensusrules.Params

	blocks      map[encoding.Hash256]*chain.Block
	meta        map[encoding.Hash256]blockMeta
	heightIndex map[uint64]map[encoding.Hash256]bool
	tips        map[encoding.Hash256]bool
	canonical   map[uint64]encoding.Hash256 // height -> hash on the best chain

	bestTip encoding.Hash256
	utxo    *utxo.Set
	pool    *mempool.Pool

	// appliedDiffs holds the UTXO diff for every block currently part of
	// the best chain, keyed by block hash, so reorg can unwind precisely.
	appliedDiffs map[encoding.Hash256]*utxo.BlockDiff

	// insertOrder records the order blocks were accepted into the store,
	// genesis first. A snapshot replays blocks in this order so first-seen
	// tie-breaking on equal-height forks reproduces the original best_tip.
	insertOrder []encoding.Hash256
}

// New constructs a coordinator with a freshly created genesis block:
// hardcoded timestamp, the profile's max-target (minimum-difficulty) nbits, nonce zero, and
// no proof-of-work verification.
func New(params consensusrules.Params) *Coordinator {
	genesis := &chain.Block{
		Transactions: []chain.Transaction{chain.CreateCoinbase(0, 0, [20]byte{}, 0)},
	}
	genesis.Header = chain.BlockHeader{
		Version:       1,
		PrevBlockHash: encoding.ZeroHash,
		Timestamp:     consensusrules.GenesisTimestamp,
		NBits:         params.MaxTargetNBits,
		Nonce:         0,
	}
	genesis.Header.MerkleRoot = genesis.MerkleRoot()
	hash := genesis.Header.Hash()

	c := &Coordinator{
		params:       params,
		blocks:       map[encoding.Hash256]*chain.Block{hash: genesis},
		meta:         map[encoding.Hash256]blockMeta{hash: {height: 0, prevHash: encoding.ZeroHash}},
		heightIndex:  map[uint64]map[encoding.Hash256]bool{0: {hash: true}},
		tips:         map[encoding.Hash256]bool{hash: true},
		canonical:    map[uint64]encoding.Hash256{0: hash},
		bestTip:      hash,
		utxo:         utxo.NewSet(),
		pool:         mempool.New(),
		appliedDiffs: map[encoding.Hash256]*utxo.BlockDiff{},
		insertOrder:  []encoding.Hash256{hash},
	}

	diff, err := utxo.ApplyBlock(c.utxo, genesis, 0)
	if err != nil {
		panic(fmt.Sprintf("chainstate: genesis failed to apply to an empty utxo set: %v", err))
	}
	c.appliedDiffs[hash] = diff
	return c
}

// Params returns the active consensus configuration. Part of validate.ChainView.
func (c *Coordinator) Params() consensusrules.Params { return c.params }

// HeightOf returns the height of the block with the given hash. Part of
// validate.ChainView.
func (c *Coordinator) HeightOf(hash encoding.Hash256) (uint64, bool) {
	m, ok := c.meta[hash]
	return m.height, ok
}

// AncestorHeader returns the header distance blocks behind hash. Part of
// validate.ChainView.
func (c *Coordinator) AncestorHeader(hash encoding.Hash256, distance uint64) (chain.BlockHeader, bool) {
	cur := hash
	for i := uint64(0); i < distance; i++ {
		m, ok := c.meta[cur]
		if !ok || m.height == 0 {
			return chain.BlockHeader{}, false
		}
		cur = m.prevHash
	}
	block, ok := c.blocks[cur]
	if !ok {
		return chain.BlockHeader{}, false
	}
	return block.Header, true
}

// UTXOView returns the live UTXO set, consistent with the best tip. Part
// of validate.ChainView. Callers must not mutate the result.
func (c *Coordinator) UTXOView() *utxo.Set { return c.utxo }

// chainView adapts the coordinator's header/height lookups to an arbitrary
// UTXO snapshot, used when validating against a branch other than the live
// best chain (a sidechain extension, or the shadow set during reorg).
type chainView struct {
	c    *Coordinator
	utxo *utxo.Set
}

func (v *chainView) AncestorHeader(hash encoding.Hash256, distance uint64) (chain.BlockHeader, bool) {
	return v.c.AncestorHeader(hash, distance)
}
func (v *chainView) HeightOf(hash encoding.Hash256) (uint64, bool) { return v.c.HeightOf(hash) }
func (v *chainView) UTXOView() *utxo.Set                          { return v.utxo }
func (v *chainView) Params() consensusrules.Params                { return v.c.params }

// utxoViewAtParent returns the UTXO set to validate a block extending
// parentHash. When parentHash is the live best tip, this is the live set
// directly; otherwise it is rebuilt from genesis along parentHash's path,
// since only the best chain keeps an incrementally maintained set.
func (c *Coordinator) utxoViewAtParent(parentHash encoding.Hash256) (*utxo.Set, error) {
	if parentHash == c.bestTip {
		return c.utxo, nil
	}
	path := c.pathFromGenesis(parentHash)
	set := utxo.NewSet()
	for _, h := range path {
		block := c.blocks[h]
		height := c.meta[h].height
		if _, err := utxo.ApplyBlock(set, block, height); err != nil {
			return nil, err
		}
	}
	return set, nil
}

// pathFromGenesis returns the hashes from genesis to hash, inclusive,
// ascending in height.
func (c *Coordinator) pathFromGenesis(hash encoding.Hash256) []encoding.Hash256 {
	var reversed []encoding.Hash256
	cur := hash
	for {
		reversed = append(reversed, cur)
		m := c.meta[cur]
		if m.height == 0 {
			break
		}
		cur = m.prevHash
	}
	path := make([]encoding.Hash256, len(reversed))
	for i, h := range reversed {
		path[len(reversed)-1-i] = h
	}
	return path
}

// AddBlock implements the five-step acceptance algorithm: reject
// duplicates and orphans, validate against the parent's UTXO view, insert
// into the store, then either extend the best tip, trigger a
// reorganization, or store the block without changing the best tip
// (first-seen wins on equal height).
func (c *Coordinator) AddBlock(block *chain.Block) error {
	hash := block.Header.Hash()
	if _, exists := c.blocks[hash]; exists {
		return &validate.ValidationError{Code: validate.DuplicateBlock, Cause: fmt.Errorf("block %s already in store", hash)}
	}

	parentHash := block.Header.PrevBlockHash
	parentMeta, ok := c.meta[parentHash]
	if !ok {
		return &validate.ValidationError{Code: validate.OrphanBlock, Cause: fmt.Errorf("parent %s not found", parentHash)}
	}
	height := parentMeta.height + 1

	utxoView, err := c.utxoViewAtParent(parentHash)
	if err != nil {
		return err
	}
	view := &chainView{c: c, utxo: utxoView}
	if err := validate.ValidateBlock(block, parentHash, view, time.Now().Unix()); err != nil {
		return err
	}

	c.blocks[hash] = block
	c.meta[hash] = blockMeta{height: height, prevHash: parentHash}
	c.insertOrder = append(c.insertOrder, hash)
	if c.heightIndex[height] == nil {
		c.heightIndex[height] = map[encoding.Hash256]bool{}
	}
	c.heightIndex[height][hash] = true
	delete(c.tips, parentHash)
	c.tips[hash] = true

	switch {
	case parentHash == c.bestTip:
		diff, err := utxo.ApplyBlock(c.utxo, block, height)
		if err != nil {
			return err
		}
		c.appliedDiffs[hash] = diff
		c.bestTip = hash
		c.canonical[height] = hash
		c.pool.RemoveConfirmed(block)
	case height > c.Height():
		if err := c.reorgToTip(hash); err != nil {
			return err
		}
	default:
		// Shorter or equal height: store only, first-seen wins.
	}
	return nil
}

// AddTransaction validates tx against the live UTXO view and mempool state
// and, on success, admits it.
func (c *Coordinator) AddTransaction(tx chain.Transaction) error {
	return c.pool.Add(tx, c.utxo)
}

// MineNextBlock assembles a template from the top of the mempool, mines
// it, and self-submits the solved block.
func (c *Coordinator) MineNextBlock(recipientHash160Hex string) (*chain.Block, error) {
	recipient, err := encoding.FromHex(recipientHash160Hex)
	if err != nil {
		return nil, err
	}
	if len(recipient) != 20 {
		return nil, encoding.ErrInvalidEncoding("mine_next_block: recipient must be a 20-byte hash160")
	}
	var recipientHash [20]byte
	copy(recipientHash[:], recipient)

	parentHash := c.bestTip
	parentHeader := c.blocks[parentHash].Header
	height := c.Height() + 1
	nbits := c.expectedDifficultyForNextBlock(height, parentHash, parentHeader)

	timestamp := time.Now().Unix()
	if timestamp <= int64(parentHeader.Timestamp) {
		timestamp = int64(parentHeader.Timestamp) + 1
	}

	txs := c.pool.TakeTop(chain.MaxBlockSize - 4096)

	// The coinbase collects the block subsidy plus every selected fee.
	reward := consensusrules.BlockReward(height)
	for i := range txs {
		for _, in := range txs[i].Inputs {
			if e, ok := c.utxo.Get(utxo.OutPoint{Txid: in.PrevTxid, Index: in.PrevIndex}); ok {
				reward += e.Value
			}
		}
		for _, o := range txs[i].Outputs {
			reward -= o.Value
		}
	}
	coinbase := chain.CreateCoinbase(height, reward, recipientHash, 0)

	tmpl := &powtarget.Template{
		Height:      height,
		PrevHash:    parentHash,
		Timestamp:   uint32(timestamp),
		NBits:       nbits,
		Coinbase:    coinbase,
		Txs:         txs,
		RecipientH:  recipientHash,
		BlockReward: reward,
	}
	block := powtarget.Mine(tmpl)
	if err := c.AddBlock(block); err != nil {
		return nil, err
	}
	return block, nil
}

// expectedDifficultyForNextBlock mirrors validate's boundary logic for the
// block the miner is about to produce.
func (c *Coordinator) expectedDifficultyForNextBlock(height uint64, parentHash encoding.Hash256, parentHeader chain.BlockHeader) uint32 {
	if c.params.AdjustmentInterval == 0 || height%c.params.AdjustmentInterval != 0 {
		return parentHeader.NBits
	}
	first, ok := c.AncestorHeader(parentHash, c.params.AdjustmentInterval-1)
	if !ok {
		return parentHeader.NBits
	}
	return consensusrules.ExpectedDifficulty(height, c.params, parentHeader.NBits, first.Timestamp, parentHeader.Timestamp)
}

// BestTip returns the hash of the current best chain tip.
func (c *Coordinator) BestTip() encoding.Hash256 { return c.bestTip }

// Height returns the height of the best tip.
func (c *Coordinator) Height() uint64 { return c.meta[c.bestTip].height }

// BlockByHash returns the stored block with the given hash, from any
// branch.
func (c *Coordinator) BlockByHash(hash encoding.Hash256) (*chain.Block, bool) {
	b, ok := c.blocks[hash]
	return b, ok
}

// BlockByHeight returns the best chain's block at height.
func (c *Coordinator) BlockByHeight(height uint64) (*chain.Block, bool) {
	hash, ok := c.canonical[height]
	if !ok {
		return nil, false
	}
	b, ok := c.blocks[hash]
	return b, ok
}

// BalanceOf sums the live UTXO set's entries for the given recipient.
func (c *Coordinator) BalanceOf(hash160Hex string) int64 {
	return c.utxo.BalanceOf(hash160Hex)
}
