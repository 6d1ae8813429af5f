package chainstate

import (
	"time"

	"archivalnode/chain"
	"archivalnode/encoding"
	"archivalnode/utxo"
	"archivalnode/validate"
)

// findForkPoint locates the common ancestor of a and b by equalizing
// height and walking both back in lockstep, the way a height-indexed
// block store does it.
func (c *Coordinator) findForkPoint(a, b encoding.Hash256) encoding.Hash256 {
	ha, hb := c.meta[a].height, c.meta[b].height
	for ha > hb {
		a = c.meta[a].prevHash
		ha--
	}
	for hb > ha {
		b = c.meta[b].prevHash
		hb--
	}
	for a != b {
		a = c.meta[a].prevHash
		b = c.meta[b].prevHash
	}
	return a
}

// pathToAncestor returns tip's ancestors down to but excluding ancestor,
// ordered tip-to-ancestor (tip first).
func (c *Coordinator) pathToAncestor(tip, ancestor encoding.Hash256) []encoding.Hash256 {
	var path []encoding.Hash256
	for cur := tip; cur != ancestor; cur = c.meta[cur].prevHash {
		path = append(path, cur)
	}
	return path
}

// reorgToTip switches the best chain to newTip, which must have strictly
// greater height than the current best tip. It unwinds the old chain
// against a shadow copy of the live UTXO set, fully revalidates and
// reapplies the new chain against that same shadow, and only swaps the
// shadow into place once every new-chain block succeeds — so the live
// UTXO set is never observed in an intermediate, inconsistent state.
func (c *Coordinator) reorgToTip(newTip encoding.Hash256) error {
	oldTip := c.bestTip
	fork := c.findForkPoint(oldTip, newTip)

	oldPath := c.pathToAncestor(oldTip, fork)  // tip -> ancestor
	newPath := c.pathToAncestor(newTip, fork)  // tip -> ancestor
	for i, j := 0, len(newPath)-1; i < j; i, j = i+1, j-1 {
		newPath[i], newPath[j] = newPath[j], newPath[i] // ancestor -> tip
	}

	shadow := c.utxo.Clone()
	var reinject []chain.Transaction
	for _, h := range oldPath {
		diff, ok := c.appliedDiffs[h]
		if !ok {
			panic("chainstate: reorg: missing applied diff for a best-chain block")
		}
		if err := utxo.RevertBlock(shadow, diff); err != nil {
			return err
		}
		block := c.blocks[h]
		reinject = append(reinject, block.Transactions[1:]...)
	}

	newDiffs := make(map[encoding.Hash256]*utxo.BlockDiff, len(newPath))
	for _, h := range newPath {
		block := c.blocks[h]
		parentHash := c.meta[h].prevHash
		height := c.meta[h].height

		view := &chainView{c: c, utxo: shadow}
		if err := validate.ValidateBlock(block, parentHash, view, time.Now().Unix()); err != nil {
			return &validate.ValidationError{Code: validate.InvalidReorg, Cause: err}
		}
		diff, err := utxo.ApplyBlock(shadow, block, height)
		if err != nil {
			return err
		}
		newDiffs[h] = diff
	}

	// Commit: swap the shadow in atomically and update bookkeeping.
	c.utxo = shadow
	c.bestTip = newTip
	for _, h := range oldPath {
		delete(c.appliedDiffs, h)
		delete(c.canonical, c.meta[h].height)
	}
	for h, d := range newDiffs {
		c.appliedDiffs[h] = d
		c.canonical[c.meta[h].height] = h
	}
	for _, h := range newPath {
		c.pool.RemoveConfirmed(c.blocks[h])
	}
	c.pool.Reinsert(reinject, c.utxo)
	return nil
}
