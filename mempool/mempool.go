// Package mempool implements the pending-transaction pool: admission
// against a UTXO view with double-spend rejection, fee-rate-descending
// retrieval for block assembly, and confirmation/reorg bookkeeping.
package mempool

import (
	"fmt"
	"sort"

	"archivalnode/chain"
	"archivalnode/consensusrules"
	"archivalnode/utxo"
)

// ErrorCode names a mempool-only rejection reason.
type ErrorCode string

const (
	MempoolDoubleSpend ErrorCode = "MEMPOOL_DOUBLE_SPEND"
	MempoolInvalidTx   ErrorCode = "MEMPOOL_INVALID_TX"
)

// MempoolError is returned by Add on rejection.
type MempoolError struct {
	Code ErrorCode
	Err  error
}

func (e *MempoolError) Error() string { return fmt.Sprintf("%s: %v", e.Code, e.Err) }
func (e *MempoolError) Unwrap() error { return e.Err }

// entry is what the pool stores for one pending transaction.
type entry struct {
	tx      chain.Transaction
	fee     int64
	feeRate float64 // satoshis per byte
	size    int
}

// Pool is the mempool: a txid-keyed transaction map plus the spent-outpoint
// index used for double-spend rejection.
type Pool struct {
	entries map[string]entry
	spentBy map[utxo.OutPoint]string // outpoint -> spending txid
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{
		entries: make(map[string]entry),
		spentBy: make(map[utxo.OutPoint]string),
	}
}

// Add validates tx against view (existence of referenced UTXOs, balance)
// and against the pool's own outpoints (no two pending transactions may
// spend the same UTXO), then admits it.
func (p *Pool) Add(tx chain.Transaction, view *utxo.Set) error {
	if len(tx.Inputs) == 0 || len(tx.Outputs) == 0 {
		return &MempoolError{Code: MempoolInvalidTx, Err: fmt.Errorf("transaction needs at least one input and one output")}
	}

	txid := tx.Txid().String()
	if _, exists := p.entries[txid]; exists {
		return nil
	}

	ops := make([]utxo.OutPoint, len(tx.Inputs))
	var sumIn int64
	for i, in := range tx.Inputs {
		op := utxo.OutPoint{Txid: in.PrevTxid, Index: in.PrevIndex}
		if _, taken := p.spentBy[op]; taken {
			return &MempoolError{Code: MempoolDoubleSpend, Err: fmt.Errorf("outpoint %s:%d already spent by a pending transaction", op.Txid, op.Index)}
		}
		found, ok := view.Get(op)
		if !ok {
			return &MempoolError{Code: MempoolInvalidTx, Err: fmt.Errorf("outpoint %s:%d not found in utxo view", op.Txid, op.Index)}
		}
		ops[i] = op
		sumIn += found.Value
	}

	var sumOut int64
	for _, o := range tx.Outputs {
		if o.Value < 0 || o.Value > consensusrules.MaxMoney {
			return &MempoolError{Code: MempoolInvalidTx, Err: fmt.Errorf("output value %d out of range", o.Value)}
		}
		sumOut += o.Value
	}
	if sumIn < sumOut {
		return &MempoolError{Code: MempoolInvalidTx, Err: fmt.Errorf("inputs sum %d below outputs sum %d", sumIn, sumOut)}
	}

	fee := sumIn - sumOut
	size := len(tx.Serialize())
	feeRate := 0.0
	if size > 0 {
		feeRate = float64(fee) / float64(size)
	}

	p.entries[txid] = entry{tx: tx, fee: fee, feeRate: feeRate, size: size}
	for _, op := range ops {
		p.spentBy[op] = txid
	}
	return nil
}

// TakeTop returns the highest-fee-rate transactions whose combined
// serialized size does not exceed limitBytes.
func (p *Pool) TakeTop(limitBytes int) []chain.Transaction {
	sorted := make([]entry, 0, len(p.entries))
	for _, e := range p.entries {
		sorted = append(sorted, e)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].feeRate > sorted[j].feeRate })

	var total int
	out := make([]chain.Transaction, 0, len(sorted))
	for _, e := range sorted {
		if total+e.size > limitBytes {
			continue
		}
		total += e.size
		out = append(out, e.tx)
	}
	return out
}

// RemoveConfirmed deletes every transaction in block from the pool, along
// with the outpoints it was holding.
func (p *Pool) RemoveConfirmed(block *chain.Block) {
	for _, tx := range block.Transactions {
		p.remove(tx.Txid().String())
	}
}

func (p *Pool) remove(txid string) {
	e, ok := p.entries[txid]
	if !ok {
		return
	}
	for _, in := range e.tx.Inputs {
		op := utxo.OutPoint{Txid: in.PrevTxid, Index: in.PrevIndex}
		if p.spentBy[op] == txid {
			delete(p.spentBy, op)
		}
	}
	delete(p.entries, txid)
}

// Reinsert re-offers transactions unwound from an abandoned chain. Entries
// that now conflict with the pool's current state (already re-confirmed
// elsewhere, or double-spent) are silently dropped; reorg is expected to
// call this against the post-reorg UTXO view.
func (p *Pool) Reinsert(txs []chain.Transaction, view *utxo.Set) {
	for _, tx := range txs {
		_ = p.Add(tx, view)
	}
}

// Len reports the number of pending transactions.
func (p *Pool) Len() int { return len(p.entries) }

// All returns every pending transaction, in no particular order.
func (p *Pool) All() []chain.Transaction {
	out := make([]chain.Transaction, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, e.tx)
	}
	return out
}
