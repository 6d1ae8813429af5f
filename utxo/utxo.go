// Package utxo implements the in-memory unspent-transaction-output ledger:
// lookup, insert, remove, balance-by-recipient queries, and the
// apply/revert operations the chain coordinator uses to move the ledger
// forward and backward across blocks.
package utxo

import (
	"fmt"

	"archivalnode/chain"
	"archivalnode/encoding"
)

// OutPoint identifies a single transaction output.
type OutPoint struct {
	Txid  encoding.Hash256
	Index uint32
}

// Entry is what the ledger stores for a single unspent output.
type Entry struct {
	Value        int64
	PubKeyScript []byte
	BlockHeight  uint64
	IsCoinbase   bool
}

// Hash160Hex returns the output's recipient lookup key.
func (e Entry) Hash160Hex() string { return string(e.PubKeyScript) }

// ErrDuplicateUTXO is returned by Add when the key already exists.
type ErrDuplicateUTXO OutPoint

func (e ErrDuplicateUTXO) Error() string {
	return fmt.Sprintf("utxo: duplicate entry for %s:%d", e.Txid, e.Index)
}

// ErrMissingUTXO is returned by Remove when the key does not exist.
type ErrMissingUTXO OutPoint

func (e ErrMissingUTXO) Error() string {
	return fmt.Sprintf("utxo: missing entry for %s:%d", e.Txid, e.Index)
}

// Set is the unspent-output ledger, keyed by (txid, output index).
type Set struct {
	entries map[OutPoint]Entry
}

// NewSet returns an empty ledger.
func NewSet() *Set {
	return &Set{entries: make(map[OutPoint]Entry)}
}

// Add inserts entry at op. It is a consensus failure for op to already
// exist.
func (s *Set) Add(op OutPoint, entry Entry) error {
	if _, exists := s.entries[op]; exists {
		return ErrDuplicateUTXO(op)
	}
	s.entries[op] = entry
	return nil
}

// Remove deletes and returns the entry at op. It is a consensus failure
// for op to be missing.
func (s *Set) Remove(op OutPoint) (Entry, error) {
	entry, ok := s.entries[op]
	if !ok {
		return Entry{}, ErrMissingUTXO(op)
	}
	delete(s.entries, op)
	return entry, nil
}

// Get looks up op without mutating the set.
func (s *Set) Get(op OutPoint) (Entry, bool) {
	entry, ok := s.entries[op]
	return entry, ok
}

// BalanceOf sums the value of every entry whose pubkey script matches
// hash160Hex.
func (s *Set) BalanceOf(hash160Hex string) int64 {
	var total int64
	for _, e := range s.entries {
		if e.Hash160Hex() == hash160Hex {
			total += e.Value
		}
	}
	return total
}

// Len reports the number of live entries.
func (s *Set) Len() int { return len(s.entries) }

// Entries returns the live entry map. Callers must treat it as read-only.
func (s *Set) Entries() map[OutPoint]Entry { return s.entries }

// Clone returns a deep copy of s, used to build a shadow view during
// reorganization so the live set is never exposed half-applied.
func (s *Set) Clone() *Set {
	out := &Set{entries: make(map[OutPoint]Entry, len(s.entries))}
	for k, v := range s.entries {
		script := append([]byte(nil), v.PubKeyScript...)
		v.PubKeyScript = script
		out.entries[k] = v
	}
	return out
}

// SpentRecord captures a removed entry so a block's effect can be undone.
type SpentRecord struct {
	OutPoint OutPoint
	Entry    Entry
}

// BlockDiff records every mutation ApplyBlock made, in the exact order
// applied, so RevertBlock can invert it precisely.
type BlockDiff struct {
	Created []OutPoint
	Spent   []SpentRecord
}

// ApplyBlock applies every transaction's effect on the ledger in array
// order. Within a transaction, inputs are removed before outputs are
// added, so a transaction may spend an output created earlier in the same
// block but not one created later in it.
func ApplyBlock(s *Set, block *chain.Block, height uint64) (*BlockDiff, error) {
	diff := &BlockDiff{}
	for _, tx := range block.Transactions {
		txid := tx.Txid()
		isCoinbase := tx.IsCoinbase()

		if !isCoinbase {
			for _, in := range tx.Inputs {
				op := OutPoint{Txid: in.PrevTxid, Index: in.PrevIndex}
				entry, err := s.Remove(op)
				if err != nil {
					return nil, err
				}
				diff.Spent = append(diff.Spent, SpentRecord{OutPoint: op, Entry: entry})
			}
		}

		for i, out := range tx.Outputs {
			op := OutPoint{Txid: txid, Index: uint32(i)}
			entry := Entry{
				Value:        out.Value,
				PubKeyScript: append([]byte(nil), out.PubKeyScript...),
				BlockHeight:  height,
				IsCoinbase:   isCoinbase,
			}
			if err := s.Add(op, entry); err != nil {
				return nil, err
			}
			diff.Created = append(diff.Created, op)
		}
	}
	return diff, nil
}

// RevertBlock undoes the effect recorded in diff: every created output is
// removed, then every spent entry is restored, both in reverse order.
func RevertBlock(s *Set, diff *BlockDiff) error {
	for i := len(diff.Created) - 1; i >= 0; i-- {
		if _, err := s.Remove(diff.Created[i]); err != nil {
			return err
		}
	}
	for i := len(diff.Spent) - 1; i >= 0; i-- {
		rec := diff.Spent[i]
		if err := s.Add(rec.OutPoint, rec.Entry); err != nil {
			return err
		}
	}
	return nil
}
