// Package store is an optional, opt-in durability collaborator for
// chainstate.Coordinator: a bbolt-backed on-disk mirror of accepted blocks,
// the live UTXO set, and a commit manifest. Nothing in the coordinator
// requires it — per spec.md §1, persistence beyond JSON snapshots is out
// of scope for the core — but a long-running node can use it to keep its
// accepted blocks across a restart. Load rebuilds the coordinator by
// replaying every stored block from genesis.
//
// Adapted from the teacher's node/store package: a bucket-per-concern
// layout (blocks by hash, acceptance order, UTXO; no undo records) and the same atomic
// write-temp-fsync-rename manifest commit, simplified to this spec's
// single-asset P2PKH/UTXO model in place of the teacher's covenant-aware
// chain database.
package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// ChainDir returns the on-disk directory for a given chain under datadir.
func ChainDir(datadir string, chainIDHex string) string {
	return filepath.Join(datadir, "chains", chainIDHex)
}

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("store: mkdir %s: %w", path, err)
	}
	return nil
}
