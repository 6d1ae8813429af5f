package store

import (
	"encoding/binary"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketBlocks = []byte("blocks_by_hash")
	bucketOrder  = []byte("blocks_by_sequence")
	bucketUTXO   = []byte("utxo_by_outpoint")
)

// DB is a bbolt-backed mirror of a coordinator's accepted blocks and live
// UTXO set. It never replaces the in-memory Coordinator as the source of
// truth during a run; Persist/Load move whole-state snapshots across the
// boundary at caller-chosen checkpoints (analogous to the teacher's
// node/store commit points, simplified: this package has no incremental
// undo log because Load reconstructs state by replaying AddBlock, which
// re-runs full validation rather than trusting a stored diff).
type DB struct {
	chainDir   string
	chainIDHex string
	db         *bolt.DB
	manifest   *Manifest
}

// Open creates or opens the bbolt database for chainIDHex under datadir.
// A freshly created database has no manifest; callers must Persist a
// coordinator's state before Load will find anything.
func Open(datadir string, chainIDHex string) (*DB, error) {
	if datadir == "" {
		return nil, fmt.Errorf("store: datadir required")
	}
	if chainIDHex == "" {
		return nil, fmt.Errorf("store: chain_id_hex required")
	}

	chainDir := ChainDir(datadir, chainIDHex)
	if err := ensureDir(chainDir); err != nil {
		return nil, err
	}

	path := chainDir + "/kv.db"
	bdb, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("store: open bbolt: %w", err)
	}

	d := &DB{chainDir: chainDir, chainIDHex: chainIDHex, db: bdb}
	if err := d.db.Update(func(tx *bolt.Tx) error {
		for _, b := range [][]byte{bucketBlocks, bucketOrder, bucketUTXO} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("store: create bucket %s: %w", string(b), err)
			}
		}
		return nil
	}); err != nil {
		_ = bdb.Close()
		return nil, err
	}

	m, err := readManifest(chainDir)
	if err == nil {
		d.manifest = m
	}
	return d, nil
}

func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// Manifest returns the last-committed manifest, or nil if Persist has
// never been called against this database.
func (d *DB) Manifest() *Manifest { return d.manifest }

// putBlockSequence records hash as the next block in acceptance order and
// stores its raw wire bytes keyed by hash, alongside its height.
func (d *DB) putBlockSequence(seq uint64, hash [32]byte, height uint64, blockBytes []byte) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		var seqKey [8]byte
		binary.BigEndian.PutUint64(seqKey[:], seq)
		if err := tx.Bucket(bucketOrder).Put(seqKey[:], hash[:]); err != nil {
			return err
		}
		rec := make([]byte, 8+len(blockBytes))
		binary.LittleEndian.PutUint64(rec[:8], height)
		copy(rec[8:], blockBytes)
		return tx.Bucket(bucketBlocks).Put(hash[:], rec)
	})
}

// orderedBlocks returns every stored block's raw bytes and height, in
// original acceptance order.
func (d *DB) orderedBlocks() ([][]byte, error) {
	var out [][]byte
	err := d.db.View(func(tx *bolt.Tx) error {
		order := tx.Bucket(bucketOrder)
		blocks := tx.Bucket(bucketBlocks)
		return order.ForEach(func(_, hash []byte) error {
			rec := blocks.Get(hash)
			if rec == nil {
				return fmt.Errorf("store: sequence references missing block %x", hash)
			}
			if len(rec) < 8 {
				return fmt.Errorf("store: truncated block record for %x", hash)
			}
			out = append(out, append([]byte(nil), rec[8:]...))
			return nil
		})
	})
	return out, err
}

func (d *DB) putUTXO(key []byte, val []byte) error {
	return d.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUTXO).Put(key, val)
	})
}

func (d *DB) clearUTXO() error {
	return d.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketUTXO); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(bucketUTXO)
		return err
	})
}

func (d *DB) eachUTXO(fn func(key, val []byte) error) error {
	return d.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketUTXO).ForEach(fn)
	})
}
