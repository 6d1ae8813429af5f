package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// SchemaVersionV1 is the only manifest schema this package understands.
const SchemaVersionV1 uint32 = 1

// Manifest is the crash-safe commit point recording which block sequence
// and best tip the bbolt buckets were last known to agree with.
type Manifest struct {
	SchemaVersion uint32 `json:"schema_version"`
	ChainIDHex    string `json:"chain_id_hex"`
	BestTipHex    string `json:"best_tip_hash"`
	Height        uint64 `json:"height"`
	BlockCount    uint64 `json:"block_count"`
}

func manifestPath(chainDir string) string {
	return filepath.Join(chainDir, "MANIFEST.json")
}

func readManifest(chainDir string) (*Manifest, error) {
	b, err := os.ReadFile(manifestPath(chainDir))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("store: manifest json: %w", err)
	}
	return &m, nil
}

// writeManifestAtomic commits the manifest as write-temp -> fsync temp ->
// rename -> fsync dir, so a crash mid-write never leaves a torn manifest.
func writeManifestAtomic(chainDir string, m *Manifest) error {
	if m == nil {
		return fmt.Errorf("store: manifest: nil")
	}
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("store: manifest json: %w", err)
	}
	b = append(b, '\n')

	final := manifestPath(chainDir)
	tmp := final + ".tmp"

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("store: manifest open tmp: %w", err)
	}
	_, werr := f.Write(b)
	serr := f.Sync()
	cerr := f.Close()
	if werr != nil {
		return fmt.Errorf("store: manifest write tmp: %w", werr)
	}
	if serr != nil {
		return fmt.Errorf("store: manifest fsync tmp: %w", serr)
	}
	if cerr != nil {
		return fmt.Errorf("store: manifest close tmp: %w", cerr)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("store: manifest rename: %w", err)
	}

	d, err := os.Open(chainDir)
	if err != nil {
		return fmt.Errorf("store: manifest fsync dir open: %w", err)
	}
	if err := d.Sync(); err != nil {
		_ = d.Close()
		return fmt.Errorf("store: manifest fsync dir: %w", err)
	}
	return d.Close()
}
