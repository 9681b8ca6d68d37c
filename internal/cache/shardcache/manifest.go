package shardcache

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ManifestVersion is the current shard layout version.
const ManifestVersion = 1

// ErrLayoutMismatch is returned when a cache directory was created with a
// different shard layout.
var ErrLayoutMismatch = errors.New("shardcache: layout does not match manifest")

// Manifest records the layout a shard directory was created with. Reading
// shards with a different strategy or count would miss every key.
type Manifest struct {
	Version     int       `json:"version"`
	TotalShards int       `json:"total_shards"`
	Strategy    string    `json:"strategy"`
	Compression string    `json:"compression"`
	CreatedAt   time.Time `json:"created_at"`
}

const manifestFilename = "manifest.json"

// WriteManifest writes the manifest to dir.
func WriteManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, manifestFilename), data, 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// ReadManifest reads the manifest from dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestFilename))
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	return &m, nil
}

// EnsureManifest checks dir against want, writing want when dir has no
// manifest yet.
func EnsureManifest(dir string, want Manifest) (*Manifest, error) {
	got, err := ReadManifest(dir)
	if errors.Is(err, os.ErrNotExist) {
		if want.Version == 0 {
			want.Version = ManifestVersion
		}
		if want.CreatedAt.IsZero() {
			want.CreatedAt = time.Now().UTC()
		}
		if err := WriteManifest(dir, &want); err != nil {
			return nil, err
		}
		return &want, nil
	}
	if err != nil {
		return nil, err
	}
	if got.TotalShards != want.TotalShards || got.Strategy != want.Strategy || got.Compression != want.Compression {
		return got, fmt.Errorf("%w: have %d/%s/%s, configured %d/%s/%s", ErrLayoutMismatch,
			got.TotalShards, got.Strategy, got.Compression,
			want.TotalShards, want.Strategy, want.Compression)
	}
	return got, nil
}
