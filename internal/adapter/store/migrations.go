package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"go.etcd.io/bbolt"

	"docrag/config"
)

// CurrentSchemaVersion is the registry/index layout version.
// Increment this when the persisted format changes incompatibly.
const CurrentSchemaVersion = 1

var (
	keySchemaVersion = []byte("schema_version")
	keyConfigHash    = []byte("config_hash")
)

// SchemaInfo is what the registry remembers about how the index was built.
type SchemaInfo struct {
	Version    int
	ConfigHash string
}

func (r *BoltRegistry) SchemaInfo() (SchemaInfo, error) {
	var info SchemaInfo
	err := r.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if v := b.Get(keySchemaVersion); v != nil {
			n, err := strconv.Atoi(string(v))
			if err != nil {
				return fmt.Errorf("invalid schema version %q", v)
			}
			info.Version = n
		}
		info.ConfigHash = string(b.Get(keyConfigHash))
		return nil
	})
	return info, err
}

func (r *BoltRegistry) SetSchemaInfo(info SchemaInfo) error {
	return r.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		if err := b.Put(keySchemaVersion, []byte(strconv.Itoa(info.Version))); err != nil {
			return err
		}
		return b.Put(keyConfigHash, []byte(info.ConfigHash))
	})
}

// ComputeConfigHash hashes the settings that shape indexed vectors and
// records. A different hash means the existing index no longer matches.
func ComputeConfigHash(cfg *config.Config) string {
	relevant := struct {
		MaxTokens   int    `json:"max_tokens"`
		StoredChars int    `json:"stored_chars"`
		Provider    string `json:"provider"`
		Model       string `json:"model"`
		Dimension   int    `json:"dimension"`
	}{
		MaxTokens:   cfg.Chunking.MaxTokens,
		StoredChars: cfg.Ingest.StoredChars,
		Provider:    cfg.Embedding.Provider,
		Model:       cfg.Embedding.Model,
		Dimension:   cfg.Embedding.Dimension,
	}

	data, _ := json.Marshal(relevant)
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:8])
}

// RebuildCheck describes whether an existing index can be extended.
type RebuildCheck struct {
	NeedsRebuild bool
	Reason       string
}

// CheckRebuild compares the stored schema info with cfg. A registry that has
// never been stamped needs no rebuild.
func (r *BoltRegistry) CheckRebuild(cfg *config.Config) (RebuildCheck, error) {
	info, err := r.SchemaInfo()
	if err != nil {
		return RebuildCheck{}, fmt.Errorf("failed to read schema info: %w", err)
	}

	switch {
	case info.Version == 0:
		return RebuildCheck{}, nil
	case info.Version != CurrentSchemaVersion:
		return RebuildCheck{
			NeedsRebuild: true,
			Reason:       fmt.Sprintf("index schema v%d, this build uses v%d", info.Version, CurrentSchemaVersion),
		}, nil
	case info.ConfigHash != ComputeConfigHash(cfg):
		return RebuildCheck{
			NeedsRebuild: true,
			Reason:       "chunking or embedding configuration changed",
		}, nil
	}
	return RebuildCheck{}, nil
}

// Stamp records the current schema version and configuration hash.
func (r *BoltRegistry) Stamp(cfg *config.Config) error {
	return r.SetSchemaInfo(SchemaInfo{
		Version:    CurrentSchemaVersion,
		ConfigHash: ComputeConfigHash(cfg),
	})
}
