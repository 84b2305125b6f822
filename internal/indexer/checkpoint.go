package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// CheckpointStore persists the last processed block per sync key.
// postgres.Store implements it on the indexer_state table.
type CheckpointStore interface {
	Load(ctx context.Context, key string) (uint64, bool, error)
	Save(ctx context.Context, key string, block uint64) error
}

// Checkpoint is the on-disk record of one sync key.
type Checkpoint struct {
	Key                string `json:"key"`
	LastProcessedBlock uint64 `json:"last_processed_block"`
	UpdatedAt          string `json:"updated_at"`
}

// FileCheckpointStore keeps one JSON file per key under a directory.
type FileCheckpointStore struct {
	dir string
}

func NewFileCheckpointStore(dir string) *FileCheckpointStore {
	return &FileCheckpointStore{dir: dir}
}

func (c *FileCheckpointStore) path(key string) string {
	name := strings.NewReplacer("/", "_", ":", "_", "\\", "_").Replace(key)
	return filepath.Join(c.dir, name+".json")
}

func (c *FileCheckpointStore) Load(ctx context.Context, key string) (uint64, bool, error) {
	path := c.path(key)
	stat, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("stat checkpoint: %w", err)
	}
	if stat.IsDir() {
		return 0, false, fmt.Errorf("checkpoint path is a directory")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false, fmt.Errorf("read checkpoint: %w", err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return 0, false, fmt.Errorf("parse checkpoint: %w", err)
	}
	return cp.LastProcessedBlock, true, nil
}

func (c *FileCheckpointStore) Save(ctx context.Context, key string, block uint64) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	cp := Checkpoint{
		Key:                key,
		LastProcessedBlock: block,
		UpdatedAt:          time.Now().UTC().Format(time.RFC3339Nano),
	}
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	path := c.path(key)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	return nil
}

// resumeFrom returns the first block to process for key, never below from.
func resumeFrom(ctx context.Context, store CheckpointStore, key string, from uint64) (uint64, error) {
	if store == nil {
		return from, nil
	}
	last, ok, err := store.Load(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("load checkpoint %s: %w", key, err)
	}
	if ok && last >= from {
		return last + 1, nil
	}
	return from, nil
}
