package poller

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// CheckpointStore persists the last fully processed block height as a plain
// text integer. A missing or unparsable file is the cold-start case, not an
// error; writes go through a temp file and rename so a crash never leaves a
// half-written checkpoint.
type CheckpointStore struct {
	path string

	lastSaved uint64
	haveSaved bool
}

func NewCheckpointStore(path string) *CheckpointStore {
	return &CheckpointStore{path: path}
}

// Load returns the persisted height. ok is false when no usable checkpoint
// exists and the caller should fall back to its cold-start default.
func (c *CheckpointStore) Load() (uint64, bool) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return 0, false
	}

	height, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, false
	}

	c.lastSaved = height
	c.haveSaved = true
	return height, true
}

// Save persists the height. The checkpoint is monotonically non-decreasing:
// an attempt to move it backwards is ignored, even when the caller never
// loaded the persisted value first.
func (c *CheckpointStore) Save(height uint64) error {
	if !c.haveSaved {
		c.Load()
	}
	if c.haveSaved && height <= c.lastSaved {
		return nil
	}

	dir := filepath.Dir(c.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create checkpoint dir: %w", err)
		}
	}

	tmpPath := c.path + ".tmp"
	data := []byte(strconv.FormatUint(height, 10) + "\n")
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("rename checkpoint: %w", err)
	}

	c.lastSaved = height
	c.haveSaved = true
	return nil
}
