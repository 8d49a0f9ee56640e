package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ResubmitLog records which content hashes have already been resubmitted so
// the pipeline submits each one at most once across restarts. The set is
// persisted as a JSON array next to the checkpoint file.
type ResubmitLog struct {
	path string

	mu   sync.Mutex
	seen map[string]struct{}
}

func LoadResubmitLog(path string) (*ResubmitLog, error) {
	l := &ResubmitLog{path: path, seen: make(map[string]struct{})}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read resubmit log: %w", err)
	}
	var hashes []string
	if err := json.Unmarshal(data, &hashes); err != nil {
		return nil, fmt.Errorf("parse resubmit log %s: %w", path, err)
	}
	for _, h := range hashes {
		l.seen[h] = struct{}{}
	}
	return l, nil
}

func (l *ResubmitLog) Has(contentHash string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.seen[contentHash]
	return ok
}

// Add records the hash and persists the set. The hash stays recorded in
// memory even if the write fails, so a flaky disk cannot cause a duplicate
// submission within the same run.
func (l *ResubmitLog) Add(contentHash string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[contentHash] = struct{}{}

	hashes := make([]string, 0, len(l.seen))
	for h := range l.seen {
		hashes = append(hashes, h)
	}
	data, err := json.Marshal(hashes)
	if err != nil {
		return fmt.Errorf("encode resubmit log: %w", err)
	}
	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create resubmit log dir: %w", err)
		}
	}
	tmp := l.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write resubmit log: %w", err)
	}
	if err := os.Rename(tmp, l.path); err != nil {
		return fmt.Errorf("replace resubmit log: %w", err)
	}
	return nil
}
