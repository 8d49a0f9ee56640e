package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"tweetvault/internal/model"
)

// LocalStore persists content records to the data directory before any
// network upload. Records are keyed by content hash so a replayed event
// overwrites its own file instead of duplicating it; an append-only JSONL
// index keeps the processing log.
type LocalStore struct {
	dir string
	mu  sync.Mutex
}

func NewLocalStore(dir string) *LocalStore {
	return &LocalStore{dir: dir}
}

// Write stores the record durably and returns the file path.
func (s *LocalStore) Write(record model.ContentRecord) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}

	path := filepath.Join(s.dir, recordFileName(record.ContentHash))

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write record tmp: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("rename record: %w", err)
	}

	if err := s.appendIndex(record); err != nil {
		return "", err
	}

	return path, nil
}

func (s *LocalStore) appendIndex(record model.ContentRecord) error {
	file, err := os.OpenFile(filepath.Join(s.dir, "index.jsonl"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open index: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal index line: %w", err)
	}
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write index line: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return writer.Flush()
}

// List returns locally stored records, newest first. limit <= 0 means all.
func (s *LocalStore) List(limit int) ([]model.ContentRecord, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "tweet_*.json"))
	if err != nil {
		return nil, fmt.Errorf("glob records: %w", err)
	}

	records := make([]model.ContentRecord, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var record model.ContentRecord
		if err := json.Unmarshal(data, &record); err != nil {
			continue
		}
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].ProcessedAt > records[j].ProcessedAt
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func recordFileName(contentHash string) string {
	key := strings.TrimPrefix(strings.ToLower(contentHash), "0x")
	if len(key) > 16 {
		key = key[:16]
	}
	if key == "" {
		key = "unknown"
	}
	return "tweet_" + key + ".json"
}
