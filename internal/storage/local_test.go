package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"tweetvault/internal/model"
)

func sampleRecord(hash, processedAt string) model.ContentRecord {
	return model.ContentRecord{
		ContentHash: hash,
		Event: model.SubmissionEvent{
			BlockNumber: 100,
			TxHash:      "0xabc",
			Validation:  "https://x.com/user/status/123",
		},
		Tweet: model.TweetData{
			URL:     "https://x.com/user/status/123",
			TweetID: "123",
			Handle:  "user",
			Content: "hello",
		},
		Analysis:    model.Analysis{CombinedScore: 0.5, Token: "BTC"},
		ProcessedAt: processedAt,
	}
}

func TestLocalStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)

	record := sampleRecord(
		"0x1111111111111111111111111111111111111111111111111111111111111111",
		"2026-01-02T03:04:05Z")

	path, err := store.Write(record)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasPrefix(filepath.Base(path), "tweet_1111111111111111") {
		t.Fatalf("unexpected file name: %s", path)
	}

	records, err := store.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if !reflect.DeepEqual(records[0], record) {
		t.Fatalf("record mismatch:\n got %+v\nwant %+v", records[0], record)
	}
}

func TestLocalStoreOverwritesSameHash(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)

	hash := "0x2222222222222222222222222222222222222222222222222222222222222222"
	if _, err := store.Write(sampleRecord(hash, "2026-01-01T00:00:00Z")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Write(sampleRecord(hash, "2026-01-02T00:00:00Z")); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	records, err := store.List(0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("replayed event must overwrite, got %d records", len(records))
	}
	if records[0].ProcessedAt != "2026-01-02T00:00:00Z" {
		t.Fatalf("stale record survived: %+v", records[0])
	}
}

func TestLocalStoreListOrderAndLimit(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)

	hashes := []string{
		"0x3333333333333333333333333333333333333333333333333333333333333333",
		"0x4444444444444444444444444444444444444444444444444444444444444444",
		"0x5555555555555555555555555555555555555555555555555555555555555555",
	}
	times := []string{"2026-01-01T00:00:00Z", "2026-01-03T00:00:00Z", "2026-01-02T00:00:00Z"}
	for i, hash := range hashes {
		if _, err := store.Write(sampleRecord(hash, times[i])); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	records, err := store.List(2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("limit ignored: %d", len(records))
	}
	if records[0].ProcessedAt != "2026-01-03T00:00:00Z" || records[1].ProcessedAt != "2026-01-02T00:00:00Z" {
		t.Fatalf("wrong order: %s, %s", records[0].ProcessedAt, records[1].ProcessedAt)
	}
}

func TestLocalStoreAppendsIndex(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)

	hash := "0x6666666666666666666666666666666666666666666666666666666666666666"
	if _, err := store.Write(sampleRecord(hash, "2026-01-01T00:00:00Z")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := store.Write(sampleRecord(hash, "2026-01-02T00:00:00Z")); err != nil {
		t.Fatalf("rewrite: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "index.jsonl"))
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("index must keep every write, got %d lines", len(lines))
	}
}
