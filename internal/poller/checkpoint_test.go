package poller

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckpointColdStart(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "last_block.txt"))

	if _, ok := store.Load(); ok {
		t.Fatalf("missing checkpoint must report not-ok")
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_block.txt")

	store := NewCheckpointStore(path)
	if err := store.Save(12345); err != nil {
		t.Fatalf("save: %v", err)
	}

	fresh := NewCheckpointStore(path)
	height, ok := fresh.Load()
	if !ok || height != 12345 {
		t.Fatalf("load = (%d, %v), want (12345, true)", height, ok)
	}
}

func TestCheckpointMonotonic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_block.txt")

	store := NewCheckpointStore(path)
	if err := store.Save(100); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(90); err != nil {
		t.Fatalf("backwards save must be a silent no-op: %v", err)
	}

	height, ok := NewCheckpointStore(path).Load()
	if !ok || height != 100 {
		t.Fatalf("checkpoint moved backwards: (%d, %v)", height, ok)
	}
}

func TestCheckpointMonotonicWithoutLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_block.txt")

	if err := NewCheckpointStore(path).Save(500); err != nil {
		t.Fatalf("save: %v", err)
	}

	// A fresh store that never called Load, as when a fixed start block
	// bypasses the checkpoint, must still not regress the persisted height.
	if err := NewCheckpointStore(path).Save(300); err != nil {
		t.Fatalf("backwards save must be a silent no-op: %v", err)
	}

	height, ok := NewCheckpointStore(path).Load()
	if !ok || height != 500 {
		t.Fatalf("checkpoint moved backwards: (%d, %v)", height, ok)
	}
}

func TestCheckpointIgnoresGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_block.txt")
	if err := os.WriteFile(path, []byte("not a number\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, ok := NewCheckpointStore(path).Load(); ok {
		t.Fatalf("garbage checkpoint must report not-ok")
	}
}
