package pipeline

import (
	"path/filepath"
	"testing"
)

func TestResubmitLogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resubmitted.json")

	log, err := LoadResubmitLog(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if log.Has("0xaaa") {
		t.Fatalf("empty log must not contain anything")
	}

	if err := log.Add("0xaaa"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := log.Add("0xbbb"); err != nil {
		t.Fatalf("add: %v", err)
	}

	reloaded, err := LoadResubmitLog(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.Has("0xaaa") || !reloaded.Has("0xbbb") {
		t.Fatalf("entries lost across restart")
	}
	if reloaded.Has("0xccc") {
		t.Fatalf("unexpected entry")
	}
}
