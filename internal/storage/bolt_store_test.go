package storage

import (
	"path/filepath"
	"testing"
	"time"
)

func TestBoltJournalMarksAndExpiresGUIDs(t *testing.T) {
	opts := Options{TTL: time.Hour, CleanupInterval: time.Minute}

	j, err := openBolt(filepath.Join(t.TempDir(), "guids.db"), opts)
	if err != nil {
		t.Fatalf("openBolt: %v", err)
	}
	defer j.Close()

	now := time.Now()
	j.now = func() time.Time { return now }

	if err := j.Mark("g1"); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	keys, err := j.Keys()
	if err != nil || len(keys) != 1 || keys[0] != "g1" {
		t.Fatalf("expected [g1], got %v err=%v", keys, err)
	}

	// Jump past the TTL; the cleanup cadence has also elapsed.
	j.now = func() time.Time { return now.Add(2 * time.Hour) }
	keys, err = j.Keys()
	if err != nil {
		t.Fatalf("Keys after expiry: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected expired GUID to be dropped, got %v", keys)
	}
}

func TestBoltJournalPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "guids.db")
	j, err := NewJournal("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	if err := j.Mark("g1"); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	j, err = NewJournal("bbolt", path, Options{})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	keys, err := j.Keys()
	if err != nil || len(keys) != 1 {
		t.Fatalf("expected persisted key, got %v err=%v", keys, err)
	}
}

func TestNewJournalSupportsNoopAndRejectsUnknown(t *testing.T) {
	j, err := NewJournal("none", "", Options{})
	if err != nil {
		t.Fatalf("NewJournal none: %v", err)
	}
	if err := j.Mark("x"); err != nil {
		t.Fatalf("noop Mark: %v", err)
	}
	if _, err := NewJournal("redis", "", Options{}); err == nil {
		t.Fatalf("expected unsupported type error")
	}
	if _, err := NewJournal("bbolt", " ", Options{}); err == nil {
		t.Fatalf("expected missing path error")
	}
}

func TestBoltJournalScopesKeysPerSheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "guids.db")

	first, err := NewJournal("bbolt", path, Options{Scope: "sheet-a/1"})
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	if err := first.Mark("g1"); err != nil {
		t.Fatalf("Mark: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := NewJournal("bbolt", path, Options{Scope: "sheet-b/1"})
	if err != nil {
		t.Fatalf("NewJournal: %v", err)
	}
	defer second.Close()
	keys, err := second.Keys()
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if len(keys) != 0 {
		t.Fatalf("expected other sheet's journal to be empty, got %v", keys)
	}
}
