package snapshot

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"internwatch/internal/listing"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func set(ids ...string) map[string]struct{} {
	s := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func TestOpen_CreatesDefaultStructure(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	b, err := os.ReadFile(filepath.Join(dir, "last_scrape.json"))
	if err != nil {
		t.Fatalf("snapshot file not created: %v", err)
	}

	var doc struct {
		Summer    []string `json:"summer"`
		Offseason []string `json:"offseason"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		t.Fatalf("default file is not valid JSON: %v", err)
	}
	if doc.Summer == nil || doc.Offseason == nil {
		t.Error("default structure should carry empty arrays, not nulls")
	}

	snap, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(snap[listing.CategorySummer]) != 0 || len(snap[listing.CategoryOffseason]) != 0 {
		t.Error("fresh store should load empty sets")
	}
}

func TestReplaceThenLoadRoundTrip(t *testing.T) {
	s := openStore(t)

	if err := s.Replace(set("a", "b"), set("x")); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	snap, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := snap[listing.CategorySummer]["a"]; !ok {
		t.Error("summer set lost id a")
	}
	if _, ok := snap[listing.CategorySummer]["b"]; !ok {
		t.Error("summer set lost id b")
	}
	if _, ok := snap[listing.CategoryOffseason]["x"]; !ok {
		t.Error("offseason set lost id x")
	}
}

func TestReplace_IsWholesaleNotMerge(t *testing.T) {
	s := openStore(t)

	if err := s.Replace(set("a", "b"), set()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	// b vanished from the feed; only a remains.
	if err := s.Replace(set("a"), set()); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	snap, err := s.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := snap[listing.CategorySummer]["b"]; ok {
		t.Error("vanished id b must be forgotten so it is re-announced on return")
	}
	if len(snap[listing.CategorySummer]) != 1 {
		t.Errorf("summer set size = %d, want 1", len(snap[listing.CategorySummer]))
	}
}

func TestOpen_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()

	s1, err := Open(dir)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s1.Replace(set("persisted"), set()); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := s1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s2, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	snap, err := s2.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := snap[listing.CategorySummer]["persisted"]; !ok {
		t.Error("snapshot did not survive reopen")
	}
}
