// Package snapshot persists the per-category sets of listing ids observed
// by the last completed pipeline run.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"internwatch/internal/delta"
	"internwatch/internal/listing"
)

const fileName = "last_scrape.json"

type document struct {
	Summer    []string `json:"summer"`
	Offseason []string `json:"offseason"`
}

// Store reads and replaces the last-scrape id sets, backed by a flat JSON
// file in the data directory. A file lock on the document guards against a
// second poller process mutating the same state; the design assumes a
// single active poller and the lock turns that assumption into an error at
// startup instead of silent corruption.
type Store struct {
	path string
	lock *flock.Flock
}

// ErrLocked means another process already holds the snapshot file.
var ErrLocked = errors.New("snapshot file is locked by another process")

// Open ensures the snapshot file exists (creating the empty default
// structure if absent) and takes the cross-process lock.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dataDir, fileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := writeAtomic(path, document{Summer: []string{}, Offseason: []string{}}); err != nil {
			return nil, fmt.Errorf("init snapshot file: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	lock := flock.New(path + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock snapshot file: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return &Store{path: path, lock: lock}, nil
}

// Close releases the cross-process lock.
func (s *Store) Close() error {
	if s == nil || s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

// Load returns the id sets from the last completed run.
func (s *Store) Load() (delta.Snapshot, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}
	return delta.Snapshot{
		listing.CategorySummer:    toSet(doc.Summer),
		listing.CategoryOffseason: toSet(doc.Offseason),
	}, nil
}

// Replace rewrites the whole document with the given id sets. This is a
// wholesale replacement, not a union: a listing that drops out of the feed
// is forgotten and will be announced again if it reappears. That
// re-announcement is intended behavior; do not "fix" this into a merge.
func (s *Store) Replace(summer, offseason map[string]struct{}) error {
	doc := document{
		Summer:    toList(summer),
		Offseason: toList(offseason),
	}
	if err := writeAtomic(s.path, doc); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

func writeAtomic(path string, doc document) error {
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func toList(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
