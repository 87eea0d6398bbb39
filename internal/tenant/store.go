// Package tenant manages per-tenant channel bindings and the global scrape
// settings, persisted as a flat JSON document.
package tenant

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"internwatch/internal/listing"
)

const (
	fileName = "config.json"

	defaultIntervalHours = 6.0
	defaultLookback      = 72 * time.Hour
)

// ErrInvalidConfig is returned by setters given an out-of-range value.
var ErrInvalidConfig = errors.New("invalid config value")

// Config is one tenant's channel bindings. An empty binding means "do not
// deliver to this tenant for that category".
type Config struct {
	SummerChannel    string `json:"summer_channel,omitempty"`
	OffseasonChannel string `json:"offseason_channel,omitempty"`
}

func (c Config) channel(cat listing.Category) string {
	switch cat {
	case listing.CategorySummer:
		return c.SummerChannel
	case listing.CategoryOffseason:
		return c.OffseasonChannel
	}
	return ""
}

type globalSection struct {
	ScrapeIntervalHours  float64 `json:"scrape_interval_hours,omitempty"`
	ScrapeStartTimestamp int64   `json:"scrape_start_timestamp,omitempty"`
}

type document struct {
	Tenants map[string]Config `json:"tenants"`
	Global  globalSection     `json:"global"`
}

// Store reads and writes the tenant configuration document. Every accessor
// re-reads the file so external edits are picked up on the next run; a
// mutex serializes readers against the HTTP setters.
type Store struct {
	mu   sync.Mutex
	path string
}

// Open ensures the configuration file exists, creating an empty document
// if absent.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(dataDir, fileName)

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := writeAtomic(path, document{Tenants: map[string]Config{}}); err != nil {
			return nil, fmt.Errorf("init config file: %w", err)
		}
	} else if err != nil {
		return nil, err
	}

	return &Store{path: path}, nil
}

// ChannelBindings returns every destination bound to cat across all
// tenants. Tenants without a binding for cat are skipped.
func (s *Store) ChannelBindings(cat listing.Category) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	var out []string
	for _, t := range doc.Tenants {
		if ch := t.channel(cat); ch != "" {
			out = append(out, ch)
		}
	}
	return out, nil
}

// Tenant returns the bindings for one tenant.
func (s *Store) Tenant(tenantID string) (Config, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return Config{}, err
	}
	return doc.Tenants[tenantID], nil
}

// SetChannel binds a destination for one tenant and category.
func (s *Store) SetChannel(tenantID string, cat listing.Category, destination string) error {
	if tenantID == "" || destination == "" {
		return fmt.Errorf("%w: tenant id and destination are required", ErrInvalidConfig)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	t := doc.Tenants[tenantID]
	switch cat {
	case listing.CategorySummer:
		t.SummerChannel = destination
	case listing.CategoryOffseason:
		t.OffseasonChannel = destination
	default:
		return fmt.Errorf("%w: unknown category %q", ErrInvalidConfig, cat)
	}
	doc.Tenants[tenantID] = t
	return writeAtomic(s.path, doc)
}

// ScrapeIntervalHours returns the configured poll interval, defaulting to
// 6 hours when unset.
func (s *Store) ScrapeIntervalHours() (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, err
	}
	if doc.Global.ScrapeIntervalHours <= 0 {
		return defaultIntervalHours, nil
	}
	return doc.Global.ScrapeIntervalHours, nil
}

// SetScrapeIntervalHours persists a new poll interval.
func (s *Store) SetScrapeIntervalHours(hours float64) error {
	if hours <= 0 {
		return fmt.Errorf("%w: interval must be > 0 hours", ErrInvalidConfig)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Global.ScrapeIntervalHours = hours
	return writeAtomic(s.path, doc)
}

// ScrapeStartTimestamp returns the posting-date cutoff. When unset it
// defaults to now minus three days so a fresh install does not replay the
// feed's full history.
func (s *Store) ScrapeStartTimestamp() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return 0, err
	}
	if doc.Global.ScrapeStartTimestamp <= 0 {
		return time.Now().Add(-defaultLookback).Unix(), nil
	}
	return doc.Global.ScrapeStartTimestamp, nil
}

// SetScrapeStartTimestamp persists a new posting-date cutoff.
func (s *Store) SetScrapeStartTimestamp(ts int64) error {
	if ts <= 0 {
		return fmt.Errorf("%w: timestamp must be > 0", ErrInvalidConfig)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	doc.Global.ScrapeStartTimestamp = ts
	return writeAtomic(s.path, doc)
}

// HasBindings reports whether any tenant is bound in either category.
func (s *Store) HasBindings() (bool, error) {
	for _, cat := range listing.Categories {
		bindings, err := s.ChannelBindings(cat)
		if err != nil {
			return false, err
		}
		if len(bindings) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) load() (document, error) {
	var doc document
	b, err := os.ReadFile(s.path)
	if err != nil {
		return doc, fmt.Errorf("read config: %w", err)
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return doc, fmt.Errorf("parse config: %w", err)
	}
	if doc.Tenants == nil {
		doc.Tenants = map[string]Config{}
	}
	return doc, nil
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
