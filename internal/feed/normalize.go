package feed

import (
	"encoding/json"
	"fmt"
	"sort"

	"internwatch/internal/listing"
	"internwatch/internal/logger"
)

// NormalizeStats summarizes one normalization pass.
type NormalizeStats struct {
	Processed      int // records that decoded into a valid listing
	Invalid        int // records skipped because they failed strict conversion
	FilteredByDate int
	Summer         int
	Offseason      int
}

// Normalize converts raw feed records into categorized, date-sorted
// listings. Invalid records are skipped with a warning, never aborting the
// batch. Records posted before startTS (when startTS > 0) are skipped, but
// scanning continues since the feed carries no sort guarantee. Inactive or
// hidden postings are dropped, as are postings matching neither category.
func Normalize(raw []json.RawMessage, startTS int64, log *logger.Logger) (listing.ScrapedData, NormalizeStats) {
	var data listing.ScrapedData
	var stats NormalizeStats

	for i, rec := range raw {
		l, err := decodeRecord(rec)
		if err != nil {
			stats.Invalid++
			log.Warn("skipping invalid record", "index", i, "err", err)
			continue
		}
		stats.Processed++

		if !l.Eligible() {
			continue
		}
		if startTS > 0 && l.DatePosted < startTS {
			stats.FilteredByDate++
			continue
		}

		// Summer is checked first: a posting whose terms match both
		// buckets lands in summer only, never both.
		switch {
		case l.IsSummer():
			data.Summer = append(data.Summer, l)
		case l.IsOffseason():
			data.Offseason = append(data.Offseason, l)
		}
	}

	// Upstream data is unsorted; order newest first within each category.
	sortByDateDesc(data.Summer)
	sortByDateDesc(data.Offseason)

	stats.Summer = len(data.Summer)
	stats.Offseason = len(data.Offseason)

	log.Info("normalized feed",
		"processed", stats.Processed,
		"invalid", stats.Invalid,
		"filtered_by_date", stats.FilteredByDate,
		"summer", stats.Summer,
		"offseason", stats.Offseason)

	return data, stats
}

func decodeRecord(rec json.RawMessage) (listing.Listing, error) {
	var l listing.Listing
	if err := json.Unmarshal(rec, &l); err != nil {
		return l, fmt.Errorf("decode: %w", err)
	}
	if l.ID == "" {
		return l, fmt.Errorf("missing id")
	}
	if l.CompanyName == "" {
		return l, fmt.Errorf("missing company_name")
	}
	if l.Title == "" {
		return l, fmt.Errorf("missing title")
	}
	if l.DatePosted <= 0 {
		return l, fmt.Errorf("missing date_posted")
	}
	return l, nil
}

func sortByDateDesc(items []listing.Listing) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DatePosted > items[j].DatePosted
	})
}
