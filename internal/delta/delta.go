// Package delta computes which freshly fetched listings are new relative to
// the previous snapshot.
package delta

import "internwatch/internal/listing"

// Snapshot is the per-category set of listing ids seen as of the last
// completed run.
type Snapshot map[listing.Category]map[string]struct{}

// New returns the listings in fresh whose id is absent from the matching
// category set in prev. Pure function; output preserves fresh's order.
func New(fresh listing.ScrapedData, prev Snapshot) listing.ScrapedData {
	return listing.ScrapedData{
		Summer:    unseen(fresh.Summer, prev[listing.CategorySummer]),
		Offseason: unseen(fresh.Offseason, prev[listing.CategoryOffseason]),
	}
}

func unseen(items []listing.Listing, seen map[string]struct{}) []listing.Listing {
	var out []listing.Listing
	for _, l := range items {
		if _, ok := seen[l.ID]; !ok {
			out = append(out, l)
		}
	}
	return out
}
