package store

import (
	"context"
	"fmt"
	"time"

	"internwatch/internal/listing"
)

// DeliveredListing is one archived delivery row.
type DeliveredListing struct {
	ListingID   string `json:"listing_id"`
	Category    string `json:"category"`
	Company     string `json:"company"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	URL         string `json:"url"`
	DatePosted  int64  `json:"date_posted"`
	DeliveredAt string `json:"delivered_at"`
}

// RecordDelivered archives l under cat. Re-deliveries of a listing already
// archived in the same category are ignored.
func (d *DB) RecordDelivered(ctx context.Context, cat listing.Category, l listing.Listing) (added bool, err error) {
	_, err = d.Pool.ExecContext(ctx, `
INSERT OR IGNORE INTO delivered_listings
  (listing_id, category, company, title, location, url, date_posted, delivered_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);`,
		l.ID, string(cat), l.CompanyName, l.Title, l.LocationText(), l.URL,
		l.DatePosted, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("archive listing: %w", err)
	}

	var changes int
	if e := d.Pool.QueryRowContext(ctx, `SELECT changes();`).Scan(&changes); e == nil {
		return changes > 0, nil
	}
	return true, nil
}

// ListDelivered returns the most recently archived rows, newest first.
// limit <= 0 means a default page of 50.
func (d *DB) ListDelivered(ctx context.Context, limit int) ([]DeliveredListing, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := d.Pool.QueryContext(ctx, `
SELECT listing_id, category, company, title, location, url, date_posted, delivered_at
FROM delivered_listings
ORDER BY delivered_at DESC, date_posted DESC
LIMIT ?;`, limit)
	if err != nil {
		return nil, fmt.Errorf("list delivered: %w", err)
	}
	defer rows.Close()

	var out []DeliveredListing
	for rows.Next() {
		var r DeliveredListing
		if err := rows.Scan(&r.ListingID, &r.Category, &r.Company, &r.Title,
			&r.Location, &r.URL, &r.DatePosted, &r.DeliveredAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
