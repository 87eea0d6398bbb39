// Package listing defines the internship posting domain model.
package listing

import "strings"

// Category is a classification bucket for postings.
type Category string

const (
	CategorySummer    Category = "summer"
	CategoryOffseason Category = "offseason"
)

// Categories in delivery order.
var Categories = []Category{CategorySummer, CategoryOffseason}

var offseasonKeywords = []string{"Fall", "Winter", "Spring"}

// Listing is one internship posting as published by the upstream feed.
// ID is stable across fetches and uniquely identifies the posting.
type Listing struct {
	ID          string   `json:"id"`
	CompanyName string   `json:"company_name"`
	Title       string   `json:"title"`
	Locations   []string `json:"locations"`
	Terms       []string `json:"terms"`
	Sponsorship string   `json:"sponsorship"`
	Active      bool     `json:"active"`
	IsVisible   bool     `json:"is_visible"`
	URL         string   `json:"url"`
	DatePosted  int64    `json:"date_posted"`
	DateUpdated int64    `json:"date_updated"`
	Source      string   `json:"source"`
	CompanyURL  string   `json:"company_url"`
}

// IsSummer reports whether any term names a summer cohort.
func (l Listing) IsSummer() bool {
	for _, term := range l.Terms {
		if strings.Contains(term, "Summer") {
			return true
		}
	}
	return false
}

// IsOffseason reports whether any term names a Fall/Winter/Spring cohort.
func (l Listing) IsOffseason() bool {
	for _, term := range l.Terms {
		for _, kw := range offseasonKeywords {
			if strings.Contains(term, kw) {
				return true
			}
		}
	}
	return false
}

// Eligible reports whether the posting should be delivered at all.
func (l Listing) Eligible() bool {
	return l.Active && l.IsVisible
}

// LocationText renders the locations for a notification message.
func (l Listing) LocationText() string {
	if len(l.Locations) == 0 {
		return "Location not specified"
	}
	return strings.Join(l.Locations, ", ")
}

// ScrapedData holds one fetch's postings split by category, each slice
// sorted newest first.
type ScrapedData struct {
	Summer    []Listing
	Offseason []Listing
}

// Category returns the slice for cat. Unknown categories yield nil.
func (d ScrapedData) Category(cat Category) []Listing {
	switch cat {
	case CategorySummer:
		return d.Summer
	case CategoryOffseason:
		return d.Offseason
	}
	return nil
}

// IDs returns the set of posting ids in cat.
func (d ScrapedData) IDs(cat Category) map[string]struct{} {
	items := d.Category(cat)
	ids := make(map[string]struct{}, len(items))
	for _, l := range items {
		ids[l.ID] = struct{}{}
	}
	return ids
}

// Total is the number of postings across both categories.
func (d ScrapedData) Total() int {
	return len(d.Summer) + len(d.Offseason)
}
