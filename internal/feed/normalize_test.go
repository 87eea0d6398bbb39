package feed

import (
	"encoding/json"
	"fmt"
	"testing"

	"internwatch/internal/listing"
	"internwatch/internal/logger"
)

func rawRecord(t *testing.T, l listing.Listing) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(l)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func makeListing(id string, posted int64, active bool, terms ...string) listing.Listing {
	return listing.Listing{
		ID:          id,
		CompanyName: "Acme",
		Title:       "Software Engineering Intern",
		Terms:       terms,
		Active:      active,
		IsVisible:   true,
		URL:         "https://example.com/" + id,
		DatePosted:  posted,
		DateUpdated: posted,
	}
}

func testLog() *logger.Logger { return logger.New("error") }

func TestNormalize_CategoryExclusivity(t *testing.T) {
	// Terms matching both buckets land in summer only.
	raw := []json.RawMessage{
		rawRecord(t, makeListing("both", 100, true, "Summer 2026", "Fall 2026")),
	}

	data, _ := Normalize(raw, 0, testLog())

	if len(data.Summer) != 1 || data.Summer[0].ID != "both" {
		t.Errorf("summer = %v, want exactly [both]", data.Summer)
	}
	if len(data.Offseason) != 0 {
		t.Errorf("offseason = %v, want empty", data.Offseason)
	}
}

func TestNormalize_EligibilityFilter(t *testing.T) {
	inactive := makeListing("inactive", 100, false, "Summer 2026")
	hidden := makeListing("hidden", 100, true, "Summer 2026")
	hidden.IsVisible = false

	raw := []json.RawMessage{rawRecord(t, inactive), rawRecord(t, hidden)}
	data, _ := Normalize(raw, 0, testLog())

	if data.Total() != 0 {
		t.Errorf("got %d listings, want 0 (inactive and hidden must be dropped)", data.Total())
	}
}

func TestNormalize_DateCutoffIgnoresInputOrder(t *testing.T) {
	// The old record sits in the middle: scanning must not stop at it.
	raw := []json.RawMessage{
		rawRecord(t, makeListing("new1", 5000, true, "Summer 2026")),
		rawRecord(t, makeListing("old", 100, true, "Summer 2026")),
		rawRecord(t, makeListing("new2", 4000, true, "Summer 2026")),
	}

	data, stats := Normalize(raw, 1000, testLog())

	if len(data.Summer) != 2 {
		t.Fatalf("got %d summer listings, want 2", len(data.Summer))
	}
	for _, l := range data.Summer {
		if l.DatePosted < 1000 {
			t.Errorf("listing %s posted %d is before cutoff 1000", l.ID, l.DatePosted)
		}
	}
	if stats.FilteredByDate != 1 {
		t.Errorf("filtered_by_date = %d, want 1", stats.FilteredByDate)
	}
}

func TestNormalize_SortsNewestFirst(t *testing.T) {
	raw := []json.RawMessage{
		rawRecord(t, makeListing("mid", 200, true, "Summer 2026")),
		rawRecord(t, makeListing("newest", 300, true, "Summer 2026")),
		rawRecord(t, makeListing("oldest", 100, true, "Summer 2026")),
	}

	data, _ := Normalize(raw, 0, testLog())

	for i := 1; i < len(data.Summer); i++ {
		if data.Summer[i-1].DatePosted < data.Summer[i].DatePosted {
			t.Fatalf("summer not sorted newest first: %v", data.Summer)
		}
	}
	if data.Summer[0].ID != "newest" {
		t.Errorf("first listing = %s, want newest", data.Summer[0].ID)
	}
}

func TestNormalize_InvalidRecordsAreSkippedNotFatal(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not an object", `"just a string"`},
		{"missing id", `{"company_name":"Acme","title":"Intern","date_posted":100}`},
		{"missing company", `{"id":"x","title":"Intern","date_posted":100}`},
		{"missing title", `{"id":"x","company_name":"Acme","date_posted":100}`},
		{"missing date", `{"id":"x","company_name":"Acme","title":"Intern"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := []json.RawMessage{
				json.RawMessage(tt.raw),
				rawRecord(t, makeListing("ok", 100, true, "Summer 2026")),
			}

			data, stats := Normalize(raw, 0, testLog())

			if stats.Invalid != 1 {
				t.Errorf("invalid = %d, want 1", stats.Invalid)
			}
			if len(data.Summer) != 1 || data.Summer[0].ID != "ok" {
				t.Errorf("valid record lost: summer = %v", data.Summer)
			}
		})
	}
}

func TestNormalize_UncategorizedRecordsAreDropped(t *testing.T) {
	raw := []json.RawMessage{
		rawRecord(t, makeListing("neither", 100, true, "Co-op 2026")),
	}
	data, _ := Normalize(raw, 0, testLog())
	if data.Total() != 0 {
		t.Errorf("got %d listings, want 0 for a term matching no category", data.Total())
	}
}

func TestNormalize_EndToEndScenario(t *testing.T) {
	const t0 = int64(1_700_000_000)

	inactive := makeListing("X1", t0, false, "Summer 2026")
	raw := []json.RawMessage{
		rawRecord(t, makeListing("S2", t0-100, true, "Summer 2026")),
		rawRecord(t, makeListing("O1", t0-10000, true, "Summer 2026")),
		rawRecord(t, makeListing("F1", t0-200, true, "Fall 2025")),
		rawRecord(t, inactive),
		rawRecord(t, makeListing("S1", t0, true, "Summer 2026")),
	}

	data, _ := Normalize(raw, t0-5000, testLog())

	wantSummer := []string{"S1", "S2"}
	if len(data.Summer) != len(wantSummer) {
		t.Fatalf("summer = %v, want %v", ids(data.Summer), wantSummer)
	}
	for i, want := range wantSummer {
		if data.Summer[i].ID != want {
			t.Errorf("summer[%d] = %s, want %s", i, data.Summer[i].ID, want)
		}
	}

	if len(data.Offseason) != 1 || data.Offseason[0].ID != "F1" {
		t.Errorf("offseason = %v, want [F1]", ids(data.Offseason))
	}
}

func ids(items []listing.Listing) []string {
	out := make([]string, len(items))
	for i, l := range items {
		out[i] = l.ID
	}
	return out
}

func ExampleNormalize() {
	raw := []json.RawMessage{
		json.RawMessage(`{"id":"s1","company_name":"Acme","title":"SWE Intern","terms":["Summer 2026"],"active":true,"is_visible":true,"date_posted":100}`),
	}
	data, _ := Normalize(raw, 0, logger.New("error"))
	fmt.Println(len(data.Summer), len(data.Offseason))
	// Output: 1 0
}
