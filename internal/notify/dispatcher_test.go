package notify

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"internwatch/internal/listing"
	"internwatch/internal/logger"
)

// fakeSink records sends and fails for destinations in failDest.
type fakeSink struct {
	mu       sync.Mutex
	sent     map[string][]string // destination -> listing messages
	failDest map[string]bool
}

func newFakeSink(failDest ...string) *fakeSink {
	fd := make(map[string]bool, len(failDest))
	for _, d := range failDest {
		fd[d] = true
	}
	return &fakeSink{sent: make(map[string][]string), failDest: fd}
}

func (f *fakeSink) Send(ctx context.Context, destination, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDest[destination] {
		return errors.New("destination unreachable")
	}
	f.sent[destination] = append(f.sent[destination], message)
	return nil
}

func testDispatcher(sink Sink) *Dispatcher {
	// High pacing rate keeps tests fast; production uses 1/sec.
	return NewDispatcher(sink, 10_000, logger.New("error"))
}

func twoSummer() listing.ScrapedData {
	return listing.ScrapedData{
		Summer: []listing.Listing{
			{ID: "s1", CompanyName: "Acme", Title: "Intern", URL: "https://a", DatePosted: 200, Terms: []string{"Summer 2026"}},
			{ID: "s2", CompanyName: "Globex", Title: "Intern", URL: "https://b", DatePosted: 100, Terms: []string{"Summer 2026"}},
		},
	}
}

func TestDispatch_DeliversToEveryBoundDestination(t *testing.T) {
	sink := newFakeSink()
	d := testDispatcher(sink)

	bindings := map[listing.Category][]string{
		listing.CategorySummer: {"dest-a", "dest-b"},
	}

	stats, err := d.Dispatch(context.Background(), twoSummer(), bindings, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if stats.SummerPosted != 4 {
		t.Errorf("summer posted = %d, want 4 (2 listings x 2 destinations)", stats.SummerPosted)
	}
	if stats.Errors != 0 {
		t.Errorf("errors = %d, want 0", stats.Errors)
	}
	if len(sink.sent["dest-a"]) != 2 || len(sink.sent["dest-b"]) != 2 {
		t.Errorf("per-destination sends = %d/%d, want 2/2", len(sink.sent["dest-a"]), len(sink.sent["dest-b"]))
	}
}

func TestDispatch_PartialDeliveryIsolation(t *testing.T) {
	sink := newFakeSink("dest-x")
	d := testDispatcher(sink)

	bindings := map[listing.Category][]string{
		listing.CategorySummer: {"dest-x", "dest-y"},
	}

	stats, err := d.Dispatch(context.Background(), twoSummer(), bindings, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if got := len(sink.sent["dest-y"]); got != 2 {
		t.Errorf("healthy destination received %d listings, want all 2", got)
	}
	if stats.Errors != 2 {
		t.Errorf("errors = %d, want exactly the 2 failed sends to dest-x", stats.Errors)
	}
	if stats.SummerPosted != 2 {
		t.Errorf("summer posted = %d, want 2", stats.SummerPosted)
	}
}

func TestDispatch_OnDeliveredFiresOncePerListing(t *testing.T) {
	sink := newFakeSink()
	d := testDispatcher(sink)

	bindings := map[listing.Category][]string{
		listing.CategorySummer: {"dest-a", "dest-b"},
	}

	var mu sync.Mutex
	seen := map[string]int{}
	if _, err := d.Dispatch(context.Background(), twoSummer(), bindings, func(cat listing.Category, l listing.Listing) {
		mu.Lock()
		seen[l.ID]++
		mu.Unlock()
	}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if seen["s1"] != 1 || seen["s2"] != 1 {
		t.Errorf("onDelivered counts = %v, want each listing once", seen)
	}
}

func TestDispatch_OnDeliveredSkipsFullyFailedListings(t *testing.T) {
	sink := newFakeSink("dest-x")
	d := testDispatcher(sink)

	bindings := map[listing.Category][]string{
		listing.CategorySummer: {"dest-x"},
	}

	called := false
	if _, err := d.Dispatch(context.Background(), twoSummer(), bindings, func(listing.Category, listing.Listing) {
		called = true
	}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if called {
		t.Error("onDelivered must not fire for listings that reached no destination")
	}
}

func TestDispatch_UnboundCategoryIsSkipped(t *testing.T) {
	sink := newFakeSink()
	d := testDispatcher(sink)

	data := listing.ScrapedData{
		Offseason: []listing.Listing{{ID: "f1", CompanyName: "Acme", Title: "Intern", DatePosted: 100}},
	}

	stats, err := d.Dispatch(context.Background(), data, map[listing.Category][]string{}, nil)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	if stats.OffseasonPosted != 0 || stats.Errors != 0 {
		t.Errorf("stats = %+v, want all zero for unbound categories", stats)
	}
}

func TestRenderMessage_CarriesTheEssentials(t *testing.T) {
	l := listing.Listing{
		ID:          "s1",
		CompanyName: "Acme",
		Title:       "Software Engineering Intern",
		Locations:   []string{"NYC", "Remote"},
		Terms:       []string{"Summer 2026"},
		Sponsorship: "Offers Sponsorship",
		URL:         "https://example.com/apply",
		DatePosted:  1_700_000_000,
	}

	msg := RenderMessage(l)

	for _, want := range []string{"Acme", "Software Engineering Intern", "NYC, Remote", "Summer 2026", "Offers Sponsorship", "https://example.com/apply"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
	if !strings.HasPrefix(msg, "**Acme** - Software Engineering Intern") {
		t.Errorf("headline format wrong:\n%s", msg)
	}
}

func TestRenderTable(t *testing.T) {
	if got := RenderTable(nil); got != "(no listings)" {
		t.Errorf("empty table = %q", got)
	}

	table := RenderTable(twoSummer().Summer)
	lines := strings.Split(strings.TrimRight(table, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want header + 2 rows:\n%s", len(lines), table)
	}
	if !strings.HasPrefix(lines[0], "COMPANY") {
		t.Errorf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "Acme") || !strings.Contains(lines[2], "Globex") {
		t.Errorf("rows out of order:\n%s", table)
	}
}

type cancelingSink struct {
	inner  *fakeSink
	cancel context.CancelFunc
}

func (c *cancelingSink) Send(ctx context.Context, destination, message string) error {
	err := c.inner.Send(ctx, destination, message)
	c.cancel()
	return err
}

func TestDispatch_CancellationAbortsAndReportsError(t *testing.T) {
	inner := newFakeSink()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := testDispatcher(&cancelingSink{inner: inner, cancel: cancel})
	bindings := map[listing.Category][]string{
		listing.CategorySummer: {"dest-a"},
	}

	stats, err := d.Dispatch(ctx, twoSummer(), bindings, nil)

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if stats.SummerPosted != 1 {
		t.Errorf("summer posted = %d, want the 1 send that landed before cancellation", stats.SummerPosted)
	}
	if got := len(inner.sent["dest-a"]); got != 1 {
		t.Errorf("destination received %d messages, want 1", got)
	}
}
