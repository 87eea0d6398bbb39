package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"internwatch/internal/listing"
)

const maxTitleWidth = 60

// RenderMessage produces the notification text for one listing.
func RenderMessage(l listing.Listing) string {
	var sb strings.Builder

	title := runewidth.Truncate(l.Title, maxTitleWidth, "…")
	fmt.Fprintf(&sb, "**%s** - %s\n", l.CompanyName, title)
	fmt.Fprintf(&sb, "Location: %s\n", l.LocationText())
	if len(l.Terms) > 0 {
		fmt.Fprintf(&sb, "Terms: %s\n", strings.Join(l.Terms, ", "))
	}
	if l.Sponsorship != "" {
		fmt.Fprintf(&sb, "Sponsorship: %s\n", l.Sponsorship)
	}
	fmt.Fprintf(&sb, "Posted: %s\n", time.Unix(l.DatePosted, 0).UTC().Format("January 2, 2006"))
	fmt.Fprintf(&sb, "Apply: %s", l.URL)

	return sb.String()
}

// RenderTable lays the listings out as an aligned plain-text table, one row
// per listing. Column widths are computed by display width so wide runes in
// company names do not break alignment.
func RenderTable(items []listing.Listing) string {
	if len(items) == 0 {
		return "(no listings)"
	}

	headers := []string{"COMPANY", "TITLE", "LOCATION", "POSTED"}
	rows := make([][]string, 0, len(items))
	for _, l := range items {
		rows = append(rows, []string{
			l.CompanyName,
			runewidth.Truncate(l.Title, maxTitleWidth, "…"),
			runewidth.Truncate(l.LocationText(), 40, "…"),
			time.Unix(l.DatePosted, 0).UTC().Format("2006-01-02"),
		})
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if w := runewidth.StringWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			sb.WriteString(cell)
			if pad := widths[i] - runewidth.StringWidth(cell); pad > 0 && i < len(cells)-1 {
				sb.WriteString(strings.Repeat(" ", pad))
			}
			if i < len(cells)-1 {
				sb.WriteString("  ")
			}
		}
		sb.WriteString("\n")
	}

	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
	return sb.String()
}
