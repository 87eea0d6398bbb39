package httpapi

import (
	"net/http"

	"internwatch/internal/listing"
	"internwatch/internal/logger"
	"internwatch/internal/notify"
	"internwatch/internal/pipeline"
)

type ScrapeHandler struct {
	Runner *pipeline.Runner
	Log    *logger.Logger
}

// Run triggers one pipeline run inline and reports its stats. Unlike a
// scheduled firing, failures surface to the caller instead of being
// swallowed. The runner serializes against any in-flight scheduled run.
func (h ScrapeHandler) Run(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Runner.Run(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusBadGateway, "run_failed", err.Error())
		return
	}
	writeJSON(w, stats)
}

// Preview fetches and normalizes without dispatching or persisting,
// returning the N most recent listings per category. ?format=text renders
// an aligned table instead of JSON.
func (h ScrapeHandler) Preview(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 5)

	data, err := h.Runner.Preview(r.Context(), limit)
	if err != nil {
		WriteError(w, r, http.StatusBadGateway, "preview_failed", err.Error())
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("SUMMER\n" + notify.RenderTable(data.Summer) +
			"\nOFFSEASON\n" + notify.RenderTable(data.Offseason)))
		return
	}

	writeJSON(w, map[string][]listing.Listing{
		"summer":    data.Summer,
		"offseason": data.Offseason,
	})
}

func (h ScrapeHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Runner.Status())
}
