package httpapi

import (
	"net/http"

	"internwatch/internal/store"
)

type ListingsHandler struct {
	Archive *store.DB
}

// List returns the most recently delivered listings from the archive.
func (h ListingsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.Archive == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "no_archive", "archive not configured")
		return
	}

	rows, err := h.Archive.ListDelivered(r.Context(), queryInt(r, "limit", 50))
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "archive_read", err.Error())
		return
	}
	if rows == nil {
		rows = []store.DeliveredListing{}
	}
	writeJSON(w, rows)
}
