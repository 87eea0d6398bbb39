package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"internwatch/internal/events"
)

type EventsHandler struct {
	Hub *events.Hub
}

func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "streaming unsupported")
		return
	}

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	// Opening ping so the client sees the stream is live.
	ping := events.New(events.TypePing, nil)
	ping.RequestID = RequestIDFrom(r.Context())
	writeEvent(w, ping)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case evt := <-ch:
			writeEvent(w, evt)
			flusher.Flush()
		}
	}
}

// writeEvent frames one event in SSE wire format, named by its type.
func writeEvent(w http.ResponseWriter, e events.Event) {
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Type, b)
}
