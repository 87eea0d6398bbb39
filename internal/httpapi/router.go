package httpapi

import "net/http"

// NewMux wires every handler; main() wraps the mux in middleware.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	// Pipeline
	sh := ScrapeHandler{Runner: d.Runner, Log: d.Log}
	mux.HandleFunc("/scrape/run", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.Run,
	}))
	mux.HandleFunc("/scrape/preview", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sh.Preview,
	}))
	mux.HandleFunc("/scrape/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: sh.Status,
	}))

	// Tenant configuration
	ch := ConfigHandler{Tenants: d.Tenants, Scheduler: d.Scheduler}
	mux.HandleFunc("/config/interval", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.GetInterval,
		http.MethodPut: ch.PutInterval,
	}))
	mux.HandleFunc("/config/start-timestamp", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.GetStartTimestamp,
		http.MethodPut: ch.PutStartTimestamp,
	}))
	mux.HandleFunc("/config/channels/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.GetChannels, // /config/channels/{tenantID}
		http.MethodPut: ch.PutChannel,
	}))

	// Delivered-listings archive
	lh := ListingsHandler{Archive: d.Archive}
	mux.HandleFunc("/listings", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: lh.List,
	}))

	// Secrets
	sec := SecretsHandler{}
	mux.HandleFunc("/api/secrets/feed-token", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sec.SetFeedToken,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	return mux
}
