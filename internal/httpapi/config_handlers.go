package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"internwatch/internal/listing"
	"internwatch/internal/scheduler"
	"internwatch/internal/tenant"
)

type ConfigHandler struct {
	Tenants   *tenant.Store
	Scheduler *scheduler.Scheduler
}

type intervalBody struct {
	Hours float64 `json:"hours"`
}

func (h ConfigHandler) GetInterval(w http.ResponseWriter, r *http.Request) {
	hours, err := h.Tenants.ScrapeIntervalHours()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "config_read", err.Error())
		return
	}
	writeJSON(w, intervalBody{Hours: hours})
}

// PutInterval persists the new interval and rebinds the timer to it.
func (h ConfigHandler) PutInterval(w http.ResponseWriter, r *http.Request) {
	var body intervalBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	if err := h.Tenants.SetScrapeIntervalHours(body.Hours); err != nil {
		writeConfigErr(w, r, err)
		return
	}
	if err := h.Scheduler.Restart(body.Hours); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "restart_failed", err.Error())
		return
	}
	writeJSON(w, intervalBody{Hours: body.Hours})
}

type startTimestampBody struct {
	Timestamp int64 `json:"timestamp"`
}

func (h ConfigHandler) GetStartTimestamp(w http.ResponseWriter, r *http.Request) {
	ts, err := h.Tenants.ScrapeStartTimestamp()
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "config_read", err.Error())
		return
	}
	writeJSON(w, startTimestampBody{Timestamp: ts})
}

func (h ConfigHandler) PutStartTimestamp(w http.ResponseWriter, r *http.Request) {
	var body startTimestampBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	if err := h.Tenants.SetScrapeStartTimestamp(body.Timestamp); err != nil {
		writeConfigErr(w, r, err)
		return
	}
	writeJSON(w, startTimestampBody{Timestamp: body.Timestamp})
}

type channelBody struct {
	Category    string `json:"category"`
	Destination string `json:"destination"`
}

// GetChannels returns one tenant's bindings; path is /config/channels/{tenantID}.
func (h ConfigHandler) GetChannels(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantIDFromPath(r)
	if tenantID == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "missing tenant id")
		return
	}
	cfg, err := h.Tenants.Tenant(tenantID)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "config_read", err.Error())
		return
	}
	writeJSON(w, cfg)
}

func (h ConfigHandler) PutChannel(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantIDFromPath(r)
	if tenantID == "" {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "missing tenant id")
		return
	}
	var body channelBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", err.Error())
		return
	}
	if err := h.Tenants.SetChannel(tenantID, listing.Category(body.Category), body.Destination); err != nil {
		writeConfigErr(w, r, err)
		return
	}
	cfg, err := h.Tenants.Tenant(tenantID)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "config_read", err.Error())
		return
	}
	writeJSON(w, cfg)
}

func tenantIDFromPath(r *http.Request) string {
	return strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/config/channels/"))
}

func writeConfigErr(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, tenant.ErrInvalidConfig) {
		WriteError(w, r, http.StatusBadRequest, "invalid_config", err.Error())
		return
	}
	WriteError(w, r, http.StatusInternalServerError, "config_write", err.Error())
}
