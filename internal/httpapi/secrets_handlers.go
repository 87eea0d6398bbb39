package httpapi

import (
	"encoding/json"
	"net/http"

	"internwatch/internal/secrets"
)

type SecretsHandler struct{}

type setFeedTokenReq struct {
	Token string `json:"token"`
}

// SetFeedToken stores the feed bearer token in the OS keychain. It takes
// effect on the next process start; the running fetcher keeps its token.
func (h SecretsHandler) SetFeedToken(w http.ResponseWriter, r *http.Request) {
	var req setFeedTokenReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	if err := secrets.SetFeedToken(req.Token); err != nil {
		WriteError(w, r, http.StatusBadRequest, "keyring_write", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
