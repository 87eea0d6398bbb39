// Package feed retrieves and normalizes the upstream internship listings
// document.
package feed

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"internwatch/internal/logger"
	"internwatch/internal/retry"
)

const fetchTimeout = 30 * time.Second

// Client fetches the raw listings array from the configured URL.
type Client struct {
	url    string
	token  string // optional bearer token
	hc     *http.Client
	log    *logger.Logger
	policy retry.Policy
}

// NewClient builds a Client. token may be empty; the request is then sent
// unauthenticated.
func NewClient(url, token string, policy retry.Policy, log *logger.Logger) *Client {
	return &Client{
		url:    url,
		token:  token,
		hc:     &http.Client{Timeout: fetchTimeout},
		log:    log.With("component", "feed"),
		policy: policy,
	}
}

// Fetch retrieves the feed, retrying transient failures per the client's
// policy. Returns the top-level JSON array with each record left raw for
// per-record decoding downstream.
func (c *Client) Fetch(ctx context.Context) ([]json.RawMessage, error) {
	return retry.Do(ctx, c.log, c.policy, Retryable, c.fetchOnce)
}

func (c *Client) fetchOnce(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetworkFailed, cause: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "internwatch/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.hc.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetworkFailed, cause: err}
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, statusError(res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, &Error{Kind: KindNetworkFailed, cause: err}
	}

	// Hosts serving raw files often label JSON as text/plain, so the
	// Content-Type header is advisory only: always parse the body.
	var records []json.RawMessage
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &Error{Kind: KindParseFailed, cause: err}
	}

	c.log.Debug("feed fetched", "records", len(records), "bytes", len(body))
	return records, nil
}
