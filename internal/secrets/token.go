// Package secrets resolves the feed bearer token from the OS keychain,
// with an environment variable override for headless deployments.
package secrets

import (
	"errors"
	"os"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// KeyringService groups this app's secrets in the OS keychain.
	KeyringService = "internwatch"

	keyringAccount = "feed-token"
	envToken       = "INTERNWATCH_FEED_TOKEN"
)

// FeedToken returns the bearer token for the feed, or "" when none is
// configured (the feed is public; the token only raises rate limits).
// The environment variable wins over the keychain.
func FeedToken() string {
	if tok := strings.TrimSpace(os.Getenv(envToken)); tok != "" {
		return tok
	}
	tok, err := keyring.Get(KeyringService, keyringAccount)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(tok)
}

// SetFeedToken stores the token in the OS keychain.
func SetFeedToken(token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("token is empty")
	}
	return keyring.Set(KeyringService, keyringAccount, token)
}

// DeleteFeedToken removes the token from the OS keychain.
func DeleteFeedToken() error {
	return keyring.Delete(KeyringService, keyringAccount)
}
