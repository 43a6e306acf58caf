package cart

import (
	"fmt"
	"strings"

	"github.com/avaldezm/marketbox-backend/pkg/kvstore"
)

// MetaKeyPattern matches every persisted last-modified marker; the sweeper
// scans it to find candidate carts.
const MetaKeyPattern = "mb:cart:meta:*"

// Persisted layout: items, merchant binding and last-modified marker live
// under separate namespaced keys so each is independently readable, but they
// are only ever cleared together.
func itemsKey(sessionID string) string {
	return kvstore.Key("cart", "items", sessionID)
}

func merchantKey(sessionID string) string {
	return kvstore.Key("cart", "merchant", sessionID)
}

func metaKey(sessionID string) string {
	return kvstore.Key("cart", "meta", sessionID)
}

// lockKey labels the in-process write mutex; it never reaches the store.
func lockKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

func allKeys(sessionID string) []string {
	return []string{itemsKey(sessionID), merchantKey(sessionID), metaKey(sessionID)}
}

// SessionKeys returns every key a session's cart occupies.
func SessionKeys(sessionID string) []string {
	return allKeys(sessionID)
}

// SessionFromMetaKey extracts the session id from a scanned meta key.
func SessionFromMetaKey(key string) (string, bool) {
	const prefix = "mb:cart:meta:"
	if !strings.HasPrefix(key, prefix) {
		return "", false
	}
	sessionID := key[len(prefix):]
	if sessionID == "" {
		return "", false
	}
	return sessionID, true
}
