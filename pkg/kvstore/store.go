// Package kvstore is the persistence adapter for session-scoped commerce
// state. Values are JSON-serialized; a payload that no longer deserializes is
// treated as absent and the offending key is dropped so the cache heals itself.
package kvstore

import (
	"context"
	"strings"
	"time"
)

// keyNamespace prefixes every session-state key so the backend can be shared
// with other tenants.
const keyNamespace = "mb"

// Key joins parts into a namespaced store key, skipping empty parts.
func Key(parts ...string) string {
	clean := []string{keyNamespace}
	for _, part := range parts {
		if part == "" {
			continue
		}
		clean = append(clean, strings.TrimSpace(part))
	}
	return strings.Join(clean, ":")
}

// Store is the key/value surface the session services depend on.
type Store interface {
	// Get unmarshals the value at key into dest. It returns false when the key
	// is absent. A corrupt payload is discarded and reported as absent.
	Get(ctx context.Context, key string, dest any) (bool, error)
	// Set marshals value under key. A zero ttl means no expiry.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// Remove deletes all given keys; missing keys are ignored.
	Remove(ctx context.Context, keys ...string) error
}
