// Package kv defines the ephemeral key/value contract shared by the
// redis-backed store and the in-memory fallback. Values expire on their
// TTL; expiry is the only cleanup mechanism.
package kv

import (
	"context"
	"time"
)

type Store interface {
	// Set writes value under key, replacing any prior value and
	// restarting the TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns the stored value, or ok=false when the key is absent
	// or expired.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}
