// Package cache provides content-addressed memoization for model calls.
// Backends are interchangeable: a shared Redis store for multi-process
// deployments, an in-process map otherwise. Callers never see a backend
// error; a failing store degrades to the in-process fallback.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache abstracts translation memoization.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get retrieves a cached value. The second return is false when the
	// key is absent or past its time-to-live.
	Get(ctx context.Context, key string) (string, bool)

	// Set stores a value with a time-to-live. A ttl of zero stores the
	// value without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// Fingerprint returns the deterministic cache key for a translation of
// text from src to tgt. NUL separators keep distinct triples from
// colliding on concatenation.
func Fingerprint(text, src, tgt string) string {
	h := sha256.New()
	h.Write([]byte(text))
	h.Write([]byte{0})
	h.Write([]byte(src))
	h.Write([]byte{0})
	h.Write([]byte(tgt))
	return hex.EncodeToString(h.Sum(nil))
}

// disabled is the no-op cache used when caching is turned off.
type disabled struct{}

func (disabled) Get(context.Context, string) (string, bool) { return "", false }
func (disabled) Set(context.Context, string, string, time.Duration) {}

// Disabled returns a cache that never stores and never hits.
func Disabled() Cache {
	return disabled{}
}
