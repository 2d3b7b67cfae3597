// Package cache stores rendered reports keyed by input content, so
// repeated runs over unchanged inputs skip decomposition entirely.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Cache is the storage contract shared by the memory, disk and layered
// implementations. Values are opaque byte blobs; callers do their own
// serialization.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key derives the cache key for an input. The raw content and the
// resolved domain both feed the hash: the same bytes decomposed under
// different domains are different results.
func Key(raw []byte, domain string) string {
	h := sha256.New()
	h.Write(raw)
	h.Write([]byte{0})
	h.Write([]byte(domain))
	return "primordia:v1:" + hex.EncodeToString(h.Sum(nil))
}

// Nop is the disabled cache: it stores nothing and never hits.
type Nop struct{}

func (Nop) Get(string) ([]byte, bool)               { return nil, false }
func (Nop) Set(string, []byte, time.Duration) error { return nil }
func (Nop) Delete(string) error                     { return nil }
func (Nop) Clear() error                            { return nil }
