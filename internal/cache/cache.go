// Package cache provides the content-addressed result cache. It maps a
// fingerprint of the normalized transcript to a previously computed final
// report, bypassing generation on repeat input. The cache is process-lifetime
// state with no expiry and no eviction; callers may Clear it explicitly.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"sync"

	"github.com/jonathan/interview-insights/internal/types"
)

// Fingerprint returns the cache key for a normalized transcript. A 128-bit
// digest is sufficient here: this is a cache key, not a security boundary.
func Fingerprint(normalized string) string {
	sum := md5.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Stats describes the cache contents.
type Stats struct {
	Enabled bool     `json:"enabled"`
	Size    int      `json:"size"`
	Keys    []string `json:"keys,omitempty"`
}

// Cache is a concurrency-safe in-memory report cache. A disabled cache
// always misses on Lookup and ignores Store.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*types.FinalReport
	enabled bool
}

// New creates a Cache. When enabled is false, Lookup always misses and
// Store is a no-op.
func New(enabled bool) *Cache {
	c := &Cache{enabled: enabled}
	if enabled {
		c.entries = make(map[string]*types.FinalReport)
	}
	return c
}

// Enabled reports whether the cache was constructed enabled.
func (c *Cache) Enabled() bool {
	return c.enabled
}

// Lookup returns the cached report for a fingerprint, if present.
func (c *Cache) Lookup(fingerprint string) (*types.FinalReport, bool) {
	if !c.enabled {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	report, ok := c.entries[fingerprint]
	return report, ok
}

// Store records a report under a fingerprint. Concurrent stores to the same
// key are last-write-wins.
func (c *Cache) Store(fingerprint string, report *types.FinalReport) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[fingerprint] = report
}

// Clear removes all entries.
func (c *Cache) Clear() {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*types.FinalReport)
}

// Stats returns the current cache statistics. Keys are sorted for
// deterministic output.
func (c *Cache) Stats() Stats {
	if !c.enabled {
		return Stats{Enabled: false}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return Stats{Enabled: true, Size: len(keys), Keys: keys}
}
