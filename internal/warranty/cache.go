package warranty

import "sync"

// Cache is the per-view mapping from asset identifier to last-known warranty
// status. A view replaces it wholesale whenever it reloads its asset list and
// may patch a single entry optimistically right after a registration; the
// next Replace corrects any drift. There is no eviction.
//
// Replace and Patch share one lock so concurrent registrations cannot lose
// each other's updates.
type Cache struct {
	mu       sync.RWMutex
	statuses map[string]Status
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{statuses: make(map[string]Status)}
}

// Replace swaps the whole mapping for a freshly fetched one. The caller must
// not mutate the map afterwards.
func (c *Cache) Replace(statuses map[string]Status) {
	if statuses == nil {
		statuses = make(map[string]Status)
	}
	c.mu.Lock()
	c.statuses = statuses
	c.mu.Unlock()
}

// Patch sets a single entry. Best-effort and optimistic: it exists so a badge
// can flip immediately after a successful registration, before the
// authoritative refresh lands.
func (c *Cache) Patch(assetID FlexID, status Status) {
	c.mu.Lock()
	c.statuses[assetID.Key()] = status
	c.mu.Unlock()
}

// Get returns the entry for an asset, if one is known.
func (c *Cache) Get(assetID FlexID) (Status, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.statuses[assetID.Key()]
	return s, ok
}

// Snapshot returns a copy of the mapping.
func (c *Cache) Snapshot() map[string]Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Status, len(c.statuses))
	for k, v := range c.statuses {
		out[k] = v
	}
	return out
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.statuses)
}
