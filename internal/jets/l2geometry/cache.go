package l2geometry

import "sync"

// IndexCache holds the tower index of the most recent geometry snapshot.
// It rebuilds the index only when the snapshot identity changes and is
// safe for concurrent use.
type IndexCache struct {
	mu     sync.RWMutex
	index  *TowerIndex
	builds int
}

// NewIndexCache returns an empty cache.
func NewIndexCache() *IndexCache {
	return &IndexCache{}
}

// Index returns the index for snap, building it on first use or when the
// identity differs from the cached one. A nil snapshot returns ErrNoGeometry.
func (c *IndexCache) Index(snap Snapshot) (*TowerIndex, error) {
	if snap == nil {
		return nil, ErrNoGeometry
	}
	id := snap.Identity()

	c.mu.RLock()
	ix := c.index
	c.mu.RUnlock()
	if ix != nil && ix.identity == id {
		return ix, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index != nil && c.index.identity == id {
		return c.index, nil
	}
	built, err := BuildTowerIndex(snap)
	if err != nil {
		return nil, err
	}
	c.index = built
	c.builds++
	return built, nil
}

// Builds reports how many times the index has been rebuilt.
func (c *IndexCache) Builds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builds
}
