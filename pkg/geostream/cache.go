package geostream

import (
	"container/list"
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"
)

// CollectionCache keeps loaded collections in memory with LRU eviction.
//
// Memory use is estimated from feature and coordinate counts. When adding a
// collection would exceed the limit, least-recently-used collections are
// evicted first.
//
// Example:
//
//	cache := geostream.NewCollectionCache(512 * 1024 * 1024) // 512MB
//
//	coll, err := cache.Get("parcels", func() (*Collection, error) {
//	    return geostream.Load(ctx, "/data/parcels.shp", opts)
//	})
type CollectionCache struct {
	maxMemory   int64 // 0 means unlimited
	usedMemory  int64
	collections map[string]*cacheEntry
	lru         *list.List // most recent at front
	mu          sync.Mutex
}

type cacheEntry struct {
	name         string
	collection   *Collection
	memorySize   int64
	element      *list.Element
	lastAccessed time.Time
	accessCount  int
}

// NewCollectionCache creates a cache with the given memory limit in bytes.
// Set to 0 for an unlimited cache.
func NewCollectionCache(maxMemoryBytes int64) *CollectionCache {
	return &CollectionCache{
		maxMemory:   maxMemoryBytes,
		collections: make(map[string]*cacheEntry),
		lru:         list.New(),
	}
}

// Get returns the cached collection or loads it with loader on a miss.
//
// A collection too large for the cache is returned without being cached.
func (c *CollectionCache) Get(name string, loader func() (*Collection, error)) (*Collection, error) {
	c.mu.Lock()
	if entry, ok := c.collections[name]; ok {
		entry.lastAccessed = time.Now()
		entry.accessCount++
		c.lru.MoveToFront(entry.element)
		c.mu.Unlock()
		return entry.collection, nil
	}
	c.mu.Unlock()

	coll, err := loader()
	if err != nil {
		return nil, fmt.Errorf("load collection: %w", err)
	}

	// too large to cache, still usable
	_ = c.Add(name, coll)
	return coll, nil
}

// Add stores a collection, evicting least-recently-used ones to make room.
// Returns an error if the collection alone exceeds the memory limit.
func (c *CollectionCache) Add(name string, coll *Collection) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	memSize := estimateCollectionMemory(coll)

	if entry, ok := c.collections[name]; ok {
		c.usedMemory += memSize - entry.memorySize
		entry.collection = coll
		entry.memorySize = memSize
		entry.lastAccessed = time.Now()
		entry.accessCount++
		c.lru.MoveToFront(entry.element)
		c.evictOverflow(entry)
		return nil
	}

	if c.maxMemory > 0 && memSize > c.maxMemory {
		return fmt.Errorf("collection too large for cache (%d bytes > %d bytes max)",
			memSize, c.maxMemory)
	}

	entry := &cacheEntry{
		name:         name,
		collection:   coll,
		memorySize:   memSize,
		lastAccessed: time.Now(),
		accessCount:  1,
	}
	entry.element = c.lru.PushFront(entry)
	c.collections[name] = entry
	c.usedMemory += memSize
	c.evictOverflow(entry)
	return nil
}

// evictOverflow drops least-recently-used entries other than keep until the
// cache fits its limit. Must be called with c.mu locked.
func (c *CollectionCache) evictOverflow(keep *cacheEntry) {
	if c.maxMemory <= 0 {
		return
	}
	for c.usedMemory > c.maxMemory {
		elem := c.lru.Back()
		if elem == nil || elem.Value.(*cacheEntry) == keep {
			return
		}
		c.removeElement(elem)
	}
}

func (c *CollectionCache) removeElement(elem *list.Element) {
	entry := elem.Value.(*cacheEntry)
	c.lru.Remove(elem)
	delete(c.collections, entry.name)
	c.usedMemory -= entry.memorySize
}

// Remove explicitly removes a collection from the cache.
func (c *CollectionCache) Remove(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.collections[name]; ok {
		c.removeElement(entry.element)
	}
}

// Clear removes all collections from the cache.
func (c *CollectionCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.collections = make(map[string]*cacheEntry)
	c.lru.Init()
	c.usedMemory = 0
}

// Names returns the cached collection names, most recently used first.
func (c *CollectionCache) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make([]string, 0, c.lru.Len())
	for e := c.lru.Front(); e != nil; e = e.Next() {
		names = append(names, e.Value.(*cacheEntry).name)
	}
	return names
}

// Stats returns cache statistics.
func (c *CollectionCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	totalAccess := 0
	for _, entry := range c.collections {
		totalAccess += entry.accessCount
	}

	return CacheStats{
		CollectionCount: len(c.collections),
		UsedMemory:      c.usedMemory,
		MaxMemory:       c.maxMemory,
		TotalAccess:     totalAccess,
	}
}

// CacheStats holds cache performance metrics.
type CacheStats struct {
	CollectionCount int   // Number of collections currently cached
	UsedMemory      int64 // Estimated memory usage in bytes
	MaxMemory       int64 // Maximum memory limit in bytes
	TotalAccess     int   // Total number of accesses across all cached collections
}

// estimateCollectionMemory estimates memory usage for a collection:
// 1KB base, 512 bytes per feature plus its properties, 16 bytes per
// coordinate pair, plus any kept source geometry text.
func estimateCollectionMemory(coll *Collection) int64 {
	if coll == nil {
		return 0
	}

	size := int64(1024)
	for _, f := range coll.features {
		size += 512
		size += int64(f.Properties.Len()) * 64
		size += int64(pointCount(f.Geometry)) * 16
		size += int64(len(f.RawGeometry))
	}
	return size
}

func pointCount(g orb.Geometry) int {
	switch g := g.(type) {
	case orb.Point:
		return 1
	case orb.MultiPoint:
		return len(g)
	case orb.LineString:
		return len(g)
	case orb.Ring:
		return len(g)
	case orb.MultiLineString:
		n := 0
		for _, ls := range g {
			n += len(ls)
		}
		return n
	case orb.Polygon:
		n := 0
		for _, r := range g {
			n += len(r)
		}
		return n
	case orb.MultiPolygon:
		n := 0
		for _, p := range g {
			n += pointCount(p)
		}
		return n
	case orb.Collection:
		n := 0
		for _, c := range g {
			n += pointCount(c)
		}
		return n
	}
	return 0
}
