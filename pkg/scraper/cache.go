package scraper

import (
	"sync"
	"time"
)

// cacheEntry maps a fetched URL to its decoded body and fetch time. Entries
// are either fully populated or absent, never partial.
type cacheEntry struct {
	body      string
	fetchedAt time.Time
}

// pageCache is a TTL-evicted cache of page bodies shared across concurrent
// resolution requests. A mutex-guarded map is enough at this contention
// level; a background sweep purges expired entries.
type pageCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	done    chan struct{}
}

func newPageCache(ttl time.Duration) *pageCache {
	c := &pageCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		done:    make(chan struct{}),
	}
	go c.sweep()
	return c
}

// get returns the cached body when present and younger than the TTL.
func (c *pageCache) get(url string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[url]
	if !ok || time.Since(entry.fetchedAt) >= c.ttl {
		return "", false
	}
	return entry.body, true
}

func (c *pageCache) put(url, body string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = cacheEntry{body: body, fetchedAt: time.Now()}
}

// evict removes a single entry, used when a caller knows a page is stale.
func (c *pageCache) evict(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, url)
}

func (c *pageCache) sweep() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for url, entry := range c.entries {
				if now.Sub(entry.fetchedAt) >= c.ttl {
					delete(c.entries, url)
				}
			}
			c.mu.Unlock()
		case <-c.done:
			return
		}
	}
}

func (c *pageCache) stop() {
	close(c.done)
}
