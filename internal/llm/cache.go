package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// cacheEntry is a cached response.
type cacheEntry struct {
	expiry   time.Time
	response Response
}

// responseCache is a TTL map of responses keyed by request hash.
type responseCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
	once    sync.Once
}

// newResponseCache creates a cache with the specified TTL.
func newResponseCache(ttl time.Duration) *responseCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &responseCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}
	go cache.cleanup()
	return cache
}

// get returns an unexpired response.
func (c *responseCache) get(key string) (Response, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return Response{}, false
	}
	return entry.response, true
}

// set stores a response.
func (c *responseCache) set(key string, response Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		response: response,
		expiry:   time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *responseCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// clear removes all entries from the cache.
func (c *responseCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// size returns the number of entries in the cache.
func (c *responseCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *responseCache) Close() {
	c.once.Do(func() { close(c.stopCh) })
}

// requestKey hashes everything that shapes a response.
func requestKey(req Request) (string, bool) {
	raw, err := json.Marshal(req)
	if err != nil {
		return "", false
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), true
}

// cachedClient answers repeated non-streaming requests from the cache.
// Streams always reach the provider.
type cachedClient struct {
	next  Client
	cache *responseCache
}

// WithCache wraps c with a response cache.
func WithCache(c Client, ttl time.Duration) Client {
	return &cachedClient{next: c, cache: newResponseCache(ttl)}
}

func (c *cachedClient) Generate(ctx context.Context, req Request) (Response, error) {
	key, ok := requestKey(req)
	if ok {
		if resp, hit := c.cache.get(key); hit {
			return resp, nil
		}
	}
	resp, err := c.next.Generate(ctx, req)
	if err != nil {
		return Response{}, err
	}
	if ok {
		c.cache.set(key, resp)
	}
	return resp, nil
}

func (c *cachedClient) Stream(ctx context.Context, req Request, onChunk func(string) error) (Response, error) {
	return c.next.Stream(ctx, req, onChunk)
}

func (c *cachedClient) Close() error {
	c.cache.Close()
	return c.next.Close()
}
