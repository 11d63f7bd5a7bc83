// Song Passport - Country Music Discovery Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/songpassport

package authz

import (
	"strings"
	"sync"
	"time"
)

// defaultCacheTTL applies when the configured TTL is not positive.
const defaultCacheTTL = 5 * time.Minute

// enforcementCache caches decisions keyed by subject, object and action.
type enforcementCache struct {
	ttl      time.Duration
	now      func() time.Time
	mu       sync.RWMutex
	items    map[string]cacheItem
	stopChan chan struct{}
	stopOnce sync.Once
}

type cacheItem struct {
	allowed   bool
	expiresAt time.Time
}

func newEnforcementCache(ttl time.Duration) *enforcementCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	c := &enforcementCache{
		ttl:      ttl,
		now:      time.Now,
		items:    make(map[string]cacheItem),
		stopChan: make(chan struct{}),
	}
	go c.cleanup()
	return c
}

func cacheKey(subject, object, action string) string {
	return subject + "\x00" + object + "\x00" + action
}

func (c *enforcementCache) get(subject, object, action string) (allowed, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[cacheKey(subject, object, action)]
	if !found || c.now().After(item.expiresAt) {
		return false, false
	}
	return item.allowed, true
}

func (c *enforcementCache) set(subject, object, action string, allowed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[cacheKey(subject, object, action)] = cacheItem{
		allowed:   allowed,
		expiresAt: c.now().Add(c.ttl),
	}
	AuthzCacheSize.Set(float64(len(c.items)))
}

// invalidateSubject drops every decision cached for subject.
func (c *enforcementCache) invalidateSubject(subject string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := subject + "\x00"
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	AuthzCacheSize.Set(float64(len(c.items)))
	AuthzCacheInvalidationsTotal.Inc()
}

// evictExpired removes expired entries and returns how many were removed.
func (c *enforcementCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for key, item := range c.items {
		if now.After(item.expiresAt) {
			delete(c.items, key)
			evicted++
		}
	}
	AuthzCacheSize.Set(float64(len(c.items)))
	AuthzCacheEvictionsTotal.Add(float64(evicted))
	return evicted
}

func (c *enforcementCache) cleanup() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

// stop ends the cleanup goroutine. Safe to call more than once.
func (c *enforcementCache) stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}
