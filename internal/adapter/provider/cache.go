package provider

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/climate-risk-monitor/internal/domain"
	"github.com/couchcryptid/climate-risk-monitor/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ErrReadOnly is returned by CreateAlert when the wrapped provider cannot create alerts.
var ErrReadOnly = errors.New("provider does not support creating alerts")

// CachedProvider wraps a Provider with an in-memory LRU cache whose entries
// expire after a TTL. Errors are never cached.
type CachedProvider struct {
	inner   domain.Provider
	cache   *lruCache
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedProvider creates a cache decorator around a provider.
func NewCachedProvider(inner domain.Provider, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedProvider {
	return &CachedProvider{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
	}
}

func (c *CachedProvider) Weather(ctx context.Context, location string) (domain.Weather, error) {
	key := cacheKey(domain.ResourceWeather, location)
	if v, ok := c.lookup(domain.ResourceWeather, key); ok {
		return v.(domain.Weather), nil
	}
	w, err := c.inner.Weather(ctx, location)
	if err != nil {
		return w, err
	}
	c.store(key, w)
	return w, nil
}

func (c *CachedProvider) RiskAssessment(ctx context.Context, location string) (domain.RiskAssessment, error) {
	key := cacheKey(domain.ResourceRisk, location)
	if v, ok := c.lookup(domain.ResourceRisk, key); ok {
		a := v.(domain.RiskAssessment)
		a.Factors = slices.Clone(a.Factors)
		return a, nil
	}
	a, err := c.inner.RiskAssessment(ctx, location)
	if err != nil {
		return a, err
	}
	stored := a
	stored.Factors = slices.Clone(a.Factors)
	c.store(key, stored)
	return a, nil
}

func (c *CachedProvider) Alerts(ctx context.Context, location string) ([]domain.Alert, error) {
	key := cacheKey(domain.ResourceAlerts, location)
	if v, ok := c.lookup(domain.ResourceAlerts, key); ok {
		return slices.Clone(v.([]domain.Alert)), nil
	}
	alerts, err := c.inner.Alerts(ctx, location)
	if err != nil {
		return alerts, err
	}
	c.store(key, slices.Clone(alerts))
	return alerts, nil
}

// CreateAlert forwards to the wrapped provider when it can create alerts and
// drops the cached alerts for the alert's location so the next read sees it.
func (c *CachedProvider) CreateAlert(ctx context.Context, alert domain.Alert, token string) error {
	creator, ok := c.inner.(domain.AlertCreator)
	if !ok {
		return ErrReadOnly
	}
	if err := creator.CreateAlert(ctx, alert, token); err != nil {
		return err
	}
	c.Invalidate(domain.ResourceAlerts, alert.Location)
	return nil
}

// Invalidate drops a cached resource for a location.
func (c *CachedProvider) Invalidate(resource, location string) {
	c.cache.delete(cacheKey(resource, location))
	c.metrics.ProviderCacheSize.Set(float64(c.cache.size()))
}

// Purge drops every cached response. Reads are scoped to the caller's token,
// so callers purge when the session changes.
func (c *CachedProvider) Purge() {
	c.cache.clear()
	c.metrics.ProviderCacheSize.Set(0)
}

func (c *CachedProvider) lookup(resource, key string) (any, bool) {
	v, expires, ok := c.cache.get(key)
	if ok && c.clock.Now().Before(expires) {
		c.metrics.ProviderCache.WithLabelValues(resource, "hit").Inc()
		return v, true
	}
	if ok {
		c.cache.delete(key)
		c.metrics.ProviderCacheSize.Set(float64(c.cache.size()))
	}
	c.metrics.ProviderCache.WithLabelValues(resource, "miss").Inc()
	return nil, false
}

func (c *CachedProvider) store(key string, v any) {
	c.cache.put(key, v, c.clock.Now().Add(c.ttl))
	c.metrics.ProviderCacheSize.Set(float64(c.cache.size()))
}

func cacheKey(resource, location string) string {
	return resource + ":" + location
}

// lruCache is a simple thread-safe LRU cache of provider responses.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key     string
	value   any
	expires time.Time
	prev    *entry
	next    *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (any, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, time.Time{}, false
	}
	c.moveToFront(e)
	return e.value, e.expires, true
}

func (c *lruCache) put(key string, value any, expires time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expires = expires
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expires: expires}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.remove(e)
	}
}

func (c *lruCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	c.head, c.tail = nil, nil
}

func (c *lruCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
