// Package memory provides in-memory cache repository implementation
package memory

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/giuseppemarasca93/dietcoach/internal/ports/outbound"
)

// DefaultMaxEntries bounds the cache when no size is configured
const DefaultMaxEntries = 1000

// cacheItem represents a cached item
type cacheItem struct {
	key       string
	value     []byte
	expiresAt time.Time
}

// CacheRepository is a TTL cache with LRU eviction once MaxEntries is reached
type CacheRepository struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	lru        *list.List
	maxEntries int
	defaultTTL time.Duration
	now        func() time.Time
	stop       chan struct{}
	stopOnce   sync.Once
}

// NewCacheRepository creates a cache holding at most maxEntries values.
// A cleanup goroutine sweeps expired entries every sweepInterval until Close;
// a zero interval disables it.
func NewCacheRepository(maxEntries int, defaultTTL, sweepInterval time.Duration) *CacheRepository {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	repo := &CacheRepository{
		items:      make(map[string]*list.Element),
		lru:        list.New(),
		maxEntries: maxEntries,
		defaultTTL: defaultTTL,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	if sweepInterval > 0 {
		go repo.cleanup(sweepInterval)
	}
	return repo
}

var _ outbound.CacheRepository = (*CacheRepository)(nil)

// Get retrieves a value from cache
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.items[key]
	if !ok {
		return nil, outbound.ErrCacheMiss
	}
	item := el.Value.(*cacheItem)
	if r.now().After(item.expiresAt) {
		r.remove(el)
		return nil, outbound.ErrCacheMiss
	}
	r.lru.MoveToFront(el)
	return item.value, nil
}

// Set stores a value in cache with TTL, evicting the least recently used entry when full
func (r *CacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = r.defaultTTL
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	expiresAt := r.now().Add(ttl)
	if el, ok := r.items[key]; ok {
		item := el.Value.(*cacheItem)
		item.value = value
		item.expiresAt = expiresAt
		r.lru.MoveToFront(el)
		return nil
	}

	r.items[key] = r.lru.PushFront(&cacheItem{key: key, value: value, expiresAt: expiresAt})
	for r.lru.Len() > r.maxEntries {
		r.remove(r.lru.Back())
	}
	return nil
}

// Delete removes a key from cache
func (r *CacheRepository) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if el, ok := r.items[key]; ok {
		r.remove(el)
	}
	return nil
}

// Exists checks if a key exists in cache
func (r *CacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	el, ok := r.items[key]
	if !ok {
		return false, nil
	}
	if r.now().After(el.Value.(*cacheItem).expiresAt) {
		r.remove(el)
		return false, nil
	}
	return true, nil
}

// Len returns the number of stored entries, expired ones included until swept
func (r *CacheRepository) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lru.Len()
}

// Close stops the cleanup goroutine
func (r *CacheRepository) Close() error {
	r.stopOnce.Do(func() { close(r.stop) })
	return nil
}

func (r *CacheRepository) remove(el *list.Element) {
	r.lru.Remove(el)
	delete(r.items, el.Value.(*cacheItem).key)
}

// sweep removes expired items
func (r *CacheRepository) sweep() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	for el := r.lru.Back(); el != nil; {
		prev := el.Prev()
		if now.After(el.Value.(*cacheItem).expiresAt) {
			r.remove(el)
		}
		el = prev
	}
}

func (r *CacheRepository) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.stop:
			return
		}
	}
}
