package managed

import (
	"container/list"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/fivetwenty-io/hac/internal/constants"
	"github.com/fivetwenty-io/hac/pkg/hac"
)

// Cache stores responses of GET methods. Implementations are safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) (*CacheEntry, error)
	Set(ctx context.Context, key string, entry *CacheEntry) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Has(ctx context.Context, key string) bool
}

// CacheEntry is one cached response.
type CacheEntry struct {
	StatusCode int         `json:"status_code"`
	Header     http.Header `json:"header,omitempty"`
	Data       []byte      `json:"data"`
	ExpiresAt  time.Time   `json:"expires_at"`
	Tag        string      `json:"tag,omitempty"`
}

// Expired reports whether the entry is past its expiry.
func (e *CacheEntry) Expired() bool {
	return !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt)
}

// Response converts the entry back into a response.
func (e *CacheEntry) Response() *hac.Response {
	return &hac.Response{
		StatusCode: e.StatusCode,
		Header:     e.Header.Clone(),
		Body:       append([]byte(nil), e.Data...),
		FromCache:  true,
	}
}

// MemoryCache is a bounded in-process cache that evicts the least recently
// used entry when full.
type MemoryCache struct {
	mutex   sync.Mutex
	maxSize int
	order   *list.List
	items   map[string]*list.Element
}

type memoryItem struct {
	key   string
	entry *CacheEntry
}

// NewMemoryCache creates a cache holding at most maxSize entries.
func NewMemoryCache(maxSize int) *MemoryCache {
	if maxSize <= 0 {
		maxSize = constants.DefaultCacheSize
	}

	return &MemoryCache{
		maxSize: maxSize,
		order:   list.New(),
		items:   make(map[string]*list.Element),
	}
}

// Get returns the entry for key.
func (c *MemoryCache) Get(ctx context.Context, key string) (*CacheEntry, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	element, ok := c.items[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	item, _ := element.Value.(*memoryItem)
	if item.entry.Expired() {
		c.removeElement(element)

		return nil, fmt.Errorf("%w: %s", ErrEntryExpired, key)
	}

	c.order.MoveToFront(element)

	return item.entry, nil
}

// Set stores entry under key.
func (c *MemoryCache) Set(ctx context.Context, key string, entry *CacheEntry) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if element, ok := c.items[key]; ok {
		element.Value = &memoryItem{key: key, entry: entry}
		c.order.MoveToFront(element)

		return nil
	}

	c.items[key] = c.order.PushFront(&memoryItem{key: key, entry: entry})

	for c.order.Len() > c.maxSize {
		c.removeElement(c.order.Back())
	}

	return nil
}

// Delete removes key.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if element, ok := c.items[key]; ok {
		c.removeElement(element)
	}

	return nil
}

// Clear removes every entry.
func (c *MemoryCache) Clear(ctx context.Context) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element)

	return nil
}

// Has reports whether an unexpired entry exists for key.
func (c *MemoryCache) Has(ctx context.Context, key string) bool {
	_, err := c.Get(ctx, key)

	return err == nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return c.order.Len()
}

func (c *MemoryCache) removeElement(element *list.Element) {
	item, _ := element.Value.(*memoryItem)
	delete(c.items, item.key)
	c.order.Remove(element)
}
