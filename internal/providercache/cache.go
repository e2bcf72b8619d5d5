// Package providercache memoizes third-party API responses for a fixed
// duration so rate-limited providers are not hit on every request.
package providercache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"example.com/codetrack/internal/observability"
)

// Param is one query parameter of a provider call. Order matters for key
// construction, so parameters are carried as a slice rather than a map.
type Param struct {
	Key   string
	Value string
}

// Descriptor identifies a provider call for caching purposes.
type Descriptor struct {
	// Endpoint is the endpoint template, e.g. "github/users". Concrete
	// arguments belong in Params so the template stays low-cardinality for
	// metrics labels.
	Endpoint string
	Params   []Param
	// Credential is the caller credential used for the call, if any. Its
	// identity is folded into the cache key so an authenticated response is
	// never served to a caller with a different (or no) credential. The raw
	// value never appears in the key.
	Credential string
}

// Key returns the deterministic cache key for the descriptor.
func (d Descriptor) Key() string {
	var b strings.Builder
	b.WriteString(d.Endpoint)
	for _, p := range d.Params {
		b.WriteString("|")
		b.WriteString(p.Key)
		b.WriteString("=")
		b.WriteString(p.Value)
	}
	if d.Credential != "" {
		sum := sha256.Sum256([]byte(d.Credential))
		b.WriteString("|cred:")
		b.WriteString(hex.EncodeToString(sum[:]))
	}
	return b.String()
}

// FetchFunc performs the actual provider call.
type FetchFunc func(ctx context.Context) (json.RawMessage, error)

// ProviderError reports a failed provider call, carrying the HTTP status when
// one was received.
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: provider returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

type entry struct {
	payload  json.RawMessage
	storedAt time.Time
}

// Cache is a read-through cache with a single freshness duration shared by
// all entries. Entries are overwritten when stale and otherwise live for the
// process lifetime; there is no eviction.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
}

// Option customises Cache construction.
type Option func(*Cache)

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New constructs a Cache whose entries stay fresh for ttl.
func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached payload for the descriptor when fresh, otherwise
// invokes fetch and stores its result. Fetch failures propagate to the caller
// and are never cached. Two concurrent requests for the same stale key may
// both fetch; both writes are idempotent overwrites and the later one wins.
func (c *Cache) Get(ctx context.Context, desc Descriptor, fetch FetchFunc) (json.RawMessage, error) {
	key := desc.Key()

	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().Sub(cached.storedAt) < c.ttl {
		observability.RecordCacheHit(desc.Endpoint)
		return cached.payload, nil
	}

	observability.RecordCacheMiss(desc.Endpoint)
	payload, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = entry{payload: payload, storedAt: c.now()}
	c.mu.Unlock()

	return payload, nil
}
