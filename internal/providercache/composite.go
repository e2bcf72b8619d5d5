package providercache

import (
	"context"
	"encoding/json"
	"sync"
)

// Fallback is an alternate retrieval path used when a facet's primary fetch
// fails. The substituted payload is less precise than the primary one, which
// is why fallback use is reported rather than silent.
type Fallback struct {
	Descriptor Descriptor
	Fetch      FetchFunc
}

// Facet is one sub-resource of a composite profile.
type Facet struct {
	Name       string
	Descriptor Descriptor
	Fetch      FetchFunc
	Fallback   *Fallback
}

// CompositeResult holds the assembled facets. Degraded lists the facets that
// were served by their fallback path.
type CompositeResult struct {
	Facets   map[string]json.RawMessage
	Degraded []string
}

// Composite fetches every facet concurrently through the cache. If any facet
// fails the whole operation fails with that facet's error; no partial result
// is returned. A facet with a Fallback tries the fallback path before giving
// up, recording its name in Degraded on substitution.
func (c *Cache) Composite(ctx context.Context, facets []Facet) (*CompositeResult, error) {
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	result := &CompositeResult{Facets: make(map[string]json.RawMessage, len(facets))}

	for _, facet := range facets {
		wg.Add(1)
		go func(facet Facet) {
			defer wg.Done()

			payload, degraded, err := c.fetchFacet(ctx, facet)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			result.Facets[facet.Name] = payload
			if degraded {
				result.Degraded = append(result.Degraded, facet.Name)
			}
		}(facet)
	}

	wg.Wait()
	if firstErr != nil {
		return nil, firstErr
	}
	return result, nil
}

func (c *Cache) fetchFacet(ctx context.Context, facet Facet) (json.RawMessage, bool, error) {
	payload, err := c.Get(ctx, facet.Descriptor, facet.Fetch)
	if err == nil {
		return payload, false, nil
	}
	if facet.Fallback == nil {
		return nil, false, err
	}

	payload, fallbackErr := c.Get(ctx, facet.Fallback.Descriptor, facet.Fallback.Fetch)
	if fallbackErr != nil {
		// Report the primary failure; the fallback is best-effort.
		return nil, false, err
	}
	return payload, true, nil
}
