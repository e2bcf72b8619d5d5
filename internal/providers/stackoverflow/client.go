// Package stackoverflow proxies the Stack Exchange API through the provider
// cache.
package stackoverflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"example.com/codetrack/internal/observability"
	"example.com/codetrack/internal/providercache"
)

const (
	providerName = "stackoverflow"
	site         = "stackoverflow"
)

// Config carries client tunables. Key is the optional Stack Exchange app key
// that raises the anonymous quota; it is not a user credential.
type Config struct {
	BaseURL string
	Key     string
	Timeout time.Duration
}

// Client wraps Stack Exchange API access for one site.
type Client struct {
	httpClient *http.Client
	baseURL    string
	key        string
	cache      *providercache.Cache
}

// NewClient constructs a Client.
func NewClient(cache *providercache.Cache, cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		key:        cfg.Key,
		cache:      cache,
	}
}

// Profile returns the user object, which includes reputation and badges.
func (c *Client) Profile(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.cache.Get(ctx, c.descriptor("stackoverflow/users", userID), c.fetch("/users/"+userID))
}

// CompositeProfile assembles profile, questions, answers, and top tags in one
// fan-out. Any facet failure fails the whole call.
func (c *Client) CompositeProfile(ctx context.Context, userID string) (*providercache.CompositeResult, error) {
	facets := []providercache.Facet{
		{
			Name:       "profile",
			Descriptor: c.descriptor("stackoverflow/users", userID),
			Fetch:      c.fetch("/users/" + userID),
		},
		{
			Name:       "questions",
			Descriptor: c.descriptor("stackoverflow/questions", userID),
			Fetch:      c.fetch("/users/" + userID + "/questions?sort=votes&order=desc"),
		},
		{
			Name:       "answers",
			Descriptor: c.descriptor("stackoverflow/answers", userID),
			Fetch:      c.fetch("/users/" + userID + "/answers?sort=votes&order=desc"),
		},
		{
			Name:       "tags",
			Descriptor: c.descriptor("stackoverflow/tags", userID),
			Fetch:      c.fetch("/users/" + userID + "/tags?sort=popular&order=desc"),
		},
	}
	return c.cache.Composite(ctx, facets)
}

func (c *Client) descriptor(endpoint, userID string) providercache.Descriptor {
	return providercache.Descriptor{
		Endpoint: endpoint,
		Params:   []providercache.Param{{Key: "user_id", Value: userID}, {Key: "site", Value: site}},
	}
}

func (c *Client) fetch(path string) providercache.FetchFunc {
	return func(ctx context.Context) (json.RawMessage, error) {
		return c.do(ctx, path)
	}
}

func (c *Client) do(ctx context.Context, path string) (json.RawMessage, error) {
	separator := "?"
	for _, r := range path {
		if r == '?' {
			separator = "&"
			break
		}
	}
	url := c.baseURL + path + separator + "site=" + site
	if c.key != "" {
		url += "&key=" + c.key
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &providercache.ProviderError{Provider: providerName, Err: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	observability.ObserveProviderRequest(providerName, time.Since(start))
	if err != nil {
		return nil, &providercache.ProviderError{Provider: providerName, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &providercache.ProviderError{Provider: providerName, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &providercache.ProviderError{Provider: providerName, StatusCode: resp.StatusCode}
	}
	if !json.Valid(body) {
		return nil, &providercache.ProviderError{Provider: providerName, Err: fmt.Errorf("malformed JSON payload")}
	}
	return body, nil
}
