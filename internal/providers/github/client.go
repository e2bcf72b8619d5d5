// Package github proxies the GitHub REST and GraphQL APIs through the
// provider cache.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"example.com/codetrack/internal/observability"
	"example.com/codetrack/internal/providercache"
)

const providerName = "github"

// Config carries client tunables.
type Config struct {
	APIBaseURL string
	GraphQLURL string
	Token      string
	Timeout    time.Duration
}

// Client wraps GitHub API access. All payloads flow through the shared
// provider cache keyed by endpoint, parameters, and token identity.
type Client struct {
	httpClient *http.Client
	apiBase    string
	graphqlURL string
	token      string
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
		apiBase:    cfg.APIBaseURL,
		graphqlURL: cfg.GraphQLURL,
		token:      cfg.Token,
		cache:      cache,
	}
}

// Profile returns the public profile for a username.
func (c *Client) Profile(ctx context.Context, username string) (json.RawMessage, error) {
	return c.cache.Get(ctx, c.descriptor("github/users", username), c.restFetch("/users/"+username))
}

// Repositories returns the user's repositories ordered by last update.
func (c *Client) Repositories(ctx context.Context, username string) (json.RawMessage, error) {
	return c.cache.Get(ctx, c.descriptor("github/repos", username), c.restFetch("/users/"+username+"/repos?sort=updated&per_page=100"))
}

// PinnedItems returns the user's pinned repositories via GraphQL. When the
// GraphQL path fails the composite operation substitutes recently updated
// repositories instead; see CompositeProfile.
func (c *Client) PinnedItems(ctx context.Context, username string) (json.RawMessage, error) {
	return c.cache.Get(ctx, c.descriptor("github/pinned", username), c.pinnedFetch(username))
}

// CompositeProfile assembles profile, repositories, pinned items, and the
// contribution calendar in one fan-out. Any facet failure fails the whole
// call except pinned items, which degrade to recently updated repositories.
func (c *Client) CompositeProfile(ctx context.Context, username string) (*providercache.CompositeResult, error) {
	facets := []providercache.Facet{
		{
			Name:       "profile",
			Descriptor: c.descriptor("github/users", username),
			Fetch:      c.restFetch("/users/" + username),
		},
		{
			Name:       "repositories",
			Descriptor: c.descriptor("github/repos", username),
			Fetch:      c.restFetch("/users/" + username + "/repos?sort=updated&per_page=100"),
		},
		{
			Name:       "pinned",
			Descriptor: c.descriptor("github/pinned", username),
			Fetch:      c.pinnedFetch(username),
			Fallback: &providercache.Fallback{
				Descriptor: c.descriptor("github/repos/recent", username),
				Fetch:      c.restFetch("/users/" + username + "/repos?sort=updated&per_page=6"),
			},
		},
		{
			Name:       "contributions",
			Descriptor: c.descriptor("github/contributions", username),
			Fetch:      c.calendarFetch(username),
		},
	}
	return c.cache.Composite(ctx, facets)
}

// ContributionDay is one day of the contribution calendar.
type ContributionDay struct {
	Date  time.Time
	Count int
}

// ContributionCalendar returns the user's contribution days for the past
// year, parsed for the sync pipeline.
func (c *Client) ContributionCalendar(ctx context.Context, username string) ([]ContributionDay, error) {
	payload, err := c.cache.Get(ctx, c.descriptor("github/contributions", username), c.calendarFetch(username))
	if err != nil {
		return nil, err
	}
	return parseCalendar(payload)
}

func (c *Client) descriptor(endpoint, username string) providercache.Descriptor {
	return providercache.Descriptor{
		Endpoint:   endpoint,
		Params:     []providercache.Param{{Key: "username", Value: username}},
		Credential: c.token,
	}
}

func (c *Client) restFetch(path string) providercache.FetchFunc {
	return func(ctx context.Context) (json.RawMessage, error) {
		return c.doREST(ctx, path)
	}
}

func (c *Client) doREST(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiBase+path, nil)
	if err != nil {
		return nil, &providercache.ProviderError{Provider: providerName, Err: err}
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return c.do(req)
}

const pinnedQuery = `query($login: String!) {
  user(login: $login) {
    pinnedItems(first: 6, types: REPOSITORY) {
      nodes {
        ... on Repository {
          name
          description
          url
          stargazerCount
          primaryLanguage { name }
        }
      }
    }
  }
}`

const calendarQuery = `query($login: String!) {
  user(login: $login) {
    contributionsCollection {
      contributionCalendar {
        totalContributions
        weeks {
          contributionDays {
            date
            contributionCount
          }
        }
      }
    }
  }
}`

func (c *Client) pinnedFetch(username string) providercache.FetchFunc {
	return func(ctx context.Context) (json.RawMessage, error) {
		return c.doGraphQL(ctx, pinnedQuery, username)
	}
}

func (c *Client) calendarFetch(username string) providercache.FetchFunc {
	return func(ctx context.Context) (json.RawMessage, error) {
		return c.doGraphQL(ctx, calendarQuery, username)
	}
}

func (c *Client) doGraphQL(ctx context.Context, query, login string) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]interface{}{
		"query":     query,
		"variables": map[string]string{"login": login},
	})
	if err != nil {
		return nil, &providercache.ProviderError{Provider: providerName, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return nil, &providercache.ProviderError{Provider: providerName, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	payload, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data   json.RawMessage `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, &providercache.ProviderError{Provider: providerName, Err: err}
	}
	if len(envelope.Errors) > 0 {
		return nil, &providercache.ProviderError{
			Provider: providerName,
			Err:      fmt.Errorf("graphql: %s", envelope.Errors[0].Message),
		}
	}
	return envelope.Data, nil
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
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

func parseCalendar(payload json.RawMessage) ([]ContributionDay, error) {
	var data struct {
		User struct {
			ContributionsCollection struct {
				ContributionCalendar struct {
					Weeks []struct {
						ContributionDays []struct {
							Date              string `json:"date"`
							ContributionCount int    `json:"contributionCount"`
						} `json:"contributionDays"`
					} `json:"weeks"`
				} `json:"contributionCalendar"`
			} `json:"contributionsCollection"`
		} `json:"user"`
	}
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, &providercache.ProviderError{Provider: providerName, Err: err}
	}

	var days []ContributionDay
	for _, week := range data.User.ContributionsCollection.ContributionCalendar.Weeks {
		for _, day := range week.ContributionDays {
			date, err := time.Parse("2006-01-02", day.Date)
			if err != nil {
				return nil, &providercache.ProviderError{Provider: providerName, Err: err}
			}
			days = append(days, ContributionDay{Date: date, Count: day.ContributionCount})
		}
	}
	return days, nil
}
