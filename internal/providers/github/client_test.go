package github

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/codetrack/internal/providercache"
)

const calendarPayload = `{
  "data": {
    "user": {
      "contributionsCollection": {
        "contributionCalendar": {
          "totalContributions": 5,
          "weeks": [
            {"contributionDays": [
              {"date": "2026-03-12", "contributionCount": 2},
              {"date": "2026-03-13", "contributionCount": 0},
              {"date": "2026-03-14", "contributionCount": 3}
            ]}
          ]
        }
      }
    }
  }
}`

func newTestClient(t *testing.T, rest, graphql http.HandlerFunc) (*Client, func()) {
	t.Helper()
	restServer := httptest.NewServer(rest)
	graphqlServer := httptest.NewServer(graphql)
	client := NewClient(providercache.New(time.Hour), Config{
		APIBaseURL: restServer.URL,
		GraphQLURL: graphqlServer.URL,
		Token:      "test-token",
	})
	return client, func() {
		restServer.Close()
		graphqlServer.Close()
	}
}

func TestContributionCalendarParsesDays(t *testing.T) {
	client, cleanup := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) { t.Error("REST should not be called") },
		func(w http.ResponseWriter, r *http.Request) {
			if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
				t.Errorf("unexpected auth header %q", got)
			}
			fmt.Fprint(w, calendarPayload)
		})
	defer cleanup()

	days, err := client.ContributionCalendar(context.Background(), "gopher")
	require.NoError(t, err)
	require.Len(t, days, 3)
	require.Equal(t, time.Date(2026, time.March, 12, 0, 0, 0, 0, time.UTC), days[0].Date)
	require.Equal(t, 2, days[0].Count)
	require.Equal(t, 0, days[1].Count)
}

func TestCompositeProfileSubstitutesPinnedFallback(t *testing.T) {
	client, cleanup := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"name":"repo"}]`)
		},
		func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Query string `json:"query"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.Query == pinnedQuery {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, calendarPayload)
		})
	defer cleanup()

	result, err := client.CompositeProfile(context.Background(), "gopher")
	require.NoError(t, err)
	require.Equal(t, []string{"pinned"}, result.Degraded)
	require.Contains(t, result.Facets, "pinned")
	require.Contains(t, result.Facets, "profile")
	require.Contains(t, result.Facets, "contributions")
}

func TestCompositeProfileFailsWhenRESTFacetFails(t *testing.T) {
	client, cleanup := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		},
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, calendarPayload)
		})
	defer cleanup()

	_, err := client.CompositeProfile(context.Background(), "nobody")
	var provErr *providercache.ProviderError
	require.ErrorAs(t, err, &provErr)
	require.Equal(t, http.StatusNotFound, provErr.StatusCode)
}

func TestGraphQLErrorsSurfaceAsProviderErrors(t *testing.T) {
	client, cleanup := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) { fmt.Fprint(w, `{}`) },
		func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"errors":[{"message":"Could not resolve to a User"}]}`)
		})
	defer cleanup()

	_, err := client.ContributionCalendar(context.Background(), "ghost")
	var provErr *providercache.ProviderError
	require.ErrorAs(t, err, &provErr)
	require.Contains(t, provErr.Error(), "Could not resolve")
}

func TestProfileCachesAcrossCalls(t *testing.T) {
	calls := 0
	client, cleanup := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			calls++
			fmt.Fprint(w, `{"login":"gopher"}`)
		},
		func(w http.ResponseWriter, r *http.Request) { t.Error("GraphQL should not be called") })
	defer cleanup()

	for i := 0; i < 3; i++ {
		_, err := client.Profile(context.Background(), "gopher")
		require.NoError(t, err)
	}
	require.Equal(t, 1, calls)
}
