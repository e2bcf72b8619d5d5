package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"example.com/codetrack/internal/auth"
	"example.com/codetrack/internal/providercache"
)

func (h *Handler) githubProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeProfilesRead); !ok {
		return
	}

	username := strings.TrimPrefix(r.URL.Path, "/v1/profiles/github/")
	if username == "" || strings.Contains(username, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing or malformed username")
		return
	}

	result, err := h.github.CompositeProfile(r.Context(), username)
	if err != nil {
		writeProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(result))
}

func (h *Handler) stackoverflowProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeProfilesRead); !ok {
		return
	}

	userID := strings.TrimPrefix(r.URL.Path, "/v1/profiles/stackoverflow/")
	if userID == "" || strings.Contains(userID, "/") {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing or malformed user id")
		return
	}

	result, err := h.stackoverflow.CompositeProfile(r.Context(), userID)
	if err != nil {
		writeProviderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toProfileView(result))
}

func (h *Handler) dailyChallenge(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	if _, ok := requireScope(w, r, auth.ScopeChallengesRead); !ok {
		return
	}

	challenge, err := h.service.DailyChallenge(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ChallengeView{
		ChallengeID: challenge.ID,
		Date:        challenge.Date.Format("2006-01-02"),
		Title:       challenge.Title,
		Prompt:      challenge.Prompt,
		Difficulty:  challenge.Difficulty,
		Language:    challenge.Language,
		CreatedAt:   challenge.CreatedAt,
	})
}

// ProfileView packages composite provider data. Degraded lists facets served
// by a fallback retrieval path.
type ProfileView struct {
	Facets   map[string]json.RawMessage `json:"facets"`
	Degraded []string                   `json:"degraded,omitempty"`
}

// ChallengeView exposes the daily challenge to API clients.
type ChallengeView struct {
	ChallengeID string    `json:"challenge_id"`
	Date        string    `json:"date"`
	Title       string    `json:"title"`
	Prompt      string    `json:"prompt"`
	Difficulty  string    `json:"difficulty,omitempty"`
	Language    string    `json:"language,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func toProfileView(result *providercache.CompositeResult) ProfileView {
	return ProfileView{Facets: result.Facets, Degraded: result.Degraded}
}
