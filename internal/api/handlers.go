// Package api exposes HTTP handlers for the codetrack service.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"example.com/codetrack/internal/domain"
	"example.com/codetrack/internal/providercache"
	"example.com/codetrack/internal/providers/github"
)

// GitHubProvider is the slice of the GitHub client used by handlers.
type GitHubProvider interface {
	CompositeProfile(ctx context.Context, username string) (*providercache.CompositeResult, error)
	ContributionCalendar(ctx context.Context, username string) ([]github.ContributionDay, error)
}

// StackOverflowProvider is the slice of the StackOverflow client used by handlers.
type StackOverflowProvider interface {
	CompositeProfile(ctx context.Context, userID string) (*providercache.CompositeResult, error)
}

// Handler coordinates HTTP requests with the domain service and providers.
type Handler struct {
	service       *domain.Service
	github        GitHubProvider
	stackoverflow StackOverflowProvider
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service, gh GitHubProvider, so StackOverflowProvider) *Handler {
	return &Handler{service: service, github: gh, stackoverflow: so}
}

// RegisterRoutes wires endpoints to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/v1/todos", h.todos)
	mux.HandleFunc("/v1/todos/", h.todoByID)
	mux.HandleFunc("/v1/activities", h.activities)
	mux.HandleFunc("/v1/activities/streak", h.activityStreak)
	mux.HandleFunc("/v1/activities/distributions", h.activityDistributions)
	mux.HandleFunc("/v1/activities/sync", h.activitySync)
	mux.HandleFunc("/v1/activities/", h.activityByID)
	mux.HandleFunc("/v1/challenges/daily", h.dailyChallenge)
	mux.HandleFunc("/v1/profiles/github/", h.githubProfile)
	mux.HandleFunc("/v1/profiles/stackoverflow/", h.stackoverflowProfile)
	mux.HandleFunc("/healthz", healthz)
}

// healthz reports a simple OK status for container health checks.
func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	payload := map[string]string{
		"type":   code,
		"detail": detail,
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeDomainError maps known domain failures to HTTP responses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrDuplicateDate):
		writeError(w, http.StatusConflict, "duplicate_date", "an activity record already exists for that date")
	case errors.Is(err, domain.ErrExternalImmutable):
		writeError(w, http.StatusConflict, "external_immutable", "externally synced records can only be changed by sync")
	case errors.Is(err, domain.ErrActivityNotFound):
		writeError(w, http.StatusNotFound, "not_found", "activity record not found")
	case errors.Is(err, domain.ErrTodoNotFound):
		writeError(w, http.StatusNotFound, "not_found", "todo not found")
	default:
		writeError(w, http.StatusInternalServerError, "server_error", err.Error())
	}
}

// writeProviderError maps upstream provider failures to HTTP responses.
func writeProviderError(w http.ResponseWriter, err error) {
	var provErr *providercache.ProviderError
	if errors.As(err, &provErr) {
		writeError(w, http.StatusBadGateway, "provider_unavailable", provErr.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, "server_error", err.Error())
}
