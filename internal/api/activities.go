package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"example.com/codetrack/internal/auth"
	"example.com/codetrack/internal/domain"
	"example.com/codetrack/internal/observability"
	"example.com/codetrack/internal/streak"
)

func (h *Handler) activities(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.recordActivity(w, r)
	case http.MethodGet:
		h.listActivities(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) activityByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/activities/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "missing record id")
		return
	}

	switch r.Method {
	case http.MethodPut:
		h.updateActivity(w, r, id)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
	}
}

func (h *Handler) recordActivity(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	var req RecordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "date must be YYYY-MM-DD")
		return
	}

	record, err := h.service.RecordActivity(r.Context(), domain.RecordActivityInput{
		UserID:      claims.Subject,
		Date:        date,
		CommitCount: req.CommitCount,
		Description: req.Description,
		Language:    req.Language,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toActivityView(*record))
}

func (h *Handler) updateActivity(w http.ResponseWriter, r *http.Request, id string) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	var req UpdateActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	record, err := h.service.UpdateActivity(r.Context(), claims.Subject, id, domain.UpdateActivityInput{
		CommitCount: req.CommitCount,
		Description: req.Description,
		Language:    req.Language,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityView(*record))
}

func (h *Handler) listActivities(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	records, err := h.service.ListActivities(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	items := make([]ActivityView, 0, len(records))
	for _, record := range records {
		items = append(items, toActivityView(record))
	}
	writeJSON(w, http.StatusOK, ListActivitiesResponse{Items: items})
}

func (h *Handler) activityStreak(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	records, err := h.service.ListActivities(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result := streak.Compute(records, h.service.Today())

	resp := StreakResponse{
		CurrentStreak: result.Current,
		LongestStreak: result.Longest,
	}
	if result.LastActive != nil {
		formatted := result.LastActive.Format("2006-01-02")
		resp.LastActiveDate = &formatted
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) activityDistributions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeActivitiesRead, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	records, err := h.service.ListActivities(r.Context(), claims.Subject)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	dist := streak.Distributions(records)
	writeJSON(w, http.StatusOK, DistributionsResponse{
		ByLanguage: dist.ByLanguage,
		ByMonth:    dist.ByMonth,
	})
}

func (h *Handler) activitySync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "unsupported method")
		return
	}
	claims, ok := requireScope(w, r, auth.ScopeActivitiesWrite)
	if !ok {
		return
	}

	var req SyncActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "unable to parse body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", err.Error())
		return
	}

	calendar, err := h.github.ContributionCalendar(r.Context(), req.GitHubUsername)
	if err != nil {
		writeProviderError(w, err)
		return
	}

	days := make([]domain.ExternalDay, 0, len(calendar))
	for _, day := range calendar {
		days = append(days, domain.ExternalDay{Date: day.Date, CommitCount: day.Count})
	}

	synced, err := h.service.SyncExternal(r.Context(), claims.Subject, days)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	observability.RecordExternalDaysSynced(synced)

	writeJSON(w, http.StatusOK, SyncActivityResponse{SyncedDays: synced})
}

// RecordActivityRequest is the payload for POST /v1/activities.
type RecordActivityRequest struct {
	Date        string `json:"date"`
	CommitCount int    `json:"commit_count"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// Validate ensures request correctness.
func (r RecordActivityRequest) Validate() error {
	if strings.TrimSpace(r.Date) == "" {
		return errors.New("date is required")
	}
	if r.CommitCount < 0 {
		return errors.New("commit_count must be >= 0")
	}
	return nil
}

// UpdateActivityRequest is the payload for PUT /v1/activities/{id}.
type UpdateActivityRequest struct {
	CommitCount int    `json:"commit_count"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// Validate ensures request correctness.
func (r UpdateActivityRequest) Validate() error {
	if r.CommitCount < 0 {
		return errors.New("commit_count must be >= 0")
	}
	return nil
}

// SyncActivityRequest is the payload for POST /v1/activities/sync.
type SyncActivityRequest struct {
	GitHubUsername string `json:"github_username"`
}

// Validate ensures request correctness.
func (r SyncActivityRequest) Validate() error {
	if strings.TrimSpace(r.GitHubUsername) == "" {
		return errors.New("github_username is required")
	}
	return nil
}

// SyncActivityResponse reports how many days the sync touched.
type SyncActivityResponse struct {
	SyncedDays int `json:"synced_days"`
}

// ActivityView exposes an activity record to API clients.
type ActivityView struct {
	RecordID    string    `json:"record_id"`
	Date        string    `json:"date"`
	CommitCount int       `json:"commit_count"`
	Source      string    `json:"source"`
	Description string    `json:"description,omitempty"`
	Language    string    `json:"language,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListActivitiesResponse packages list results.
type ListActivitiesResponse struct {
	Items []ActivityView `json:"items"`
}

// StreakResponse is the derived streak state for the authenticated user.
type StreakResponse struct {
	CurrentStreak  int     `json:"current_streak"`
	LongestStreak  int     `json:"longest_streak"`
	LastActiveDate *string `json:"last_active_date"`
}

// DistributionsResponse groups activity counts by language and month.
type DistributionsResponse struct {
	ByLanguage map[string]int `json:"by_language"`
	ByMonth    map[string]int `json:"by_month"`
}

func toActivityView(record domain.ActivityRecord) ActivityView {
	return ActivityView{
		RecordID:    record.ID,
		Date:        record.Date.Format("2006-01-02"),
		CommitCount: record.CommitCount,
		Source:      string(record.Source),
		Description: record.Description,
		Language:    record.Language,
		CreatedAt:   record.CreatedAt,
		UpdatedAt:   record.UpdatedAt,
	}
}
