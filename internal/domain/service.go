package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ActivityRepository captures persistence operations for activity records.
type ActivityRepository interface {
	Insert(ctx context.Context, record ActivityRecord) error
	Update(ctx context.Context, record ActivityRecord) error
	Get(ctx context.Context, userID, recordID string) (*ActivityRecord, error)
	ListByUser(ctx context.Context, userID string) ([]ActivityRecord, error)
	UpsertExternal(ctx context.Context, record ActivityRecord) error
}

// TodoRepository captures persistence operations for todos.
type TodoRepository interface {
	Create(ctx context.Context, todo Todo) error
	Get(ctx context.Context, userID, todoID string) (*Todo, error)
	ListByUser(ctx context.Context, userID string, completed *bool, cursor *Cursor, limit int) ([]Todo, *Cursor, error)
	Update(ctx context.Context, todo Todo) error
	Delete(ctx context.Context, userID, todoID string) error
}

// ChallengeRepository captures persistence operations for daily challenges.
type ChallengeRepository interface {
	GetByDate(ctx context.Context, date time.Time) (*Challenge, error)
	Create(ctx context.Context, challenge Challenge) error
}

// ChallengeDraft is the generator output before it is assigned an ID and date.
type ChallengeDraft struct {
	Title      string
	Prompt     string
	Difficulty string
	Language   string
}

// ChallengeGenerator produces challenge text. Implementations call an external
// text-generation provider and are expected to degrade to a built-in list
// rather than fail.
type ChallengeGenerator interface {
	Generate(ctx context.Context, date time.Time) (ChallengeDraft, error)
}

// Service orchestrates activity, todo, and challenge workflows.
type Service struct {
	activities ActivityRepository
	todos      TodoRepository
	challenges ChallengeRepository
	generator  ChallengeGenerator
	now        func() time.Time
	location   *time.Location
}

// ServiceOption customises Service construction.
type ServiceOption func(*Service)

// WithClock overrides the wall clock, mainly for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone in which "today" is evaluated.
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *Service) { s.location = loc }
}

// NewService constructs a Service.
func NewService(activities ActivityRepository, todos TodoRepository, challenges ChallengeRepository, generator ChallengeGenerator, opts ...ServiceOption) *Service {
	s := &Service{
		activities: activities,
		todos:      todos,
		challenges: challenges,
		generator:  generator,
		now:        time.Now,
		location:   time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Today returns the current calendar day in the service timezone.
func (s *Service) Today() time.Time {
	return Day(s.now().In(s.location))
}

// RecordActivityInput captures the payload from the API layer.
type RecordActivityInput struct {
	UserID      string
	Date        time.Time
	CommitCount int
	Description string
	Language    string
}

// RecordActivity creates a manual activity record for the given day.
func (s *Service) RecordActivity(ctx context.Context, input RecordActivityInput) (*ActivityRecord, error) {
	now := s.now().UTC()
	record := ActivityRecord{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Date:        Day(input.Date),
		CommitCount: input.CommitCount,
		Source:      ActivitySourceManual,
		Description: strings.TrimSpace(input.Description),
		Language:    strings.TrimSpace(input.Language),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.activities.Insert(ctx, record); err != nil {
		return nil, err
	}
	return &record, nil
}

// UpdateActivityInput carries the editable fields of a record.
type UpdateActivityInput struct {
	CommitCount int
	Description string
	Language    string
}

// UpdateActivity edits an owned record. Records synced from an external
// provider are immutable here; only the sync path may overwrite them.
func (s *Service) UpdateActivity(ctx context.Context, userID, recordID string, input UpdateActivityInput) (*ActivityRecord, error) {
	record, err := s.activities.Get(ctx, userID, recordID)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, ErrActivityNotFound
	}
	if record.Source == ActivitySourceExternal {
		return nil, ErrExternalImmutable
	}

	record.CommitCount = input.CommitCount
	record.Description = strings.TrimSpace(input.Description)
	record.Language = strings.TrimSpace(input.Language)
	record.UpdatedAt = s.now().UTC()

	if err := s.activities.Update(ctx, *record); err != nil {
		return nil, err
	}
	return record, nil
}

// ListActivities returns every activity record for the user.
func (s *Service) ListActivities(ctx context.Context, userID string) ([]ActivityRecord, error) {
	return s.activities.ListByUser(ctx, userID)
}

// ExternalDay is one day of activity reported by an external provider.
type ExternalDay struct {
	Date        time.Time
	CommitCount int
}

// SyncExternal upserts provider-reported days as external records. Days with
// zero contributions are skipped so they never mask a manual record.
func (s *Service) SyncExternal(ctx context.Context, userID string, days []ExternalDay) (int, error) {
	now := s.now().UTC()
	synced := 0
	for _, day := range days {
		if day.CommitCount <= 0 {
			continue
		}
		record := ActivityRecord{
			ID:          uuid.NewString(),
			UserID:      userID,
			Date:        Day(day.Date),
			CommitCount: day.CommitCount,
			Source:      ActivitySourceExternal,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.activities.UpsertExternal(ctx, record); err != nil {
			return synced, fmt.Errorf("sync %s: %w", record.Date.Format("2006-01-02"), err)
		}
		synced++
	}
	return synced, nil
}

// CreateTodoInput captures the payload from the API layer.
type CreateTodoInput struct {
	UserID      string
	Title       string
	Description string
	DueDate     *time.Time
}

// CreateTodo persists a new todo.
func (s *Service) CreateTodo(ctx context.Context, input CreateTodoInput) (*Todo, error) {
	now := s.now().UTC()
	todo := Todo{
		ID:          uuid.NewString(),
		UserID:      input.UserID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.todos.Create(ctx, todo); err != nil {
		return nil, err
	}
	return &todo, nil
}

// GetTodo fetches an owned todo by ID.
func (s *Service) GetTodo(ctx context.Context, userID, todoID string) (*Todo, error) {
	todo, err := s.todos.Get(ctx, userID, todoID)
	if err != nil {
		return nil, err
	}
	if todo == nil {
		return nil, ErrTodoNotFound
	}
	return todo, nil
}

// ListTodos fetches todos with cursor pagination and an optional completion filter.
func (s *Service) ListTodos(ctx context.Context, userID string, completed *bool, cursor *Cursor, limit int) ([]Todo, *Cursor, error) {
	return s.todos.ListByUser(ctx, userID, completed, cursor, limit)
}

// UpdateTodoInput carries the editable fields of a todo.
type UpdateTodoInput struct {
	Title       string
	Description string
	Completed   bool
	DueDate     *time.Time
}

// UpdateTodo edits an owned todo.
func (s *Service) UpdateTodo(ctx context.Context, userID, todoID string, input UpdateTodoInput) (*Todo, error) {
	todo, err := s.todos.Get(ctx, userID, todoID)
	if err != nil {
		return nil, err
	}
	if todo == nil {
		return nil, ErrTodoNotFound
	}

	todo.Title = strings.TrimSpace(input.Title)
	todo.Description = strings.TrimSpace(input.Description)
	todo.Completed = input.Completed
	todo.DueDate = input.DueDate
	todo.UpdatedAt = s.now().UTC()

	if err := s.todos.Update(ctx, *todo); err != nil {
		return nil, err
	}
	return todo, nil
}

// DeleteTodo removes an owned todo.
func (s *Service) DeleteTodo(ctx context.Context, userID, todoID string) error {
	return s.todos.Delete(ctx, userID, todoID)
}

// DailyChallenge returns today's challenge, generating and persisting it on
// first request. Generation failures surface to the caller only if the
// generator has no fallback of its own.
func (s *Service) DailyChallenge(ctx context.Context) (*Challenge, error) {
	today := s.Today()

	challenge, err := s.challenges.GetByDate(ctx, today)
	if err != nil {
		return nil, err
	}
	if challenge != nil {
		return challenge, nil
	}

	draft, err := s.generator.Generate(ctx, today)
	if err != nil {
		return nil, err
	}

	created := Challenge{
		ID:         uuid.NewString(),
		Date:       today,
		Title:      draft.Title,
		Prompt:     draft.Prompt,
		Difficulty: draft.Difficulty,
		Language:   draft.Language,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.challenges.Create(ctx, created); err != nil {
		// Another request may have created today's challenge concurrently.
		if errors.Is(err, ErrDuplicateDate) {
			return s.challenges.GetByDate(ctx, today)
		}
		return nil, err
	}
	return &created, nil
}
