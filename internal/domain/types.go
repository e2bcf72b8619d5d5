// Package domain defines the business logic for the codetrack service.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrDuplicateDate indicates an activity record already exists for the (user, date) pair.
	ErrDuplicateDate = errors.New("activity record already exists for date")
	// ErrActivityNotFound is returned when an activity record cannot be located.
	ErrActivityNotFound = errors.New("activity record not found")
	// ErrExternalImmutable is returned when a user edits a record owned by the sync pipeline.
	ErrExternalImmutable = errors.New("externally synced records cannot be edited")
	// ErrTodoNotFound is returned when a todo cannot be located.
	ErrTodoNotFound = errors.New("todo not found")
)

// ActivitySource distinguishes user-created records from synced ones.
type ActivitySource string

const (
	ActivitySourceManual   ActivitySource = "manual"
	ActivitySourceExternal ActivitySource = "external"
)

// ActivityRecord captures one day of coding activity for a user.
// Date is always a calendar day stored as midnight UTC; the store enforces
// uniqueness on (user_id, date).
type ActivityRecord struct {
	ID          string
	UserID      string
	Date        time.Time
	CommitCount int
	Source      ActivitySource
	Description string
	Language    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Todo is a user-owned task item.
type Todo struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Completed   bool
	DueDate     *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Challenge is the coding challenge served for one calendar day.
type Challenge struct {
	ID         string
	Date       time.Time
	Title      string
	Prompt     string
	Difficulty string
	Language   string
	CreatedAt  time.Time
}

// Cursor models the pagination token for todo listings.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// Day truncates a timestamp to its calendar day, re-anchored at midnight UTC.
// Comparing Day values avoids the off-by-one errors that timezone-carrying
// timestamps produce around day boundaries.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
