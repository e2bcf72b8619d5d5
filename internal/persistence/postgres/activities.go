package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/codetrack/internal/domain"
	"example.com/codetrack/internal/observability"
)

// ActivityRepository provides Postgres-backed persistence for activity
// records and their outbox events.
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

const activityColumns = `record_id, user_id, activity_date, commit_count, source, description, language, created_at, updated_at`

func scanActivity(row pgx.Row) (*domain.ActivityRecord, error) {
	var record domain.ActivityRecord
	err := row.Scan(&record.ID, &record.UserID, &record.Date, &record.CommitCount, &record.Source, &record.Description, &record.Language, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}
	record.Date = domain.Day(record.Date)
	return &record, nil
}

// Insert persists a new activity record and its outbox event inside one
// transaction. A (user, date) collision maps to domain.ErrDuplicateDate.
func (r *ActivityRepository) Insert(ctx context.Context, record domain.ActivityRecord) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const stmt = `INSERT INTO activity_records (record_id, user_id, activity_date, commit_count, source, description, language, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`

	_, err = tx.Exec(ctx, stmt,
		record.ID,
		record.UserID,
		record.Date,
		record.CommitCount,
		record.Source,
		record.Description,
		record.Language,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			err = domain.ErrDuplicateDate
		}
		return err
	}

	if err = r.insertOutbox(ctx, tx, record, "activity.recorded"); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordActivityPersisted(record.UpdatedAt)
	return nil
}

// Update rewrites the editable fields of an existing record.
func (r *ActivityRepository) Update(ctx context.Context, record domain.ActivityRecord) error {
	const stmt = `UPDATE activity_records
        SET commit_count=$3, description=$4, language=$5, updated_at=$6
        WHERE user_id=$1 AND record_id=$2`

	tag, err := r.pool.Exec(ctx, stmt, record.UserID, record.ID, record.CommitCount, record.Description, record.Language, record.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrActivityNotFound
	}
	return nil
}

// Get retrieves an activity record scoped to its owner.
func (r *ActivityRepository) Get(ctx context.Context, userID, recordID string) (*domain.ActivityRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM activity_records WHERE user_id=$1 AND record_id=$2`, activityColumns)

	record, err := scanActivity(r.pool.QueryRow(ctx, query, userID, recordID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// ListByUser returns every activity record for the user, newest day first.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID string) ([]domain.ActivityRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM activity_records WHERE user_id=$1 ORDER BY activity_date DESC`, activityColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]domain.ActivityRecord, 0)
	for rows.Next() {
		record, err := scanActivity(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// UpsertExternal inserts or overwrites the record for (user, date) on behalf
// of the sync pipeline. Existing rows keep their identity and creation time;
// the row is marked external either way.
func (r *ActivityRepository) UpsertExternal(ctx context.Context, record domain.ActivityRecord) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	const stmt = `INSERT INTO activity_records (record_id, user_id, activity_date, commit_count, source, description, language, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        ON CONFLICT (user_id, activity_date) DO UPDATE
        SET commit_count=EXCLUDED.commit_count, source=EXCLUDED.source, updated_at=EXCLUDED.updated_at`

	_, err = tx.Exec(ctx, stmt,
		record.ID,
		record.UserID,
		record.Date,
		record.CommitCount,
		record.Source,
		record.Description,
		record.Language,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if err = r.insertOutbox(ctx, tx, record, "activity.synced"); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return err
	}
	observability.RecordActivityPersisted(record.UpdatedAt)
	return nil
}

type activityEvent struct {
	RecordID    string    `json:"record_id"`
	UserID      string    `json:"user_id"`
	Date        string    `json:"date"`
	CommitCount int       `json:"commit_count"`
	Source      string    `json:"source"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (r *ActivityRepository) insertOutbox(ctx context.Context, tx pgx.Tx, record domain.ActivityRecord, eventType string) error {
	meta, ok := eventCatalog[eventType]
	if !ok {
		return fmt.Errorf("unknown event type: %s", eventType)
	}

	body, err := json.Marshal(activityEvent{
		RecordID:    record.ID,
		UserID:      record.UserID,
		Date:        record.Date.Format("2006-01-02"),
		CommitCount: record.CommitCount,
		Source:      string(record.Source),
		OccurredAt:  record.UpdatedAt,
	})
	if err != nil {
		return err
	}

	dedupeKey := fmt.Sprintf("%s:%s:%s", record.UserID, record.Date.Format("2006-01-02"), eventType)

	const stmt = `INSERT INTO outbox (aggregate_type, aggregate_id, event_type, topic, partition_key, payload, dedupe_key)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (dedupe_key) DO UPDATE SET payload=EXCLUDED.payload, published_at=NULL`

	_, err = tx.Exec(ctx, stmt,
		"activity_record",
		record.ID,
		eventType,
		meta.Topic,
		meta.PartitionKeyFn(record),
		body,
		dedupeKey,
	)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// EventMetadata describes how to route an outbox event.
type EventMetadata struct {
	Topic          string
	PartitionKeyFn func(domain.ActivityRecord) string
}

var eventCatalog = map[string]EventMetadata{
	"activity.recorded": {
		Topic: "activity_events",
		PartitionKeyFn: func(r domain.ActivityRecord) string {
			return r.UserID
		},
	},
	"activity.synced": {
		Topic: "activity_events",
		PartitionKeyFn: func(r domain.ActivityRecord) string {
			return r.UserID
		},
	},
}
