//go:build integration

package postgres

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"example.com/codetrack/internal/domain"
)

func TestActivityRepositoryEnforcesOneRecordPerDay(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t, ctx)

	repo := NewActivityRepository(pool)
	userID := uuid.NewString()
	day := domain.Day(time.Now().UTC())

	record := domain.ActivityRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        day,
		CommitCount: 3,
		Source:      domain.ActivitySourceManual,
		Language:    "go",
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Insert(ctx, record))

	duplicate := record
	duplicate.ID = uuid.NewString()
	err := repo.Insert(ctx, duplicate)
	require.ErrorIs(t, err, domain.ErrDuplicateDate)

	otherUser := record
	otherUser.ID = uuid.NewString()
	otherUser.UserID = uuid.NewString()
	require.NoError(t, repo.Insert(ctx, otherUser), "uniqueness is scoped per user")
}

func TestActivityRepositoryUpsertExternalIsIdempotent(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t, ctx)

	repo := NewActivityRepository(pool)
	userID := uuid.NewString()
	day := domain.Day(time.Now().UTC())

	record := domain.ActivityRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		Date:        day,
		CommitCount: 2,
		Source:      domain.ActivitySourceExternal,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.UpsertExternal(ctx, record))

	updated := record
	updated.ID = uuid.NewString()
	updated.CommitCount = 7
	require.NoError(t, repo.UpsertExternal(ctx, updated))

	records, err := repo.ListByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, 7, records[0].CommitCount)
	require.Equal(t, domain.ActivitySourceExternal, records[0].Source)
}

func TestActivityInsertWritesOutboxEvent(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t, ctx)

	repo := NewActivityRepository(pool)
	record := domain.ActivityRecord{
		ID:          uuid.NewString(),
		UserID:      uuid.NewString(),
		Date:        domain.Day(time.Now().UTC()),
		CommitCount: 1,
		Source:      domain.ActivitySourceManual,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	require.NoError(t, repo.Insert(ctx, record))

	var eventType string
	err := pool.QueryRow(ctx,
		`SELECT event_type FROM outbox WHERE aggregate_id = $1`, record.ID,
	).Scan(&eventType)
	require.NoError(t, err)
	require.Equal(t, "activity.recorded", eventType)
}

func TestTodoRepositoryKeysetPagination(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t, ctx)

	repo := NewTodoRepository(pool)
	userID := uuid.NewString()

	base := time.Now().UTC().Truncate(time.Microsecond)
	for i := 0; i < 5; i++ {
		todo := domain.Todo{
			ID:        uuid.NewString(),
			UserID:    userID,
			Title:     "task",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
			UpdatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Create(ctx, todo))
	}

	first, cursor, err := repo.ListByUser(ctx, userID, nil, nil, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	require.NotNil(t, cursor)

	second, _, err := repo.ListByUser(ctx, userID, nil, cursor, 2)
	require.NoError(t, err)
	require.Len(t, second, 2)

	for _, todo := range second {
		require.True(t, todo.CreatedAt.Before(first[len(first)-1].CreatedAt),
			"pages must not overlap")
	}
}

func TestChallengeRepositoryUniquePerDay(t *testing.T) {
	ctx := context.Background()
	pool := setupDatabase(t, ctx)

	repo := NewChallengeRepository(pool)
	day := domain.Day(time.Now().UTC())

	challenge := domain.Challenge{
		ID:         uuid.NewString(),
		Date:       day,
		Title:      "Refactor under pressure",
		Prompt:     "Extract an interface without breaking callers.",
		Difficulty: "medium",
		Language:   "go",
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, repo.Create(ctx, challenge))

	rival := challenge
	rival.ID = uuid.NewString()
	err := repo.Create(ctx, rival)
	require.ErrorIs(t, err, domain.ErrDuplicateDate)

	stored, err := repo.GetByDate(ctx, day)
	require.NoError(t, err)
	require.NotNil(t, stored)
	require.Equal(t, challenge.ID, stored.ID)
}

func setupDatabase(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.RunContainer(ctx,
		postgrescontainer.WithDatabase("codetrack"),
		postgrescontainer.WithUsername("codetrack"),
		postgrescontainer.WithPassword("codetrack"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, waitForDatabase(ctx, connStr))
	runMigrations(t, ctx, connStr)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })
	return pool
}

func runMigrations(t *testing.T, ctx context.Context, connStr string) {
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	defer pool.Close()

	path := resolvePath(t, "../../../migrations/001_init.sql")
	contents, err := os.ReadFile(path)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, string(contents))
	require.NoError(t, err)
}

func resolvePath(t *testing.T, rel string) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), rel)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}
