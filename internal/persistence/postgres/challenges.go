package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/codetrack/internal/domain"
)

// ChallengeRepository provides Postgres-backed persistence for daily
// challenges.
type ChallengeRepository struct {
	pool *pgxpool.Pool
}

// NewChallengeRepository constructs a ChallengeRepository.
func NewChallengeRepository(pool *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{pool: pool}
}

// GetByDate retrieves the challenge for a calendar day, if one exists.
func (r *ChallengeRepository) GetByDate(ctx context.Context, date time.Time) (*domain.Challenge, error) {
	const query = `SELECT challenge_id, challenge_date, title, prompt, difficulty, language, created_at
        FROM challenges WHERE challenge_date=$1`

	var challenge domain.Challenge
	row := r.pool.QueryRow(ctx, query, domain.Day(date))
	err := row.Scan(&challenge.ID, &challenge.Date, &challenge.Title, &challenge.Prompt, &challenge.Difficulty, &challenge.Language, &challenge.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	challenge.Date = domain.Day(challenge.Date)
	return &challenge, nil
}

// Create persists the challenge for its day. A date collision maps to
// domain.ErrDuplicateDate so callers can re-read the winning row.
func (r *ChallengeRepository) Create(ctx context.Context, challenge domain.Challenge) error {
	const stmt = `INSERT INTO challenges (challenge_id, challenge_date, title, prompt, difficulty, language, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := r.pool.Exec(ctx, stmt,
		challenge.ID,
		challenge.Date,
		challenge.Title,
		challenge.Prompt,
		challenge.Difficulty,
		challenge.Language,
		challenge.CreatedAt,
	)
	if err != nil && isUniqueViolation(err) {
		return domain.ErrDuplicateDate
	}
	return err
}
