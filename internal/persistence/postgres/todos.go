package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/codetrack/internal/domain"
)

// TodoRepository provides Postgres-backed persistence for todos.
type TodoRepository struct {
	pool *pgxpool.Pool
}

// NewTodoRepository constructs a TodoRepository.
func NewTodoRepository(pool *pgxpool.Pool) *TodoRepository {
	return &TodoRepository{pool: pool}
}

const todoColumns = `todo_id, user_id, title, description, completed, due_date, created_at, updated_at`

func scanTodo(row pgx.Row) (*domain.Todo, error) {
	var todo domain.Todo
	err := row.Scan(&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.Completed, &todo.DueDate, &todo.CreatedAt, &todo.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

// Create persists a new todo.
func (r *TodoRepository) Create(ctx context.Context, todo domain.Todo) error {
	const stmt = `INSERT INTO todos (todo_id, user_id, title, description, completed, due_date, created_at, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`

	_, err := r.pool.Exec(ctx, stmt,
		todo.ID,
		todo.UserID,
		todo.Title,
		todo.Description,
		todo.Completed,
		todo.DueDate,
		todo.CreatedAt,
		todo.UpdatedAt,
	)
	return err
}

// Get retrieves a todo scoped to its owner.
func (r *TodoRepository) Get(ctx context.Context, userID, todoID string) (*domain.Todo, error) {
	query := fmt.Sprintf(`SELECT %s FROM todos WHERE user_id=$1 AND todo_id=$2`, todoColumns)

	todo, err := scanTodo(r.pool.QueryRow(ctx, query, userID, todoID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return todo, nil
}

// ListByUser returns todos for a user with cursor pagination and an optional
// completion filter, newest first.
func (r *TodoRepository) ListByUser(ctx context.Context, userID string, completed *bool, cursor *domain.Cursor, limit int) ([]domain.Todo, *domain.Cursor, error) {
	args := []interface{}{userID, limit}
	query := fmt.Sprintf(`SELECT %s FROM todos WHERE user_id=$1`, todoColumns)

	if completed != nil {
		args = append(args, *completed)
		query += fmt.Sprintf(` AND completed=$%d`, len(args))
	}
	if cursor != nil {
		args = append(args, cursor.CreatedAt, cursor.ID)
		query += fmt.Sprintf(` AND (created_at, todo_id) < ($%d, $%d)`, len(args)-1, len(args))
	}

	query += ` ORDER BY created_at DESC, todo_id DESC LIMIT $2`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	todos := make([]domain.Todo, 0, limit)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, nil, err
		}
		todos = append(todos, *todo)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	var next *domain.Cursor
	if len(todos) == limit {
		last := todos[len(todos)-1]
		next = &domain.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	return todos, next, nil
}

// Update rewrites the editable fields of a todo.
func (r *TodoRepository) Update(ctx context.Context, todo domain.Todo) error {
	const stmt = `UPDATE todos
        SET title=$3, description=$4, completed=$5, due_date=$6, updated_at=$7
        WHERE user_id=$1 AND todo_id=$2`

	tag, err := r.pool.Exec(ctx, stmt, todo.UserID, todo.ID, todo.Title, todo.Description, todo.Completed, todo.DueDate, todo.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}

// Delete removes an owned todo.
func (r *TodoRepository) Delete(ctx context.Context, userID, todoID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM todos WHERE user_id=$1 AND todo_id=$2`, userID, todoID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTodoNotFound
	}
	return nil
}
