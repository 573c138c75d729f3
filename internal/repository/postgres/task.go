package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/dtroode/otptasks-server/internal/model"
)

var _ model.TaskStore = (*TaskRepository)(nil)

type TaskRepository struct {
	db Querier
}

func NewTaskRepository(db Querier) *TaskRepository {
	return &TaskRepository{
		db: db,
	}
}

const taskWithOwnerColumns = `t.id, t.title, t.completed, t.user_id, t.estimated_completion_time,
		u.id, u.nickname, u.email`

func (r *TaskRepository) Create(ctx context.Context, params model.CreateTaskParams) (model.TaskWithOwner, error) {
	query := `
		WITH t AS (
			INSERT INTO tasks (title, completed, user_id, estimated_completion_time)
			VALUES ($1, FALSE, $2, $3)
			RETURNING id, title, completed, user_id, estimated_completion_time
		)
		SELECT ` + taskWithOwnerColumns + `
		FROM t
		JOIN users u ON u.id = t.user_id`

	var deadline *time.Time
	if params.EstimatedCompletionTime != nil {
		utc := params.EstimatedCompletionTime.UTC()
		deadline = &utc
	}

	task, err := scanTask(r.db.QueryRow(ctx, query, params.Title, params.UserID, deadline))
	if err != nil {
		return model.TaskWithOwner{}, fmt.Errorf("failed to create task: %w", err)
	}

	return task, nil
}

func (r *TaskRepository) GetOwned(ctx context.Context, taskID, userID int64) (model.TaskWithOwner, error) {
	query := `
		SELECT ` + taskWithOwnerColumns + `
		FROM tasks t
		JOIN users u ON u.id = t.user_id
		WHERE t.id = $1 AND t.user_id = $2`

	task, err := scanTask(r.db.QueryRow(ctx, query, taskID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.TaskWithOwner{}, model.ErrNotFound
		}
		return model.TaskWithOwner{}, fmt.Errorf("failed to get task: %w", err)
	}

	return task, nil
}

func (r *TaskRepository) ListByOwner(ctx context.Context, userID int64) ([]model.TaskWithOwner, error) {
	query := `
		SELECT ` + taskWithOwnerColumns + `
		FROM tasks t
		JOIN users u ON u.id = t.user_id
		WHERE t.user_id = $1
		ORDER BY t.id`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.TaskWithOwner, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// CompleteOverdue applies the same predicate as model.Task.Overdue.
func (r *TaskRepository) CompleteOverdue(ctx context.Context, userID int64, now time.Time) (int64, error) {
	query := `
		UPDATE tasks SET completed = TRUE
		WHERE user_id = $1
		  AND completed = FALSE
		  AND estimated_completion_time IS NOT NULL
		  AND estimated_completion_time < $2`

	tag, err := r.db.Exec(ctx, query, userID, now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to complete overdue tasks: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (r *TaskRepository) MarkCompleted(ctx context.Context, taskID int64) error {
	query := `UPDATE tasks SET completed = TRUE WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, taskID)
	if err != nil {
		return fmt.Errorf("failed to complete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrNotFound
	}

	return nil
}

func scanTask(row pgx.Row) (model.TaskWithOwner, error) {
	var t model.TaskWithOwner
	if err := row.Scan(
		&t.ID, &t.Title, &t.Completed, &t.UserID, &t.EstimatedCompletionTime,
		&t.Owner.ID, &t.Owner.Nickname, &t.Owner.Email,
	); err != nil {
		return model.TaskWithOwner{}, err
	}

	if t.EstimatedCompletionTime != nil {
		utc := t.EstimatedCompletionTime.UTC()
		t.EstimatedCompletionTime = &utc
	}

	return t, nil
}
