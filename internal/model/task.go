package model

import (
	"context"
	"time"
)

// TaskStore defines persistence operations for tasks.
type TaskStore interface {
	Create(ctx context.Context, params CreateTaskParams) (TaskWithOwner, error)
	// GetOwned returns the task only if it belongs to userID.
	GetOwned(ctx context.Context, taskID, userID int64) (TaskWithOwner, error)
	ListByOwner(ctx context.Context, userID int64) ([]TaskWithOwner, error)
	// CompleteOverdue marks every overdue task of the user as completed in a
	// single statement and returns the number of affected tasks.
	CompleteOverdue(ctx context.Context, userID int64, now time.Time) (int64, error)
	MarkCompleted(ctx context.Context, taskID int64) error
}

// Task represents a unit of work owned by a single user.
type Task struct {
	ID                      int64
	Title                   string
	Completed               bool
	UserID                  int64
	EstimatedCompletionTime *time.Time
}

// Overdue reports whether the task should be auto-completed at now:
// it is still open and its deadline is strictly in the past.
func (t Task) Overdue(now time.Time) bool {
	return !t.Completed &&
		t.EstimatedCompletionTime != nil &&
		t.EstimatedCompletionTime.Before(now)
}

// TaskWithOwner is a task joined with its owner's public profile.
type TaskWithOwner struct {
	Task
	Owner UserProfile
}

// CreateTaskParams contains parameters to create a task.
type CreateTaskParams struct {
	UserID                  int64
	Title                   string
	EstimatedCompletionTime *time.Time
}
