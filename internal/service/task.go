package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dtroode/otptasks-server/internal/logger"
	"github.com/dtroode/otptasks-server/internal/model"
)

// CompletionObserver is notified about tasks completed automatically, once
// the completing transaction has committed.
type CompletionObserver interface {
	TasksAutoCompleted(n int64)
}

type noopObserver struct{}

func (noopObserver) TasksAutoCompleted(int64) {}

// Task manages task creation, reads and deadline based auto-completion.
type Task struct {
	now      func() time.Time
	observer CompletionObserver
	logger   *logger.Logger
}

func NewTask(observer CompletionObserver, logger *logger.Logger) *Task {
	if observer == nil {
		observer = noopObserver{}
	}
	return &Task{
		now:      time.Now,
		observer: observer,
		logger:   logger,
	}
}

// AutoCompleteExpired completes every open task of the user whose deadline
// has passed and returns how many were changed.
func (s *Task) AutoCompleteExpired(ctx context.Context, tasks model.TaskStore, userID int64) (int64, error) {
	n, err := tasks.CompleteOverdue(ctx, userID, s.now().UTC())
	if err != nil {
		s.logger.Error("Task service: failed to auto-complete tasks",
			"user_id", userID,
			"error", err.Error())
		return 0, fmt.Errorf("failed to auto-complete tasks: %w", err)
	}

	if n > 0 {
		model.AfterCommit(ctx, func() { s.observer.TasksAutoCompleted(n) })
		s.logger.Info("Task service: overdue tasks completed",
			"user_id", userID,
			"count", n)
	}

	return n, nil
}

// ListTasks returns all tasks of the user after auto-completing overdue ones.
func (s *Task) ListTasks(ctx context.Context, tasks model.TaskStore, userID int64) ([]model.TaskWithOwner, error) {
	if _, err := s.AutoCompleteExpired(ctx, tasks, userID); err != nil {
		return nil, err
	}

	list, err := tasks.ListByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return list, nil
}

// GetTask returns a task owned by the user, completing it first if overdue.
// Tasks of other users are reported as ErrNotFound.
func (s *Task) GetTask(ctx context.Context, tasks model.TaskStore, taskID, userID int64) (model.TaskWithOwner, error) {
	task, err := tasks.GetOwned(ctx, taskID, userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TaskWithOwner{}, model.ErrNotFound
		}
		return model.TaskWithOwner{}, fmt.Errorf("failed to get task: %w", err)
	}

	if task.Overdue(s.now().UTC()) {
		if err := tasks.MarkCompleted(ctx, task.ID); err != nil {
			return model.TaskWithOwner{}, fmt.Errorf("failed to complete task: %w", err)
		}
		task.Completed = true
		model.AfterCommit(ctx, func() { s.observer.TasksAutoCompleted(1) })
		s.logger.Info("Task service: overdue task completed",
			"user_id", userID,
			"task_id", task.ID)
	}

	return task, nil
}

// CreateTask stores a new open task. A deadline already in the past is
// accepted; the task is completed on its next read.
func (s *Task) CreateTask(ctx context.Context, tasks model.TaskStore, params model.CreateTaskParams) (model.TaskWithOwner, error) {
	task, err := tasks.Create(ctx, params)
	if err != nil {
		s.logger.Error("Task service: failed to create task",
			"user_id", params.UserID,
			"error", err.Error())
		return model.TaskWithOwner{}, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("Task service: task created",
		"user_id", params.UserID,
		"task_id", task.ID)

	return task, nil
}
