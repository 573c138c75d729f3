package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/dtroode/otptasks-server/internal/model"
)

// TaskStore is a testify mock of model.TaskStore.
type TaskStore struct {
	mock.Mock
}

// NewTaskStore creates a TaskStore mock that asserts its expectations on cleanup.
func NewTaskStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *TaskStore {
	m := &TaskStore{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *TaskStore) Create(ctx context.Context, params model.CreateTaskParams) (model.TaskWithOwner, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.TaskWithOwner), args.Error(1)
}

func (m *TaskStore) GetOwned(ctx context.Context, taskID, userID int64) (model.TaskWithOwner, error) {
	args := m.Called(ctx, taskID, userID)
	return args.Get(0).(model.TaskWithOwner), args.Error(1)
}

func (m *TaskStore) ListByOwner(ctx context.Context, userID int64) ([]model.TaskWithOwner, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]model.TaskWithOwner), args.Error(1)
}

func (m *TaskStore) CompleteOverdue(ctx context.Context, userID int64, now time.Time) (int64, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *TaskStore) MarkCompleted(ctx context.Context, taskID int64) error {
	args := m.Called(ctx, taskID)
	return args.Error(0)
}
