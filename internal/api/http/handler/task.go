package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dtroode/otptasks-server/internal/logger"
	"github.com/dtroode/otptasks-server/internal/model"
)

// TaskService defines task operations.
type TaskService interface {
	ListTasks(ctx context.Context, tasks model.TaskStore, userID int64) ([]model.TaskWithOwner, error)
	GetTask(ctx context.Context, tasks model.TaskStore, taskID, userID int64) (model.TaskWithOwner, error)
	CreateTask(ctx context.Context, tasks model.TaskStore, params model.CreateTaskParams) (model.TaskWithOwner, error)
}

// TaskMetrics records task activity.
type TaskMetrics interface {
	TaskCreated()
}

// Task handles the task endpoints. Every route requires an authenticated user.
type Task struct {
	taskService    TaskService
	transactor     model.Transactor
	contextManager model.ContextManager
	metrics        TaskMetrics
	logger         *logger.Logger
}

// NewTask creates a new Task handler.
func NewTask(
	taskService TaskService,
	transactor model.Transactor,
	contextManager model.ContextManager,
	metrics TaskMetrics,
	logger *logger.Logger,
) *Task {
	return &Task{
		taskService:    taskService,
		transactor:     transactor,
		contextManager: contextManager,
		metrics:        metrics,
		logger:         logger,
	}
}

// List returns the tasks of the current user.
func (h *Task) List(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var list []model.TaskWithOwner
	err := h.transactor.WithinTx(c.Request.Context(), func(ctx context.Context, stores model.Stores) error {
		var err error
		list, err = h.taskService.ListTasks(ctx, stores.Tasks, user.ID)
		return err
	})
	if err != nil {
		h.logger.Error("Task handler: list failed",
			"user_id", user.ID,
			"error", err.Error())
		AbortWithError(c, err)
		return
	}

	resp := make([]TaskResponse, 0, len(list))
	for _, t := range list {
		resp = append(resp, newTaskResponse(t))
	}

	c.JSON(http.StatusOK, resp)
}

// Get returns one task of the current user.
func (h *Task) Get(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	taskID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortWithValidationError(c, fmt.Errorf("task id must be an integer"))
		return
	}

	var task model.TaskWithOwner
	err = h.transactor.WithinTx(c.Request.Context(), func(ctx context.Context, stores model.Stores) error {
		var err error
		task, err = h.taskService.GetTask(ctx, stores.Tasks, taskID, user.ID)
		return err
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			AbortWithDetail(c, http.StatusNotFound, fmt.Sprintf("Task with id %d not found", taskID))
			return
		}
		h.logger.Error("Task handler: get failed",
			"user_id", user.ID,
			"task_id", taskID,
			"error", err.Error())
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, newTaskResponse(task))
}

// Create stores a new task for the current user.
func (h *Task) Create(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithValidationError(c, err)
		return
	}

	params := model.CreateTaskParams{
		UserID:                  user.ID,
		Title:                   req.Title,
		EstimatedCompletionTime: req.EstimatedCompletionTime,
	}
	if params.EstimatedCompletionTime != nil {
		ect := params.EstimatedCompletionTime.UTC()
		params.EstimatedCompletionTime = &ect
	}

	var task model.TaskWithOwner
	err := h.transactor.WithinTx(c.Request.Context(), func(ctx context.Context, stores model.Stores) error {
		var err error
		task, err = h.taskService.CreateTask(ctx, stores.Tasks, params)
		return err
	})
	if err != nil {
		h.logger.Error("Task handler: create failed",
			"user_id", user.ID,
			"error", err.Error())
		AbortWithError(c, err)
		return
	}

	h.metrics.TaskCreated()

	c.JSON(http.StatusCreated, newTaskResponse(task))
}

func (h *Task) currentUser(c *gin.Context) (model.User, bool) {
	user, ok := h.contextManager.GetUserFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, model.ErrUnauthorized)
		return model.User{}, false
	}
	return user, true
}
