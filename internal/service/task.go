package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/backoffice/internal/domain"
	"github.com/utafrali/backoffice/internal/repository"
	apperrors "github.com/utafrali/backoffice/pkg/errors"
	"github.com/utafrali/backoffice/pkg/pagination"
)

const msgTaskNotFound = "Task not found"

// CreateTaskInput holds the parameters for creating a task.
type CreateTaskInput struct {
	Title       string
	Description *string
	Completed   bool
}

// UpdateTaskInput holds a partial task update. Nil fields are left unchanged.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Completed   *bool
}

// TaskService implements the business logic for tasks.
type TaskService struct {
	repo   repository.TaskRepository
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

// NewTaskService creates a new task service.
func NewTaskService(repo repository.TaskRepository, events EventPublisher, logger *slog.Logger) *TaskService {
	return &TaskService{
		repo:   repo,
		events: events,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new task.
func (s *TaskService) Create(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.Validation("title must not be empty")
	}

	now := s.now()
	task := &domain.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: input.Description,
		Completed:   input.Completed,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.logger.InfoContext(ctx, "task created", slog.String("task_id", task.ID))
	return task, nil
}

// Get returns a task by ID.
func (s *TaskService) Get(ctx context.Context, id string) (*domain.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, taskError("get task", err)
	}
	return task, nil
}

// Update applies a partial update. Moving a task from open to completed
// publishes task.completed.
func (s *TaskService) Update(ctx context.Context, id string, input UpdateTaskInput) (*domain.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, taskError("get task for update", err)
	}
	wasCompleted := task.Completed

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.Validation("title must not be empty")
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = input.Description
	}
	if input.Completed != nil {
		task.Completed = *input.Completed
	}
	task.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, taskError("update task", err)
	}

	if !wasCompleted && task.Completed {
		logPublishError(ctx, s.logger, "task.completed", task.ID, s.events.TaskCompleted(ctx, task))
	}

	s.logger.InfoContext(ctx, "task updated", slog.String("task_id", task.ID))
	return task, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return taskError("delete task", err)
	}
	s.logger.InfoContext(ctx, "task deleted", slog.String("task_id", id))
	return nil
}

// List returns one page of tasks, optionally filtered by completion.
func (s *TaskService) List(ctx context.Context, completed *bool, page pagination.Params) (pagination.Page[domain.Task], error) {
	tasks, total, err := s.repo.List(ctx, domain.TaskFilter{
		Completed: completed,
		Limit:     page.PerPage,
		Offset:    page.Offset(),
	})
	if err != nil {
		return pagination.Page[domain.Task]{}, fmt.Errorf("list tasks: %w", err)
	}
	return pagination.NewPage(tasks, total, page), nil
}

func taskError(op string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFoundMessage(msgTaskNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}
