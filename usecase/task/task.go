package task

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/logger"
	"github.com/fastygo/todo/repository"
)

const (
	DefaultPageSize = 100
	MaxPageSize     = 1000
)

// CreateInput holds the fields a caller may set when creating a task.
type CreateInput struct {
	Title       string
	Description *string
	Status      domain.TaskStatus
}

// UseCase runs task operations on behalf of an authenticated owner. The
// owner id always comes from the resolved principal, never from the payload.
type UseCase struct {
	tasks  repository.TaskRepository
	logger *zap.Logger
}

func New(tasks repository.TaskRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:  tasks,
		logger: logger,
	}
}

func (uc *UseCase) CreateTask(ctx context.Context, ownerID int64, input CreateInput) (*domain.Task, error) {
	if err := domain.ValidateTaskTitle(input.Title); err != nil {
		return nil, err
	}
	status := input.Status
	if status == "" {
		status = domain.TaskStatusPending
	}
	if !status.Valid() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "status must be one of: pending, completed")
	}

	created, err := uc.tasks.Create(ctx, &domain.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      status,
		UserID:      ownerID,
	})
	if err != nil {
		return nil, uc.fail(ctx, "create", "", err)
	}

	logger.FromContext(ctx, uc.logger).Info("task created", zap.String("task_id", created.ID))
	return created, nil
}

func (uc *UseCase) GetTask(ctx context.Context, id string, ownerID int64) (*domain.Task, error) {
	task, err := uc.tasks.GetForOwner(ctx, id, ownerID)
	if err != nil {
		return nil, uc.fail(ctx, "get", id, err)
	}
	return task, nil
}

// ListTasks returns the owner's tasks in creation order within [skip, skip+limit).
func (uc *UseCase) ListTasks(ctx context.Context, ownerID int64, skip, limit int) ([]domain.Task, error) {
	if skip < 0 || limit < 0 {
		return nil, domain.NewError(domain.ErrCodeInvalid, "skip and limit must be non-negative")
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	tasks, err := uc.tasks.List(ctx, repository.TaskFilter{UserID: ownerID, Offset: skip, Limit: limit})
	if err != nil {
		return nil, uc.fail(ctx, "list", "", err)
	}
	logger.FromContext(ctx, uc.logger).Debug("tasks fetched", zap.Int("count", len(tasks)))
	return tasks, nil
}

// UpdateTask changes only the fields present in patch.
func (uc *UseCase) UpdateTask(ctx context.Context, id string, ownerID int64, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Title != nil {
		if err := domain.ValidateTaskTitle(*patch.Title); err != nil {
			return nil, err
		}
	}
	if patch.Status != nil && !patch.Status.Valid() {
		return nil, domain.NewError(domain.ErrCodeInvalid, "status must be one of: pending, completed")
	}

	updated, err := uc.tasks.Update(ctx, id, ownerID, patch)
	if err != nil {
		return nil, uc.fail(ctx, "update", id, err)
	}

	logger.FromContext(ctx, uc.logger).Info("task updated", zap.String("task_id", id))
	return updated, nil
}

func (uc *UseCase) DeleteTask(ctx context.Context, id string, ownerID int64) error {
	if err := uc.tasks.Delete(ctx, id, ownerID); err != nil {
		return uc.fail(ctx, "delete", id, err)
	}
	logger.FromContext(ctx, uc.logger).Info("task deleted", zap.String("task_id", id))
	return nil
}

func (uc *UseCase) fail(ctx context.Context, operation, id string, err error) error {
	log := logger.FromContext(ctx, uc.logger).With(zap.String("operation", operation))
	if id != "" {
		log = log.With(zap.String("task_id", id))
	}
	if errors.Is(err, domain.ErrTaskNotFound) {
		log.Warn("task not found")
		return domain.ErrTaskNotFound
	}
	log.Error("task operation failed", zap.Error(err))
	return err
}
