package repository

import (
	"context"

	"github.com/fastygo/todo/domain"
)

// TaskFilter selects a page of one owner's tasks in creation order.
type TaskFilter struct {
	UserID int64
	Offset int
	Limit  int
}

// TaskRepository stores tasks. Every lookup and mutation is scoped by owner;
// a task that belongs to someone else is reported as domain.ErrTaskNotFound.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	GetForOwner(ctx context.Context, id string, ownerID int64) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	Update(ctx context.Context, id string, ownerID int64, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id string, ownerID int64) error
}
