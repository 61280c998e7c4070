package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/repository"
)

const taskColumns = `id, title, description, status, created_at, user_id`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetForOwner(ctx context.Context, id string, ownerID int64) (*domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE id = $1 AND user_id = $2
	`
	return scanTask(r.pool.QueryRow(ctx, query, id, ownerID))
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	const query = `
	SELECT ` + taskColumns + `
	FROM tasks
	WHERE user_id = $1
	ORDER BY seq
	LIMIT $2 OFFSET $3
	`
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	rows, err := r.pool.Query(ctx, query, filter.UserID, clampLimit(filter.Limit), offset)
	if err != nil {
		return nil, storageError(err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	if err := rows.Err(); err != nil {
		return nil, storageError(err)
	}
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.UserID == 0 {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = domain.TaskStatusPending
	}

	const query = `
	INSERT INTO tasks (id, title, description, status, user_id)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.Title,
		task.Description,
		string(task.Status),
		task.UserID,
	).Scan(&task.CreatedAt); err != nil {
		return nil, storageError(err)
	}

	return task, nil
}

// Update applies patch in a single statement so concurrent updates never
// interleave field by field.
func (r *taskRepository) Update(ctx context.Context, id string, ownerID int64, patch domain.TaskPatch) (*domain.Task, error) {
	if patch.Empty() {
		return r.GetForOwner(ctx, id, ownerID)
	}

	const query = `
	UPDATE tasks
	SET title = COALESCE($3, title),
		description = CASE WHEN $4 THEN $5 ELSE description END,
		status = COALESCE($6, status)
	WHERE id = $1 AND user_id = $2
	RETURNING ` + taskColumns

	var status *string
	if patch.Status != nil {
		value := string(*patch.Status)
		status = &value
	}

	return scanTask(r.pool.QueryRow(ctx, query,
		id,
		ownerID,
		patch.Title,
		patch.DescriptionSet,
		patch.Description,
		status,
	))
}

func (r *taskRepository) Delete(ctx context.Context, id string, ownerID int64) error {
	const query = `DELETE FROM tasks WHERE id = $1 AND user_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return storageError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task   domain.Task
		status string
	)

	if err := row.Scan(
		&task.ID,
		&task.Title,
		&task.Description,
		&status,
		&task.CreatedAt,
		&task.UserID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, storageError(err)
	}

	task.Status = domain.TaskStatus(status)
	return &task, nil
}
