package bolt

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"

	"github.com/fastygo/todo/domain"
	boltInfra "github.com/fastygo/todo/internal/infrastructure/bolt"
	"github.com/fastygo/todo/repository"
)

type taskRepository struct {
	db *bolt.DB
}

// NewTaskRepository returns a BoltDB-backed TaskRepository.
func NewTaskRepository(db *bolt.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(_ context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.UserID == 0 {
		return nil, domain.ErrInvalidPayload
	}

	created := *task
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.Status == "" {
		created.Status = domain.TaskStatusPending
	}
	created.CreatedAt = time.Now().UTC()

	err := r.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(boltInfra.BucketUsers).Get(itob(uint64(created.UserID))) == nil {
			return domain.ErrUserNotFound
		}
		byID := tx.Bucket(boltInfra.BucketTasksByID)
		if byID.Get([]byte(created.ID)) != nil {
			return domain.NewError(domain.ErrCodeConflict, "task already exists")
		}

		tasks := tx.Bucket(boltInfra.BucketTasks)
		seq, err := tasks.NextSequence()
		if err != nil {
			return err
		}
		payload, err := json.Marshal(created)
		if err != nil {
			return err
		}
		key := taskKey(created.UserID, seq)
		if err := tasks.Put(key, payload); err != nil {
			return err
		}
		return byID.Put([]byte(created.ID), key)
	})
	if err != nil {
		return nil, storageError(err)
	}

	*task = created
	return task, nil
}

func (r *taskRepository) GetForOwner(_ context.Context, id string, ownerID int64) (*domain.Task, error) {
	var task *domain.Task
	err := r.db.View(func(tx *bolt.Tx) error {
		var err error
		_, task, err = findTask(tx, id, ownerID)
		return err
	})
	if err != nil {
		return nil, storageError(err)
	}
	return task, nil
}

func (r *taskRepository) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	limit := filter.Limit
	if limit > maxPageSize {
		limit = maxPageSize
	}
	tasks := make([]domain.Task, 0)
	if limit <= 0 {
		return tasks, nil
	}

	prefix := ownerPrefix(filter.UserID)
	skipped := 0
	err := r.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltInfra.BucketTasks).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix) && len(tasks) < limit; k, v = c.Next() {
			if skipped < filter.Offset {
				skipped++
				continue
			}
			var task domain.Task
			if err := json.Unmarshal(v, &task); err != nil {
				return err
			}
			tasks = append(tasks, task)
		}
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}
	return tasks, nil
}

func (r *taskRepository) Update(_ context.Context, id string, ownerID int64, patch domain.TaskPatch) (*domain.Task, error) {
	var task *domain.Task
	err := r.db.Update(func(tx *bolt.Tx) error {
		key, current, err := findTask(tx, id, ownerID)
		if err != nil {
			return err
		}
		if patch.Empty() {
			task = current
			return nil
		}
		patch.Apply(current)
		payload, err := json.Marshal(current)
		if err != nil {
			return err
		}
		if err := tx.Bucket(boltInfra.BucketTasks).Put(key, payload); err != nil {
			return err
		}
		task = current
		return nil
	})
	if err != nil {
		return nil, storageError(err)
	}
	return task, nil
}

func (r *taskRepository) Delete(_ context.Context, id string, ownerID int64) error {
	err := r.db.Update(func(tx *bolt.Tx) error {
		key, _, err := findTask(tx, id, ownerID)
		if err != nil {
			return err
		}
		if err := tx.Bucket(boltInfra.BucketTasks).Delete(key); err != nil {
			return err
		}
		return tx.Bucket(boltInfra.BucketTasksByID).Delete([]byte(id))
	})
	return storageError(err)
}

// findTask looks a task up by id and hides tasks of other owners.
func findTask(tx *bolt.Tx, id string, ownerID int64) ([]byte, *domain.Task, error) {
	key := tx.Bucket(boltInfra.BucketTasksByID).Get([]byte(id))
	if key == nil || keyOwner(key) != ownerID {
		return nil, nil, domain.ErrTaskNotFound
	}
	payload := tx.Bucket(boltInfra.BucketTasks).Get(key)
	if payload == nil {
		return nil, nil, domain.ErrTaskNotFound
	}
	var task domain.Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, nil, err
	}
	return append([]byte(nil), key...), &task, nil
}
