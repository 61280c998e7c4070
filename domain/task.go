package domain

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// TaskStatus is the closed set of states a task can be in.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
)

// TaskTitleMaxLength bounds task titles, counted in characters.
const TaskTitleMaxLength = 50

// ValidateTaskTitle rejects empty titles and titles longer than
// TaskTitleMaxLength characters.
func ValidateTaskTitle(title string) error {
	if title == "" || utf8.RuneCountInString(title) > TaskTitleMaxLength {
		return NewError(ErrCodeInvalid, fmt.Sprintf("title must be 1 to %d characters", TaskTitleMaxLength))
	}
	return nil
}

// ParseTaskStatus maps a wire value onto a TaskStatus.
func ParseTaskStatus(value string) (TaskStatus, error) {
	switch TaskStatus(value) {
	case TaskStatusPending, TaskStatusCompleted:
		return TaskStatus(value), nil
	default:
		return "", NewError(ErrCodeInvalid, "status must be one of: pending, completed")
	}
}

func (s TaskStatus) Valid() bool {
	return s == TaskStatusPending || s == TaskStatusCompleted
}

// Task represents a user-owned activity item.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UserID      int64      `json:"user_id"`
}

// TaskPatch carries a partial update. Nil fields are left untouched; a nil
// Description with DescriptionSet clears the description.
type TaskPatch struct {
	Title          *string
	Description    *string
	DescriptionSet bool
	Status         *TaskStatus
}

// Empty reports whether the patch would change nothing.
func (p TaskPatch) Empty() bool {
	return p.Title == nil && !p.DescriptionSet && p.Status == nil
}

// Apply copies the supplied fields onto task.
func (p TaskPatch) Apply(task *Task) {
	if task == nil {
		return
	}
	if p.Title != nil {
		task.Title = *p.Title
	}
	if p.DescriptionSet {
		if p.Description == nil {
			task.Description = nil
		} else {
			description := *p.Description
			task.Description = &description
		}
	}
	if p.Status != nil {
		task.Status = *p.Status
	}
}
