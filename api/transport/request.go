package transport

import (
	"bytes"
	"encoding/json"

	"github.com/fastygo/todo/domain"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginForm mirrors the OAuth2 password form: the email travels as username.
type LoginForm struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type TaskCreateRequest struct {
	Title       string  `json:"title" validate:"required,max=50"`
	Description *string `json:"description"`
	Status      *string `json:"status" validate:"omitempty,oneof=pending completed"`
}

// TaskUpdateRequest records which keys were present so that absent fields are
// left alone while an explicit null description clears it.
type TaskUpdateRequest struct {
	Title          *string
	Description    *string
	DescriptionSet bool
	Status         *string
}

func (r *TaskUpdateRequest) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	decode := func(key string) (*string, bool, error) {
		value, ok := raw[key]
		if !ok {
			return nil, false, nil
		}
		if bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			return nil, true, nil
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return nil, true, &json.UnmarshalTypeError{Value: string(value), Field: key, Type: stringType}
		}
		return &s, true, nil
	}

	var err error
	if r.Title, _, err = decode("title"); err != nil {
		return err
	}
	if r.Description, r.DescriptionSet, err = decode("description"); err != nil {
		return err
	}
	if r.Status, _, err = decode("status"); err != nil {
		return err
	}
	return nil
}

// Patch validates the request and converts it into a domain patch.
func (r TaskUpdateRequest) Patch() (domain.TaskPatch, error) {
	var fields []FieldError
	if r.Title != nil {
		if err := validate.Var(*r.Title, "required,max=50"); err != nil {
			fields = append(fields, fieldErrors(err, "title")...)
		}
	}

	patch := domain.TaskPatch{
		Title:          r.Title,
		Description:    r.Description,
		DescriptionSet: r.DescriptionSet,
	}
	if r.Status != nil {
		status, err := domain.ParseTaskStatus(*r.Status)
		if err != nil {
			fields = append(fields, FieldError{Field: "status", Message: "must be one of: pending completed"})
		} else {
			patch.Status = &status
		}
	}

	if len(fields) > 0 {
		return domain.TaskPatch{}, &ValidationError{Fields: fields}
	}
	return patch, nil
}
