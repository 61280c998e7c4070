package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"

	"github.com/fastygo/todo/domain"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string       `json:"detail"`
	Code   string       `json:"code"`
	Errors []FieldError `json:"errors,omitempty"`
}

type UserResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
}

func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{ID: user.ID, Email: user.Email}
}

type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes payload as the response body with the given status.
func WriteJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(ErrorResponse{Detail: "Internal server error", Code: string(domain.ErrCodeInternal)})
	}
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

// WriteNoContent sends a bodiless 204.
func WriteNoContent(ctx *fasthttp.RequestCtx) {
	ctx.SetStatusCode(http.StatusNoContent)
	ctx.ResetBody()
}

// WriteError maps err onto a status code and error body. Unauthenticated
// responses carry the bearer challenge.
func WriteError(ctx *fasthttp.RequestCtx, err error) {
	status, body := ErrorStatus(err)
	if status == http.StatusUnauthorized {
		ctx.Response.Header.Set("WWW-Authenticate", "Bearer")
	}
	WriteJSON(ctx, status, body)
}

// ErrorStatus resolves the status code and public body for err. Internal
// failures never leak their cause.
func ErrorStatus(err error) (int, ErrorResponse) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return http.StatusUnprocessableEntity, ErrorResponse{
			Detail: "Validation failed",
			Code:   string(domain.ErrCodeInvalid),
			Errors: verr.Fields,
		}
	}

	var derr *domain.Error
	if !errors.As(err, &derr) {
		return http.StatusInternalServerError, internalError()
	}

	body := ErrorResponse{Detail: derr.Message, Code: string(derr.Code)}
	switch derr.Code {
	case domain.ErrCodeInvalid:
		return http.StatusUnprocessableEntity, body
	case domain.ErrCodeConflict:
		return http.StatusConflict, body
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized, body
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, body
	default:
		return http.StatusInternalServerError, internalError()
	}
}

func internalError() ErrorResponse {
	return ErrorResponse{Detail: "Internal server error", Code: string(domain.ErrCodeInternal)}
}
