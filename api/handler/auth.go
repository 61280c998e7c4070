package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/pkg/httpcontext"
	authUC "github.com/fastygo/todo/usecase/auth"
)

type AuthHandler struct {
	baseHandler
	uc *authUC.UseCase
}

func NewAuthHandler(uc *authUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Router /users/register [post]
func (h *AuthHandler) Register(ctx *fasthttp.RequestCtx) {
	var req transport.RegisterRequest
	if err := transport.DecodeJSON(ctx.PostBody(), &req); err != nil {
		h.respondError(ctx, nil, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.uc.Register(stdCtx, req.Email, req.Password)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewUserResponse(user))
}

// @Summary Exchange credentials for an access token
// @Tags users
// @Accept x-www-form-urlencoded
// @Produce json
// @Router /users/login [post]
func (h *AuthHandler) Login(ctx *fasthttp.RequestCtx) {
	form := transport.LoginForm{
		Username: formValue(ctx, "username"),
		Password: formValue(ctx, "password"),
	}
	if err := transport.Validate(form); err != nil {
		h.respondError(ctx, nil, err)
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	token, err := h.uc.Login(stdCtx, form.Username, form.Password)
	if err != nil {
		h.respondError(ctx, stdCtx, err)
		return
	}
	h.respondJSON(ctx, http.StatusOK, token)
}

// formValue reads a urlencoded or multipart form field.
func formValue(ctx *fasthttp.RequestCtx, key string) string {
	if value := ctx.PostArgs().Peek(key); len(value) > 0 {
		return string(value)
	}
	if form, err := ctx.MultipartForm(); err == nil {
		if values := form.Value[key]; len(values) > 0 {
			return values[0]
		}
	}
	return ""
}
