package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/httpcontext"
)

// ProfileHandler serves the caller's own identity.
type ProfileHandler struct {
	baseHandler
}

func NewProfileHandler(adapter *httpcontext.Adapter, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{baseHandler: newBaseHandler(adapter, logger)}
}

// @Summary Current user
// @Tags users
// @Security Bearer
// @Router /users/me [get]
func (h *ProfileHandler) Me(ctx *fasthttp.RequestCtx, principal *domain.User) {
	h.respondJSON(ctx, http.StatusOK, transport.NewUserResponse(principal))
}
