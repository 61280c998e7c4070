package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/httpcontext"
	"github.com/fastygo/todo/pkg/logger"
)

type baseHandler struct {
	adapter *httpcontext.Adapter
	logger  *zap.Logger
}

func newBaseHandler(adapter *httpcontext.Adapter, logger *zap.Logger) baseHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseHandler{adapter: adapter, logger: logger}
}

func (h baseHandler) requestContext(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	if h.adapter != nil {
		return h.adapter.Attach(ctx)
	}
	return context.WithCancel(context.Background())
}

func (h baseHandler) respondJSON(ctx *fasthttp.RequestCtx, status int, payload interface{}) {
	transport.WriteJSON(ctx, status, payload)
}

func (h baseHandler) respondError(ctx *fasthttp.RequestCtx, stdCtx context.Context, err error) {
	status, _ := transport.ErrorStatus(err)
	if status >= http.StatusInternalServerError {
		log := h.logger
		if stdCtx != nil {
			log = logger.FromContext(stdCtx, h.logger)
		}
		log.Error("request failed", zap.Error(err))
	}
	transport.WriteError(ctx, err)
}

// pathID returns the {id} route parameter.
func pathID(ctx *fasthttp.RequestCtx) (string, error) {
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		return "", domain.NewError(domain.ErrCodeInvalid, "missing task id")
	}
	return id, nil
}

// queryInt reads a non-negative integer query parameter, falling back to def
// when the parameter is absent.
func queryInt(ctx *fasthttp.RequestCtx, name string, def int) (int, error) {
	if !ctx.QueryArgs().Has(name) {
		return def, nil
	}
	value, err := ctx.QueryArgs().GetUint(name)
	if err != nil {
		return 0, &transport.ValidationError{Fields: []transport.FieldError{{Field: name, Message: "must be a non-negative integer"}}}
	}
	return value, nil
}
