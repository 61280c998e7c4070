package middleware

import (
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/pkg/httpcontext"
)

// AccessLog logs one line per request and tags every response with a request id.
func AccessLog(log *zap.Logger) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			reqID := httpcontext.RequestID(ctx)

			next(ctx)

			status := ctx.Response.StatusCode()
			fields := []zap.Field{
				zap.String("request_id", reqID),
				zap.ByteString("method", ctx.Method()),
				zap.ByteString("path", ctx.Path()),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
			}
			if userID, ok := ctx.UserValue(httpcontext.UserValueUserID).(int64); ok {
				fields = append(fields, zap.Int64("user_id", userID))
			}

			switch {
			case status >= fasthttp.StatusInternalServerError:
				log.Error("request", fields...)
			case status >= fasthttp.StatusBadRequest:
				log.Warn("request", fields...)
			default:
				log.Info("request", fields...)
			}
		}
	}
}
