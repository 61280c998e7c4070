package middleware

import (
	"context"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/api/transport"
	"github.com/fastygo/todo/domain"
	"github.com/fastygo/todo/pkg/httpcontext"
	"github.com/fastygo/todo/pkg/logger"
)

// AuthenticatedHandler receives the resolved principal explicitly.
type AuthenticatedHandler func(ctx *fasthttp.RequestCtx, principal *domain.User)

// PrincipalResolver turns a bearer token into the calling user.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (*domain.User, error)
}

// RequireUser guards a handler behind bearer authentication. Requests without
// a bearer header are rejected before the resolver runs.
func RequireUser(resolver PrincipalResolver, adapter *httpcontext.Adapter, log *zap.Logger) func(AuthenticatedHandler) fasthttp.RequestHandler {
	if log == nil {
		log = zap.NewNop()
	}
	if adapter == nil {
		adapter = httpcontext.NewAdapter(0)
	}
	return func(next AuthenticatedHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			token, ok := bearerToken(ctx)
			if !ok {
				transport.WriteError(ctx, domain.ErrNotAuthenticated)
				return
			}

			stdCtx, cancel := adapter.Attach(ctx)
			principal, err := resolver.Resolve(stdCtx, token)
			cancel()
			if err != nil {
				logger.FromContext(stdCtx, log).Debug("request not authenticated", zap.Error(err))
				transport.WriteError(ctx, err)
				return
			}

			ctx.SetUserValue(httpcontext.UserValueUserID, principal.ID)
			next(ctx, principal)
		}
	}
}

func bearerToken(ctx *fasthttp.RequestCtx) (string, bool) {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
