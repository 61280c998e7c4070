package middleware

import "github.com/valyala/fasthttp"

// Middleware decorates a request handler.
type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// Chain wraps h so that the first middleware runs outermost.
func Chain(h fasthttp.RequestHandler, mws ...Middleware) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
