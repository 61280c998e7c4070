package middleware

import (
	"strings"

	"github.com/AdhityaRamadhanus/fasthttpcors"
	"github.com/valyala/fasthttp"
)

const corsMaxAge = 600

// CORS allows credentialed cross-origin calls from the configured origins.
// A "*" entry allows any origin.
func CORS(origins []string) Middleware {
	allowed := make([]string, 0, len(origins))
	for _, origin := range origins {
		origin = strings.TrimRight(strings.TrimSpace(origin), "/")
		if origin != "" {
			allowed = append(allowed, origin)
		}
	}

	cors := fasthttpcors.NewCorsHandler(fasthttpcors.Options{
		AllowedOrigins: allowed,
		AllowedMethods: []string{
			fasthttp.MethodGet,
			fasthttp.MethodPost,
			fasthttp.MethodPut,
			fasthttp.MethodDelete,
			fasthttp.MethodOptions,
		},
		AllowedHeaders: []string{
			fasthttp.HeaderAuthorization,
			fasthttp.HeaderContentType,
			fasthttp.HeaderAccept,
			fasthttp.HeaderOrigin,
			"X-Request-ID",
		},
		AllowCredentials: true,
		AllowMaxAge:      corsMaxAge,
	})
	return cors.CorsMiddleware
}
