package httpserver

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/derfian/httpkom/internal/core/domain"
	"github.com/derfian/httpkom/internal/core/service"
	"github.com/derfian/httpkom/internal/server/httpserver/handler"
	"github.com/derfian/httpkom/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	Handler *handler.Handler

	// Admin guards the /admin/v1 routes.
	Admin *service.AdminAuthenticator

	// LoginLimiter throttles login attempts per client address. Nil
	// disables throttling.
	LoginLimiter *service.RateLimiterRegistry

	// Metrics enables request metrics and GET /metrics when non-nil.
	Metrics *metric.Registry

	CORS CORSConfig

	// TrustProxyHeaders makes ClientIP honor X-Forwarded-For.
	TrustProxyHeaders bool

	Logger *slog.Logger
}

// NewRouter mounts every route and wraps the result in the middleware
// chain.
func NewRouter(cfg *RouterConfig) http.Handler {
	clientIP := func(r *http.Request) string {
		return ClientIP(r, cfg.TrustProxyHeaders)
	}

	mux := http.NewServeMux()
	for _, rt := range cfg.Handler.Routes() {
		var h http.Handler = rt.Handler
		switch rt.Class {
		case handler.RouteLogin:
			h = RateLimit(cfg.LoginLimiter, clientIP, cfg.Metrics)(h)
		case handler.RouteAdmin:
			h = AdminAuth(cfg.Admin)(h)
		case handler.RoutePublic, handler.RouteProbe:
		}
		mux.Handle(rt.Pattern, recordRoute(h))
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", recordRoute(cfg.Metrics.Handler()))
	}
	mux.Handle(catchAllPattern, recordRoute(fallback(mux)))

	return Chain(mux,
		RequestID(cfg.Logger),
		Audit(),
		Metrics(cfg.Metrics),
		Recover(),
		CacheControl(),
		CORS(cfg.CORS),
	)
}

// NewLocalRouter mounts the admin and probe routes without the admin
// key check. It is served only on the local management socket, where
// file permissions stand in for authentication.
func NewLocalRouter(h *handler.Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	for _, rt := range h.Routes() {
		if rt.Class != handler.RouteAdmin && rt.Class != handler.RouteProbe {
			continue
		}
		mux.Handle(rt.Pattern, recordRoute(rt.Handler))
	}
	mux.Handle(catchAllPattern, recordRoute(fallback(mux)))

	return Chain(mux,
		RequestID(logger),
		Audit(),
		Recover(),
		CacheControl(),
	)
}

// catchAllPattern matches every request no route claims.
const catchAllPattern = "/"

// routeMethods are the methods routes are registered under.
var routeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

// fallback answers requests that matched no route with a JSON error: 405
// and an Allow header when the path exists under another method, 404
// otherwise.
func fallback(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if allow := allowedMethods(mux, r); len(allow) > 0 {
			w.Header().Set("Allow", strings.Join(allow, ", "))
			handler.WriteError(w, r, domain.ErrMethodNotAllowed.WithDetails(r.Method))
			return
		}
		handler.WriteError(w, r, domain.ErrNotFound.WithDetails(r.URL.Path))
	})
}

// allowedMethods lists the methods other than r.Method that some route
// serves r's path under.
func allowedMethods(mux *http.ServeMux, r *http.Request) []string {
	var allow []string
	for _, m := range routeMethods {
		if m == r.Method {
			continue
		}
		alt := *r
		alt.Method = m
		if _, pattern := mux.Handler(&alt); pattern != "" && pattern != catchAllPattern {
			allow = append(allow, m)
		}
	}
	return allow
}
