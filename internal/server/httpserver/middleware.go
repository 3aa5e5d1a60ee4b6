package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/derfian/httpkom/internal/core/domain"
	"github.com/derfian/httpkom/internal/core/service"
	"github.com/derfian/httpkom/internal/server/httpserver/handler"
	"github.com/derfian/httpkom/internal/telemetry/logger"
	"github.com/derfian/httpkom/internal/telemetry/metric"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// HeaderAdminKey carries the admin key.
const HeaderAdminKey = "X-Admin-Key"

// Middleware wraps an http.Handler with additional functionality.
type Middleware func(http.Handler) http.Handler

// Chain applies middlewares so that the first one listed runs first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// RequestID assigns each request an id, taken from X-Request-ID when the
// client sent a usable one, and puts base into the request context.
func RequestID(base *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if !usableRequestID(id) {
				id = strings.ToLower(ulid.Make().String())
			}
			w.Header().Set(HeaderRequestID, id)

			ctx := logger.WithRequestID(logger.WithLogger(r.Context(), base), id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func usableRequestID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return true
}

// routeInfo is filled in by the mux-level wrapper so that outer middleware
// can label requests by route pattern instead of raw path.
type routeInfo struct {
	pattern string
}

type routeKey struct{}

func withRouteInfo(r *http.Request) (*http.Request, *routeInfo) {
	if ri, ok := r.Context().Value(routeKey{}).(*routeInfo); ok {
		return r, ri
	}
	ri := &routeInfo{}
	return r.WithContext(context.WithValue(r.Context(), routeKey{}, ri)), ri
}

// recordRoute stores the matched pattern for Audit and Metrics.
func recordRoute(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ri, ok := r.Context().Value(routeKey{}).(*routeInfo); ok {
			ri.pattern = r.Pattern
		}
		next.ServeHTTP(w, r)
	})
}

// Audit logs one line per request.
func Audit() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			r, ri := withRouteInfo(r)
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			attrs := []any{
				"method", r.Method,
				"path", logger.RedactPath(r.URL.Path),
				"route", ri.pattern,
				"status", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
				"remote_addr", r.RemoteAddr,
			}
			log := logger.L(r.Context())
			switch {
			case rec.status >= 500:
				log.Error("request completed with error", attrs...)
			case rec.status >= 400:
				log.Warn("request completed with client error", attrs...)
			default:
				log.Info("request completed", attrs...)
			}
		})
	}
}

// Metrics records request counts and latencies. A nil registry disables it.
func Metrics(m *metric.Registry) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			r, ri := withRouteInfo(r)
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			m.ObserveRequest(r.Method, ri.pattern, rec.status, time.Since(start))
		})
	}
}

// Recover turns a panic into a 500 response.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if v == http.ErrAbortHandler {
					panic(v)
				}
				w.Header().Set("Cache-Control", "no-cache")
				handler.WriteError(w, r, domain.ErrInternalServer.WithCause(fmt.Errorf("panic: %v", v)))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit rejects requests from client addresses over their budget.
func RateLimit(limiters *service.RateLimiterRegistry, clientIP func(*http.Request) string, m *metric.Registry) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiters.Allow(clientIP(r)) {
				m.ObserveRateLimited()
				handler.WriteError(w, r, domain.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AdminAuth requires a valid X-Admin-Key.
func AdminAuth(auth *service.AdminAuthenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := auth.Verify(r.Header.Get(HeaderAdminKey)); err != nil {
				handler.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// statusRecorder captures the response status.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func newStatusRecorder(w http.ResponseWriter) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (w *statusRecorder) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	w.wroteHeader = true
	return w.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
