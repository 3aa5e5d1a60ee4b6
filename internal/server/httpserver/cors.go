package httpserver

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// CORSConfig is the cross-origin policy. The connection header is always
// allowed and exposed.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowMethods     []string
	AllowHeaders     []string
	ExposeHeaders    []string
	MaxAge           time.Duration
	ConnectionHeader string
}

// CORS adds Cross-Origin Resource Sharing headers to every response and
// answers preflight requests with 204.
//
// A permitted origin is echoed back; any other origin gets "null".
func CORS(cfg CORSConfig) Middleware {
	allowAll := slices.Contains(cfg.AllowedOrigins, "*")
	methods := strings.Join(cfg.AllowMethods, ", ")
	allowHeaders := strings.Join(withHeader(cfg.AllowHeaders, cfg.ConnectionHeader), ", ")
	exposeHeaders := strings.Join(withHeader(cfg.ExposeHeaders, cfg.ConnectionHeader), ", ")
	maxAge := strconv.Itoa(int(cfg.MaxAge / time.Second))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if origin := r.Header.Get("Origin"); origin != "" {
				h := w.Header()
				h.Add("Vary", "Origin")
				if allowAll || slices.Contains(cfg.AllowedOrigins, origin) {
					h.Set("Access-Control-Allow-Origin", origin)
					h.Set("Access-Control-Allow-Credentials", "true")
					h.Set("Access-Control-Allow-Methods", methods)
					h.Set("Access-Control-Allow-Headers", allowHeaders)
					h.Set("Access-Control-Expose-Headers", exposeHeaders)
					h.Set("Access-Control-Max-Age", maxAge)
				} else {
					h.Set("Access-Control-Allow-Origin", "null")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func withHeader(list []string, header string) []string {
	if header == "" || slices.ContainsFunc(list, func(h string) bool { return strings.EqualFold(h, header) }) {
		return list
	}
	return append(slices.Clip(list), header)
}

// CacheControl keeps clients from caching API responses: mutating requests
// always get "Cache-Control: no-cache", other requests get it unless the
// handler chose a policy.
func CacheControl() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cw := &cacheWriter{ResponseWriter: w, force: isMutating(r.Method)}
			next.ServeHTTP(cw, r)
			cw.apply()
		})
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

type cacheWriter struct {
	http.ResponseWriter
	force   bool
	applied bool
}

func (w *cacheWriter) apply() {
	if w.applied {
		return
	}
	w.applied = true
	if w.force || w.Header().Get("Cache-Control") == "" {
		w.Header().Set("Cache-Control", "no-cache")
	}
}

func (w *cacheWriter) WriteHeader(code int) {
	w.apply()
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheWriter) Write(b []byte) (int, error) {
	w.apply()
	return w.ResponseWriter.Write(b)
}

func (w *cacheWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
