package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/derfian/httpkom/internal/core/service"
	"github.com/derfian/httpkom/internal/telemetry/logger"
)

// Config controls how the session token travels.
type Config struct {
	CookieName       string
	CookieDomain     string
	CookieMaxAge     time.Duration
	CookieSecure     bool
	ConnectionHeader string
}

// Handler serves the API routes.
type Handler struct {
	svc    *service.SessionService
	cfg    Config
	logger *slog.Logger
	ready  atomic.Bool
}

// New creates a Handler. It reports ready until SetReady(false).
func New(svc *service.SessionService, cfg Config, logger *slog.Logger) *Handler {
	h := &Handler{svc: svc, cfg: cfg, logger: logger}
	h.ready.Store(true)
	return h
}

// SetReady changes what GET /ready reports.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// RouteClass selects the middleware the router puts in front of a route.
type RouteClass int

const (
	// RoutePublic needs no extra middleware.
	RoutePublic RouteClass = iota
	// RouteLogin is rate limited per client address.
	RouteLogin
	// RouteAdmin requires the admin key.
	RouteAdmin
	// RouteProbe is a liveness or readiness check.
	RouteProbe
)

// Route is one API endpoint.
type Route struct {
	Pattern string
	Class   RouteClass
	Handler http.HandlerFunc
}

// Routes returns every endpoint. Patterns use net/http.ServeMux syntax.
func (h *Handler) Routes() []Route {
	return []Route{
		{"GET /{$}", RoutePublic, h.handleListServers},
		{"GET /health", RouteProbe, h.handleHealth},
		{"GET /ready", RouteProbe, h.handleReady},

		{"POST /{server_id}/sessions/{$}", RouteLogin, h.handleLogin},
		{"POST /{server_id}/sessions", RouteLogin, h.handleLogin},
		{"GET /{server_id}/sessions/{session_id}", RoutePublic, h.handleGetSession},
		{"DELETE /{server_id}/sessions/{session_id}", RoutePublic, h.handleDeleteSession},
		{"POST /{server_id}/sessions/current/working-conference", RoutePublic, h.guarded(h.handleWorkingConference)},

		{"GET /{server_id}/conferences/{conf_no}", RoutePublic, h.guarded(h.handleGetConference)},

		{"GET /{server_id}/persons/{pers_no}/memberships/{$}", RoutePublic, h.guarded(h.handleListMemberships)},
		{"GET /{server_id}/persons/{pers_no}/memberships/unread/{$}", RoutePublic, h.guarded(h.handleListMembershipUnreads)},
		{"GET /{server_id}/persons/{pers_no}/memberships/{conf_no}", RoutePublic, h.guarded(h.handleGetMembership)},
		{"PUT /{server_id}/persons/{pers_no}/memberships/{conf_no}", RoutePublic, h.guarded(h.handlePutMembership)},
		{"DELETE /{server_id}/persons/{pers_no}/memberships/{conf_no}", RoutePublic, h.guarded(h.handleDeleteMembership)},
		{"GET /{server_id}/persons/{pers_no}/memberships/{conf_no}/unread", RoutePublic, h.guarded(h.handleGetMembershipUnread)},
		{"POST /{server_id}/persons/current/memberships/{conf_no}/unread", RoutePublic, h.guarded(h.handleSetUnread)},

		{"GET /admin/v1/sessions", RouteAdmin, h.handleAdminListSessions},
		{"DELETE /admin/v1/sessions/{id}", RouteAdmin, h.handleAdminKillSession},
	}
}

// guardedFunc is a handler that needs a live session.
type guardedFunc func(w http.ResponseWriter, r *http.Request, sess *service.Session)

// guarded resolves the server and the caller's session before calling fn.
// An unknown server is 404; a missing or foreign token is 403.
func (h *Handler) guarded(fn guardedFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		server, err := h.svc.Directory().Resolve(r.PathValue("server_id"))
		if err != nil {
			WriteError(w, r, err)
			return
		}
		sess, err := h.svc.Validate(server.ID, h.carrierToken(r))
		if err != nil {
			WriteError(w, r, err)
			return
		}
		fn(w, r, sess)
	}
}

// carrierToken returns the token from the connection header, falling back
// to the session cookie.
func (h *Handler) carrierToken(r *http.Request) string {
	if t := r.Header.Get(h.cfg.ConnectionHeader); t != "" {
		return t
	}
	if c, err := r.Cookie(h.cfg.CookieName); err == nil {
		return c.Value
	}
	return ""
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.cfg.CookieDomain,
		MaxAge:   int(h.cfg.CookieMaxAge / time.Second),
		Secure:   h.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Domain:   h.cfg.CookieDomain,
		MaxAge:   -1,
		Secure:   h.cfg.CookieSecure,
		HttpOnly: true,
	})
}

// writeJSON writes v as the response body.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L(r.Context()).Warn("failed to encode response", "error", err)
	}
}
