package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/derfian/httpkom/internal/core/domain"
	"github.com/derfian/httpkom/internal/core/service"
)

// currentSession is the path segment that stands for the caller's own
// session.
const currentSession = "current"

// handleListServers handles GET /.
func (h *Handler) handleListServers(w http.ResponseWriter, r *http.Request) {
	servers := h.svc.Directory().List()
	out := make(map[string]ServerResponse, len(servers))
	for _, s := range servers {
		out[s.ID] = ServerResponse{ID: s.ID, Name: s.Name, Host: s.Host, Port: s.Port}
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleLogin handles POST /{server_id}/sessions/.
//
// A session the caller already holds on the same server is destroyed
// before the new login is attempted.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	serverID := r.PathValue("server_id")
	if _, err := h.svc.Directory().Resolve(serverID); err != nil {
		WriteError(w, r, err)
		return
	}

	var req LoginRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, err)
		return
	}
	creds, err := req.credentials()
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var client domain.Client
	if req.Client != nil {
		client = domain.Client{Name: req.Client.Name, Version: req.Client.Version}
	}

	resp, err := h.svc.Login(r.Context(), &service.LoginRequest{
		ServerID:    serverID,
		Credentials: creds,
		Client:      client,
		PriorToken:  h.carrierToken(r),
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}

	h.setSessionCookie(w, resp.Token)
	w.Header().Set(h.cfg.ConnectionHeader, resp.Token)
	writeJSON(w, r, http.StatusOK, newSessionResponse(resp.Token, resp.Session))
}

func (req *LoginRequest) credentials() (domain.Credentials, error) {
	if req.Person == nil {
		return domain.Credentials{}, domain.ErrMissingField.WithDetails(`missing "person"`)
	}
	if req.Passwd == nil {
		return domain.Credentials{}, domain.ErrMissingField.WithDetails(`missing "passwd"`)
	}
	creds := domain.Credentials{Password: *req.Passwd}
	switch {
	case req.Person.PersNo != nil:
		if *req.Person.PersNo <= 0 {
			return domain.Credentials{}, domain.ErrBadRequest.WithDetails(`"pers_no" in "person" must be positive`)
		}
		creds.PersNo = *req.Person.PersNo
	case req.Person.PersName != nil && strings.TrimSpace(*req.Person.PersName) != "":
		creds.Name = *req.Person.PersName
	default:
		return domain.Credentials{}, domain.ErrMissingField.WithDetails(`missing "pers_no" in "person"`)
	}
	return creds, nil
}

// sessionToken resolves the {session_id} path segment: "current" means the
// carrier token, anything else is the token itself.
func (h *Handler) sessionToken(r *http.Request) (token string, fromCarrier bool) {
	id := r.PathValue("session_id")
	if id == currentSession {
		return h.carrierToken(r), true
	}
	return id, false
}

// handleGetSession handles GET /{server_id}/sessions/{session_id}.
func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	server, err := h.svc.Directory().Resolve(r.PathValue("server_id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	token, _ := h.sessionToken(r)
	sess, err := h.svc.Validate(server.ID, token)
	if err != nil {
		if errors.Is(err, domain.ErrSessionAbsent) {
			err = domain.ErrSessionNotFound
		}
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newSessionResponse(token, sess))
}

// handleDeleteSession handles DELETE /{server_id}/sessions/{session_id}.
func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	server, err := h.svc.Directory().Resolve(r.PathValue("server_id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	token, fromCarrier := h.sessionToken(r)
	err = h.svc.Logout(r.Context(), server.ID, token)
	if err == nil || fromCarrier {
		h.clearSessionCookie(w)
	}
	if err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleWorkingConference handles
// POST /{server_id}/sessions/current/working-conference.
func (h *Handler) handleWorkingConference(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	var req WorkingConferenceRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, err)
		return
	}
	if req.ConfNo == nil {
		WriteError(w, r, domain.ErrMissingField.WithDetails(`missing "conf_no"`))
		return
	}

	err := h.svc.Do(r.Context(), sess, func(ctx context.Context, p service.ProtocolSession) error {
		return p.ChangeConference(ctx, *req.ConfNo)
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
