package handler

import (
	"net/http"

	"github.com/derfian/httpkom/internal/core/domain"
)

// handleAdminListSessions handles GET /admin/v1/sessions.
func (h *Handler) handleAdminListSessions(w http.ResponseWriter, r *http.Request) {
	infos := h.svc.List()
	out := AdminSessionsResponse{Count: len(infos), Sessions: make([]AdminSession, 0, len(infos))}
	for _, info := range infos {
		persNo, persName := info.Person.PersNo, info.Person.PersName
		out.Sessions = append(out.Sessions, AdminSession{
			SessionID:    info.ID,
			ServerID:     info.ServerID,
			Person:       PersonJSON{PersNo: &persNo, PersName: &persName},
			Client:       ClientJSON{Name: info.Client.Name, Version: info.Client.Version},
			CreatedAt:    info.CreatedAt.UTC(),
			LastAccessAt: info.LastAccess.UTC(),
		})
	}
	writeJSON(w, r, http.StatusOK, out)
}

// handleAdminKillSession handles DELETE /admin/v1/sessions/{id}.
func (h *Handler) handleAdminKillSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !domain.IsValidSessionID(id) {
		WriteError(w, r, domain.ErrSessionNotFound.WithDetails(id))
		return
	}

	if err := h.svc.Kill(r.Context(), id); err != nil {
		WriteError(w, r, err)
		return
	}
	h.logger.Info("session killed by admin", "session_id", id)
	w.WriteHeader(http.StatusNoContent)
}
