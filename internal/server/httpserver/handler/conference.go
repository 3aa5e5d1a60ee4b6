package handler

import (
	"context"
	"net/http"

	"github.com/derfian/httpkom/internal/core/domain"
	"github.com/derfian/httpkom/internal/core/service"
)

// handleGetConference handles GET /{server_id}/conferences/{conf_no}.
func (h *Handler) handleGetConference(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	confNo, err := pathInt(r, "conf_no")
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var conf domain.Conference
	err = h.svc.Do(r.Context(), sess, func(ctx context.Context, p service.ProtocolSession) error {
		var err error
		conf, err = p.GetConference(ctx, confNo)
		return err
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newConferenceResponse(conf))
}
