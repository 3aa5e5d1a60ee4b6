package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/derfian/httpkom/internal/core/domain"
	"github.com/derfian/httpkom/internal/core/service"
)

// handlePutMembership handles
// PUT /{server_id}/persons/{pers_no}/memberships/{conf_no}.
// The body is optional; priority defaults to 100 and where to 0.
func (h *Handler) handlePutMembership(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	persNo, confNo, err := membershipPath(r, sess)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var req MembershipRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		WriteError(w, r, err)
		return
	}
	m := domain.Membership{
		Priority: domain.DefaultMembershipPriority,
		Where:    domain.DefaultMembershipWhere,
	}
	if req.Priority != nil {
		if *req.Priority < 0 || *req.Priority > 255 {
			WriteError(w, r, domain.ErrBadRequest.WithDetails(`"priority" must be between 0 and 255`))
			return
		}
		m.Priority = *req.Priority
	}
	if req.Where != nil {
		m.Where = *req.Where
	}
	if t := req.Type; t != nil {
		m.Type = domain.MembershipType{
			Invitation:           t.Invitation,
			Passive:              t.Passive,
			Secret:               t.Secret,
			PassiveMessageInvert: t.PassiveMessageInvert,
		}
	}

	err = h.svc.Do(r.Context(), sess, func(ctx context.Context, p service.ProtocolSession) error {
		return p.AddMembership(ctx, confNo, persNo, m)
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDeleteMembership handles
// DELETE /{server_id}/persons/{pers_no}/memberships/{conf_no}.
func (h *Handler) handleDeleteMembership(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	persNo, confNo, err := membershipPath(r, sess)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	err = h.svc.Do(r.Context(), sess, func(ctx context.Context, p service.ProtocolSession) error {
		return p.DeleteMembership(ctx, confNo, persNo)
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetMembership handles
// GET /{server_id}/persons/{pers_no}/memberships/{conf_no}.
func (h *Handler) handleGetMembership(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	persNo, confNo, err := membershipPath(r, sess)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var resp MembershipResponse
	err = h.svc.Do(r.Context(), sess, func(ctx context.Context, p service.ProtocolSession) error {
		m, err := p.GetMembership(ctx, persNo, confNo)
		if err != nil {
			return err
		}
		resp, err = newMembershipResponse(ctx, m, newConfNames(p))
		return err
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// handleListMemberships handles
// GET /{server_id}/persons/{pers_no}/memberships/.
// With unread=true only conferences the server reports as having unread
// texts are listed. Passive memberships are left out unless passive=true.
func (h *Handler) handleListMemberships(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	persNo, err := persNoPath(r, sess)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	unread, err := queryBool(r, "unread", false)
	if err != nil {
		WriteError(w, r, err)
		return
	}
	passive, err := queryBool(r, "passive", false)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	list := []MembershipResponse{}
	err = h.svc.Do(r.Context(), sess, func(ctx context.Context, p service.ProtocolSession) error {
		var ms []domain.MembershipInfo
		if unread {
			confs, err := p.GetUnreadConferences(ctx, persNo)
			if err != nil {
				return err
			}
			for _, confNo := range confs {
				m, err := p.GetMembership(ctx, persNo, confNo)
				if err != nil {
					return err
				}
				ms = append(ms, m)
			}
		} else {
			var err error
			if ms, err = p.GetMemberships(ctx, persNo); err != nil {
				return err
			}
		}

		names := newConfNames(p)
		for _, m := range ms {
			if m.Type.Passive && !passive {
				continue
			}
			resp, err := newMembershipResponse(ctx, m, names)
			if err != nil {
				return err
			}
			list = append(list, resp)
		}
		return nil
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, MembershipListResponse{List: list})
}

// handleGetMembershipUnread handles
// GET /{server_id}/persons/{pers_no}/memberships/{conf_no}/unread.
func (h *Handler) handleGetMembershipUnread(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	persNo, confNo, err := membershipPath(r, sess)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	var u domain.MembershipUnread
	err = h.svc.Do(r.Context(), sess, func(ctx context.Context, p service.ProtocolSession) error {
		var err error
		u, err = p.GetMembershipUnread(ctx, persNo, confNo)
		return err
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, newMembershipUnreadResponse(u))
}

// handleListMembershipUnreads handles
// GET /{server_id}/persons/{pers_no}/memberships/unread/.
// Conferences with nothing unread are dropped.
func (h *Handler) handleListMembershipUnreads(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	persNo, err := persNoPath(r, sess)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	list := []MembershipUnreadResponse{}
	err = h.svc.Do(r.Context(), sess, func(ctx context.Context, p service.ProtocolSession) error {
		confs, err := p.GetUnreadConferences(ctx, persNo)
		if err != nil {
			return err
		}
		for _, confNo := range confs {
			u, err := p.GetMembershipUnread(ctx, persNo, confNo)
			if err != nil {
				return err
			}
			if u.NoOfUnread > 0 {
				list = append(list, newMembershipUnreadResponse(u))
			}
		}
		return nil
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, MembershipUnreadListResponse{List: list})
}

// handleSetUnread handles
// POST /{server_id}/persons/current/memberships/{conf_no}/unread.
func (h *Handler) handleSetUnread(w http.ResponseWriter, r *http.Request, sess *service.Session) {
	confNo, err := pathInt(r, "conf_no")
	if err != nil {
		WriteError(w, r, err)
		return
	}
	var req SetUnreadRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		WriteError(w, r, err)
		return
	}
	if req.NoOfUnread == nil {
		WriteError(w, r, domain.ErrMissingField.WithDetails(`missing "no_of_unread"`))
		return
	}
	if *req.NoOfUnread < 0 {
		WriteError(w, r, domain.ErrBadRequest.WithDetails(`"no_of_unread" must not be negative`))
		return
	}

	err = h.svc.Do(r.Context(), sess, func(ctx context.Context, p service.ProtocolSession) error {
		return p.SetUnread(ctx, confNo, *req.NoOfUnread)
	})
	if err != nil {
		WriteError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// persNoPath parses {pers_no}; "current" is the session's person.
func persNoPath(r *http.Request, sess *service.Session) (int, error) {
	if r.PathValue("pers_no") == "current" {
		return sess.Person.PersNo, nil
	}
	return pathInt(r, "pers_no")
}

func membershipPath(r *http.Request, sess *service.Session) (persNo, confNo int, err error) {
	if persNo, err = persNoPath(r, sess); err != nil {
		return 0, 0, err
	}
	if confNo, err = pathInt(r, "conf_no"); err != nil {
		return 0, 0, err
	}
	return persNo, confNo, nil
}

// confNames caches conference names for one request. A conference the
// caller may not see gets an empty name.
type confNames struct {
	p     service.ProtocolSession
	names map[int]string
}

func newConfNames(p service.ProtocolSession) *confNames {
	return &confNames{p: p, names: make(map[int]string)}
}

func (n *confNames) get(ctx context.Context, confNo int) (string, error) {
	if confNo == 0 {
		return "", nil
	}
	if name, ok := n.names[confNo]; ok {
		return name, nil
	}
	conf, err := n.p.GetConference(ctx, confNo)
	var pe *domain.ProtocolError
	if errors.As(err, &pe) && domain.IsNotFoundCode(pe.Code) {
		conf, err = domain.Conference{}, nil
	}
	if err != nil {
		return "", err
	}
	n.names[confNo] = conf.Name
	return conf.Name, nil
}

const membershipTimeLayout = "2006-01-02 15:04:05"

func newMembershipResponse(ctx context.Context, m domain.MembershipInfo, names *confNames) (MembershipResponse, error) {
	confName, err := names.get(ctx, m.ConfNo)
	if err != nil {
		return MembershipResponse{}, err
	}
	addedByName, err := names.get(ctx, m.AddedBy)
	if err != nil {
		return MembershipResponse{}, err
	}
	addedBy := m.AddedBy
	return MembershipResponse{
		PersNo:     m.PersNo,
		Conference: ConferenceRef{ConfNo: m.ConfNo, ConfName: confName},
		Priority:   m.Priority,
		Position:   m.Position,
		Type: MembershipTypeJSON{
			Invitation:           m.Type.Invitation,
			Passive:              m.Type.Passive,
			Secret:               m.Type.Secret,
			PassiveMessageInvert: m.Type.PassiveMessageInvert,
		},
		AddedAt:      m.AddedAt.Format(membershipTimeLayout),
		AddedBy:      PersonJSON{PersNo: &addedBy, PersName: &addedByName},
		LastTimeRead: m.LastTimeRead.Format(membershipTimeLayout),
	}, nil
}

func newMembershipUnreadResponse(u domain.MembershipUnread) MembershipUnreadResponse {
	texts := u.UnreadTexts
	if texts == nil {
		texts = []int{}
	}
	return MembershipUnreadResponse{
		PersNo:      u.PersNo,
		ConfNo:      u.ConfNo,
		NoOfUnread:  u.NoOfUnread,
		UnreadTexts: texts,
	}
}
