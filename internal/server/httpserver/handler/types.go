package handler

import (
	"time"

	"github.com/derfian/httpkom/internal/core/domain"
	"github.com/derfian/httpkom/internal/core/service"
)

// ServerResponse is one entry of GET /.
type ServerResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Host string `json:"host"`
	Port int    `json:"port"`
}

// PersonJSON identifies a person. In a login request exactly one of the
// fields is needed; responses carry both.
type PersonJSON struct {
	PersNo   *int    `json:"pers_no,omitempty"`
	PersName *string `json:"pers_name,omitempty"`
}

// ClientJSON names the client program.
type ClientJSON struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// LoginRequest is the body of POST /{server_id}/sessions/.
type LoginRequest struct {
	Person *PersonJSON `json:"person"`
	Passwd *string     `json:"passwd"`
	Client *ClientJSON `json:"client,omitempty"`
}

// SessionResponse describes a session to its owner. ID is the session
// token, the same value the session_id cookie carries.
type SessionResponse struct {
	ID     string     `json:"id"`
	Person PersonJSON `json:"person"`
	Client ClientJSON `json:"client"`
}

func newSessionResponse(token string, sess *service.Session) SessionResponse {
	persNo, persName := sess.Person.PersNo, sess.Person.PersName
	return SessionResponse{
		ID:     token,
		Person: PersonJSON{PersNo: &persNo, PersName: &persName},
		Client: ClientJSON{Name: sess.Client.Name, Version: sess.Client.Version},
	}
}

// WorkingConferenceRequest is the body of
// POST /{server_id}/sessions/current/working-conference.
type WorkingConferenceRequest struct {
	ConfNo *int `json:"conf_no"`
}

// ConfTypeJSON is the conference type bits.
type ConfTypeJSON struct {
	RdProt         bool `json:"rd_prot"`
	Original       bool `json:"original"`
	Secret         bool `json:"secret"`
	Letterbox      bool `json:"letterbox"`
	AllowAnonymous bool `json:"allow_anonymous"`
	ForbidSecret   bool `json:"forbid_secret"`
}

// ConferenceResponse is the micro conference returned by
// GET /{server_id}/conferences/{conf_no}.
type ConferenceResponse struct {
	ConfNo         int          `json:"conf_no"`
	ConfName       string       `json:"conf_name"`
	Type           ConfTypeJSON `json:"type"`
	HighestLocalNo int          `json:"highest_local_no"`
	Nice           int          `json:"nice"`
}

func newConferenceResponse(c domain.Conference) ConferenceResponse {
	return ConferenceResponse{
		ConfNo:   c.ConfNo,
		ConfName: c.Name,
		Type: ConfTypeJSON{
			RdProt:         c.Type.RdProt,
			Original:       c.Type.Original,
			Secret:         c.Type.Secret,
			Letterbox:      c.Type.Letterbox,
			AllowAnonymous: c.Type.AllowAnonymous,
			ForbidSecret:   c.Type.ForbidSecret,
		},
		HighestLocalNo: c.HighestLocalNo,
		Nice:           c.Nice,
	}
}

// MembershipTypeJSON is the membership type bits.
type MembershipTypeJSON struct {
	Invitation           bool `json:"invitation"`
	Passive              bool `json:"passive"`
	Secret               bool `json:"secret"`
	PassiveMessageInvert bool `json:"passive_message_invert"`
}

// MembershipRequest is the optional body of
// PUT /{server_id}/persons/{pers_no}/memberships/{conf_no}.
type MembershipRequest struct {
	Priority *int                `json:"priority,omitempty"`
	Where    *int                `json:"where,omitempty"`
	Type     *MembershipTypeJSON `json:"type,omitempty"`
}

// ConferenceRef names a conference.
type ConferenceRef struct {
	ConfNo   int    `json:"conf_no"`
	ConfName string `json:"conf_name"`
}

// MembershipResponse is the body of
// GET /{server_id}/persons/{pers_no}/memberships/{conf_no} and one entry of
// the membership list. The unread fields are always null.
type MembershipResponse struct {
	PersNo       int                `json:"pers_no"`
	Conference   ConferenceRef      `json:"conference"`
	Priority     int                `json:"priority"`
	Position     int                `json:"position"`
	Type         MembershipTypeJSON `json:"type"`
	AddedAt      string             `json:"added_at"`
	AddedBy      PersonJSON         `json:"added_by"`
	LastTimeRead string             `json:"last_time_read"`
	NoOfUnread   *int               `json:"no_of_unread"`
	UnreadTexts  []int              `json:"unread_texts"`
}

// MembershipListResponse is the body of
// GET /{server_id}/persons/{pers_no}/memberships/.
type MembershipListResponse struct {
	List []MembershipResponse `json:"list"`
}

// MembershipUnreadResponse lists the unread texts of one membership.
type MembershipUnreadResponse struct {
	PersNo      int   `json:"pers_no"`
	ConfNo      int   `json:"conf_no"`
	NoOfUnread  int   `json:"no_of_unread"`
	UnreadTexts []int `json:"unread_texts"`
}

// MembershipUnreadListResponse is the body of
// GET /{server_id}/persons/{pers_no}/memberships/unread/.
type MembershipUnreadListResponse struct {
	List []MembershipUnreadResponse `json:"list"`
}

// SetUnreadRequest is the body of
// POST /{server_id}/persons/current/memberships/{conf_no}/unread.
type SetUnreadRequest struct {
	NoOfUnread *int `json:"no_of_unread"`
}

// AdminSession is one entry of GET /admin/v1/sessions.
type AdminSession struct {
	SessionID    string     `json:"session_id"`
	ServerID     string     `json:"server_id"`
	Person       PersonJSON `json:"person"`
	Client       ClientJSON `json:"client"`
	CreatedAt    time.Time  `json:"created_at"`
	LastAccessAt time.Time  `json:"last_access_at"`
}

// AdminSessionsResponse is the body of GET /admin/v1/sessions.
type AdminSessionsResponse struct {
	Count    int            `json:"count"`
	Sessions []AdminSession `json:"sessions"`
}

// HealthResponse is the body of GET /health and GET /ready.
type HealthResponse struct {
	Status   string `json:"status"`
	Time     string `json:"time"`
	Version  string `json:"version,omitempty"`
	Sessions *int   `json:"sessions,omitempty"`
}
