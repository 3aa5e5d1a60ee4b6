package service

import (
	"context"

	"github.com/derfian/httpkom/internal/core/domain"
)

// ProtocolSession is one connection to a LysKOM server. Implementations
// need not be safe for concurrent use, with one exception: Disconnect may be
// called while another call is in progress and must make that call fail.
//
// Errors reported by the server are *domain.ProtocolError.
type ProtocolSession interface {
	Connect(ctx context.Context) error
	Login(ctx context.Context, persNo int, passwd string, client domain.Client) error
	Logout(ctx context.Context) error
	Disconnect() error

	LookupPersons(ctx context.Context, name string) ([]domain.ConfZInfo, error)
	GetConference(ctx context.Context, confNo int) (domain.Conference, error)
	ChangeConference(ctx context.Context, confNo int) error
	AddMembership(ctx context.Context, confNo, persNo int, m domain.Membership) error
	DeleteMembership(ctx context.Context, confNo, persNo int) error
	GetMembership(ctx context.Context, persNo, confNo int) (domain.MembershipInfo, error)
	GetMemberships(ctx context.Context, persNo int) ([]domain.MembershipInfo, error)
	GetUnreadConferences(ctx context.Context, persNo int) ([]int, error)
	GetMembershipUnread(ctx context.Context, persNo, confNo int) (domain.MembershipUnread, error)
	SetUnread(ctx context.Context, confNo, noOfUnread int) error
}

// AdapterFactory returns a new, unconnected ProtocolSession for server.
type AdapterFactory func(server domain.Server) ProtocolSession
