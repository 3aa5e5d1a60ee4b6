package kom

import (
	"context"
	"fmt"
	"time"

	"github.com/derfian/httpkom/internal/core/domain"
)

// Protocol A call numbers.
const (
	callLogout           = 1
	callChangeConference = 2
	callSubMember        = 15
	callSetUnread        = 40
	callGetUnreadConfs   = 52
	callLogin            = 62
	callSetClientVersion = 69
	callLookupZName      = 76
	callGetUConfStat     = 78
	callAcceptAsync      = 80
	callAddMember        = 100
	callLocalToGlobal    = 103
	callQueryReadTexts   = 107
	callGetMembership    = 108
)

const (
	// maxMemberships is how many memberships GetMemberships asks for.
	maxMemberships = 10000
	// mappingBatch is the most texts one local-to-global call may cover.
	mappingBatch = 255
)

// Login authenticates the connection as persNo and reports the client
// name and version. The person is logged in visibly.
func (c *Client) Login(ctx context.Context, persNo int, passwd string, client domain.Client) error {
	err := c.call(ctx, callLogin, func(r *request) {
		r.int(persNo).string(passwd).bool(false)
	}, nil)
	if err != nil {
		return err
	}
	if client.Name == "" {
		return nil
	}
	return c.call(ctx, callSetClientVersion, func(r *request) {
		r.string(client.Name).string(client.Version)
	}, nil)
}

// Logout ends the login but keeps the connection open.
func (c *Client) Logout(ctx context.Context) error {
	return c.call(ctx, callLogout, nil, nil)
}

// LookupPersons returns the persons whose names match name.
func (c *Client) LookupPersons(ctx context.Context, name string) ([]domain.ConfZInfo, error) {
	var hits []domain.ConfZInfo
	err := c.call(ctx, callLookupZName, func(r *request) {
		r.string(name).bool(true).bool(false)
	}, func(r *reader) error {
		_, err := r.array(func() error {
			var z domain.ConfZInfo
			var err error
			if z.Name, err = r.string(); err != nil {
				return err
			}
			bits, err := r.bits()
			if err != nil {
				return err
			}
			z.Type = confType(bits)
			if z.ConfNo, err = r.int(); err != nil {
				return err
			}
			hits = append(hits, z)
			return nil
		})
		return err
	})
	return hits, err
}

// GetConference returns the short status of a conference or letterbox.
func (c *Client) GetConference(ctx context.Context, confNo int) (domain.Conference, error) {
	conf := domain.Conference{ConfNo: confNo}
	err := c.call(ctx, callGetUConfStat, func(r *request) {
		r.int(confNo)
	}, func(r *reader) error {
		var err error
		if conf.Name, err = r.string(); err != nil {
			return err
		}
		bits, err := r.bits()
		if err != nil {
			return err
		}
		conf.Type = confType(bits)
		if conf.HighestLocalNo, err = r.int(); err != nil {
			return err
		}
		conf.Nice, err = r.int()
		return err
	})
	return conf, err
}

// ChangeConference sets the session's working conference.
func (c *Client) ChangeConference(ctx context.Context, confNo int) error {
	return c.call(ctx, callChangeConference, func(r *request) {
		r.int(confNo)
	}, nil)
}

// AddMembership adds persNo as a member of confNo, or updates an existing
// membership's priority and position.
func (c *Client) AddMembership(ctx context.Context, confNo, persNo int, m domain.Membership) error {
	return c.call(ctx, callAddMember, func(r *request) {
		r.int(confNo).int(persNo).int(m.Priority).int(m.Where).bits(
			m.Type.Invitation, m.Type.Passive, m.Type.Secret, m.Type.PassiveMessageInvert,
			false, false, false, false,
		)
	}, nil)
}

// DeleteMembership removes persNo from confNo.
func (c *Client) DeleteMembership(ctx context.Context, confNo, persNo int) error {
	return c.call(ctx, callSubMember, func(r *request) {
		r.int(confNo).int(persNo)
	}, nil)
}

// GetMembership returns persNo's membership in confNo with its read
// ranges. A person who is not a member gets not-member (13).
func (c *Client) GetMembership(ctx context.Context, persNo, confNo int) (domain.MembershipInfo, error) {
	var m domain.MembershipInfo
	err := c.call(ctx, callQueryReadTexts, func(r *request) {
		r.int(persNo).int(confNo).bool(true).int(0)
	}, func(r *reader) error {
		var err error
		m, err = readMembership(r)
		return err
	})
	m.PersNo = persNo
	return m, err
}

// GetMemberships returns persNo's memberships in list order, without read
// ranges.
func (c *Client) GetMemberships(ctx context.Context, persNo int) ([]domain.MembershipInfo, error) {
	var list []domain.MembershipInfo
	err := c.call(ctx, callGetMembership, func(r *request) {
		r.int(persNo).int(0).int(maxMemberships).bool(false).int(0)
	}, func(r *reader) error {
		_, err := r.array(func() error {
			m, err := readMembership(r)
			if err != nil {
				return err
			}
			m.PersNo = persNo
			list = append(list, m)
			return nil
		})
		return err
	})
	return list, err
}

// GetUnreadConferences returns the conferences where persNo may have unread
// texts. The list can contain conferences with nothing unread.
func (c *Client) GetUnreadConferences(ctx context.Context, persNo int) ([]int, error) {
	var confs []int
	err := c.call(ctx, callGetUnreadConfs, func(r *request) {
		r.int(persNo)
	}, func(r *reader) error {
		_, err := r.array(func() error {
			n, err := r.int()
			if err != nil {
				return err
			}
			confs = append(confs, n)
			return nil
		})
		return err
	})
	return confs, err
}

// SetUnread marks all but the last noOfUnread texts in confNo as read for
// the logged-in person.
func (c *Client) SetUnread(ctx context.Context, confNo, noOfUnread int) error {
	return c.call(ctx, callSetUnread, func(r *request) {
		r.int(confNo).int(noOfUnread)
	}, nil)
}

// GetMembershipUnread maps the local numbers persNo has not read in confNo
// to global text numbers.
func (c *Client) GetMembershipUnread(ctx context.Context, persNo, confNo int) (domain.MembershipUnread, error) {
	u := domain.MembershipUnread{PersNo: persNo, ConfNo: confNo, UnreadTexts: []int{}}
	m, err := c.GetMembership(ctx, persNo, confNo)
	if err != nil {
		return u, err
	}
	conf, err := c.GetConference(ctx, confNo)
	if err != nil {
		return u, err
	}

	next := m.FirstUnread()
	for next <= conf.HighestLocalNo {
		mapping, err := c.localToGlobal(ctx, confNo, next)
		if err != nil {
			return u, err
		}
		for _, t := range mapping.texts {
			if !m.Read(t.local) {
				u.UnreadTexts = append(u.UnreadTexts, t.global)
			}
		}
		if !mapping.later || mapping.end <= next {
			break
		}
		next = mapping.end
	}
	u.NoOfUnread = len(u.UnreadTexts)
	return u, nil
}

type textPair struct {
	local  int
	global int
}

// textMapping is one local-to-global reply. end is one past the last local
// number it covers.
type textMapping struct {
	end   int
	later bool
	texts []textPair
}

func (c *Client) localToGlobal(ctx context.Context, confNo, first int) (textMapping, error) {
	var tm textMapping
	err := c.call(ctx, callLocalToGlobal, func(r *request) {
		r.int(confNo).int(first).int(mappingBatch)
	}, func(r *reader) error {
		if _, err := r.int(); err != nil {
			return err
		}
		var err error
		if tm.end, err = r.int(); err != nil {
			return err
		}
		later, err := r.int()
		if err != nil {
			return err
		}
		tm.later = later != 0

		kind, err := r.int()
		if err != nil {
			return err
		}
		switch kind {
		case 0:
			_, err = r.array(func() error {
				var p textPair
				var err error
				if p.local, err = r.int(); err != nil {
					return err
				}
				if p.global, err = r.int(); err != nil {
					return err
				}
				tm.texts = append(tm.texts, p)
				return nil
			})
		case 1:
			local, err := r.int()
			if err != nil {
				return err
			}
			_, err = r.array(func() error {
				global, err := r.int()
				if err != nil {
					return err
				}
				if global != 0 {
					tm.texts = append(tm.texts, textPair{local: local, global: global})
				}
				local++
				return nil
			})
			return err
		default:
			return fmt.Errorf("%w: local-to-global block type %d", errMalformed, kind)
		}
		return err
	})
	return tm, err
}

// readMembership reads a Membership: position, last-time-read, conference,
// priority, read-ranges, added-by, added-at and type.
func readMembership(r *reader) (domain.MembershipInfo, error) {
	var m domain.MembershipInfo
	var err error
	if m.Position, err = r.int(); err != nil {
		return m, err
	}
	if m.LastTimeRead, err = readTime(r); err != nil {
		return m, err
	}
	if m.ConfNo, err = r.int(); err != nil {
		return m, err
	}
	if m.Priority, err = r.int(); err != nil {
		return m, err
	}
	_, err = r.array(func() error {
		var rr domain.ReadRange
		var err error
		if rr.First, err = r.int(); err != nil {
			return err
		}
		if rr.Last, err = r.int(); err != nil {
			return err
		}
		m.ReadRanges = append(m.ReadRanges, rr)
		return nil
	})
	if err != nil {
		return m, err
	}
	if m.AddedBy, err = r.int(); err != nil {
		return m, err
	}
	if m.AddedAt, err = readTime(r); err != nil {
		return m, err
	}
	bits, err := r.bits()
	if err != nil {
		return m, err
	}
	m.Type = membershipType(bits)
	return m, nil
}

// readTime reads a Protocol A Time. The zone is not on the wire, so the
// server's wall clock is returned as UTC.
func readTime(r *reader) (time.Time, error) {
	var f [9]int
	for i := range f {
		n, err := r.int()
		if err != nil {
			return time.Time{}, err
		}
		f[i] = n
	}
	sec, minute, hour, day, month, year := f[0], f[1], f[2], f[3], f[4], f[5]
	return time.Date(year+1900, time.Month(month+1), day, hour, minute, sec, 0, time.UTC), nil
}

func membershipType(bits []bool) domain.MembershipType {
	at := func(i int) bool { return i < len(bits) && bits[i] }
	return domain.MembershipType{
		Invitation:           at(0),
		Passive:              at(1),
		Secret:               at(2),
		PassiveMessageInvert: at(3),
	}
}

// confType decodes Conf-Type and Extended-Conf-Type bitstrings; missing
// trailing bits read as false.
func confType(bits []bool) domain.ConfType {
	at := func(i int) bool { return i < len(bits) && bits[i] }
	return domain.ConfType{
		RdProt:         at(0),
		Original:       at(1),
		Secret:         at(2),
		Letterbox:      at(3),
		AllowAnonymous: at(4),
		ForbidSecret:   at(5),
	}
}
