package domain

import "time"

// ConfType holds the conference type bits (Extended-Conf-Type).
type ConfType struct {
	RdProt         bool
	Original       bool
	Secret         bool
	Letterbox      bool
	AllowAnonymous bool
	ForbidSecret   bool
}

// Conference is the subset of a conference's status the gateway exposes
// (a UConference in Protocol A terms).
type Conference struct {
	ConfNo         int
	Name           string
	Type           ConfType
	HighestLocalNo int
	Nice           int
}

// ConfZInfo is one hit from a name lookup.
type ConfZInfo struct {
	ConfNo int
	Name   string
	Type   ConfType
}

// MembershipType holds the membership type bits.
type MembershipType struct {
	Invitation           bool
	Passive              bool
	Secret               bool
	PassiveMessageInvert bool
}

// Membership is what the gateway needs to add a person to a conference.
// Where is the position in the person's membership list.
type Membership struct {
	Priority int
	Where    int
	Type     MembershipType
}

// Default membership values for PUT requests that omit them.
const (
	DefaultMembershipPriority = 100
	DefaultMembershipWhere    = 0
)

// ReadRange is an inclusive run of local text numbers a member has read.
type ReadRange struct {
	First int
	Last  int
}

// MembershipInfo is one of a person's memberships as the server reports it.
// Position is the index in the person's membership list.
type MembershipInfo struct {
	PersNo       int
	ConfNo       int
	Position     int
	Priority     int
	Type         MembershipType
	AddedBy      int
	AddedAt      time.Time
	LastTimeRead time.Time
	ReadRanges   []ReadRange
}

// Read reports whether localNo falls in one of the read ranges.
func (m MembershipInfo) Read(localNo int) bool {
	for _, rr := range m.ReadRanges {
		if localNo >= rr.First && localNo <= rr.Last {
			return true
		}
	}
	return false
}

// FirstUnread is the lowest local text number not covered by the first
// read range.
func (m MembershipInfo) FirstUnread() int {
	if len(m.ReadRanges) == 0 || m.ReadRanges[0].First > 1 {
		return 1
	}
	return m.ReadRanges[0].Last + 1
}

// MembershipUnread lists the global numbers of the texts a person has not
// read in a conference.
type MembershipUnread struct {
	PersNo      int
	ConfNo      int
	NoOfUnread  int
	UnreadTexts []int
}
