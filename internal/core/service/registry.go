package service

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"golang.org/x/sync/semaphore"

	"github.com/derfian/httpkom/internal/core/domain"
	"github.com/derfian/httpkom/pkg/cmap"
)

// Session is a live, authenticated gateway session. Its adapter is only
// reachable through SessionService.Do, which holds the session lock.
type Session struct {
	ID        string
	ServerID  string
	Person    domain.Person
	Client    domain.Client
	CreatedAt time.Time

	tokenHash  string
	adapter    ProtocolSession
	lock       *semaphore.Weighted
	lastAccess atomic.Int64
}

func newSession(id, tokenHash string, server domain.Server, person domain.Person,
	client domain.Client, adapter ProtocolSession, now time.Time) *Session {
	s := &Session{
		ID:        id,
		ServerID:  server.ID,
		Person:    person,
		Client:    client,
		CreatedAt: now,
		tokenHash: tokenHash,
		adapter:   adapter,
		lock:      semaphore.NewWeighted(1),
	}
	s.lastAccess.Store(now.UnixNano())
	return s
}

// LastAccess returns the time of the last successful lookup.
func (s *Session) LastAccess() time.Time {
	return time.Unix(0, s.lastAccess.Load())
}

func (s *Session) touch(now time.Time) {
	s.lastAccess.Store(now.UnixNano())
}

// acquire takes the session lock, waiting at most timeout. Waiters are
// served in arrival order.
func (s *Session) acquire(ctx context.Context, timeout time.Duration) (release func(), err error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := s.lock.Acquire(ctx, 1); err != nil {
		return nil, domain.ErrSessionBusy.WithCause(err)
	}
	var once atomic.Bool
	return func() {
		if once.CompareAndSwap(false, true) {
			s.lock.Release(1)
		}
	}, nil
}

// Registry maps token hashes to live sessions. Plaintext tokens are hashed
// on the way in and never stored.
type Registry struct {
	sessions *cmap.Map[*Session]
	clock    clock.Clock
}

// NewRegistry returns an empty registry. A nil clock means the wall clock.
func NewRegistry(clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.New()
	}
	return &Registry{
		sessions: cmap.New[*Session](),
		clock:    clk,
	}
}

// Put inserts s under its token hash. The session becomes visible to Get
// only once fully constructed.
func (r *Registry) Put(s *Session) error {
	if !r.sessions.SetIfAbsent(s.tokenHash, s) {
		return domain.ErrSessionConflict
	}
	return nil
}

// Get returns the session for token and records the access.
func (r *Registry) Get(token string) (*Session, bool) {
	s, ok := r.Lookup(token)
	if ok {
		r.Touch(s)
	}
	return s, ok
}

// Lookup returns the session for token without recording an access.
func (r *Registry) Lookup(token string) (*Session, bool) {
	return r.sessions.Get(domain.HashToken(token))
}

// Touch records an access to s now.
func (r *Registry) Touch(s *Session) {
	s.touch(r.clock.Now())
}

// Remove deletes the session for token if match is nil or returns true for
// it. Of concurrent removals of one session exactly one succeeds.
func (r *Registry) Remove(token string, match func(*Session) bool) (*Session, bool) {
	if match == nil {
		return r.sessions.Pop(domain.HashToken(token))
	}
	return r.sessions.PopIf(domain.HashToken(token), match)
}

// RemoveSession deletes s if it is still registered.
func (r *Registry) RemoveSession(s *Session) bool {
	_, ok := r.sessions.PopIf(s.tokenHash, func(cur *Session) bool { return cur == s })
	return ok
}

// RemoveSessionIf deletes s if it is still registered and pred holds.
func (r *Registry) RemoveSessionIf(s *Session, pred func(*Session) bool) bool {
	_, ok := r.sessions.PopIf(s.tokenHash, func(cur *Session) bool { return cur == s && pred(cur) })
	return ok
}

// Contains reports whether s is still registered.
func (r *Registry) Contains(s *Session) bool {
	cur, ok := r.sessions.Get(s.tokenHash)
	return ok && cur == s
}

// FindByID returns the session with public id.
func (r *Registry) FindByID(id string) (*Session, bool) {
	var found *Session
	r.sessions.Range(func(_ string, s *Session) bool {
		if s.ID == id {
			found = s
			return false
		}
		return true
	})
	return found, found != nil
}

// Snapshot returns the live sessions at the time of the call.
func (r *Registry) Snapshot() []*Session {
	return r.sessions.Values()
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	return r.sessions.Count()
}

// CountByServer returns live session counts per server id.
func (r *Registry) CountByServer() map[string]int {
	counts := make(map[string]int)
	r.sessions.Range(func(_ string, s *Session) bool {
		counts[s.ServerID]++
		return true
	})
	return counts
}
