package service

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/derfian/httpkom/internal/core/domain"
	"github.com/derfian/httpkom/internal/telemetry/metric"
)

// Reasons a session ends, used in logs and metrics.
const (
	ReasonLogout   = "logout"
	ReasonRelogin  = "relogin"
	ReasonIdle     = "idle"
	ReasonMaxAge   = "max_age"
	ReasonAdmin    = "admin"
	ReasonShutdown = "shutdown"
	ReasonBroken   = "broken"
)

// Default lock bounds.
const (
	DefaultLockTimeout    = 10 * time.Second
	DefaultDestroyTimeout = 30 * time.Second
	DefaultSweepInterval  = time.Minute
)

// Config bounds session behavior. Zero IdleTimeout and MaxAge disable the
// respective expiry.
type Config struct {
	LockTimeout    time.Duration
	DestroyTimeout time.Duration
	IdleTimeout    time.Duration
	MaxAge         time.Duration
	SweepInterval  time.Duration
	DefaultClient  domain.Client
}

// SessionService owns the session lifecycle.
type SessionService struct {
	dir     *Directory
	reg     *Registry
	factory AdapterFactory
	cfg     Config
	clock   clock.Clock
	logger  *slog.Logger
	metrics *metric.Registry
}

// Option configures a SessionService.
type Option func(*SessionService)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *SessionService) { s.logger = l }
}

// WithClock sets the clock used for creation times and expiry.
func WithClock(c clock.Clock) Option {
	return func(s *SessionService) { s.clock = c }
}

// WithMetrics sets the metrics registry. A nil registry records nothing.
func WithMetrics(m *metric.Registry) Option {
	return func(s *SessionService) { s.metrics = m }
}

// NewSessionService creates a new SessionService.
func NewSessionService(dir *Directory, reg *Registry, factory AdapterFactory, cfg Config, opts ...Option) *SessionService {
	if cfg.LockTimeout <= 0 {
		cfg.LockTimeout = DefaultLockTimeout
	}
	if cfg.DestroyTimeout <= 0 {
		cfg.DestroyTimeout = DefaultDestroyTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = DefaultSweepInterval
	}
	s := &SessionService{
		dir:     dir,
		reg:     reg,
		factory: factory,
		cfg:     cfg,
		clock:   clock.New(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Directory returns the server directory.
func (s *SessionService) Directory() *Directory {
	return s.dir
}

// ============================================================================
// Login
// ============================================================================

// LoginRequest contains parameters for login.
type LoginRequest struct {
	ServerID    string
	Credentials domain.Credentials
	Client      domain.Client // empty Name means Config.DefaultClient
	PriorToken  string        // token the client already holds, if any
}

// LoginResponse contains the result of a successful login.
type LoginResponse struct {
	Token   string // plaintext, returned to the client once
	Session *Session
}

// Login authenticates against a backend and registers a new session.
func (s *SessionService) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	// 1. Resolve server
	server, err := s.dir.Resolve(req.ServerID)
	if err != nil {
		return nil, err
	}

	// 2. Validate credentials
	creds := req.Credentials
	if creds.PersNo <= 0 && strings.TrimSpace(creds.Name) == "" {
		return nil, domain.ErrMissingField.WithDetails(`missing "pers_no" in "person"`)
	}
	client := req.Client
	if client.Name == "" {
		client = s.cfg.DefaultClient
	}

	// 3. Destroy the session the client already holds on this server
	if req.PriorToken != "" {
		if prior, ok := s.reg.Remove(req.PriorToken, func(p *Session) bool {
			return p.ServerID == server.ID
		}); ok {
			s.terminate(context.WithoutCancel(ctx), prior, ReasonRelogin)
		}
	}

	// Backend work is not abandoned when the HTTP client goes away.
	bctx := context.WithoutCancel(ctx)

	// 4. Connect
	adapter := s.factory(server)
	if err := adapter.Connect(bctx); err != nil {
		_ = adapter.Disconnect()
		s.metrics.ObserveLogin(metric.LoginError)
		return nil, err
	}

	// 5. Resolve person, log in, and fetch the person's name
	person, err := s.authenticate(bctx, adapter, creds, client)
	if err != nil {
		if derr := adapter.Disconnect(); derr != nil {
			s.logger.Warn("disconnect after failed login", "server_id", server.ID, "error", derr)
		}
		if domain.KindOf(err) == domain.KindAuthentication {
			s.metrics.ObserveLogin(metric.LoginRejected)
		} else {
			s.metrics.ObserveLogin(metric.LoginError)
		}
		return nil, err
	}

	// 6. Mint token and register
	plain, hash, err := domain.GenerateToken()
	if err != nil {
		s.abandon(bctx, adapter)
		return nil, err
	}
	id, err := domain.GenerateSessionID()
	if err != nil {
		s.abandon(bctx, adapter)
		return nil, err
	}
	sess := newSession(id, hash, server, person, client, adapter, s.clock.Now())
	if err := s.reg.Put(sess); err != nil {
		s.abandon(bctx, adapter)
		return nil, err
	}

	s.metrics.ObserveLogin(metric.LoginSuccess)
	s.logger.Info("session created",
		"session_id", sess.ID,
		"server_id", server.ID,
		"pers_no", person.PersNo,
		"client", client.Name,
	)

	return &LoginResponse{Token: plain, Session: sess}, nil
}

func (s *SessionService) authenticate(ctx context.Context, adapter ProtocolSession,
	creds domain.Credentials, client domain.Client) (domain.Person, error) {
	persNo := creds.PersNo
	if persNo <= 0 {
		hits, err := adapter.LookupPersons(ctx, creds.Name)
		if err != nil {
			return domain.Person{}, err
		}
		switch len(hits) {
		case 0:
			return domain.Person{}, domain.ErrNameNotFound.WithDetailsf("name %q", creds.Name)
		case 1:
			persNo = hits[0].ConfNo
		default:
			return domain.Person{}, domain.ErrAmbiguousName.WithDetailsf("name %q matches %d persons", creds.Name, len(hits))
		}
	}

	if err := adapter.Login(ctx, persNo, creds.Password, client); err != nil {
		var pe *domain.ProtocolError
		if errors.As(err, &pe) && domain.IsLoginRejection(pe.Code) {
			return domain.Person{}, domain.ErrAuthenticationFailed.WithDetails(pe.Name()).WithCause(pe)
		}
		return domain.Person{}, err
	}

	conf, err := adapter.GetConference(ctx, persNo)
	if err != nil {
		return domain.Person{}, err
	}
	return domain.Person{PersNo: persNo, PersName: conf.Name}, nil
}

// abandon undoes a successful backend login that could not be registered.
func (s *SessionService) abandon(ctx context.Context, adapter ProtocolSession) {
	if err := multierr.Combine(adapter.Logout(ctx), adapter.Disconnect()); err != nil {
		s.logger.Warn("abandon session", "error", err)
	}
}

// ============================================================================
// Lookup and use
// ============================================================================

// Validate returns the live session for token on serverID. Every failure,
// including a malformed, revoked or foreign token, is ErrSessionAbsent.
func (s *SessionService) Validate(serverID, token string) (*Session, error) {
	if !domain.ValidateTokenFormat(token) {
		return nil, domain.ErrSessionAbsent
	}
	sess, ok := s.reg.Lookup(token)
	if !ok || sess.ServerID != serverID {
		return nil, domain.ErrSessionAbsent
	}
	s.reg.Touch(sess)
	return sess, nil
}

// Do runs fn with exclusive use of the session's adapter. The lock wait is
// bounded by Config.LockTimeout; fn runs with a context that ignores the
// caller's cancellation so a backend call is never cut off midway.
func (s *SessionService) Do(ctx context.Context, sess *Session, fn func(ctx context.Context, p ProtocolSession) error) error {
	release, err := sess.acquire(ctx, s.cfg.LockTimeout)
	if err != nil {
		s.metrics.ObserveBusy()
		return err
	}
	defer release()

	// Destroyed while we waited.
	if !s.reg.Contains(sess) {
		return domain.ErrSessionAbsent
	}

	err = fn(context.WithoutCancel(ctx), sess.adapter)
	if errors.Is(err, domain.ErrBackendUnavailable) && s.reg.RemoveSession(sess) {
		// The connection is gone; the session cannot be used again.
		_ = sess.adapter.Disconnect()
		s.metrics.ObserveSessionClosed(ReasonBroken)
		s.logger.Warn("session connection lost",
			"session_id", sess.ID,
			"server_id", sess.ServerID,
			"error", err,
		)
	}
	return err
}

// ============================================================================
// Logout and destroy
// ============================================================================

// Logout destroys the session for token on serverID. The registry entry is
// removed first and unconditionally; backend logout and disconnect are both
// attempted and their failures only logged.
func (s *SessionService) Logout(ctx context.Context, serverID, token string) error {
	if !domain.ValidateTokenFormat(token) {
		return domain.ErrSessionNotFound
	}
	sess, ok := s.reg.Remove(token, func(p *Session) bool { return p.ServerID == serverID })
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.terminate(context.WithoutCancel(ctx), sess, ReasonLogout)
	return nil
}

// terminate runs the destroy sequence on a session already removed from
// the registry: wait for an in-flight call, then log out and disconnect.
// ctx bounds the whole sequence; if it ends first the connection is cut.
func (s *SessionService) terminate(ctx context.Context, sess *Session, reason string) {
	log := s.logger.With("session_id", sess.ID, "server_id", sess.ServerID, "reason", reason)

	release, err := sess.acquire(ctx, s.cfg.DestroyTimeout)
	if err != nil {
		// A call is stuck; cutting the connection makes it fail.
		log.Warn("session still busy, forcing disconnect", "error", err)
		if derr := sess.adapter.Disconnect(); derr != nil {
			log.Warn("forced disconnect", "error", derr)
		}
		s.metrics.ObserveSessionClosed(reason)
		return
	}
	defer release()

	if err := multierr.Combine(sess.adapter.Logout(ctx), sess.adapter.Disconnect()); err != nil {
		log.Warn("session teardown incomplete", "error", err)
	}
	s.metrics.ObserveSessionClosed(reason)
	log.Info("session destroyed")
}

// ============================================================================
// Administration
// ============================================================================

// SessionInfo is a point-in-time view of a session, without its token.
type SessionInfo struct {
	ID         string
	ServerID   string
	Person     domain.Person
	Client     domain.Client
	CreatedAt  time.Time
	LastAccess time.Time
}

// List returns all live sessions, oldest first.
func (s *SessionService) List() []SessionInfo {
	snap := s.reg.Snapshot()
	out := make([]SessionInfo, 0, len(snap))
	for _, sess := range snap {
		out = append(out, SessionInfo{
			ID:         sess.ID,
			ServerID:   sess.ServerID,
			Person:     sess.Person,
			Client:     sess.Client,
			CreatedAt:  sess.CreatedAt,
			LastAccess: sess.LastAccess(),
		})
	}
	slices.SortFunc(out, func(a, b SessionInfo) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

// Kill destroys the session with public id.
func (s *SessionService) Kill(ctx context.Context, id string) error {
	sess, ok := s.reg.FindByID(id)
	if !ok || !s.reg.RemoveSession(sess) {
		return domain.ErrSessionNotFound.WithDetails(id)
	}
	s.terminate(context.WithoutCancel(ctx), sess, ReasonAdmin)
	return nil
}

// Count returns the number of live sessions.
func (s *SessionService) Count() int {
	return s.reg.Count()
}

// Shutdown destroys every live session, a few at a time. Sessions still
// busy when ctx ends are disconnected without a backend logout.
func (s *SessionService) Shutdown(ctx context.Context) error {
	var g errgroup.Group
	g.SetLimit(8)
	n := 0
	for _, sess := range s.reg.Snapshot() {
		if !s.reg.RemoveSession(sess) {
			continue
		}
		n++
		g.Go(func() error {
			s.terminate(ctx, sess, ReasonShutdown)
			return nil
		})
	}
	err := g.Wait()
	s.logger.Info("all sessions destroyed", "count", n)
	return err
}
