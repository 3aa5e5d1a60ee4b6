package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/derfian/httpkom/internal/core/domain"
)

// eventLog records adapter calls across adapters, in order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(format string, args ...any) {
	l.mu.Lock()
	l.events = append(l.events, fmt.Sprintf(format, args...))
	l.mu.Unlock()
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

func (l *eventLog) index(event string) int {
	for i, e := range l.list() {
		if e == event {
			return i
		}
	}
	return -1
}

type fakeAdapter struct {
	name string
	log  *eventLog

	connectErr error
	loginErr   error
	logoutErr  error
	callErr    error
	lookup     []domain.ConfZInfo
	confName   string

	// gate, when set, blocks ChangeConference until closed or Disconnect.
	gate         chan struct{}
	started      chan struct{}
	disconnected chan struct{}
	discOnce     sync.Once

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	logins      atomic.Int32
	logouts     atomic.Int32
	disconnects atomic.Int32
}

func (f *fakeAdapter) Connect(context.Context) error {
	f.log.add("%s connect", f.name)
	return f.connectErr
}

func (f *fakeAdapter) Login(_ context.Context, persNo int, _ string, _ domain.Client) error {
	f.logins.Add(1)
	f.log.add("%s login %d", f.name, persNo)
	return f.loginErr
}

func (f *fakeAdapter) Logout(context.Context) error {
	f.logouts.Add(1)
	f.log.add("%s logout", f.name)
	return f.logoutErr
}

func (f *fakeAdapter) Disconnect() error {
	f.disconnects.Add(1)
	f.log.add("%s disconnect", f.name)
	f.discOnce.Do(func() { close(f.disconnected) })
	return nil
}

func (f *fakeAdapter) LookupPersons(_ context.Context, name string) ([]domain.ConfZInfo, error) {
	f.log.add("%s lookup %s", f.name, name)
	return f.lookup, nil
}

func (f *fakeAdapter) GetConference(_ context.Context, confNo int) (domain.Conference, error) {
	return domain.Conference{ConfNo: confNo, Name: f.confName}, nil
}

func (f *fakeAdapter) ChangeConference(_ context.Context, confNo int) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	f.log.add("%s call-start %d", f.name, confNo)
	if f.started != nil {
		select {
		case f.started <- struct{}{}:
		default:
		}
	}
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-f.disconnected:
			f.log.add("%s call-aborted %d", f.name, confNo)
			return domain.ErrBackendUnavailable
		}
	}
	f.log.add("%s call-end %d", f.name, confNo)
	return f.callErr
}

func (f *fakeAdapter) AddMembership(context.Context, int, int, domain.Membership) error {
	return f.callErr
}

func (f *fakeAdapter) DeleteMembership(context.Context, int, int) error {
	return f.callErr
}

func (f *fakeAdapter) GetMembership(_ context.Context, persNo, confNo int) (domain.MembershipInfo, error) {
	return domain.MembershipInfo{PersNo: persNo, ConfNo: confNo}, f.callErr
}

func (f *fakeAdapter) GetMemberships(context.Context, int) ([]domain.MembershipInfo, error) {
	return nil, f.callErr
}

func (f *fakeAdapter) GetUnreadConferences(context.Context, int) ([]int, error) {
	return nil, f.callErr
}

func (f *fakeAdapter) GetMembershipUnread(_ context.Context, persNo, confNo int) (domain.MembershipUnread, error) {
	return domain.MembershipUnread{PersNo: persNo, ConfNo: confNo}, f.callErr
}

func (f *fakeAdapter) SetUnread(context.Context, int, int) error {
	return f.callErr
}

// fakeFactory hands out fresh adapters named a1, a2, ...
type fakeFactory struct {
	log       *eventLog
	configure func(*fakeAdapter)

	mu       sync.Mutex
	adapters []*fakeAdapter
}

func (f *fakeFactory) New(domain.Server) ProtocolSession {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := &fakeAdapter{
		name:         fmt.Sprintf("a%d", len(f.adapters)+1),
		log:          f.log,
		confName:     "Test Person",
		disconnected: make(chan struct{}),
	}
	if f.configure != nil {
		f.configure(a)
	}
	f.adapters = append(f.adapters, a)
	return a
}

func (f *fakeFactory) adapter(i int) *fakeAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.adapters[i]
}

func (f *fakeFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.adapters)
}

var testServers = []domain.Server{
	{ID: "lyslyskom", Name: "LysKOM", Host: "kom.lysator.liu.se", Port: 4894},
	{ID: "other", Name: "Other", Host: "kom.example", Port: 4894},
}

type fixture struct {
	svc     *SessionService
	reg     *Registry
	factory *fakeFactory
	log     *eventLog
	clock   *clock.Mock
}

func newFixture(t *testing.T, cfg Config, configure func(*fakeAdapter)) *fixture {
	t.Helper()
	dir, err := NewDirectory(testServers)
	if err != nil {
		t.Fatal(err)
	}
	log := &eventLog{}
	mock := clock.NewMock()
	mock.Set(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	reg := NewRegistry(mock)
	factory := &fakeFactory{log: log, configure: configure}
	if cfg.DefaultClient.Name == "" {
		cfg.DefaultClient = domain.Client{Name: "httpkom", Version: "test"}
	}
	svc := NewSessionService(dir, reg, factory.New, cfg,
		WithClock(mock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return &fixture{svc: svc, reg: reg, factory: factory, log: log, clock: mock}
}

func (fx *fixture) login(t *testing.T, serverID string, persNo int, prior string) *LoginResponse {
	t.Helper()
	resp, err := fx.svc.Login(context.Background(), &LoginRequest{
		ServerID:    serverID,
		Credentials: domain.Credentials{PersNo: persNo, Password: "secret"},
		PriorToken:  prior,
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	return resp
}
