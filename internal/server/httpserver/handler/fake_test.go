package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/derfian/httpkom/internal/core/domain"
	"github.com/derfian/httpkom/internal/core/service"
)

// stubAdapter is a scripted ProtocolSession.
type stubAdapter struct {
	mu    sync.Mutex
	calls []string

	loginErr  error
	callErr   error
	confs     map[int]domain.Conference
	persons   []domain.ConfZInfo
	gate      chan struct{}
	started   chan struct{}
	lastMship domain.Membership

	// memberships and unread are keyed by conference number; a missing
	// key answers not-member.
	memberships map[int]domain.MembershipInfo
	unread      map[int]domain.MembershipUnread
	unreadConfs []int
}

func (a *stubAdapter) record(format string, args ...any) {
	a.mu.Lock()
	a.calls = append(a.calls, fmt.Sprintf(format, args...))
	a.mu.Unlock()
}

func (a *stubAdapter) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.calls...)
}

func (a *stubAdapter) Connect(context.Context) error {
	a.record("connect")
	return nil
}

func (a *stubAdapter) Login(_ context.Context, persNo int, passwd string, c domain.Client) error {
	a.record("login %d %s %s", persNo, c.Name, c.Version)
	return a.loginErr
}

func (a *stubAdapter) Logout(context.Context) error {
	a.record("logout")
	return nil
}

func (a *stubAdapter) Disconnect() error {
	a.record("disconnect")
	return nil
}

func (a *stubAdapter) LookupPersons(_ context.Context, name string) ([]domain.ConfZInfo, error) {
	a.record("lookup %s", name)
	return a.persons, nil
}

func (a *stubAdapter) GetConference(_ context.Context, confNo int) (domain.Conference, error) {
	a.record("get-conference %d", confNo)
	if a.callErr != nil {
		return domain.Conference{}, a.callErr
	}
	if c, ok := a.confs[confNo]; ok {
		return c, nil
	}
	return domain.Conference{ConfNo: confNo, Name: fmt.Sprintf("Conf %d", confNo)}, nil
}

func (a *stubAdapter) ChangeConference(_ context.Context, confNo int) error {
	a.record("change-conference %d", confNo)
	if a.started != nil {
		a.started <- struct{}{}
	}
	if a.gate != nil {
		<-a.gate
	}
	return a.callErr
}

func (a *stubAdapter) AddMembership(_ context.Context, confNo, persNo int, m domain.Membership) error {
	a.record("add-member %d %d", confNo, persNo)
	a.mu.Lock()
	a.lastMship = m
	a.mu.Unlock()
	return a.callErr
}

func (a *stubAdapter) DeleteMembership(_ context.Context, confNo, persNo int) error {
	a.record("sub-member %d %d", confNo, persNo)
	return a.callErr
}

func (a *stubAdapter) GetMembership(_ context.Context, persNo, confNo int) (domain.MembershipInfo, error) {
	a.record("get-membership %d %d", persNo, confNo)
	if m, ok := a.memberships[confNo]; ok {
		return m, nil
	}
	return domain.MembershipInfo{}, domain.NewProtocolError(domain.CodeNotMember, confNo)
}

func (a *stubAdapter) GetMemberships(_ context.Context, persNo int) ([]domain.MembershipInfo, error) {
	a.record("get-memberships %d", persNo)
	var list []domain.MembershipInfo
	for _, m := range a.memberships {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Position < list[j].Position })
	return list, a.callErr
}

func (a *stubAdapter) GetUnreadConferences(_ context.Context, persNo int) ([]int, error) {
	a.record("get-unread-confs %d", persNo)
	return a.unreadConfs, a.callErr
}

func (a *stubAdapter) GetMembershipUnread(_ context.Context, persNo, confNo int) (domain.MembershipUnread, error) {
	a.record("get-membership-unread %d %d", persNo, confNo)
	if u, ok := a.unread[confNo]; ok {
		return u, nil
	}
	return domain.MembershipUnread{}, domain.NewProtocolError(domain.CodeNotMember, confNo)
}

func (a *stubAdapter) SetUnread(_ context.Context, confNo, noOfUnread int) error {
	a.record("set-unread %d %d", confNo, noOfUnread)
	return a.callErr
}

// fixture wires a Handler over stub adapters.
type fixture struct {
	t       *testing.T
	svc     *service.SessionService
	handler *Handler
	mux     *http.ServeMux

	mu        sync.Mutex
	adapters  []*stubAdapter
	configure func(*stubAdapter)
}

const (
	testCookie = "session_id"
	testHeader = "Httpkom-Connection"
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir, err := service.NewDirectory([]domain.Server{
		{ID: "lyslyskom", Name: "LysKOM", Host: "kom.example", Port: 4894},
		{ID: "other", Name: "Other", Host: "other.example", Port: 4894},
	})
	require.NoError(t, err)

	fx := &fixture{t: t}
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	fx.svc = service.NewSessionService(dir, service.NewRegistry(clock.New()), fx.newAdapter, service.Config{
		LockTimeout:    100 * time.Millisecond,
		DestroyTimeout: time.Second,
		DefaultClient:  domain.Client{Name: "httpkom", Version: "test"},
	}, service.WithLogger(quiet))

	fx.handler = New(fx.svc, Config{
		CookieName:       testCookie,
		CookieMaxAge:     7 * 24 * time.Hour,
		ConnectionHeader: testHeader,
	}, quiet)

	fx.mux = http.NewServeMux()
	for _, rt := range fx.handler.Routes() {
		fx.mux.Handle(rt.Pattern, rt.Handler)
	}
	return fx
}

func (fx *fixture) newAdapter(domain.Server) service.ProtocolSession {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	a := &stubAdapter{}
	if fx.configure != nil {
		fx.configure(a)
	}
	fx.adapters = append(fx.adapters, a)
	return a
}

func (fx *fixture) adapter(i int) *stubAdapter {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	require.Greater(fx.t, len(fx.adapters), i, "adapter %d was never created", i)
	return fx.adapters[i]
}

func (fx *fixture) adapterCount() int {
	fx.mu.Lock()
	defer fx.mu.Unlock()
	return len(fx.adapters)
}

func newRequest(method, path, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func serve(fx *fixture, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	fx.mux.ServeHTTP(rec, req)
	return rec
}

// do sends a request; token, when set, goes in the connection header.
func (fx *fixture) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := newRequest(method, path, body)
	if token != "" {
		req.Header.Set(testHeader, token)
	}
	return serve(fx, req)
}

// login logs in person 14506 on server and returns the token.
func (fx *fixture) login(server string) string {
	fx.t.Helper()
	rec := fx.do(http.MethodPost, "/"+server+"/sessions/", `{"person":{"pers_no":14506},"passwd":"test123"}`, "")
	require.Equal(fx.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp SessionResponse
	require.NoError(fx.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
