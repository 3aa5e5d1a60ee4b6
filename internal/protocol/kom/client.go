package kom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/text/encoding"

	"github.com/derfian/httpkom/internal/core/domain"
)

// Default timeouts.
const (
	DefaultDialTimeout = 10 * time.Second
	DefaultCallTimeout = 30 * time.Second
	DefaultConnectUser = "httpkom"
)

// Config controls how a Client talks to its server.
type Config struct {
	// ConnectUser is sent in the connection handshake.
	ConnectUser string
	DialTimeout time.Duration
	CallTimeout time.Duration
	// Charset names the string encoding: "latin1" (default) or "utf-8".
	Charset string
	Logger  *slog.Logger
	// Dial overrides net.Dialer; tests use it to inject a net.Pipe.
	Dial func(ctx context.Context, network, addr string) (net.Conn, error)
}

func (c *Config) withDefaults() {
	if c.ConnectUser == "" {
		c.ConnectUser = DefaultConnectUser
	}
	if c.DialTimeout <= 0 {
		c.DialTimeout = DefaultDialTimeout
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = DefaultCallTimeout
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Client is a single Protocol A connection. Calls are not safe for
// concurrent use; callers serialize access. Disconnect alone may be called
// at any time, and makes a call in progress fail.
type Client struct {
	server domain.Server
	cfg    Config
	enc    encoding.Encoding

	conn      net.Conn
	r         *reader
	nextID    int
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewClient returns an unconnected client for server.
func NewClient(server domain.Server, cfg Config) *Client {
	cfg.withDefaults()
	return &Client{
		server: server,
		cfg:    cfg,
		enc:    Charset(cfg.Charset),
		nextID: 1,
	}
}

// Connect dials the server and performs the handshake.
func (c *Client) Connect(ctx context.Context) error {
	if c.closed.Load() {
		return domain.ErrBackendUnavailable.WithDetails("connection closed")
	}
	if c.conn != nil {
		return nil
	}

	dial := c.cfg.Dial
	if dial == nil {
		d := &net.Dialer{Timeout: c.cfg.DialTimeout}
		dial = d.DialContext
	}
	dctx, cancel := context.WithTimeout(ctx, c.cfg.DialTimeout)
	defer cancel()

	conn, err := dial(dctx, "tcp", c.server.Addr())
	if err != nil {
		return domain.ErrBackendUnavailable.WithDetails(c.server.ID).WithCause(err)
	}
	c.conn = conn
	c.r = newReader(conn, c.enc)

	if err := c.handshake(ctx); err != nil {
		c.fail()
		return err
	}

	c.cfg.Logger.Debug("lyskom connection established",
		"server_id", c.server.ID,
		"addr", c.server.Addr(),
	)

	// Opt out of asynchronous messages; any that still arrive are skipped.
	return c.call(ctx, callAcceptAsync, func(r *request) { r.emptyArray() }, nil)
}

func (c *Client) handshake(ctx context.Context) error {
	stop := c.deadline(ctx)
	defer stop()

	user, err := c.enc.NewEncoder().Bytes([]byte(c.cfg.ConnectUser))
	if err != nil {
		return fmt.Errorf("kom: encode connect user: %w", err)
	}
	if _, err := c.conn.Write([]byte("A" + hollerith(user) + "\n")); err != nil {
		return c.transportError(err)
	}
	banner, err := c.r.word()
	if err != nil {
		return c.transportError(err)
	}
	if banner != "LysKOM" {
		return c.transportError(fmt.Errorf("%w: unexpected handshake %q", errMalformed, banner))
	}
	if err := c.r.endLine(); err != nil {
		return c.transportError(err)
	}
	return nil
}

// Disconnect closes the connection. It is safe to call more than once.
func (c *Client) Disconnect() error {
	c.fail()
	return c.closeErr
}

// Connected reports whether the client has a usable connection.
func (c *Client) Connected() bool {
	return c.conn != nil && !c.closed.Load()
}

func (c *Client) ref() int {
	id := c.nextID
	c.nextID++
	return id
}

// deadline applies the call timeout, tightened by ctx, to the connection
// and arranges for ctx cancellation to interrupt blocked IO.
func (c *Client) deadline(ctx context.Context) (stop func()) {
	d := time.Now().Add(c.cfg.CallTimeout)
	if cd, ok := ctx.Deadline(); ok && cd.Before(d) {
		d = cd
	}
	_ = c.conn.SetDeadline(d)
	unregister := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	return func() { unregister() }
}

// call sends one request and reads replies until the matching one. args,
// if not nil, appends the call arguments; parse, if not nil, reads the
// result values of a successful reply.
func (c *Client) call(ctx context.Context, callNo int, args func(*request), parse func(*reader) error) error {
	if !c.Connected() {
		return domain.ErrBackendUnavailable.WithDetails("not connected")
	}
	ref := c.ref()
	req := newRequest(c.enc, ref, callNo)
	if args != nil {
		args(req)
	}
	line, err := req.bytes()
	if err != nil {
		return domain.ErrBadRequest.WithDetails(err.Error())
	}

	stop := c.deadline(ctx)
	defer stop()

	if _, err := c.conn.Write(line); err != nil {
		return c.transportError(err)
	}

	for {
		head, err := c.r.word()
		if err != nil {
			return c.transportError(err)
		}

		switch {
		case strings.HasPrefix(head, "%%"):
			_ = c.r.endLine()
			return c.transportError(fmt.Errorf("%w: server reported protocol error", errMalformed))

		case strings.HasPrefix(head, ":"):
			c.cfg.Logger.Debug("skipping async message", "server_id", c.server.ID, "head", head)
			if err := c.r.endLine(); err != nil {
				return c.transportError(err)
			}

		case strings.HasPrefix(head, "="):
			if err := c.expectRef(head[1:], ref); err != nil {
				return err
			}
			if parse != nil {
				if err := parse(c.r); err != nil {
					return c.transportError(err)
				}
			}
			if err := c.r.endLine(); err != nil {
				return c.transportError(err)
			}
			return nil

		case strings.HasPrefix(head, "%"):
			if err := c.expectRef(head[1:], ref); err != nil {
				return err
			}
			code, err := c.r.int()
			if err != nil {
				return c.transportError(err)
			}
			status, err := c.r.int()
			if err != nil {
				return c.transportError(err)
			}
			if err := c.r.endLine(); err != nil {
				return c.transportError(err)
			}
			return domain.NewProtocolError(code, status)

		default:
			return c.transportError(fmt.Errorf("%w: unexpected reply %q", errMalformed, head))
		}
	}
}

func (c *Client) expectRef(s string, want int) error {
	got, err := strconv.Atoi(s)
	if err != nil || got != want {
		return c.transportError(fmt.Errorf("%w: reply ref %q, want %d", errMalformed, s, want))
	}
	return nil
}

// transportError closes the connection: after a failed read or write the
// reply stream can no longer be trusted.
func (c *Client) transportError(err error) error {
	c.fail()
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return domain.ErrBackendUnavailable.WithDetails("call timed out").WithCause(err)
	}
	return domain.ErrBackendUnavailable.WithDetails(c.server.ID).WithCause(err)
}

func (c *Client) fail() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.conn != nil {
			c.closeErr = c.conn.Close()
		}
	})
}
