package kom

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/derfian/httpkom/internal/core/domain"
)

// fakeServer plays the server end of a net.Pipe. reply receives the
// reference number, call number and raw argument text of every request and
// returns the bytes to write back ("" writes nothing).
type fakeServer struct {
	t     *testing.T
	reply func(ref, call int, args string) string

	mu    sync.Mutex
	lines []string
	done  chan struct{}
}

func newFakeServer(t *testing.T, reply func(ref, call int, args string) string) *fakeServer {
	t.Helper()
	return &fakeServer{t: t, reply: reply, done: make(chan struct{})}
}

func (f *fakeServer) dial(_ context.Context, _, _ string) (net.Conn, error) {
	client, server := net.Pipe()
	go f.serve(server)
	f.t.Cleanup(func() {
		_ = server.Close()
		<-f.done
	})
	return client, nil
}

func (f *fakeServer) serve(conn net.Conn) {
	defer close(f.done)
	br := bufio.NewReader(conn)

	hello, err := br.ReadString('\n')
	if err != nil {
		return
	}
	f.record(strings.TrimSuffix(hello, "\n"))
	if _, err := conn.Write([]byte("LysKOM\n")); err != nil {
		return
	}

	for {
		line, err := br.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSuffix(line, "\n")
		f.record(line)

		parts := strings.SplitN(line, " ", 3)
		ref, _ := strconv.Atoi(parts[0])
		call, _ := strconv.Atoi(parts[1])
		args := ""
		if len(parts) == 3 {
			args = parts[2]
		}
		out := f.reply(ref, call, args)
		if out == "" {
			continue
		}
		if _, err := conn.Write([]byte(out)); err != nil {
			return
		}
	}
}

func (f *fakeServer) record(line string) {
	f.mu.Lock()
	f.lines = append(f.lines, line)
	f.mu.Unlock()
}

func (f *fakeServer) received() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lines...)
}

// ok answers every call with an empty success reply.
func ok(ref, _ int, _ string) string {
	return fmt.Sprintf("=%d\n", ref)
}

func newTestClient(f *fakeServer, timeout time.Duration) *Client {
	return NewClient(
		domain.Server{ID: "test", Host: "kom.example", Port: 4894},
		Config{CallTimeout: timeout, Dial: f.dial},
	)
}
