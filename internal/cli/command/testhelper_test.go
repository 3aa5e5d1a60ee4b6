package command

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/derfian/httpkom/internal/cli/output"
)

const testToken = "hkst_AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// mockGateway is a scripted httpkom server.
type mockGateway struct {
	*httptest.Server
	mux *http.ServeMux

	mu       sync.Mutex
	requests []string
	bodies   map[string]string
}

func newMockGateway(t *testing.T) *mockGateway {
	t.Helper()
	m := &mockGateway{mux: http.NewServeMux(), bodies: make(map[string]string)}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body bytes.Buffer
		body.ReadFrom(r.Body)
		line := r.Method + " " + r.URL.Path
		m.mu.Lock()
		m.requests = append(m.requests, line)
		m.bodies[line] = body.String()
		m.mu.Unlock()
		r.Body = http.NoBody
		m.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockGateway) handle(pattern string, h http.HandlerFunc) {
	m.mux.HandleFunc(pattern, h)
}

func (m *mockGateway) body(line string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bodies[line]
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResponse(w http.ResponseWriter, status int, errorType, msg string) {
	jsonResponse(w, status, map[string]string{"error_type": errorType, "error_msg": msg})
}

// cliRun runs the app against gw with a private config file.
type cliRun struct {
	t       *testing.T
	gw      *mockGateway
	cfgPath string
}

func newCLIRun(t *testing.T, gw *mockGateway) *cliRun {
	output.DisableColor()
	return &cliRun{t: t, gw: gw, cfgPath: filepath.Join(t.TempDir(), "cli.yaml")}
}

// run executes args and returns stdout, stderr and the error.
func (r *cliRun) run(stdin string, args ...string) (string, string, error) {
	r.t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(*cli.Context, error) {}

	full := []string{"httpkom-cli", "--config", r.cfgPath}
	if r.gw != nil {
		full = append(full, "--url", r.gw.URL, "--server-id", "lyslyskom")
	}
	full = append(full, args...)
	err := app.Run(full)
	return stdout.String(), stderr.String(), err
}
