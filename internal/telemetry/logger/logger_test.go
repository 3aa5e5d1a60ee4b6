package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", buf.String(), err)
	}
	return m
}

func TestNew_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "warn", Format: "json", Output: &buf})

	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info logged at warn level: %s", buf.String())
	}

	l.Warn("kept", "server_id", "lyslyskom")
	m := decodeLine(t, &buf)
	if m["msg"] != "kept" || m["server_id"] != "lyslyskom" {
		t.Errorf("unexpected record %v", m)
	}
	if GetLevel() != "warn" {
		t.Errorf("GetLevel() = %q, want warn", GetLevel())
	}

	SetLevel("debug")
	if GetLevel() != "debug" {
		t.Errorf("GetLevel() after SetLevel = %q", GetLevel())
	}
	SetLevel("info")
}

func TestNew_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	New(Config{Level: "info", Format: "text", Output: &buf}).Info("hello", "k", "v")
	if !strings.Contains(buf.String(), "msg=hello") || !strings.Contains(buf.String(), "k=v") {
		t.Errorf("text output = %q", buf.String())
	}
}

func TestRedaction(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Output: &buf})

	tok := "hkst_" + strings.Repeat("a", 20) + "xyz"
	l.Info("login",
		"passwd", "hunter2",
		"token", tok,
		"Cookie", "session_id=abc",
		"pers_no", 5,
		"empty_secret", "",
	)
	m := decodeLine(t, &buf)

	if m["passwd"] != redactedValue {
		t.Errorf("passwd = %v", m["passwd"])
	}
	if m["token"] != "hkst_aaa...xyz" {
		t.Errorf("token = %v", m["token"])
	}
	if m["Cookie"] != redactedValue {
		t.Errorf("Cookie = %v", m["Cookie"])
	}
	if m["pers_no"] != float64(5) {
		t.Errorf("pers_no = %v", m["pers_no"])
	}
	if m["empty_secret"] != "" {
		t.Errorf("empty_secret = %v", m["empty_secret"])
	}
	if strings.Contains(buf.String(), "hunter2") {
		t.Error("password leaked into log output")
	}
}

func TestRedaction_Group(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: "info", Output: &buf})
	l.Info("req", slog.Group("body", slog.String("passwd", "x1"), slog.String("name", "Adam")))

	m := decodeLine(t, &buf)
	body := m["body"].(map[string]any)
	if body["passwd"] != redactedValue || body["name"] != "Adam" {
		t.Errorf("group = %v", body)
	}
}

func TestRedactString(t *testing.T) {
	tests := []struct{ in, want string }{
		{"hkst_abcdefghij", "hkst_abc...hij"},
		{"hkst_abc", "hkst_***"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		if got := RedactString(tt.in); got != tt.want {
			t.Errorf("RedactString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidLevel(t *testing.T) {
	for _, l := range []string{"debug", "INFO", "warning", "error"} {
		if !ValidLevel(l) {
			t.Errorf("ValidLevel(%q) = false", l)
		}
	}
	if ValidLevel("verbose") {
		t.Error("ValidLevel(verbose) = true")
	}
}

func TestContext(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != slog.Default() {
		t.Error("FromContext without logger should return slog.Default()")
	}
	if RequestIDFromContext(ctx) != "" {
		t.Error("RequestIDFromContext on empty context should be empty")
	}

	var buf bytes.Buffer
	l := New(Config{Level: "info", Output: &buf})
	ctx = WithRequestID(WithLogger(ctx, l), "req-123")

	if RequestIDFromContext(ctx) != "req-123" {
		t.Errorf("RequestIDFromContext = %q", RequestIDFromContext(ctx))
	}
	L(ctx).Info("handled")
	m := decodeLine(t, &buf)
	if m["request_id"] != "req-123" {
		t.Errorf("request_id = %v", m["request_id"])
	}
}

func TestRedactPath(t *testing.T) {
	tok := "hkst_" + strings.Repeat("a", 43)
	got := RedactPath("/lyslyskom/sessions/" + tok)
	if strings.Contains(got, tok) {
		t.Errorf("RedactPath left the token: %q", got)
	}
	if !strings.HasPrefix(got, "/lyslyskom/sessions/hkst_aaa...") {
		t.Errorf("RedactPath = %q", got)
	}
	if p := "/lyslyskom/sessions/current"; RedactPath(p) != p {
		t.Errorf("RedactPath changed %q", p)
	}
}
