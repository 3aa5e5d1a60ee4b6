package confloader

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testConfig struct {
	Server struct {
		HTTP struct {
			Addr    string `koanf:"addr"`
			Enabled bool   `koanf:"enabled"`
		} `koanf:"http"`
	} `koanf:"server"`
	Session struct {
		IdleTimeout time.Duration `koanf:"idle_timeout"`
		LockTimeout time.Duration `koanf:"lock_timeout"`
	} `koanf:"session"`
	CORS struct {
		AllowedOrigins []string `koanf:"allowed_origins"`
	} `koanf:"cors"`
	Servers []struct {
		ID   string `koanf:"id"`
		Port int    `koanf:"port"`
	} `koanf:"servers"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestNewLoader(t *testing.T) {
	l := NewLoader()
	if l.envPrefix != DefaultEnvPrefix {
		t.Errorf("envPrefix = %q, want %q", l.envPrefix, DefaultEnvPrefix)
	}

	l = NewLoader(WithEnvPrefix("TEST_"), WithConfigFile("/etc/httpkom.yaml"), WithListKeys("a.b"))
	if l.envPrefix != "TEST_" || l.filePath != "/etc/httpkom.yaml" || !l.listKeys["a.b"] {
		t.Errorf("options not applied: %+v", l)
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"HTTPKOM_SESSION__IDLE_TIMEOUT", "session.idle_timeout"},
		{"HTTPKOM_SERVER__HTTP__TLS_CERT_FILE", "server.http.tls_cert_file"},
		{"HTTPKOM_METRICS__ENABLED", "metrics.enabled"},
	}
	for _, tt := range tests {
		if got := EnvKey("HTTPKOM_", tt.name); got != tt.want {
			t.Errorf("EnvKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    addr: "0.0.0.0:5001"
    enabled: true
`)
	l := NewLoader()
	if err := l.LoadFile(path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if addr := l.GetString("server.http.addr"); addr != "0.0.0.0:5001" {
		t.Errorf("server.http.addr = %q", addr)
	}
	if enabled := l.Get("server.http.enabled"); enabled != true {
		t.Errorf("server.http.enabled = %#v, want true", enabled)
	}
}

func TestLoader_LoadFile_NotFound(t *testing.T) {
	if err := NewLoader().LoadFile("/nonexistent/config.yaml"); err == nil {
		t.Error("LoadFile() should return error for nonexistent file")
	}
}

func TestLoader_LoadFile_Empty(t *testing.T) {
	if err := NewLoader().LoadFile(""); err != nil {
		t.Errorf("LoadFile(\"\") should not error, got: %v", err)
	}
}

func TestLoader_LoadEnv(t *testing.T) {
	t.Setenv("HTTPKOM_SERVER__HTTP__ADDR", "127.0.0.1:8080")
	t.Setenv("HTTPKOM_CORS__ALLOWED_ORIGINS", "https://a.example, https://b.example")

	l := NewLoader(WithListKeys("cors.allowed_origins"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if addr := l.GetString("server.http.addr"); addr != "127.0.0.1:8080" {
		t.Errorf("server.http.addr = %q", addr)
	}
	origins, ok := l.Get("cors.allowed_origins").([]string)
	if !ok || len(origins) != 2 || origins[1] != "https://b.example" {
		t.Errorf("cors.allowed_origins = %#v", l.Get("cors.allowed_origins"))
	}
}

func TestLoader_LoadEnv_CustomPrefix(t *testing.T) {
	t.Setenv("MYAPP_SERVER__PORT", "9090")

	l := NewLoader(WithEnvPrefix("MYAPP_"))
	if err := l.LoadEnv(); err != nil {
		t.Fatalf("LoadEnv() error = %v", err)
	}
	if port := l.GetString("server.port"); port != "9090" {
		t.Errorf("server.port = %q, want %q", port, "9090")
	}
}

func TestLoader_Load_Priority(t *testing.T) {
	path := writeConfig(t, `
server:
  http:
    addr: "from-file:5001"
`)
	t.Setenv("HTTPKOM_SERVER__HTTP__ADDR", "from-env:8080")

	var cfg testConfig
	if err := NewLoader(WithConfigFile(path)).Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.HTTP.Addr != "from-env:8080" {
		t.Errorf("Addr = %q, want env to override file", cfg.Server.HTTP.Addr)
	}
}

func TestLoader_Load_KeepsDefaults(t *testing.T) {
	path := writeConfig(t, `
session:
  idle_timeout: 15m
servers:
  - id: one
    port: 4894
cors:
  allowed_origins: ["https://only.example"]
`)
	t.Setenv("HTTPKOM_SERVER__HTTP__ENABLED", "true")

	var cfg testConfig
	cfg.Session.LockTimeout = 10 * time.Second
	cfg.CORS.AllowedOrigins = []string{"a", "b", "c"}
	cfg.Servers = append(cfg.Servers, struct {
		ID   string `koanf:"id"`
		Port int    `koanf:"port"`
	}{"default", 1}, struct {
		ID   string `koanf:"id"`
		Port int    `koanf:"port"`
	}{"extra", 2})

	l := NewLoader(WithConfigFile(path))
	if err := l.Load(&cfg); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Session.IdleTimeout != 15*time.Minute {
		t.Errorf("IdleTimeout = %v", cfg.Session.IdleTimeout)
	}
	if cfg.Session.LockTimeout != 10*time.Second {
		t.Errorf("LockTimeout = %v, want default kept", cfg.Session.LockTimeout)
	}
	if !cfg.Server.HTTP.Enabled {
		t.Error("Enabled from env should be parsed as bool")
	}
	if len(cfg.CORS.AllowedOrigins) != 1 {
		t.Errorf("AllowedOrigins = %v, want list replaced", cfg.CORS.AllowedOrigins)
	}
	if len(cfg.Servers) != 1 || cfg.Servers[0].ID != "one" {
		t.Errorf("Servers = %+v, want list replaced", cfg.Servers)
	}
}
