package config

import (
	"time"

	"github.com/derfian/httpkom/internal/core/domain"
)

// ServerConfig is the root configuration for httpkom-server.
type ServerConfig struct {
	Server   ServerSection   `koanf:"server"`
	LysKOM   LysKOMSection   `koanf:"lyskom"`
	Session  SessionSection  `koanf:"session"`
	CORS     CORSSection     `koanf:"cors"`
	Security SecuritySection `koanf:"security"`
	Metrics  MetricsSection  `koanf:"metrics"`
	Log      LogSection      `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP  HTTPConfig  `koanf:"http"`
	Local LocalConfig `koanf:"local"`
}

// LocalConfig configures the local management socket. It serves the admin
// and health routes without an admin key; file permissions guard it.
// An empty SocketPath disables it.
type LocalConfig struct {
	SocketPath string `koanf:"socket_path"`
}

// HTTPConfig configures the HTTP server. TLS is enabled when both files
// are set; the pair is reloaded when either file changes.
type HTTPConfig struct {
	Addr              string        `koanf:"addr"`
	TLSCertFile       string        `koanf:"tls_cert_file"`
	TLSKeyFile        string        `koanf:"tls_key_file"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// LysKOMSection configures the backends.
type LysKOMSection struct {
	Servers     []ServerEntry `koanf:"servers"`
	ConnectUser string        `koanf:"connect_user"`
	Charset     string        `koanf:"charset"`
	DialTimeout time.Duration `koanf:"dial_timeout"`
	CallTimeout time.Duration `koanf:"call_timeout"`
}

// ServerEntry is one LysKOM server. ID is the first path segment of every
// request routed to it.
type ServerEntry struct {
	ID   string `koanf:"id"`
	Name string `koanf:"name"`
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// DomainServers converts the configured entries.
func (s *LysKOMSection) DomainServers() []domain.Server {
	out := make([]domain.Server, 0, len(s.Servers))
	for _, e := range s.Servers {
		out = append(out, domain.Server{ID: e.ID, Name: e.Name, Host: e.Host, Port: e.Port})
	}
	return out
}

// SessionSection configures session transport and lifetime.
type SessionSection struct {
	CookieName        string        `koanf:"cookie_name"`
	CookieDomain      string        `koanf:"cookie_domain"`
	CookieMaxAge      time.Duration `koanf:"cookie_max_age"`
	CookieSecure      bool          `koanf:"cookie_secure"`
	ConnectionHeader  string        `koanf:"connection_header"`
	LockTimeout       time.Duration `koanf:"lock_timeout"`
	DestroyTimeout    time.Duration `koanf:"destroy_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	MaxAge            time.Duration `koanf:"max_age"`
	SweepInterval     time.Duration `koanf:"sweep_interval"`
	DefaultClientName string        `koanf:"default_client_name"`
}

// CORSSection configures the cross-origin policy. "*" in AllowedOrigins
// permits every origin.
type CORSSection struct {
	AllowedOrigins []string      `koanf:"allowed_origins"`
	AllowMethods   []string      `koanf:"allow_methods"`
	AllowHeaders   []string      `koanf:"allow_headers"`
	ExposeHeaders  []string      `koanf:"expose_headers"`
	MaxAge         time.Duration `koanf:"max_age"`
}

// SecuritySection configures throttling and the admin API.
type SecuritySection struct {
	// LoginRateLimit is login attempts per second per client IP; 0 disables.
	LoginRateLimit float64 `koanf:"login_rate_limit"`
	LoginBurst     int     `koanf:"login_burst"`
	// AdminKeyHash is an Argon2id hash (see httpkom-cli admin hash-key).
	// Empty disables the admin API.
	AdminKeyHash string `koanf:"admin_key_hash"`
	// TrustProxyHeaders makes X-Forwarded-For and X-Real-IP count as the
	// client address.
	TrustProxyHeaders bool `koanf:"trust_proxy_headers"`
}

// MetricsSection configures the /metrics endpoint.
type MetricsSection struct {
	Enabled bool `koanf:"enabled"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
