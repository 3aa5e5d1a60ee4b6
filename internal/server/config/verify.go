package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"

	"github.com/derfian/httpkom/internal/telemetry/logger"
	"github.com/derfian/httpkom/pkg/token"
)

// Verify validates the configuration and reports every problem found.
func Verify(cfg *ServerConfig) error {
	return multierr.Combine(
		verifyServer(&cfg.Server),
		verifyLysKOM(&cfg.LysKOM),
		verifySession(&cfg.Session),
		verifySecurity(&cfg.Security),
		verifyLog(&cfg.Log),
	)
}

func verifyServer(cfg *ServerSection) error {
	var errs error
	if _, _, err := net.SplitHostPort(cfg.HTTP.Addr); err != nil {
		errs = multierr.Append(errs, fmt.Errorf("server.http.addr: %w", err))
	}
	cert, key := cfg.HTTP.TLSCertFile, cfg.HTTP.TLSKeyFile
	if (cert == "") != (key == "") {
		errs = multierr.Append(errs, errors.New("server.http: tls_cert_file and tls_key_file must be set together"))
	}
	for _, f := range []string{cert, key} {
		if f == "" {
			continue
		}
		if _, err := os.Stat(f); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("server.http: %w", err))
		}
	}
	if sock := cfg.Local.SocketPath; sock != "" {
		if info, err := os.Stat(filepath.Dir(sock)); err != nil || !info.IsDir() {
			errs = multierr.Append(errs, fmt.Errorf("server.local.socket_path: directory of %q does not exist", sock))
		}
	}
	return errs
}

func verifyLysKOM(cfg *LysKOMSection) error {
	var errs error
	if len(cfg.Servers) == 0 {
		errs = multierr.Append(errs, errors.New("lyskom.servers: at least one server is required"))
	}
	seen := make(map[string]bool, len(cfg.Servers))
	for i, s := range cfg.Servers {
		switch {
		case s.ID == "":
			errs = multierr.Append(errs, fmt.Errorf("lyskom.servers[%d]: id is required", i))
		case strings.ContainsAny(s.ID, "/?#% "):
			errs = multierr.Append(errs, fmt.Errorf("lyskom.servers[%d]: id %q is not a valid path segment", i, s.ID))
		case seen[s.ID]:
			errs = multierr.Append(errs, fmt.Errorf("lyskom.servers[%d]: duplicate id %q", i, s.ID))
		}
		seen[s.ID] = true
		if s.Host == "" {
			errs = multierr.Append(errs, fmt.Errorf("lyskom.servers[%d]: host is required", i))
		}
		if s.Port <= 0 || s.Port > 65535 {
			errs = multierr.Append(errs, fmt.Errorf("lyskom.servers[%d]: invalid port %d", i, s.Port))
		}
	}
	if cfg.DialTimeout <= 0 || cfg.CallTimeout <= 0 {
		errs = multierr.Append(errs, errors.New("lyskom: dial_timeout and call_timeout must be positive"))
	}
	return errs
}

func verifySession(cfg *SessionSection) error {
	var errs error
	if cfg.CookieName == "" {
		errs = multierr.Append(errs, errors.New("session.cookie_name is required"))
	}
	if cfg.ConnectionHeader == "" {
		errs = multierr.Append(errs, errors.New("session.connection_header is required"))
	}
	if cfg.LockTimeout <= 0 || cfg.DestroyTimeout <= 0 {
		errs = multierr.Append(errs, errors.New("session: lock_timeout and destroy_timeout must be positive"))
	}
	if cfg.IdleTimeout < 0 || cfg.MaxAge < 0 {
		errs = multierr.Append(errs, errors.New("session: idle_timeout and max_age must not be negative"))
	}
	if (cfg.IdleTimeout > 0 || cfg.MaxAge > 0) && cfg.SweepInterval <= 0 {
		errs = multierr.Append(errs, errors.New("session.sweep_interval must be positive when expiry is enabled"))
	}
	return errs
}

func verifySecurity(cfg *SecuritySection) error {
	var errs error
	if cfg.LoginRateLimit < 0 {
		errs = multierr.Append(errs, errors.New("security.login_rate_limit must not be negative"))
	}
	if cfg.AdminKeyHash != "" && !token.IsSecretHash(cfg.AdminKeyHash) {
		errs = multierr.Append(errs, errors.New("security.admin_key_hash is not an argon2id hash"))
	}
	return errs
}

func verifyLog(cfg *LogSection) error {
	if !logger.ValidLevel(cfg.Level) {
		return fmt.Errorf("log.level: unknown level %q", cfg.Level)
	}
	switch strings.ToLower(cfg.Format) {
	case "json", "text", "console":
		return nil
	}
	return fmt.Errorf("log.format: unknown format %q", cfg.Format)
}
