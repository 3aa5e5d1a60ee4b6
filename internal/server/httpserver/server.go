package httpserver

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Config configures the listener.
type Config struct {
	Addr              string
	ReadHeaderTimeout time.Duration
	// TLSConfig enables HTTPS when non-nil.
	TLSConfig *tls.Config
}

// Server represents the HTTP server.
type Server struct {
	httpServer *http.Server
	tlsConfig  *tls.Config
	logger     *slog.Logger
}

// New creates a new HTTP server.
func New(cfg Config, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           handler,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
		},
		tlsConfig: cfg.TLSConfig,
		logger:    logger,
	}
}

// ListenAndServe listens on the configured address and serves until
// Shutdown. It returns nil after a graceful shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve serves on ln, wrapping it in TLS when configured.
func (s *Server) Serve(ln net.Listener) error {
	scheme := "http"
	if s.tlsConfig != nil {
		ln = tls.NewListener(ln, s.tlsConfig)
		scheme = "https"
	}
	s.logger.Info("http server listening", "addr", ln.Addr().String(), "scheme", scheme)

	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
