package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/derfian/httpkom/internal/core/domain"
	"github.com/derfian/httpkom/internal/core/service"
	"github.com/derfian/httpkom/internal/infra/buildinfo"
	"github.com/derfian/httpkom/internal/infra/shutdown"
	"github.com/derfian/httpkom/internal/infra/tlsroots"
	"github.com/derfian/httpkom/internal/protocol/kom"
	"github.com/derfian/httpkom/internal/server/config"
	"github.com/derfian/httpkom/internal/server/httpserver"
	"github.com/derfian/httpkom/internal/server/httpserver/handler"
	"github.com/derfian/httpkom/internal/server/localserver"
	"github.com/derfian/httpkom/internal/telemetry/logger"
	"github.com/derfian/httpkom/internal/telemetry/metric"
)

// limiterIdle is how long an address may stay quiet before its login
// limiter is dropped.
const limiterIdle = 10 * time.Minute

func main() {
	app := &cli.App{
		Name:    "httpkom-server",
		Usage:   "HTTP/JSON gateway for LysKOM servers",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
				EnvVars: []string{"HTTPKOM_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "check-config",
				Usage: "validate the configuration and exit",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	if c.Bool("check-config") {
		fmt.Fprintln(c.App.Writer, "configuration ok")
		return nil
	}

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	logger.SetDefault(log)

	log.Info("starting httpkom-server",
		"version", buildinfo.Version,
		"commit", buildinfo.Commit,
		"config", c.String("config"),
	)
	log.Debug("effective configuration", "config", config.Sanitize(cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metrics
	var metrics *metric.Registry
	if cfg.Metrics.Enabled {
		metrics = metric.NewRegistry()
	}

	// Sessions
	dir, err := service.NewDirectory(cfg.LysKOM.DomainServers())
	if err != nil {
		return fmt.Errorf("lyskom servers: %w", err)
	}
	clk := clock.New()
	reg := service.NewRegistry(clk)
	if metrics != nil {
		if err := metrics.Register(metric.NewCollector(reg)); err != nil {
			return fmt.Errorf("register session collector: %w", err)
		}
	}

	komCfg := kom.Config{
		ConnectUser: cfg.LysKOM.ConnectUser,
		DialTimeout: cfg.LysKOM.DialTimeout,
		CallTimeout: cfg.LysKOM.CallTimeout,
		Charset:     cfg.LysKOM.Charset,
		Logger:      log.With("component", "kom"),
	}
	factory := func(server domain.Server) service.ProtocolSession {
		return kom.NewClient(server, komCfg)
	}

	svc := service.NewSessionService(dir, reg, factory, service.Config{
		LockTimeout:    cfg.Session.LockTimeout,
		DestroyTimeout: cfg.Session.DestroyTimeout,
		IdleTimeout:    cfg.Session.IdleTimeout,
		MaxAge:         cfg.Session.MaxAge,
		SweepInterval:  cfg.Session.SweepInterval,
		DefaultClient:  domain.Client{Name: cfg.Session.DefaultClientName, Version: buildinfo.Version},
	},
		service.WithLogger(log.With("component", "session")),
		service.WithClock(clk),
		service.WithMetrics(metrics),
	)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	sweepDone := make(chan struct{})
	go func() {
		defer close(sweepDone)
		svc.Run(sweepCtx)
	}()

	limiter := service.NewRateLimiterRegistry(cfg.Security.LoginRateLimit, cfg.Security.LoginBurst, clk)
	go pruneLimiters(ctx, limiter, clk)

	// HTTP
	h := handler.New(svc, handler.Config{
		CookieName:       cfg.Session.CookieName,
		CookieDomain:     cfg.Session.CookieDomain,
		CookieMaxAge:     cfg.Session.CookieMaxAge,
		CookieSecure:     cfg.Session.CookieSecure,
		ConnectionHeader: cfg.Session.ConnectionHeader,
	}, log.With("component", "handler"))

	admin := service.NewAdminAuthenticator(cfg.Security.AdminKeyHash)
	if !admin.Enabled() {
		log.Info("admin api disabled, no admin key hash configured")
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler:      h,
		Admin:        admin,
		LoginLimiter: limiter,
		Metrics:      metrics,
		CORS: httpserver.CORSConfig{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowMethods:     cfg.CORS.AllowMethods,
			AllowHeaders:     cfg.CORS.AllowHeaders,
			ExposeHeaders:    cfg.CORS.ExposeHeaders,
			MaxAge:           cfg.CORS.MaxAge,
			ConnectionHeader: cfg.Session.ConnectionHeader,
		},
		TrustProxyHeaders: cfg.Security.TrustProxyHeaders,
		Logger:            log,
	})

	tlsConfig, err := initTLS(ctx, cfg, log)
	if err != nil {
		return err
	}
	srv := httpserver.New(httpserver.Config{
		Addr:              cfg.Server.HTTP.Addr,
		ReadHeaderTimeout: cfg.Server.HTTP.ReadHeaderTimeout,
		TLSConfig:         tlsConfig,
	}, router, log.With("component", "http"))

	var local *localserver.Server
	if path := cfg.Server.Local.SocketPath; path != "" {
		local = localserver.New(path, httpserver.NewLocalRouter(h, log), log.With("component", "local"))
		if err := local.Listen(); err != nil {
			return fmt.Errorf("local management socket: %w", err)
		}
	}

	// Shutdown hooks run in reverse: stop accepting, stop sweeping, then
	// tear down every session.
	sh := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, shutdown.WithLogger(log))
	sh.OnShutdown("sessions", func(ctx context.Context) error {
		return svc.Shutdown(ctx)
	})
	sh.OnShutdown("sweeper", func(ctx context.Context) error {
		stopSweep()
		select {
		case <-sweepDone:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if local != nil {
		sh.OnShutdown("local", local.Shutdown)
	}
	sh.OnShutdown("http", func(ctx context.Context) error {
		h.SetReady(false)
		return srv.Shutdown(ctx)
	})

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	waitCtx, stopWait := context.WithCancel(ctx)
	defer stopWait()
	go func() {
		// A listener failure starts the same shutdown as a signal.
		if err := <-serveErr; err != nil {
			log.Error("http server failed", "error", err)
			serveErr <- err
			stopWait()
		}
	}()
	if local != nil {
		go func() {
			if err := local.Serve(); err != nil {
				log.Error("local management socket failed", "error", err)
				stopWait()
			}
		}()
	}

	err = sh.Wait(waitCtx)
	select {
	case serr := <-serveErr:
		err = multierr.Append(serr, err)
	default:
	}
	if err != nil {
		log.Error("shutdown finished with errors", "error", err)
		return err
	}
	log.Info("server stopped gracefully")
	return nil
}

func loadConfig(path string) (*config.ServerConfig, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// initTLS returns nil when TLS is not configured. The certificate pair is
// reloaded whenever it changes on disk.
func initTLS(ctx context.Context, cfg *config.ServerConfig, log *slog.Logger) (*tls.Config, error) {
	if cfg.Server.HTTP.TLSCertFile == "" {
		return nil, nil
	}
	w, err := tlsroots.NewWatcher(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile,
		tlsroots.WithLogger(log.With("component", "tls")))
	if err != nil {
		return nil, fmt.Errorf("tls: %w", err)
	}
	go func() {
		if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Warn("tls certificate watcher stopped", "error", err)
		}
	}()
	return w.ServerConfig(), nil
}

func pruneLimiters(ctx context.Context, limiter *service.RateLimiterRegistry, clk clock.Clock) {
	ticker := clk.Ticker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune(limiterIdle)
		}
	}
}
