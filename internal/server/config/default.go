package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr          = "127.0.0.1:5001"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 30 * time.Second

	DefaultConnectUser = "httpkom"
	DefaultCharset     = "latin1"
	DefaultDialTimeout = 10 * time.Second
	DefaultCallTimeout = 30 * time.Second

	DefaultCookieName       = "session_id"
	DefaultCookieMaxAge     = 7 * 24 * time.Hour
	DefaultConnectionHeader = "Httpkom-Connection"
	DefaultLockTimeout      = 10 * time.Second
	DefaultDestroyTimeout   = 30 * time.Second
	DefaultSweepInterval    = time.Minute
	DefaultClientName       = "httpkom"

	DefaultLoginRateLimit = 5
	DefaultLoginBurst     = 10

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration. The server list holds
// the Lysator LysKOM server.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:              DefaultHTTPAddr,
				ReadHeaderTimeout: DefaultReadHeaderTimeout,
				ShutdownTimeout:   DefaultShutdownTimeout,
			},
		},
		LysKOM: LysKOMSection{
			Servers: []ServerEntry{
				{ID: "lyslyskom", Name: "LysKOM", Host: "kom.lysator.liu.se", Port: 4894},
			},
			ConnectUser: DefaultConnectUser,
			Charset:     DefaultCharset,
			DialTimeout: DefaultDialTimeout,
			CallTimeout: DefaultCallTimeout,
		},
		Session: SessionSection{
			CookieName:        DefaultCookieName,
			CookieMaxAge:      DefaultCookieMaxAge,
			ConnectionHeader:  DefaultConnectionHeader,
			LockTimeout:       DefaultLockTimeout,
			DestroyTimeout:    DefaultDestroyTimeout,
			SweepInterval:     DefaultSweepInterval,
			DefaultClientName: DefaultClientName,
		},
		CORS: CORSSection{
			AllowedOrigins: []string{"*"},
			AllowMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD"},
			AllowHeaders:   []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Cache-Control"},
			ExposeHeaders:  []string{"Cache-Control"},
		},
		Security: SecuritySection{
			LoginRateLimit: DefaultLoginRateLimit,
			LoginBurst:     DefaultLoginBurst,
		},
		Metrics: MetricsSection{
			Enabled: true,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
