package command

import (
	"errors"
	"fmt"
	"io"

	"github.com/urfave/cli/v2"

	"github.com/derfian/httpkom/internal/cli/config"
	"github.com/derfian/httpkom/internal/cli/connection"
	"github.com/derfian/httpkom/internal/cli/output"
	"github.com/derfian/httpkom/internal/infra/buildinfo"
)

const metaEnv = "env"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:     "httpkom-cli",
		Usage:    "command-line client for the httpkom gateway",
		Version:  buildinfo.String(),
		Flags:    globalFlags(),
		Metadata: map[string]any{},
		Commands: []*cli.Command{
			ConnectionCommand(),
			ServersCommand(),
			LoginCommand(),
			WhoamiCommand(),
			LogoutCommand(),
			WorkingConferenceCommand(),
			ConferenceCommand(),
			MembershipCommand(),
			AdminCommand(),
		},
		Before: func(c *cli.Context) error {
			if c.Bool("no-color") {
				output.DisableColor()
			}
			e, err := newEnv(c)
			if err != nil {
				return err
			}
			c.App.Metadata[metaEnv] = e
			return nil
		},
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "CLI state file",
			EnvVars: []string{"HTTPKOM_CLI_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "connection",
			Aliases: []string{"C"},
			Usage:   "saved connection profile to use",
			EnvVars: []string{"HTTPKOM_CONNECTION"},
		},
		&cli.StringFlag{
			Name:    "url",
			Aliases: []string{"u"},
			Usage:   "gateway URL, e.g. http://localhost:5001",
			EnvVars: []string{"HTTPKOM_URL"},
		},
		&cli.StringFlag{
			Name:    "server-id",
			Aliases: []string{"s"},
			Usage:   "LysKOM server id as listed by 'servers'",
			EnvVars: []string{"HTTPKOM_SERVER_ID"},
		},
		&cli.StringFlag{
			Name:    "token",
			Usage:   "session token (overrides the saved one)",
			EnvVars: []string{"HTTPKOM_TOKEN"},
		},
		&cli.StringFlag{
			Name:    "admin-key",
			Usage:   "admin key for the admin commands",
			EnvVars: []string{"HTTPKOM_ADMIN_KEY"},
		},
		&cli.StringFlag{
			Name:  "ca-file",
			Usage: "PEM bundle trusted in addition to the system roots",
		},
		&cli.BoolFlag{
			Name:  "insecure",
			Usage: "skip TLS certificate verification",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "show all columns",
		},
		&cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored output",
		},
	}
}

// env is the state one invocation works with: the loaded file, the
// selected profile with flag overrides applied, and the output settings.
type env struct {
	cfg      *config.CLIConfig
	cfgPath  string
	profile  string
	conn     config.ConnectionConfig
	adminKey string

	out       io.Writer
	errOut    io.Writer
	formatter output.Formatter
}

func newEnv(c *cli.Context) (*env, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	profile := c.String("connection")
	if profile == "" {
		profile = cfg.CurrentConnection
	}
	conn := cfg.Connections[profile]
	if v := c.String("url"); v != "" {
		conn.URL = v
	}
	if v := c.String("server-id"); v != "" {
		conn.ServerID = v
	}
	if v := c.String("token"); v != "" {
		conn.Token = v
	}
	if v := c.String("ca-file"); v != "" {
		conn.CAFile = v
	}
	if c.Bool("insecure") {
		conn.Insecure = true
	}

	outFlag := c.String("output")
	if outFlag == "" {
		outFlag = cfg.DefaultOutput
	}
	format, err := output.ParseFormat(outFlag)
	if err != nil {
		return nil, err
	}

	return &env{
		cfg:       cfg,
		cfgPath:   path,
		profile:   profile,
		conn:      conn,
		adminKey:  c.String("admin-key"),
		out:       c.App.Writer,
		errOut:    c.App.ErrWriter,
		formatter: output.NewFormatter(format, c.Bool("wide")),
	}, nil
}

func getEnv(c *cli.Context) (*env, error) {
	if e, ok := c.App.Metadata[metaEnv].(*env); ok {
		return e, nil
	}
	return nil, errors.New("cli environment not initialized")
}

// client returns a gateway client for the selected profile.
func (e *env) client() (*connection.HTTPClient, error) {
	if e.conn.URL == "" {
		return nil, fmt.Errorf("no gateway URL for connection %q; use --url or 'connection add'", e.profile)
	}
	return connection.NewHTTPClient(connection.Options{
		BaseURL:  e.conn.URL,
		Token:    e.conn.Token,
		AdminKey: e.adminKey,
		CAFile:   e.conn.CAFile,
		Insecure: e.conn.Insecure,
	})
}

// serverID returns the selected LysKOM server id.
func (e *env) serverID() (string, error) {
	if e.conn.ServerID == "" {
		return "", errors.New("no server id; use --server-id")
	}
	return e.conn.ServerID, nil
}

func (e *env) render(data any) error {
	return e.formatter.Format(e.out, data)
}

// save stores fn's changes to the selected profile.
func (e *env) save(fn func(*config.ConnectionConfig)) error {
	e.cfg.Update(e.profile, fn)
	return config.Save(e.cfg, e.cfgPath)
}

// textOutput reports whether human-oriented messages should be printed.
func (e *env) textOutput() bool {
	_, ok := e.formatter.(*output.TableFormatter)
	return ok
}
