package command

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/derfian/httpkom/internal/cli/config"
	"github.com/derfian/httpkom/internal/cli/connection"
	"github.com/derfian/httpkom/internal/cli/output"
	"github.com/derfian/httpkom/internal/infra/buildinfo"
)

const requestTimeout = 60 * time.Second

// ServersCommand lists the LysKOM servers behind the gateway.
func ServersCommand() *cli.Command {
	return &cli.Command{
		Name:   "servers",
		Usage:  "List the LysKOM servers the gateway serves",
		Action: serversList,
	}
}

func serversList(c *cli.Context) error {
	e, client, err := setup(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/")
	if err != nil {
		return err
	}
	var servers map[string]serverInfo
	if err := connection.ParseResponse(resp, &servers); err != nil {
		return err
	}

	rows := make([]serverInfo, 0, len(servers))
	for _, s := range servers {
		rows = append(rows, s)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return e.render(rows)
}

// LoginCommand logs in and saves the session token in the profile.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Log in to a LysKOM server through the gateway",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "pers-no",
				Aliases: []string{"p"},
				Usage:   "person number",
			},
			&cli.StringFlag{
				Name:    "name",
				Aliases: []string{"n"},
				Usage:   "person name (must match exactly one person)",
			},
			&cli.StringFlag{
				Name:    "password",
				Usage:   "password",
				EnvVars: []string{"HTTPKOM_PASSWORD"},
			},
			&cli.BoolFlag{
				Name:  "password-stdin",
				Usage: "read the password from the first line of stdin",
			},
			&cli.StringFlag{
				Name:  "client-name",
				Usage: "client name reported to the LysKOM server",
				Value: "httpkom-cli",
			},
		},
		Action: login,
	}
}

type loginPerson struct {
	PersNo   *int    `json:"pers_no,omitempty"`
	PersName *string `json:"pers_name,omitempty"`
}

type loginRequest struct {
	Person loginPerson `json:"person"`
	Passwd string      `json:"passwd"`
	Client clientInfo  `json:"client"`
}

func login(c *cli.Context) error {
	e, client, err := setup(c)
	if err != nil {
		return err
	}
	serverID, err := e.serverID()
	if err != nil {
		return err
	}

	req := loginRequest{Client: clientInfo{Name: c.String("client-name"), Version: buildinfo.Version}}
	switch {
	case c.IsSet("pers-no"):
		n := c.Int("pers-no")
		req.Person.PersNo = &n
	case c.String("name") != "":
		name := c.String("name")
		req.Person.PersName = &name
	default:
		return fmt.Errorf("one of --pers-no or --name is required")
	}

	req.Passwd = c.String("password")
	if c.Bool("password-stdin") {
		line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read password: %w", err)
		}
		req.Passwd = strings.TrimRight(line, "\r\n")
	}

	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, "/"+url.PathEscape(serverID)+"/sessions/", req)
	if err != nil {
		return err
	}
	var sess sessionInfo
	if err := connection.ParseResponse(resp, &sess); err != nil {
		return err
	}

	if err := e.save(func(cc *config.ConnectionConfig) {
		if cc.URL == "" {
			cc.URL = e.conn.URL
		}
		if cc.ServerID == "" {
			cc.ServerID = serverID
		}
		cc.Token = sess.ID
		cc.PersNo = sess.Person.PersNo
		cc.PersName = sess.Person.PersName
	}); err != nil {
		return fmt.Errorf("save session: %w", err)
	}

	if e.textOutput() {
		output.Success(e.out, "logged in as %s (%d) on %s", sess.Person.PersName, sess.Person.PersNo, serverID)
		return nil
	}
	return e.render(sess)
}

// WhoamiCommand shows the current session.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:   "whoami",
		Usage:  "Show the current session",
		Action: whoami,
	}
}

func whoami(c *cli.Context) error {
	e, client, err := setup(c)
	if err != nil {
		return err
	}
	serverID, err := e.serverID()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/"+url.PathEscape(serverID)+"/sessions/current")
	if err != nil {
		return err
	}
	var sess sessionInfo
	if err := connection.ParseResponse(resp, &sess); err != nil {
		return err
	}
	return e.render(sess)
}

// LogoutCommand ends the current session and forgets its token.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Log out and forget the saved session",
		Action: logout,
	}
}

func logout(c *cli.Context) error {
	e, client, err := setup(c)
	if err != nil {
		return err
	}
	serverID, err := e.serverID()
	if err != nil {
		return err
	}
	if e.conn.Token == "" {
		return fmt.Errorf("not logged in")
	}
	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	resp, err := client.Delete(ctx, "/"+url.PathEscape(serverID)+"/sessions/current")
	if err != nil {
		return err
	}
	callErr := connection.ParseResponse(resp, nil)

	// The token is useless after logout and after a 404 alike.
	if err := e.save(func(cc *config.ConnectionConfig) {
		cc.Token, cc.PersNo, cc.PersName = "", 0, ""
	}); err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	if callErr != nil {
		if apiErr, ok := callErr.(*connection.APIError); ok && apiErr.StatusCode == 404 {
			output.Warn(e.errOut, "session had already ended")
			return nil
		}
		return callErr
	}
	output.Success(e.out, "logged out")
	return nil
}

// WorkingConferenceCommand changes the session's working conference.
func WorkingConferenceCommand() *cli.Command {
	return &cli.Command{
		Name:      "working-conference",
		Aliases:   []string{"cd"},
		Usage:     "Change the working conference",
		ArgsUsage: "CONF_NO",
		Action:    workingConference,
	}
}

func workingConference(c *cli.Context) error {
	e, client, err := setup(c)
	if err != nil {
		return err
	}
	serverID, err := e.serverID()
	if err != nil {
		return err
	}
	confNo, err := intArg(c, 0, "CONF_NO")
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	resp, err := client.Post(ctx, "/"+url.PathEscape(serverID)+"/sessions/current/working-conference",
		map[string]int{"conf_no": confNo})
	if err != nil {
		return err
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}
	output.Success(e.out, "working conference is now %d", confNo)
	return nil
}

// setup returns the env and a gateway client.
func setup(c *cli.Context) (*env, *connection.HTTPClient, error) {
	e, err := getEnv(c)
	if err != nil {
		return nil, nil, err
	}
	client, err := e.client()
	if err != nil {
		return nil, nil, err
	}
	return e, client, nil
}

func intArg(c *cli.Context, i int, name string) (int, error) {
	raw := c.Args().Get(i)
	if raw == "" {
		return 0, fmt.Errorf("%s required", name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return n, nil
}
