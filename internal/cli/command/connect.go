package command

import (
	"fmt"
	"sort"

	"github.com/urfave/cli/v2"

	"github.com/derfian/httpkom/internal/cli/config"
	"github.com/derfian/httpkom/internal/cli/output"
)

// ConnectionCommand returns the connection subcommand group.
func ConnectionCommand() *cli.Command {
	return &cli.Command{
		Name:    "connection",
		Aliases: []string{"conn"},
		Usage:   "Manage saved gateway connections",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Save a connection and make it current",
				ArgsUsage: "NAME",
				Action:    connectionAdd,
			},
			{
				Name:      "use",
				Usage:     "Switch to a saved connection",
				ArgsUsage: "NAME",
				Action:    connectionUse,
			},
			{
				Name:   "list",
				Usage:  "List saved connections",
				Action: connectionList,
			},
		},
	}
}

// connectionAdd saves the URL, server id and TLS flags given on the
// command line under NAME.
func connectionAdd(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("connection name required")
	}
	if e.conn.URL == "" {
		return fmt.Errorf("--url is required")
	}

	conn := e.conn
	conn.Token, conn.PersNo, conn.PersName = "", 0, ""
	e.cfg.Update(name, func(cc *config.ConnectionConfig) { *cc = conn })
	e.cfg.CurrentConnection = name
	if err := config.Save(e.cfg, e.cfgPath); err != nil {
		return err
	}
	output.Success(e.out, "saved connection %s (%s, server %s)", name, conn.URL, conn.ServerID)
	return nil
}

func connectionUse(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("connection name required")
	}
	if _, ok := e.cfg.Connections[name]; !ok {
		return fmt.Errorf("no saved connection named %q", name)
	}
	e.cfg.CurrentConnection = name
	if err := config.Save(e.cfg, e.cfgPath); err != nil {
		return err
	}
	output.Success(e.out, "switched to connection %s", name)
	return nil
}

type connectionRow struct {
	Current  string `json:"current"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	ServerID string `json:"server_id"`
	LoggedIn string `json:"logged_in"`
}

func connectionList(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(e.cfg.Connections))
	for name := range e.cfg.Connections {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]connectionRow, 0, len(names))
	for _, name := range names {
		conn := e.cfg.Connections[name]
		row := connectionRow{Name: name, URL: conn.URL, ServerID: conn.ServerID}
		if name == e.cfg.CurrentConnection {
			row.Current = "*"
		}
		if conn.Token != "" {
			row.LoggedIn = fmt.Sprintf("%s (%d)", conn.PersName, conn.PersNo)
		}
		rows = append(rows, row)
	}
	return e.render(rows)
}
