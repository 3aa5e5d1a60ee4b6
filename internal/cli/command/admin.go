package command

import (
	"bufio"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/derfian/httpkom/internal/cli/connection"
	"github.com/derfian/httpkom/internal/cli/output"
	"github.com/derfian/httpkom/pkg/token"
)

// AdminCommand returns the admin subcommand group.
func AdminCommand() *cli.Command {
	return &cli.Command{
		Name:  "admin",
		Usage: "Administer the gateway (needs --admin-key)",
		Subcommands: []*cli.Command{
			{
				Name:   "sessions",
				Usage:  "List live sessions",
				Action: adminSessionsList,
			},
			{
				Name:      "kill",
				Usage:     "Destroy a session by id",
				ArgsUsage: "SESSION_ID",
				Action:    adminKill,
			},
			{
				Name:      "hash-key",
				Usage:     "Print the security.admin_key_hash value for a key",
				ArgsUsage: "[KEY]",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "stdin", Usage: "read the key from stdin"},
				},
				Action: adminHashKey,
			},
		},
	}
}

func adminSessionsList(c *cli.Context) error {
	e, client, err := setup(c)
	if err != nil {
		return err
	}
	if e.adminKey == "" {
		return fmt.Errorf("--admin-key is required")
	}
	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	resp, err := client.Get(ctx, "/admin/v1/sessions")
	if err != nil {
		return err
	}
	var list adminSessions
	if err := connection.ParseResponse(resp, &list); err != nil {
		return err
	}
	if e.textOutput() {
		return e.render(list.Sessions)
	}
	return e.render(list)
}

func adminKill(c *cli.Context) error {
	e, client, err := setup(c)
	if err != nil {
		return err
	}
	if e.adminKey == "" {
		return fmt.Errorf("--admin-key is required")
	}
	id := c.Args().First()
	if id == "" {
		return fmt.Errorf("SESSION_ID required")
	}
	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()

	resp, err := client.Delete(ctx, "/admin/v1/sessions/"+url.PathEscape(id))
	if err != nil {
		return err
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}
	output.Success(e.out, "session %s destroyed", id)
	return nil
}

// adminHashKey runs locally; it never contacts the gateway.
func adminHashKey(c *cli.Context) error {
	e, err := getEnv(c)
	if err != nil {
		return err
	}
	key := c.Args().First()
	if c.Bool("stdin") {
		line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read key: %w", err)
		}
		key = strings.TrimRight(line, "\r\n")
	}
	if key == "" {
		return fmt.Errorf("KEY required")
	}
	if len(key) < 16 {
		output.Warn(e.errOut, "admin keys shorter than 16 characters are easy to guess")
	}

	hash, err := token.HashSecret(key)
	if err != nil {
		return err
	}
	fmt.Fprintln(e.out, hash)
	return nil
}
