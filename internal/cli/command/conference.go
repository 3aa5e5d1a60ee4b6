package command

import (
	"context"
	"fmt"
	"net/url"

	"github.com/urfave/cli/v2"

	"github.com/derfian/httpkom/internal/cli/connection"
	"github.com/derfian/httpkom/internal/cli/output"
)

// ConferenceCommand returns the conference subcommand group.
func ConferenceCommand() *cli.Command {
	return &cli.Command{
		Name:    "conference",
		Aliases: []string{"conf"},
		Usage:   "Inspect conferences",
		Subcommands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "Show a conference",
				ArgsUsage: "CONF_NO",
				Action:    conferenceGet,
			},
		},
	}
}

func conferenceGet(c *cli.Context) error {
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

	resp, err := client.Get(ctx, fmt.Sprintf("/%s/conferences/%d", url.PathEscape(serverID), confNo))
	if err != nil {
		return err
	}
	var conf conferenceInfo
	if err := connection.ParseResponse(resp, &conf); err != nil {
		return err
	}
	return e.render(conf)
}

// MembershipCommand returns the membership subcommand group.
func MembershipCommand() *cli.Command {
	return &cli.Command{
		Name:    "membership",
		Aliases: []string{"member"},
		Usage:   "Add or remove conference memberships",
		Subcommands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Make a person a member of a conference",
				ArgsUsage: "PERS_NO CONF_NO",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "priority", Usage: "membership priority, 0-255 (server default 100)"},
					&cli.IntFlag{Name: "where", Usage: "position in the membership list (server default 0)"},
					&cli.BoolFlag{Name: "invitation", Usage: "mark as invitation"},
					&cli.BoolFlag{Name: "passive", Usage: "mark as passive"},
					&cli.BoolFlag{Name: "secret", Usage: "mark as secret"},
				},
				Action: membershipAdd,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Remove a person from a conference",
				ArgsUsage: "PERS_NO CONF_NO",
				Action:    membershipRemove,
			},
		},
	}
}

type membershipType struct {
	Invitation bool `json:"invitation"`
	Passive    bool `json:"passive"`
	Secret     bool `json:"secret"`
}

type membershipRequest struct {
	Priority *int            `json:"priority,omitempty"`
	Where    *int            `json:"where,omitempty"`
	Type     *membershipType `json:"type,omitempty"`
}

func membershipPath(c *cli.Context, serverID string) (string, int, int, error) {
	persNo, err := intArg(c, 0, "PERS_NO")
	if err != nil {
		return "", 0, 0, err
	}
	confNo, err := intArg(c, 1, "CONF_NO")
	if err != nil {
		return "", 0, 0, err
	}
	return fmt.Sprintf("/%s/persons/%d/memberships/%d", url.PathEscape(serverID), persNo, confNo), persNo, confNo, nil
}

func membershipAdd(c *cli.Context) error {
	e, client, err := setup(c)
	if err != nil {
		return err
	}
	serverID, err := e.serverID()
	if err != nil {
		return err
	}
	path, persNo, confNo, err := membershipPath(c, serverID)
	if err != nil {
		return err
	}

	var req membershipRequest
	if c.IsSet("priority") {
		p := c.Int("priority")
		req.Priority = &p
	}
	if c.IsSet("where") {
		w := c.Int("where")
		req.Where = &w
	}
	if c.Bool("invitation") || c.Bool("passive") || c.Bool("secret") {
		req.Type = &membershipType{
			Invitation: c.Bool("invitation"),
			Passive:    c.Bool("passive"),
			Secret:     c.Bool("secret"),
		}
	}

	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()
	resp, err := client.Put(ctx, path, req)
	if err != nil {
		return err
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}
	output.Success(e.out, "person %d is a member of conference %d", persNo, confNo)
	return nil
}

func membershipRemove(c *cli.Context) error {
	e, client, err := setup(c)
	if err != nil {
		return err
	}
	serverID, err := e.serverID()
	if err != nil {
		return err
	}
	path, persNo, confNo, err := membershipPath(c, serverID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(c.Context, requestTimeout)
	defer cancel()
	resp, err := client.Delete(ctx, path)
	if err != nil {
		return err
	}
	if err := connection.ParseResponse(resp, nil); err != nil {
		return err
	}
	output.Success(e.out, "person %d removed from conference %d", persNo, confNo)
	return nil
}
