// Package clubctl implements the clubhouse administration commands: minting
// invite codes, creating an admin account and promoting an existing user.
package clubctl

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/flagx"
	"github.com/dmitrijs2005/clubhouse/internal/server/services"
	"golang.org/x/term"
)

const usage = `usage: clubctl [-d DSN] <command> [flags]

commands:
  invite               print a new invite code
  create-admin -n NAME create an admin account (password is prompted)
  promote -n NAME      make an existing user an admin
`

var ErrUsage = errors.New("usage error")

// readPassword is a test seam for term.ReadPassword.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

type CLI struct {
	users   *services.UserService
	invites *services.InviteService
	out     io.Writer
}

func New(users *services.UserService, invites *services.InviteService, out io.Writer) *CLI {
	return &CLI{users: users, invites: invites, out: out}
}

// Run executes the subcommand found in args (os.Args[1:]).
func (c *CLI) Run(ctx context.Context, args []string) error {
	cmd, rest := flagx.Subcommand(args)

	switch cmd {
	case "invite":
		return c.invite(ctx)
	case "create-admin":
		name, err := parseName(cmd, rest)
		if err != nil {
			return err
		}
		return c.createAdmin(ctx, name)
	case "promote":
		name, err := parseName(cmd, rest)
		if err != nil {
			return err
		}
		return c.promote(ctx, name)
	default:
		fmt.Fprint(c.out, usage)
		return ErrUsage
	}
}

func parseName(cmd string, args []string) (string, error) {
	var name string
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&name, "n", "", "username")
	if err := fs.Parse(args); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if name == "" {
		return "", fmt.Errorf("%w: %s needs -n NAME", ErrUsage, cmd)
	}
	return name, nil
}

func (c *CLI) invite(ctx context.Context) error {
	inv, err := c.invites.Generate(ctx, nil)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, inv.Code)
	return nil
}

func (c *CLI) createAdmin(ctx context.Context, name string) error {
	fmt.Fprint(c.out, "Enter password: ")
	pw, err := readPassword()
	fmt.Fprintln(c.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	fmt.Fprint(c.out, "Repeat password: ")
	again, err := readPassword()
	fmt.Fprintln(c.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(again)

	if !bytes.Equal(pw, again) {
		return errors.New("passwords do not match")
	}

	user, err := c.users.CreateAdmin(ctx, name, string(pw))
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created admin %s (id %d)\n", user.Username, user.ID)
	return nil
}

func (c *CLI) promote(ctx context.Context, name string) error {
	if err := c.users.Promote(ctx, name); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("no user named %q", name)
		}
		return err
	}
	fmt.Fprintf(c.out, "%s is now an admin\n", name)
	return nil
}
