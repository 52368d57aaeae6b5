package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

func (c *CLI) login(ctx context.Context, args []string, opts Options) int {
	fs := newFlags("login", opts)
	username := fs.String("username", "", "account name")
	password := fs.String("password", "", "password; read from stdin when empty")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if strings.TrimSpace(*username) == "" {
		fmt.Fprintln(opts.Stderr, "login: --username is required")
		return ExitUsage
	}
	if *password == "" {
		fmt.Fprint(opts.Stdout, "Password: ")
		line, err := bufio.NewReader(opts.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fail(opts, "login", err, "could not read password")
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	user, err := c.session.Login(ctx, strings.TrimSpace(*username), *password)
	if err != nil {
		return fail(opts, "login", err, "login failed")
	}
	fmt.Fprintf(opts.Stdout, "logged in as %s\n", user.Username)
	return ExitOK
}

func (c *CLI) logout(ctx context.Context, opts Options) int {
	// A stale or missing token still gets cleared by Logout.
	_, _ = c.session.Rehydrate(ctx)
	if err := c.session.Logout(ctx); err != nil {
		return fail(opts, "logout", err, "could not revoke the session; local token removed")
	}
	fmt.Fprintln(opts.Stdout, "logged out")
	return ExitOK
}

func (c *CLI) whoami(ctx context.Context, opts Options) int {
	if !c.requireSession(ctx, opts) {
		return ExitError
	}
	user := c.session.User()
	fmt.Fprintf(opts.Stdout, "%s (user %d, employee %d)\n", user.Username, user.ID, user.EmployeeID)
	return ExitOK
}
