// Package cli implements the stitchctl operator commands. Every command writes to the writers in
// Options and returns a process exit code.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/stitchline/stitchline-erp/internal/client"
)

// Exit codes.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// Options carries the streams and prompts a command uses.
type Options struct {
	Stdout  io.Writer
	Stderr  io.Writer
	Stdin   io.Reader
	Confirm func(r io.Reader, w io.Writer, prompt string) (bool, error)
}

func (o Options) withDefaults() Options {
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Confirm == nil {
		o.Confirm = defaultConfirm
	}
	return o
}

func (o Options) confirmer() client.Confirmer {
	return client.ConfirmFunc(func(prompt string) (bool, error) {
		return o.Confirm(o.Stdin, o.Stdout, prompt)
	})
}

// notifier prints success notices to stdout and errors to stderr.
func (o Options) notifier(prefix string) client.Notifier {
	return client.NotifyFunc(func(n client.Notice) {
		if n.Level == client.LevelError {
			fmt.Fprintf(o.Stderr, "%s: %s\n", prefix, n.Message)
			return
		}
		fmt.Fprintln(o.Stdout, n.Message)
	})
}

func defaultConfirm(r io.Reader, w io.Writer, prompt string) (bool, error) {
	fmt.Fprintf(w, "%s Type YES to confirm: ", prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.EqualFold(strings.TrimSpace(line), "YES"), nil
}

// CLI dispatches stitchctl commands against the REST API.
type CLI struct {
	api     *client.Client
	session *client.Session
	jobs    *JobsCLI
}

// New builds the command set. jobs may be nil when no Redis address is configured.
func New(api *client.Client, session *client.Session, jobs *JobsCLI) *CLI {
	return &CLI{api: api, session: session, jobs: jobs}
}

const usage = `usage: stitchctl <command> [flags]

commands:
  login                 sign in and store the session token
  logout                revoke the session and forget the token
  whoami                show the signed-in user
  orders list           list production orders
  orders create         create an order (--qty s=10,m=5)
  orders show <id>      show an order with its size breakdown
  orders edit <id>      change an order; unset flags keep their value
  orders delete <id>    delete an order
  orders sheet <id>     download the order sheet PDF
  masters add <kind>    add a style, colour, age-group, category, size-category or sizes
  employees create      add an employee
  employees status <id> <ACTIVE|INACTIVE>
  mappings list         show allowed designations per department (--dept N for one)
  mappings toggle       allow or disallow a designation in a department
  mappings watch        follow mapping changes from other editors
  jobs trigger <name>   enqueue masters:warm or idempotency:cleanup
  jobs stats            show queue depth
`

// Run executes args and returns the exit code.
func (c *CLI) Run(ctx context.Context, args []string, opts Options) int {
	opts = opts.withDefaults()
	if len(args) == 0 {
		fmt.Fprint(opts.Stderr, usage)
		return ExitUsage
	}
	cmd, rest := args[0], args[1:]
	sub := ""
	if len(rest) > 0 {
		sub = rest[0]
	}
	switch cmd {
	case "login":
		return c.login(ctx, rest, opts)
	case "logout":
		return c.logout(ctx, opts)
	case "whoami":
		return c.whoami(ctx, opts)
	case "orders":
		switch sub {
		case "list":
			return c.ordersList(ctx, rest[1:], opts)
		case "create":
			return c.ordersCreate(ctx, rest[1:], opts)
		case "show":
			return c.ordersShow(ctx, rest[1:], opts)
		case "edit":
			return c.ordersEdit(ctx, rest[1:], opts)
		case "delete":
			return c.ordersDelete(ctx, rest[1:], opts)
		case "sheet":
			return c.ordersSheet(ctx, rest[1:], opts)
		}
	case "masters":
		if sub == "add" {
			return c.mastersAdd(ctx, rest[1:], opts)
		}
	case "employees":
		switch sub {
		case "create":
			return c.employeesCreate(ctx, rest[1:], opts)
		case "status":
			return c.employeesStatus(ctx, rest[1:], opts)
		}
	case "mappings":
		switch sub {
		case "list":
			return c.mappingsList(ctx, rest[1:], opts)
		case "toggle":
			return c.mappingsToggle(ctx, rest[1:], opts)
		case "watch":
			return c.mappingsWatch(ctx, opts)
		}
	case "jobs":
		switch sub {
		case "trigger":
			return c.jobsTrigger(ctx, rest[1:], opts)
		case "stats":
			return c.jobsStats(ctx, opts)
		}
	case "help", "-h", "--help":
		fmt.Fprint(opts.Stdout, usage)
		return ExitOK
	}
	fmt.Fprintf(opts.Stderr, "stitchctl: unknown command %q\n", strings.TrimSpace(cmd+" "+sub))
	fmt.Fprint(opts.Stderr, usage)
	return ExitUsage
}

// requireSession restores the stored session. It reports false after printing why it could not.
func (c *CLI) requireSession(ctx context.Context, opts Options) bool {
	_, err := c.session.Rehydrate(ctx)
	switch {
	case err == nil:
		return true
	case errors.Is(err, client.ErrNoSession):
		fmt.Fprintln(opts.Stderr, "stitchctl: not logged in; run stitchctl login")
	case errors.Is(err, client.ErrUnauthorized):
		fmt.Fprintln(opts.Stderr, "stitchctl: session expired; run stitchctl login")
	default:
		fmt.Fprintf(opts.Stderr, "stitchctl: %s\n", client.UserMessage(err, "could not reach the server"))
	}
	return false
}

func newFlags(name string, opts Options) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(opts.Stderr)
	return fs
}

// fail prints err for a command and returns ExitError.
func fail(opts Options, cmd string, err error, fallback string) int {
	if errors.Is(err, client.ErrCancelled) {
		fmt.Fprintf(opts.Stderr, "%s: cancelled by user\n", cmd)
		return ExitError
	}
	fmt.Fprintf(opts.Stderr, "%s: %s\n", cmd, client.UserMessage(err, fallback))
	return ExitError
}
