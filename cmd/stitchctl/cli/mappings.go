package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stitchline/stitchline-erp/internal/client"
	"github.com/stitchline/stitchline-erp/internal/realtime"
	"github.com/stitchline/stitchline-erp/internal/staffform"
)

func (c *CLI) mappingsList(ctx context.Context, args []string, opts Options) int {
	fs := newFlags("mappings list", opts)
	dept := fs.Int64("dept", 0, "list only this department")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if !c.requireSession(ctx, opts) {
		return ExitError
	}
	if *dept > 0 {
		designations, err := c.api.DepartmentDesignations(ctx, *dept)
		if err != nil {
			return fail(opts, "mappings list", err, "could not load designations")
		}
		for _, d := range designations {
			fmt.Fprintf(opts.Stdout, "%d %s\n", d.ID, d.Name)
		}
		return ExitOK
	}
	dir, err := staffform.LoadDirectory(ctx, c.api)
	if err != nil {
		return fail(opts, "mappings list", err, "could not load departments")
	}
	for _, dept := range dir.Departments {
		names := []string{}
		for _, d := range dir.Allowed(dept.ID).Designations {
			names = append(names, d.Name)
		}
		fmt.Fprintf(opts.Stdout, "%d %s: %s\n", dept.ID, dept.Name, strings.Join(names, ", "))
	}
	return ExitOK
}

func (c *CLI) mappingsToggle(ctx context.Context, args []string, opts Options) int {
	fs := newFlags("mappings toggle", opts)
	dept := fs.Int64("dept", 0, "department id")
	desig := fs.Int64("desig", 0, "designation id")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if *dept <= 0 || *desig <= 0 {
		fmt.Fprintln(opts.Stderr, "mappings toggle: --dept and --desig are required")
		return ExitUsage
	}
	if !c.requireSession(ctx, opts) {
		return ExitError
	}

	board := staffform.NewMappingBoard(c.api, opts.confirmer(), opts.notifier("mappings toggle"))
	if err := board.Refresh(ctx); err != nil {
		return fail(opts, "mappings toggle", err, "could not load mappings")
	}
	allowed := board.Rules().Allows(*dept, *desig)
	if err := board.Toggle(ctx, *dept, *desig, allowed); err != nil {
		if errors.Is(err, client.ErrCancelled) {
			return fail(opts, "mappings toggle", err, "")
		}
		return ExitError
	}
	state := "no longer allowed"
	if board.Rules().Allows(*dept, *desig) {
		state = "allowed"
	}
	fmt.Fprintf(opts.Stdout, "designation %d is %s in department %d\n", *desig, state, *dept)
	return ExitOK
}

// echoFeed prints every event before handing it on.
type echoFeed struct {
	feed staffform.FeedSource
	opts Options
}

func (e echoFeed) WatchMappings(ctx context.Context, onEvent func(realtime.Event)) error {
	return e.feed.WatchMappings(ctx, func(ev realtime.Event) {
		fmt.Fprintf(e.opts.Stdout, "event: %s\n", ev.Type)
		onEvent(ev)
	})
}

func (c *CLI) mappingsWatch(ctx context.Context, opts Options) int {
	if !c.requireSession(ctx, opts) {
		return ExitError
	}
	board := staffform.NewMappingBoard(c.api, nil, opts.notifier("mappings watch"))
	if err := board.Refresh(ctx); err != nil {
		return fail(opts, "mappings watch", err, "could not load mappings")
	}
	fmt.Fprintln(opts.Stdout, "watching mapping changes; press Ctrl-C to stop")
	err := board.Follow(ctx, echoFeed{feed: c.api, opts: opts})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fail(opts, "mappings watch", err, "mapping feed closed")
	}
	return ExitOK
}
