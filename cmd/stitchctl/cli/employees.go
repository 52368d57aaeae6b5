package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stitchline/stitchline-erp/internal/client"
	"github.com/stitchline/stitchline-erp/internal/staffform"
)

func (c *CLI) employeesCreate(ctx context.Context, args []string, opts Options) int {
	fs := newFlags("employees create", opts)
	fields := map[staffform.Field]*string{
		staffform.FieldName:       fs.String("name", "", "full name"),
		staffform.FieldAddress:    fs.String("address", "", "address"),
		staffform.FieldGender:     fs.String("gender", "", "M, F or O"),
		staffform.FieldDateOfJoin: fs.String("joined", "", "date of joining, YYYY-MM-DD"),
		staffform.FieldSalary:     fs.String("salary", "", "monthly salary"),
	}
	dept := fs.Int64("dept", 0, "department id")
	desig := fs.Int64("desig", 0, "designation id")
	if err := fs.Parse(args); err != nil {
		return ExitUsage
	}
	if !c.requireSession(ctx, opts) {
		return ExitError
	}

	dir, err := staffform.LoadDirectory(ctx, c.api)
	if err != nil {
		return fail(opts, "employees create", err, "could not load departments")
	}
	draft := staffform.NewEmployeeDraft()
	for name, value := range fields {
		_ = draft.SetField(name, *value)
	}
	draft.SetDesignation(*desig)
	if draft.SetDepartment(*dept, dir.Rules) {
		names := []string{}
		for _, d := range dir.Allowed(*dept).Designations {
			names = append(names, fmt.Sprintf("%d %s", d.ID, d.Name))
		}
		fmt.Fprintf(opts.Stderr, "employees create: designation %d is not allowed in department %d (allowed: %s)\n",
			*desig, *dept, strings.Join(names, ", "))
		return ExitError
	}

	submitter := staffform.NewEmployeeSubmitter(c.api, opts.notifier("employees create"))
	saved, err := submitter.Submit(ctx, draft, dir.Rules, false)
	if err != nil {
		return ExitError
	}
	fmt.Fprintf(opts.Stdout, "employee id %d\n", saved.ID)
	return ExitOK
}

func (c *CLI) employeesStatus(ctx context.Context, args []string, opts Options) int {
	id, ok := parseID(opts, "employees status", args)
	if !ok {
		return ExitUsage
	}
	if len(args) < 2 {
		fmt.Fprintln(opts.Stderr, "employees status: ACTIVE or INACTIVE is required")
		return ExitUsage
	}
	if !c.requireSession(ctx, opts) {
		return ExitError
	}
	submitter := staffform.NewEmployeeSubmitter(c.api, opts.notifier("employees status"))
	err := submitter.SetStatus(ctx, id, strings.ToUpper(args[1]), opts.confirmer())
	if err == nil {
		return ExitOK
	}
	var verr *staffform.ValidationError
	if errors.Is(err, client.ErrCancelled) || errors.As(err, &verr) {
		return fail(opts, "employees status", err, "")
	}
	return ExitError
}
