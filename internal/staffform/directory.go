package staffform

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/stitchline/stitchline-erp/internal/hr"
)

// DirectorySource lists the HR reference data. *client.Client satisfies it.
type DirectorySource interface {
	Departments(ctx context.Context) ([]hr.Department, error)
	Designations(ctx context.Context) ([]hr.Designation, error)
	Mappings(ctx context.Context) ([]hr.Mapping, error)
}

// Directory is the reference data the employee form needs.
type Directory struct {
	Departments  []hr.Department
	Designations []hr.Designation
	Rules        Rules
}

// LoadDirectory fetches departments, designations and mappings in parallel.
func LoadDirectory(ctx context.Context, src DirectorySource) (*Directory, error) {
	var (
		dir      Directory
		mappings []hr.Mapping
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		dir.Departments, err = src.Departments(gctx)
		return err
	})
	g.Go(func() (err error) {
		dir.Designations, err = src.Designations(gctx)
		return err
	})
	g.Go(func() (err error) {
		mappings, err = src.Mappings(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("staffform: load directory: %w", err)
	}
	dir.Rules = RulesFrom(mappings)
	return &dir, nil
}

// Allowed computes the designation choice for departmentID.
func (d *Directory) Allowed(departmentID int64) Allowance {
	return AllowedDesignations(departmentID, d.Rules, d.Designations)
}
