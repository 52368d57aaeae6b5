package staffform

import (
	"context"
	"errors"
	"sync"

	"github.com/stitchline/stitchline-erp/internal/hr"
	"github.com/stitchline/stitchline-erp/internal/realtime"
)

var errBoom = errors.New("boom")

type mutation struct {
	op          string
	dept, desig int64
}

// fakeMappings keeps an authoritative mapping list like the server does.
type fakeMappings struct {
	mu        sync.Mutex
	rules     map[[2]int64]bool
	gate      chan struct{}
	mutateErr error
	listErr   error
	mutations []mutation
	fetches   int
}

func newFakeMappings(pairs ...[2]int64) *fakeMappings {
	f := &fakeMappings{rules: map[[2]int64]bool{}}
	for _, p := range pairs {
		f.rules[p] = true
	}
	return f
}

func (f *fakeMappings) Mappings(context.Context) ([]hr.Mapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []hr.Mapping{}
	for p, ok := range f.rules {
		if ok {
			out = append(out, hr.Mapping{DepartmentID: p[0], DesignationID: p[1]})
		}
	}
	return out, nil
}

func (f *fakeMappings) mutate(ctx context.Context, op string, dept, desig int64, allowed bool) error {
	f.mu.Lock()
	f.mutations = append(f.mutations, mutation{op, dept, desig})
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mutateErr != nil {
		return f.mutateErr
	}
	f.rules[[2]int64{dept, desig}] = allowed
	return nil
}

func (f *fakeMappings) AddMapping(ctx context.Context, dept, desig int64) error {
	return f.mutate(ctx, "add", dept, desig, true)
}

func (f *fakeMappings) RemoveMapping(ctx context.Context, dept, desig int64) error {
	return f.mutate(ctx, "remove", dept, desig, false)
}

func (f *fakeMappings) snapshot() []mutation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]mutation(nil), f.mutations...)
}

func (f *fakeMappings) Departments(context.Context) ([]hr.Department, error) {
	return []hr.Department{{ID: 1, Name: "Cutting"}, {ID: 2, Name: "Sewing"}}, nil
}

func (f *fakeMappings) Designations(context.Context) ([]hr.Designation, error) {
	return []hr.Designation{{ID: 10, Name: "Cutter"}, {ID: 11, Name: "Operator"}, {ID: 12, Name: "Supervisor"}}, nil
}

type fakeFeed struct {
	events []realtime.Event
}

func (f fakeFeed) WatchMappings(_ context.Context, onEvent func(realtime.Event)) error {
	for _, ev := range f.events {
		onEvent(ev)
	}
	return nil
}

type fakeEmployees struct {
	mu       sync.Mutex
	gate     chan struct{}
	err      error
	created  []hr.EmployeeInput
	updated  map[int64]hr.EmployeeInput
	statuses map[int64]string
}

func (f *fakeEmployees) CreateEmployee(ctx context.Context, in hr.EmployeeInput) (hr.Employee, error) {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return hr.Employee{}, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return hr.Employee{}, f.err
	}
	f.created = append(f.created, in)
	return hr.Employee{ID: int64(len(f.created)), Name: in.Name}, nil
}

func (f *fakeEmployees) UpdateEmployee(_ context.Context, id int64, in hr.EmployeeInput) (hr.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return hr.Employee{}, f.err
	}
	if f.updated == nil {
		f.updated = map[int64]hr.EmployeeInput{}
	}
	f.updated[id] = in
	return hr.Employee{ID: id, Name: in.Name}, nil
}

func (f *fakeEmployees) SetEmployeeStatus(_ context.Context, id int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if f.statuses == nil {
		f.statuses = map[int64]string{}
	}
	f.statuses[id] = status
	return nil
}
