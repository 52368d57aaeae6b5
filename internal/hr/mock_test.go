package hr

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
	"github.com/stitchline/stitchline-erp/internal/realtime"
	"github.com/stitchline/stitchline-erp/internal/shared"
)

type mockRepo struct {
	mu           sync.Mutex
	employees    map[int64]Employee
	departments  map[int64]Department
	designations map[int64]Designation
	mappings     map[Mapping]bool
	nextID       int64

	listErr error
	addErr  error
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		employees:    map[int64]Employee{},
		departments:  map[int64]Department{},
		designations: map[int64]Designation{},
		mappings:     map[Mapping]bool{},
		nextID:       1,
	}
}

func (m *mockRepo) id() int64 {
	id := m.nextID
	m.nextID++
	return id
}

func (m *mockRepo) ListEmployees(_ context.Context, f EmployeeFilter) ([]Employee, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	out := []Employee{}
	for _, e := range m.employees {
		if f.Status != "" && e.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(e.Name), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, len(out), nil
}

func (m *mockRepo) GetEmployee(_ context.Context, id int64) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		return Employee{}, fmt.Errorf("employee %d: %w", id, httpx.ErrNotFound)
	}
	return e, nil
}

func (m *mockRepo) CreateEmployee(_ context.Context, e Employee) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.id()
	m.employees[e.ID] = e
	return e, nil
}

func (m *mockRepo) UpdateEmployee(_ context.Context, e Employee) (Employee, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.employees[e.ID]; !ok {
		return Employee{}, fmt.Errorf("employee %d: %w", e.ID, httpx.ErrNotFound)
	}
	m.employees[e.ID] = e
	return e, nil
}

func (m *mockRepo) SetEmployeeStatus(_ context.Context, id int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.employees[id]
	if !ok {
		return fmt.Errorf("employee %d: %w", id, httpx.ErrNotFound)
	}
	e.Status = status
	m.employees[id] = e
	return nil
}

func (m *mockRepo) ListDepartments(context.Context) ([]Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Department{}
	for _, d := range m.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepo) CreateDepartment(_ context.Context, name string) (Department, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.departments {
		if d.Name == name {
			return Department{}, fmt.Errorf("%w: name already exists", httpx.ErrDuplicate)
		}
	}
	d := Department{ID: m.id(), Name: name}
	m.departments[d.ID] = d
	return d, nil
}

func (m *mockRepo) ListDesignations(context.Context) ([]Designation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Designation{}
	for _, d := range m.designations {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockRepo) CreateDesignation(_ context.Context, name string) (Designation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := Designation{ID: m.id(), Name: name}
	m.designations[d.ID] = d
	return d, nil
}

func (m *mockRepo) ListMappings(context.Context) ([]Mapping, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Mapping{}
	for k := range m.mappings {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DepartmentID != out[j].DepartmentID {
			return out[i].DepartmentID < out[j].DepartmentID
		}
		return out[i].DesignationID < out[j].DesignationID
	})
	return out, nil
}

func (m *mockRepo) DesignationsForDepartment(_ context.Context, departmentID int64) ([]Designation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Designation{}
	for k := range m.mappings {
		if k.DepartmentID == departmentID {
			out = append(out, m.designations[k.DesignationID])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *mockRepo) MappingExists(_ context.Context, departmentID, designationID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mappings[Mapping{DepartmentID: departmentID, DesignationID: designationID}], nil
}

func (m *mockRepo) AddMapping(_ context.Context, k Mapping) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.addErr != nil {
		return false, m.addErr
	}
	if m.mappings[k] {
		return false, nil
	}
	m.mappings[k] = true
	return true, nil
}

func (m *mockRepo) RemoveMapping(_ context.Context, k Mapping) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.mappings[k] {
		return false, nil
	}
	delete(m.mappings, k)
	return true, nil
}

type recordingPublisher struct {
	events []realtime.Event
}

func (p *recordingPublisher) Publish(e realtime.Event) bool {
	p.events = append(p.events, e)
	return true
}

type recordingAuditor struct {
	logs []shared.AuditLog
}

func (a *recordingAuditor) Record(_ context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}
