package hr

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
	"github.com/stitchline/stitchline-erp/internal/realtime"
	"github.com/stitchline/stitchline-erp/internal/shared"
)

// ErrDesignationNotAllowed is returned when an employee's designation is not mapped to their department.
var ErrDesignationNotAllowed = fmt.Errorf("%w: designation not allowed for department", httpx.ErrValidation)

// Publisher broadcasts change events to live editors.
type Publisher interface {
	Publish(event realtime.Event) bool
}

// Service implements HR business rules.
type Service struct {
	repo      Repository
	audit     shared.Auditor
	publisher Publisher
}

// NewService constructs a Service. Nil audit or publisher disables that side effect.
func NewService(repo Repository, audit shared.Auditor, publisher Publisher) *Service {
	if audit == nil {
		audit = shared.NopAuditor{}
	}
	return &Service{repo: repo, audit: audit, publisher: publisher}
}

// ListEmployees returns one page of employees.
func (s *Service) ListEmployees(ctx context.Context, filter EmployeeFilter) (shared.Page[Employee], error) {
	pg := shared.NewPagination(filter.Page, filter.Limit, 0)
	filter.Page, filter.Limit = pg.Page, pg.PerPage
	items, total, err := s.repo.ListEmployees(ctx, filter)
	if err != nil {
		return shared.Page[Employee]{}, fmt.Errorf("list employees: %w", err)
	}
	return shared.Page[Employee]{Items: items, Pagination: shared.NewPagination(filter.Page, filter.Limit, total)}, nil
}

// GetEmployee loads one employee.
func (s *Service) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	return s.repo.GetEmployee(ctx, id)
}

// CreateEmployee validates placement and stores a new employee.
func (s *Service) CreateEmployee(ctx context.Context, in EmployeeInput) (Employee, error) {
	e, err := s.prepare(ctx, in)
	if err != nil {
		return Employee{}, err
	}
	created, err := s.repo.CreateEmployee(ctx, e)
	if err != nil {
		return Employee{}, err
	}
	s.record(ctx, "employee.create", "employee", created.ID, map[string]any{"department_id": created.DepartmentID, "designation_id": created.DesignationID})
	return created, nil
}

// UpdateEmployee validates placement and overwrites an employee.
func (s *Service) UpdateEmployee(ctx context.Context, id int64, in EmployeeInput) (Employee, error) {
	e, err := s.prepare(ctx, in)
	if err != nil {
		return Employee{}, err
	}
	e.ID = id
	updated, err := s.repo.UpdateEmployee(ctx, e)
	if err != nil {
		return Employee{}, err
	}
	s.record(ctx, "employee.update", "employee", id, map[string]any{"status": updated.Status})
	return updated, nil
}

// SetStatus activates or deactivates an employee.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) error {
	if status != StatusActive && status != StatusInactive {
		return fmt.Errorf("%w: unknown status %q", httpx.ErrValidation, status)
	}
	if err := s.repo.SetEmployeeStatus(ctx, id, status); err != nil {
		return err
	}
	s.record(ctx, "employee.status", "employee", id, map[string]any{"status": status})
	return nil
}

func (s *Service) prepare(ctx context.Context, in EmployeeInput) (Employee, error) {
	if in.Salary.IsNegative() {
		return Employee{}, fmt.Errorf("%w: salary must not be negative", httpx.ErrValidation)
	}
	if err := s.checkPlacement(ctx, in.DepartmentID, in.DesignationID); err != nil {
		return Employee{}, err
	}
	status := in.Status
	if status == "" {
		status = StatusActive
	}
	gender := in.Gender
	if gender == "" {
		gender = "O"
	}
	return Employee{
		Name:          strings.TrimSpace(in.Name),
		Address:       strings.TrimSpace(in.Address),
		Gender:        gender,
		DateOfJoin:    in.DateOfJoin,
		Salary:        in.Salary,
		DesignationID: in.DesignationID,
		DepartmentID:  in.DepartmentID,
		Status:        status,
	}, nil
}

// checkPlacement enforces the department to designation governance mapping.
func (s *Service) checkPlacement(ctx context.Context, departmentID, designationID int64) error {
	if departmentID <= 0 || designationID <= 0 {
		return nil
	}
	ok, err := s.repo.MappingExists(ctx, departmentID, designationID)
	if err != nil {
		return fmt.Errorf("check mapping: %w", err)
	}
	if !ok {
		return ErrDesignationNotAllowed
	}
	return nil
}

// ListDepartments returns every department.
func (s *Service) ListDepartments(ctx context.Context) ([]Department, error) {
	return s.repo.ListDepartments(ctx)
}

// CreateDepartment adds a department.
func (s *Service) CreateDepartment(ctx context.Context, name string) (Department, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Department{}, fmt.Errorf("%w: department name is required", httpx.ErrValidation)
	}
	return s.repo.CreateDepartment(ctx, name)
}

// ListDesignations returns every designation.
func (s *Service) ListDesignations(ctx context.Context) ([]Designation, error) {
	return s.repo.ListDesignations(ctx)
}

// CreateDesignation adds a designation.
func (s *Service) CreateDesignation(ctx context.Context, name string) (Designation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Designation{}, fmt.Errorf("%w: designation name is required", httpx.ErrValidation)
	}
	return s.repo.CreateDesignation(ctx, name)
}

// ListMappings returns every allowed pair.
func (s *Service) ListMappings(ctx context.Context) ([]Mapping, error) {
	return s.repo.ListMappings(ctx)
}

// DesignationsForDepartment returns the designations allowed in a department.
func (s *Service) DesignationsForDepartment(ctx context.Context, departmentID int64) ([]Designation, error) {
	return s.repo.DesignationsForDepartment(ctx, departmentID)
}

// AddMapping allows a designation in a department. Adding an existing pair is not an error;
// the boolean reports whether the pair was new.
func (s *Service) AddMapping(ctx context.Context, m Mapping) (bool, error) {
	created, err := s.repo.AddMapping(ctx, m)
	if err != nil {
		return false, err
	}
	if created {
		s.record(ctx, "mapping.add", "department_designation", m.DepartmentID, map[string]any{"designation_id": m.DesignationID})
		s.notify()
	}
	return created, nil
}

// RemoveMapping disallows a designation in a department. Removing a missing pair is not an error.
func (s *Service) RemoveMapping(ctx context.Context, m Mapping) error {
	removed, err := s.repo.RemoveMapping(ctx, m)
	if err != nil {
		return err
	}
	if removed {
		s.record(ctx, "mapping.remove", "department_designation", m.DepartmentID, map[string]any{"designation_id": m.DesignationID})
		s.notify()
	}
	return nil
}

func (s *Service) notify() {
	if s.publisher != nil {
		s.publisher.Publish(realtime.Event{Type: MappingsChanged})
	}
}

func (s *Service) record(ctx context.Context, action, entity string, id int64, meta map[string]any) {
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   entity,
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
