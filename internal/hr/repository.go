package hr

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/stitchline/stitchline-erp/internal/platform/db"
	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
)

// Repository exposes HR persistence.
type Repository interface {
	ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, int, error)
	GetEmployee(ctx context.Context, id int64) (Employee, error)
	CreateEmployee(ctx context.Context, e Employee) (Employee, error)
	UpdateEmployee(ctx context.Context, e Employee) (Employee, error)
	SetEmployeeStatus(ctx context.Context, id int64, status string) error

	ListDepartments(ctx context.Context) ([]Department, error)
	CreateDepartment(ctx context.Context, name string) (Department, error)
	ListDesignations(ctx context.Context) ([]Designation, error)
	CreateDesignation(ctx context.Context, name string) (Designation, error)

	ListMappings(ctx context.Context) ([]Mapping, error)
	DesignationsForDepartment(ctx context.Context, departmentID int64) ([]Designation, error)
	MappingExists(ctx context.Context, departmentID, designationID int64) (bool, error)
	AddMapping(ctx context.Context, m Mapping) (bool, error)
	RemoveMapping(ctx context.Context, m Mapping) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PGRepository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

const employeeColumns = `id, name, address, gender, COALESCE(to_char(date_of_join, 'YYYY-MM-DD'), ''),
	salary::text, COALESCE(designation_id, 0), COALESCE(department_id, 0), status, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	var salary string
	if err := row.Scan(&e.ID, &e.Name, &e.Address, &e.Gender, &e.DateOfJoin, &salary,
		&e.DesignationID, &e.DepartmentID, &e.Status, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return Employee{}, err
	}
	amount, err := decimal.NewFromString(salary)
	if err != nil {
		return Employee{}, fmt.Errorf("parse salary: %w", err)
	}
	e.Salary = amount
	return e, nil
}

func nullableID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}

// ListEmployees returns a page of employees matching filter and the total match count.
func (r *PGRepository) ListEmployees(ctx context.Context, filter EmployeeFilter) ([]Employee, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where += ` AND name ILIKE $` + strconv.Itoa(len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += ` AND status = $` + strconv.Itoa(len(args))
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM employees`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + employeeColumns + ` FROM employees` + where + ` ORDER BY id DESC`
	if filter.Limit > 0 {
		offset := (filter.Page - 1) * filter.Limit
		if offset < 0 {
			offset = 0
		}
		args = append(args, filter.Limit, offset)
		query += ` LIMIT $` + strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	employees := []Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, err
		}
		employees = append(employees, e)
	}
	return employees, total, rows.Err()
}

// GetEmployee loads one employee.
func (r *PGRepository) GetEmployee(ctx context.Context, id int64) (Employee, error) {
	e, err := scanEmployee(r.db.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, fmt.Errorf("employee %d: %w", id, httpx.ErrNotFound)
	}
	return e, err
}

// CreateEmployee inserts e and returns the stored row.
func (r *PGRepository) CreateEmployee(ctx context.Context, e Employee) (Employee, error) {
	row := r.db.QueryRow(ctx, `INSERT INTO employees
		(name, address, gender, date_of_join, salary, designation_id, department_id, status)
		VALUES ($1, $2, $3, NULLIF($4, '')::date, $5::numeric, $6, $7, $8)
		RETURNING `+employeeColumns,
		e.Name, e.Address, e.Gender, e.DateOfJoin, e.Salary.String(),
		nullableID(e.DesignationID), nullableID(e.DepartmentID), e.Status)
	created, err := scanEmployee(row)
	if err != nil {
		return Employee{}, translate(err)
	}
	return created, nil
}

// UpdateEmployee overwrites every editable column of e.
func (r *PGRepository) UpdateEmployee(ctx context.Context, e Employee) (Employee, error) {
	row := r.db.QueryRow(ctx, `UPDATE employees SET
		name = $2, address = $3, gender = $4, date_of_join = NULLIF($5, '')::date, salary = $6::numeric,
		designation_id = $7, department_id = $8, status = $9, updated_at = $10
		WHERE id = $1
		RETURNING `+employeeColumns,
		e.ID, e.Name, e.Address, e.Gender, e.DateOfJoin, e.Salary.String(),
		nullableID(e.DesignationID), nullableID(e.DepartmentID), e.Status, time.Now())
	updated, err := scanEmployee(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, fmt.Errorf("employee %d: %w", e.ID, httpx.ErrNotFound)
	}
	if err != nil {
		return Employee{}, translate(err)
	}
	return updated, nil
}

// SetEmployeeStatus changes only the status column.
func (r *PGRepository) SetEmployeeStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.db.Exec(ctx, `UPDATE employees SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("employee %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

// ListDepartments returns every department by name.
func (r *PGRepository) ListDepartments(ctx context.Context) ([]Department, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Department, error) {
		var d Department
		err := row.Scan(&d.ID, &d.Name)
		return d, err
	})
}

// CreateDepartment inserts a department.
func (r *PGRepository) CreateDepartment(ctx context.Context, name string) (Department, error) {
	d := Department{Name: name}
	if err := r.db.QueryRow(ctx, `INSERT INTO departments (name) VALUES ($1) RETURNING id`, name).Scan(&d.ID); err != nil {
		return Department{}, translate(err)
	}
	return d, nil
}

// ListDesignations returns every designation by name.
func (r *PGRepository) ListDesignations(ctx context.Context) ([]Designation, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM designations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return collectDesignations(rows)
}

// CreateDesignation inserts a designation.
func (r *PGRepository) CreateDesignation(ctx context.Context, name string) (Designation, error) {
	d := Designation{Name: name}
	if err := r.db.QueryRow(ctx, `INSERT INTO designations (name) VALUES ($1) RETURNING id`, name).Scan(&d.ID); err != nil {
		return Designation{}, translate(err)
	}
	return d, nil
}

// ListMappings returns every department/designation pair.
func (r *PGRepository) ListMappings(ctx context.Context) ([]Mapping, error) {
	rows, err := r.db.Query(ctx, `SELECT department_id, designation_id FROM department_designations ORDER BY department_id, designation_id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Mapping, error) {
		var m Mapping
		err := row.Scan(&m.DepartmentID, &m.DesignationID)
		return m, err
	})
}

// DesignationsForDepartment returns the designations allowed in one department.
func (r *PGRepository) DesignationsForDepartment(ctx context.Context, departmentID int64) ([]Designation, error) {
	rows, err := r.db.Query(ctx, `SELECT d.id, d.name FROM designations d
		JOIN department_designations dd ON dd.designation_id = d.id
		WHERE dd.department_id = $1 ORDER BY d.name`, departmentID)
	if err != nil {
		return nil, err
	}
	return collectDesignations(rows)
}

// MappingExists reports whether the pair is allowed.
func (r *PGRepository) MappingExists(ctx context.Context, departmentID, designationID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM department_designations WHERE department_id = $1 AND designation_id = $2)`,
		departmentID, designationID).Scan(&exists)
	return exists, err
}

// AddMapping inserts the pair and reports whether it was new.
func (r *PGRepository) AddMapping(ctx context.Context, m Mapping) (bool, error) {
	tag, err := r.db.Exec(ctx, `INSERT INTO department_designations (department_id, designation_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		m.DepartmentID, m.DesignationID)
	if err != nil {
		return false, translate(err)
	}
	return tag.RowsAffected() > 0, nil
}

// RemoveMapping deletes the pair and reports whether it existed.
func (r *PGRepository) RemoveMapping(ctx context.Context, m Mapping) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM department_designations WHERE department_id = $1 AND designation_id = $2`,
		m.DepartmentID, m.DesignationID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func collectDesignations(rows pgx.Rows) ([]Designation, error) {
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Designation, error) {
		var d Designation
		err := row.Scan(&d.ID, &d.Name)
		return d, err
	})
}

func translate(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%w: name already exists", httpx.ErrDuplicate)
	case db.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: unknown department or designation", httpx.ErrValidation)
	default:
		return err
	}
}
