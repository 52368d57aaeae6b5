package staffform

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/stitchline/stitchline-erp/internal/hr"
)

// ValidationError is a form error caught before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Field names an editable scalar of EmployeeDraft.
type Field string

const (
	FieldName       Field = "name"
	FieldAddress    Field = "address"
	FieldGender     Field = "gender"
	FieldDateOfJoin Field = "dateOfJoin"
	FieldSalary     Field = "salary"
	FieldStatus     Field = "status"
)

// EmployeeDraft is the employee form being edited.
type EmployeeDraft struct {
	mu            sync.Mutex
	id            int64
	fields        map[Field]string
	departmentID  int64
	designationID int64
}

func NewEmployeeDraft() *EmployeeDraft {
	d := &EmployeeDraft{}
	d.Reset()
	return d
}

// Reset empties the draft. New employees start active.
func (d *EmployeeDraft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.id, d.departmentID, d.designationID = 0, 0, 0
	d.fields = map[Field]string{FieldStatus: hr.StatusActive}
}

// Hydrate loads a stored employee for editing.
func (d *EmployeeDraft) Hydrate(e hr.Employee) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.id = e.ID
	d.fields = map[Field]string{
		FieldName:       e.Name,
		FieldAddress:    e.Address,
		FieldGender:     e.Gender,
		FieldDateOfJoin: e.DateOfJoin,
		FieldSalary:     e.Salary.String(),
		FieldStatus:     e.Status,
	}
	d.departmentID = e.DepartmentID
	d.designationID = e.DesignationID
}

func (d *EmployeeDraft) SetField(name Field, value string) error {
	switch name {
	case FieldName, FieldAddress, FieldGender, FieldDateOfJoin, FieldSalary, FieldStatus:
	default:
		return fmt.Errorf("staffform: unknown field %q", name)
	}
	d.mu.Lock()
	d.fields[name] = value
	d.mu.Unlock()
	return nil
}

// SetDepartment selects a department and reports whether the selected designation was cleared
// because the new department does not allow it. Unselecting the department keeps the
// designation.
func (d *EmployeeDraft) SetDepartment(departmentID int64, rules Rules) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.departmentID = departmentID
	if departmentID == 0 || d.designationID == 0 || rules.Allows(departmentID, d.designationID) {
		return false
	}
	d.designationID = 0
	return true
}

func (d *EmployeeDraft) SetDesignation(designationID int64) {
	d.mu.Lock()
	d.designationID = designationID
	d.mu.Unlock()
}

func (d *EmployeeDraft) ID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

func (d *EmployeeDraft) DepartmentID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.departmentID
}

func (d *EmployeeDraft) DesignationID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.designationID
}

// ToInput builds the request body. The name is required, the salary must be a non-negative
// decimal and a designation must be allowed by the selected department.
func (d *EmployeeDraft) ToInput(rules Rules) (hr.EmployeeInput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	in := hr.EmployeeInput{
		Name:          strings.TrimSpace(d.fields[FieldName]),
		Address:       strings.TrimSpace(d.fields[FieldAddress]),
		Gender:        strings.ToUpper(strings.TrimSpace(d.fields[FieldGender])),
		DateOfJoin:    strings.TrimSpace(d.fields[FieldDateOfJoin]),
		DepartmentID:  d.departmentID,
		DesignationID: d.designationID,
		Status:        d.fields[FieldStatus],
	}
	if in.Name == "" {
		return hr.EmployeeInput{}, &ValidationError{Field: string(FieldName), Message: "name is required"}
	}
	if raw := strings.TrimSpace(d.fields[FieldSalary]); raw != "" {
		salary, err := decimal.NewFromString(raw)
		if err != nil || salary.IsNegative() {
			return hr.EmployeeInput{}, &ValidationError{Field: string(FieldSalary), Message: "salary must be a non-negative amount"}
		}
		in.Salary = salary
	}
	if in.DepartmentID != 0 && in.DesignationID != 0 && !rules.Allows(in.DepartmentID, in.DesignationID) {
		return hr.EmployeeInput{}, &ValidationError{
			Field:   "designationId",
			Message: "designation " + strconv.FormatInt(in.DesignationID, 10) + " is not allowed in this department",
		}
	}
	return in, nil
}
