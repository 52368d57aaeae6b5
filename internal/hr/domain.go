package hr

import (
	"time"

	"github.com/shopspring/decimal"
)

// Employee status values.
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

// Employee is a staff record. Zero department or designation ids mean unassigned.
type Employee struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Address       string          `json:"address"`
	Gender        string          `json:"gender"`
	DateOfJoin    string          `json:"dateOfJoin"`
	Salary        decimal.Decimal `json:"salary"`
	DesignationID int64           `json:"designationId"`
	DepartmentID  int64           `json:"departmentId"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// EmployeeInput is the body of employee create and update requests.
type EmployeeInput struct {
	Name          string          `json:"name" validate:"required,max=120"`
	Address       string          `json:"address" validate:"max=255"`
	Gender        string          `json:"gender" validate:"omitempty,oneof=M F O"`
	DateOfJoin    string          `json:"dateOfJoin" validate:"omitempty,datetime=2006-01-02"`
	Salary        decimal.Decimal `json:"salary"`
	DesignationID int64           `json:"designationId" validate:"gte=0"`
	DepartmentID  int64           `json:"departmentId" validate:"gte=0"`
	Status        string          `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
}

// StatusInput is the body of PUT /hr/employees/{id}/status.
type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE INACTIVE"`
}

// EmployeeFilter narrows employee listings.
type EmployeeFilter struct {
	Page   int
	Limit  int
	Search string
	Status string
}

// Department groups employees.
type Department struct {
	ID   int64  `json:"departmentId"`
	Name string `json:"departmentName"`
}

// Designation is a job title.
type Designation struct {
	ID   int64  `json:"designationId"`
	Name string `json:"designationName"`
}

// NameInput is the body for creating departments and designations.
type NameInput struct {
	Name string `json:"name" validate:"required,max=120"`
}

// Mapping allows one designation within one department.
type Mapping struct {
	DepartmentID  int64 `json:"departmentId" validate:"required,gt=0"`
	DesignationID int64 `json:"designationId" validate:"required,gt=0"`
}

// MappingsChanged is published after every mapping mutation.
const MappingsChanged = "mappings.changed"
