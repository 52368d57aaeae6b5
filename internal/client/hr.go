package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/stitchline/stitchline-erp/internal/hr"
	"github.com/stitchline/stitchline-erp/internal/shared"
)

// EmployeeQuery narrows ListEmployees. Zero values are omitted.
type EmployeeQuery struct {
	Page   int
	Limit  int
	Search string
	Status string
}

func (q EmployeeQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	return v
}

func (c *Client) ListEmployees(ctx context.Context, q EmployeeQuery) (shared.Page[hr.Employee], error) {
	var out shared.Page[hr.Employee]
	err := c.doJSON(ctx, request{method: http.MethodGet, path: "/hr/employees", query: q.values()}, &out)
	return out, err
}

func (c *Client) GetEmployee(ctx context.Context, id int64) (hr.Employee, error) {
	var out hr.Employee
	err := c.doJSON(ctx, request{method: http.MethodGet, path: idPath("/hr/employees/%d", id)}, &out)
	return out, err
}

func (c *Client) CreateEmployee(ctx context.Context, in hr.EmployeeInput) (hr.Employee, error) {
	var out hr.Employee
	err := c.doJSON(ctx, request{method: http.MethodPost, path: "/hr/employees", body: in}, &out)
	return out, err
}

func (c *Client) UpdateEmployee(ctx context.Context, id int64, in hr.EmployeeInput) (hr.Employee, error) {
	var out hr.Employee
	err := c.doJSON(ctx, request{method: http.MethodPut, path: idPath("/hr/employees/%d", id), body: in}, &out)
	return out, err
}

// SetEmployeeStatus activates or deactivates an employee.
func (c *Client) SetEmployeeStatus(ctx context.Context, id int64, status string) error {
	return c.doJSON(ctx, request{
		method: http.MethodPut,
		path:   idPath("/hr/employees/%d/status", id),
		body:   hr.StatusInput{Status: status},
	}, nil)
}

func (c *Client) Departments(ctx context.Context) ([]hr.Department, error) {
	var out []hr.Department
	err := c.doJSON(ctx, request{method: http.MethodGet, path: "/hr/departments"}, &out)
	return out, err
}

func (c *Client) CreateDepartment(ctx context.Context, name string) (hr.Department, error) {
	var out hr.Department
	err := c.doJSON(ctx, request{method: http.MethodPost, path: "/hr/departments", body: hr.NameInput{Name: name}}, &out)
	return out, err
}

func (c *Client) Designations(ctx context.Context) ([]hr.Designation, error) {
	var out []hr.Designation
	err := c.doJSON(ctx, request{method: http.MethodGet, path: "/hr/designations"}, &out)
	return out, err
}

func (c *Client) CreateDesignation(ctx context.Context, name string) (hr.Designation, error) {
	var out hr.Designation
	err := c.doJSON(ctx, request{method: http.MethodPost, path: "/hr/designations", body: hr.NameInput{Name: name}}, &out)
	return out, err
}

// DepartmentDesignations lists the designations allowed in one department.
func (c *Client) DepartmentDesignations(ctx context.Context, departmentID int64) ([]hr.Designation, error) {
	var out []hr.Designation
	err := c.doJSON(ctx, request{method: http.MethodGet, path: idPath("/hr/departments/%d/designations", departmentID)}, &out)
	return out, err
}

func (c *Client) Mappings(ctx context.Context) ([]hr.Mapping, error) {
	var out []hr.Mapping
	err := c.doJSON(ctx, request{method: http.MethodGet, path: "/hr/mappings"}, &out)
	return out, err
}

func (c *Client) AddMapping(ctx context.Context, departmentID, designationID int64) error {
	return c.doJSON(ctx, request{
		method: http.MethodPost,
		path:   "/hr/mappings",
		body:   hr.Mapping{DepartmentID: departmentID, DesignationID: designationID},
	}, nil)
}

func (c *Client) RemoveMapping(ctx context.Context, departmentID, designationID int64) error {
	return c.doJSON(ctx, request{
		method: http.MethodDelete,
		path:   idPath("/hr/mappings/%d/%d", departmentID, designationID),
	}, nil)
}
