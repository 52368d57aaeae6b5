// Package staffform holds the client-side state of the employee form and the department to
// designation mapping board.
package staffform

import (
	"slices"

	"github.com/stitchline/stitchline-erp/internal/hr"
)

// Rules is the department to allowed-designation set.
type Rules map[int64]map[int64]struct{}

// RulesFrom indexes a mapping list.
func RulesFrom(mappings []hr.Mapping) Rules {
	r := make(Rules)
	for _, m := range mappings {
		set, ok := r[m.DepartmentID]
		if !ok {
			set = make(map[int64]struct{})
			r[m.DepartmentID] = set
		}
		set[m.DesignationID] = struct{}{}
	}
	return r
}

// Allows reports whether designationID may be held within departmentID.
func (r Rules) Allows(departmentID, designationID int64) bool {
	_, ok := r[departmentID][designationID]
	return ok
}

func (r Rules) clone() Rules {
	out := make(Rules, len(r))
	for dept, set := range r {
		copied := make(map[int64]struct{}, len(set))
		for desig := range set {
			copied[desig] = struct{}{}
		}
		out[dept] = copied
	}
	return out
}

// AllowanceState says how an Allowance was computed.
type AllowanceState int

const (
	// Filtered lists the designations the selected department allows.
	Filtered AllowanceState = iota
	// NoDepartment means nothing is selected; Designations is the full list for display only.
	NoDepartment
)

// Allowance is the designation choice offered for a department.
type Allowance struct {
	State        AllowanceState
	Designations []hr.Designation
}

// Permits reports whether designationID is granted. Nothing is granted without a department.
func (a Allowance) Permits(designationID int64) bool {
	if a.State != Filtered {
		return false
	}
	return slices.ContainsFunc(a.Designations, func(d hr.Designation) bool { return d.ID == designationID })
}

// AllowedDesignations filters all to the designations rules allow within departmentID, keeping
// the order of all.
func AllowedDesignations(departmentID int64, rules Rules, all []hr.Designation) Allowance {
	if departmentID == 0 {
		return Allowance{State: NoDepartment, Designations: slices.Clone(all)}
	}
	out := []hr.Designation{}
	for _, d := range all {
		if rules.Allows(departmentID, d.ID) {
			out = append(out, d)
		}
	}
	return Allowance{State: Filtered, Designations: out}
}
