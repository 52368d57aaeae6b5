package staffform

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/stitchline/stitchline-erp/internal/client"
	"github.com/stitchline/stitchline-erp/internal/hr"
)

// ErrSubmitInFlight rejects a submission while another one is pending.
var ErrSubmitInFlight = errors.New("staffform: a submission is already in flight")

// EmployeeWriter persists employees. *client.Client satisfies it.
type EmployeeWriter interface {
	CreateEmployee(ctx context.Context, in hr.EmployeeInput) (hr.Employee, error)
	UpdateEmployee(ctx context.Context, id int64, in hr.EmployeeInput) (hr.Employee, error)
	SetEmployeeStatus(ctx context.Context, id int64, status string) error
}

// EmployeeSubmitter sends employee drafts one at a time.
type EmployeeSubmitter struct {
	api      EmployeeWriter
	notifier client.Notifier
	inFlight atomic.Bool
}

func NewEmployeeSubmitter(api EmployeeWriter, notifier client.Notifier) *EmployeeSubmitter {
	return &EmployeeSubmitter{api: api, notifier: notifier}
}

func (s *EmployeeSubmitter) InFlight() bool {
	return s.inFlight.Load()
}

// Submit creates or updates the employee in d. A created employee resets the draft.
func (s *EmployeeSubmitter) Submit(ctx context.Context, d *EmployeeDraft, rules Rules, isEdit bool) (hr.Employee, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return hr.Employee{}, ErrSubmitInFlight
	}
	defer s.inFlight.Store(false)

	in, err := d.ToInput(rules)
	if err != nil {
		client.Emit(s.notifier, client.LevelError, err.Error())
		return hr.Employee{}, err
	}

	var saved hr.Employee
	if isEdit {
		saved, err = s.api.UpdateEmployee(ctx, d.ID(), in)
	} else {
		saved, err = s.api.CreateEmployee(ctx, in)
	}
	if err != nil {
		client.Emit(s.notifier, client.LevelError, client.UserMessage(err, "could not save employee"))
		return hr.Employee{}, err
	}

	if isEdit {
		client.Emit(s.notifier, client.LevelSuccess, fmt.Sprintf("employee %s updated", saved.Name))
	} else {
		client.Emit(s.notifier, client.LevelSuccess, fmt.Sprintf("employee %s created", saved.Name))
		d.Reset()
	}
	return saved, nil
}

// SetStatus activates or deactivates an employee after the operator confirms.
func (s *EmployeeSubmitter) SetStatus(ctx context.Context, id int64, status string, confirm client.Confirmer) error {
	if status != hr.StatusActive && status != hr.StatusInactive {
		return &ValidationError{Field: string(FieldStatus), Message: "status must be ACTIVE or INACTIVE"}
	}
	if err := client.Confirm(confirm, fmt.Sprintf("Set employee %d to %s?", id, status)); err != nil {
		return err
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	defer s.inFlight.Store(false)

	if err := s.api.SetEmployeeStatus(ctx, id, status); err != nil {
		client.Emit(s.notifier, client.LevelError, client.UserMessage(err, "could not change employee status"))
		return err
	}
	client.Emit(s.notifier, client.LevelSuccess, "employee status updated")
	return nil
}
