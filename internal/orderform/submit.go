package orderform

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/stitchline/stitchline-erp/internal/client"
	"github.com/stitchline/stitchline-erp/internal/orders"
)

// ErrSubmitInFlight rejects a submission while another one from the same controller is pending.
var ErrSubmitInFlight = errors.New("orderform: a submission is already in flight")

// OrderWriter persists orders. *client.Client satisfies it.
type OrderWriter interface {
	CreateOrder(ctx context.Context, in orders.OrderInput, idempotencyKey string) (orders.Order, error)
	UpdateOrder(ctx context.Context, id int64, in orders.OrderInput) (orders.Order, error)
	DeleteOrder(ctx context.Context, id int64) error
}

// Submitter sends drafts to the server one at a time. The in-flight guard is released when the
// request settles; the client's timeout bounds how long that takes.
type Submitter struct {
	api      OrderWriter
	notifier client.Notifier
	inFlight atomic.Bool
}

// NewSubmitter returns an idle submitter that reports outcomes to notifier.
func NewSubmitter(api OrderWriter, notifier client.Notifier) *Submitter {
	return &Submitter{api: api, notifier: notifier}
}

// InFlight reports whether a request is pending.
func (s *Submitter) InFlight() bool {
	return s.inFlight.Load()
}

// SubmitOrder creates or updates the order in d. A created order resets the draft.
func (s *Submitter) SubmitOrder(ctx context.Context, d *Draft, isEdit bool) (orders.Order, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return orders.Order{}, ErrSubmitInFlight
	}
	defer s.inFlight.Store(false)

	in, err := d.ToSubmission()
	if err != nil {
		client.Emit(s.notifier, client.LevelError, err.Error())
		return orders.Order{}, err
	}

	var saved orders.Order
	if isEdit {
		saved, err = s.api.UpdateOrder(ctx, d.ID(), in)
	} else {
		saved, err = s.api.CreateOrder(ctx, in, d.IdempotencyKey())
	}
	if err != nil {
		client.Emit(s.notifier, client.LevelError, client.UserMessage(err, "could not save order"))
		return orders.Order{}, err
	}

	if isEdit {
		client.Emit(s.notifier, client.LevelSuccess, fmt.Sprintf("order %s updated", saved.PO))
	} else {
		client.Emit(s.notifier, client.LevelSuccess, fmt.Sprintf("order %s created", saved.PO))
		d.Reset()
	}
	return saved, nil
}

// DeleteOrder removes an order after the operator confirms.
func (s *Submitter) DeleteOrder(ctx context.Context, id int64, confirm client.Confirmer) error {
	if err := client.Confirm(confirm, "Delete order "+strconv.FormatInt(id, 10)+"?"); err != nil {
		return err
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	defer s.inFlight.Store(false)

	if err := s.api.DeleteOrder(ctx, id); err != nil {
		client.Emit(s.notifier, client.LevelError, client.UserMessage(err, "could not delete order"))
		return err
	}
	client.Emit(s.notifier, client.LevelSuccess, "order deleted")
	return nil
}
