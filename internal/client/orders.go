package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/google/uuid"

	"github.com/stitchline/stitchline-erp/internal/orders"
	"github.com/stitchline/stitchline-erp/internal/shared"
)

// OrderQuery narrows ListOrders. Zero values are omitted.
type OrderQuery struct {
	Page   int
	Limit  int
	Search string
}

func (c *Client) ListOrders(ctx context.Context, q OrderQuery) (shared.Page[orders.Order], error) {
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
	var out shared.Page[orders.Order]
	err := c.doJSON(ctx, request{method: http.MethodGet, path: "/it/orders", query: v}, &out)
	return out, err
}

// GetOrder returns the full order including its quantities.
func (c *Client) GetOrder(ctx context.Context, id int64) (orders.Order, error) {
	var out orders.Order
	err := c.doJSON(ctx, request{method: http.MethodGet, path: idPath("/it/orders/%d", id)}, &out)
	return out, err
}

// CreateOrder submits a new order. An empty idempotencyKey gets a fresh one.
func (c *Client) CreateOrder(ctx context.Context, in orders.OrderInput, idempotencyKey string) (orders.Order, error) {
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	var out orders.Order
	err := c.doJSON(ctx, request{
		method:  http.MethodPost,
		path:    "/it/orders",
		body:    in,
		headers: map[string]string{orders.IdempotencyHeader: idempotencyKey},
	}, &out)
	return out, err
}

func (c *Client) UpdateOrder(ctx context.Context, id int64, in orders.OrderInput) (orders.Order, error) {
	var out orders.Order
	err := c.doJSON(ctx, request{method: http.MethodPut, path: idPath("/it/orders/%d", id), body: in}, &out)
	return out, err
}

func (c *Client) DeleteOrder(ctx context.Context, id int64) error {
	return c.doJSON(ctx, request{method: http.MethodDelete, path: idPath("/it/orders/%d", id)}, nil)
}

// OrderSheet downloads the rendered size breakdown PDF.
func (c *Client) OrderSheet(ctx context.Context, id int64) ([]byte, error) {
	return c.doRaw(ctx, request{method: http.MethodGet, path: idPath("/it/orders/%d/sheet.pdf", id)})
}
