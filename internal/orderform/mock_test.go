package orderform

import (
	"context"
	"errors"
	"sync"

	"github.com/stitchline/stitchline-erp/internal/client"
	"github.com/stitchline/stitchline-erp/internal/masters"
	"github.com/stitchline/stitchline-erp/internal/orders"
)

type fakeMasters struct {
	mu         sync.Mutex
	colours    map[int64][]masters.Colour
	gates      map[int64]chan struct{}
	sizesErr   error
	calls      int
	nextID     int64
	createErr  error
	sizeCats   map[int64]masters.SizeCategory
	colourReqs []masters.ColourInput
	// beforeColour runs inside CreateColour before it answers.
	beforeColour func()
	createGate   chan struct{}
}

func newFakeMasters() *fakeMasters {
	return &fakeMasters{
		colours: map[int64][]masters.Colour{
			5: {{Code: "RED", Name: "Red", StyleID: 5}},
			6: {{Code: "NAVY", Name: "Navy", StyleID: 6}},
		},
		gates: map[int64]chan struct{}{},
		sizeCats: map[int64]masters.SizeCategory{
			1: {ID: 1, Name: "Adult", Sizes: "S,M,L"},
			2: {ID: 2, Name: "Kids", Sizes: "S,M"},
		},
		nextID: 100,
	}
}

func (f *fakeMasters) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeMasters) hit() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeMasters) Styles(context.Context) ([]masters.Style, error) {
	f.hit()
	return []masters.Style{{ID: 5, Name: "Polo", Brand: "Uniqlo"}, {ID: 6, Name: "Tee"}}, nil
}

func (f *fakeMasters) Colours(ctx context.Context, styleID int64) ([]masters.Colour, error) {
	f.hit()
	f.mu.Lock()
	gate := f.gates[styleID]
	list := f.colours[styleID]
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return list, nil
}

func (f *fakeMasters) AgeGroups(context.Context) ([]masters.AgeGroup, error) {
	f.hit()
	return []masters.AgeGroup{{ID: 1, Name: "Adult"}}, nil
}

func (f *fakeMasters) Categories(context.Context) ([]masters.Category, error) {
	f.hit()
	return []masters.Category{{ID: 1, Name: "Tops"}}, nil
}

func (f *fakeMasters) SizeCategories(context.Context) ([]masters.SizeCategory, error) {
	f.hit()
	if f.sizesErr != nil {
		return nil, f.sizesErr
	}
	return []masters.SizeCategory{f.sizeCats[1], f.sizeCats[2]}, nil
}

func (f *fakeMasters) create() (int64, error) {
	f.hit()
	if f.createGate != nil {
		<-f.createGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeMasters) CreateStyle(_ context.Context, in masters.StyleInput) (masters.Style, error) {
	id, err := f.create()
	return masters.Style{ID: id, Name: in.Name, Brand: in.Brand}, err
}

func (f *fakeMasters) CreateColour(_ context.Context, in masters.ColourInput) (masters.Colour, error) {
	f.mu.Lock()
	f.colourReqs = append(f.colourReqs, in)
	hook := f.beforeColour
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	_, err := f.create()
	return masters.Colour{Code: in.Code, Name: in.Name, StyleID: in.StyleID}, err
}

func (f *fakeMasters) CreateAgeGroup(_ context.Context, in masters.AgeGroupInput) (masters.AgeGroup, error) {
	id, err := f.create()
	return masters.AgeGroup{ID: id, Name: in.Name}, err
}

func (f *fakeMasters) CreateCategory(_ context.Context, in masters.CategoryInput) (masters.Category, error) {
	id, err := f.create()
	return masters.Category{ID: id, Name: in.Name}, err
}

func (f *fakeMasters) CreateSizeCategory(_ context.Context, in masters.SizeCategoryInput) (masters.SizeCategory, error) {
	id, err := f.create()
	return masters.SizeCategory{ID: id, Name: in.Name, Sizes: in.Sizes}, err
}

func (f *fakeMasters) AppendSizes(_ context.Context, id int64, sizes string) (masters.SizeCategory, error) {
	if _, err := f.create(); err != nil {
		return masters.SizeCategory{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	sc := f.sizeCats[id]
	sc.Sizes += "," + sizes
	f.sizeCats[id] = sc
	return sc, nil
}

type fakeOrders struct {
	mu      sync.Mutex
	gate    chan struct{}
	err     error
	created []orders.OrderInput
	keys    []string
	updated map[int64]orders.OrderInput
	deleted []int64
}

func (f *fakeOrders) wait(ctx context.Context) error {
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeOrders) CreateOrder(ctx context.Context, in orders.OrderInput, key string) (orders.Order, error) {
	if err := f.wait(ctx); err != nil {
		return orders.Order{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return orders.Order{}, f.err
	}
	f.created = append(f.created, in)
	f.keys = append(f.keys, key)
	return orders.Order{ID: int64(len(f.created)), PO: in.PO}, nil
}

func (f *fakeOrders) UpdateOrder(ctx context.Context, id int64, in orders.OrderInput) (orders.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return orders.Order{}, f.err
	}
	if f.updated == nil {
		f.updated = map[int64]orders.OrderInput{}
	}
	f.updated[id] = in
	return orders.Order{ID: id, PO: in.PO}, nil
}

func (f *fakeOrders) DeleteOrder(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type noticeLog struct {
	mu      sync.Mutex
	notices []client.Notice
}

func (n *noticeLog) Notify(notice client.Notice) {
	n.mu.Lock()
	n.notices = append(n.notices, notice)
	n.mu.Unlock()
}

func (n *noticeLog) last() client.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.notices) == 0 {
		return client.Notice{}
	}
	return n.notices[len(n.notices)-1]
}

var errBoom = errors.New("boom")
