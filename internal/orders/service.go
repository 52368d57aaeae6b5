package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/stitchline/stitchline-erp/internal/masters"
	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
	"github.com/stitchline/stitchline-erp/internal/shared"
	"github.com/stitchline/stitchline-erp/internal/sizematrix"
	"github.com/stitchline/stitchline-erp/report"
)

const idempotencyModule = "orders"

// Masters resolves the reference data an order points at.
type Masters interface {
	GetSizeCategory(ctx context.Context, id int64) (masters.SizeCategory, error)
	ListStyles(ctx context.Context) ([]masters.Style, error)
	ListColours(ctx context.Context, styleID int64) ([]masters.Colour, error)
}

// IdempotencyStore remembers processed Idempotency-Key values.
type IdempotencyStore interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// SheetRenderer turns a size sheet into a PDF.
type SheetRenderer interface {
	RenderSizeSheet(ctx context.Context, sheet report.SizeSheet) ([]byte, error)
}

// Service implements order intake rules.
type Service struct {
	repo     Repository
	masters  Masters
	idem     IdempotencyStore
	renderer SheetRenderer
	audit    shared.Auditor
}

// NewService constructs a Service. idem, renderer and audit are optional.
func NewService(repo Repository, m Masters, idem IdempotencyStore, renderer SheetRenderer, audit shared.Auditor) *Service {
	if audit == nil {
		audit = shared.NopAuditor{}
	}
	return &Service{repo: repo, masters: m, idem: idem, renderer: renderer, audit: audit}
}

// List returns one page of order headers.
func (s *Service) List(ctx context.Context, filter ListFilter) (shared.Page[Order], error) {
	pg := shared.NewPagination(filter.Page, filter.Limit, 0)
	filter.Page, filter.Limit = pg.Page, pg.PerPage
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return shared.Page[Order]{}, fmt.Errorf("list orders: %w", err)
	}
	return shared.Page[Order]{Items: items, Pagination: shared.NewPagination(filter.Page, filter.Limit, total)}, nil
}

// Get loads the full order including quantities.
func (s *Service) Get(ctx context.Context, id int64) (Order, error) {
	return s.repo.Get(ctx, id)
}

// Create validates and stores a new order. A non-empty idempotency key may be used once.
func (s *Service) Create(ctx context.Context, in OrderInput, idempotencyKey string) (Order, error) {
	if idempotencyKey != "" && s.idem != nil {
		if err := s.idem.CheckAndInsert(ctx, idempotencyKey, idempotencyModule); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				return Order{}, fmt.Errorf("%w: Idempotency-Key %q was already used", httpx.ErrConflict, idempotencyKey)
			}
			return Order{}, fmt.Errorf("idempotency check: %w", err)
		}
	}
	created, err := s.create(ctx, in)
	if err != nil {
		if idempotencyKey != "" && s.idem != nil {
			_ = s.idem.Delete(ctx, idempotencyKey)
		}
		return Order{}, err
	}
	return created, nil
}

func (s *Service) create(ctx context.Context, in OrderInput) (Order, error) {
	o, lines, err := s.build(ctx, in)
	if err != nil {
		return Order{}, err
	}
	o.CreatedBy = shared.ActorID(ctx)
	created, err := s.repo.Create(ctx, o, lines)
	if err != nil {
		return Order{}, err
	}
	s.record(ctx, "order.create", created.ID, map[string]any{"po": created.PO, "order_quantity": created.OrderQuantity})
	return created, nil
}

// Update validates and overwrites an order, replacing its quantities.
func (s *Service) Update(ctx context.Context, id int64, in OrderInput) (Order, error) {
	o, lines, err := s.build(ctx, in)
	if err != nil {
		return Order{}, err
	}
	o.ID = id
	updated, err := s.repo.Update(ctx, o, lines)
	if err != nil {
		return Order{}, err
	}
	s.record(ctx, "order.update", id, map[string]any{"order_quantity": updated.OrderQuantity})
	return updated, nil
}

// Delete removes an order.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.record(ctx, "order.delete", id, nil)
	return nil
}

// build normalises input and checks it against the selected size category. The order
// quantity is always recomputed from the quantities.
func (s *Service) build(ctx context.Context, in OrderInput) (Order, []SizeLine, error) {
	o := Order{
		Buyer:          strings.TrimSpace(in.Buyer),
		Brand:          strings.TrimSpace(in.Brand),
		Season:         strings.TrimSpace(in.Season),
		OC:             strings.TrimSpace(in.OC),
		PO:             strings.TrimSpace(in.PO),
		Country:        strings.TrimSpace(in.Country),
		StyleID:        in.StyleID,
		AgeGroupID:     in.AgeGroupID,
		CategoryID:     in.CategoryID,
		SizeCategoryID: in.SizeCategoryID,
		ColourCode:     strings.TrimSpace(in.ColourCode),
	}
	required := []struct{ field, value string }{{"buyer", o.Buyer}, {"brand", o.Brand}, {"po", o.PO}}
	for _, r := range required {
		if r.value == "" {
			return Order{}, nil, fmt.Errorf("%w: %s is required", httpx.ErrValidation, r.field)
		}
	}

	if err := s.checkColour(ctx, o.StyleID, o.ColourCode); err != nil {
		return Order{}, nil, err
	}

	q := make(sizematrix.Quantities, len(in.Quantities))
	for raw, qty := range in.Quantities {
		label := sizematrix.Normalize(raw)
		if _, dup := q[label]; dup {
			return Order{}, nil, fmt.Errorf("%w: size %q given more than once", httpx.ErrValidation, label)
		}
		q[label] = qty
	}

	var active []string
	if o.SizeCategoryID > 0 {
		sc, err := s.masters.GetSizeCategory(ctx, o.SizeCategoryID)
		if err != nil {
			if errors.Is(err, httpx.ErrNotFound) {
				return Order{}, nil, fmt.Errorf("%w: unknown size category %d", httpx.ErrValidation, o.SizeCategoryID)
			}
			return Order{}, nil, err
		}
		active = sizematrix.ActiveSizes(&sc)
	} else if len(q) > 0 {
		return Order{}, nil, fmt.Errorf("%w: quantities require a size category", httpx.ErrValidation)
	}
	if err := sizematrix.Validate(q, active); err != nil {
		return Order{}, nil, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}

	lines := make([]SizeLine, 0, len(q))
	seen := make(map[string]struct{}, len(active))
	for pos, label := range active {
		if _, dup := seen[label]; dup {
			continue
		}
		seen[label] = struct{}{}
		if qty, ok := q[label]; ok {
			lines = append(lines, SizeLine{Label: label, Position: pos, Quantity: qty})
		}
	}
	o.Quantities = q
	o.OrderQuantity = sizematrix.Total(q)
	return o, lines, nil
}

func (s *Service) checkColour(ctx context.Context, styleID int64, code string) error {
	if code == "" {
		return nil
	}
	if styleID <= 0 {
		return fmt.Errorf("%w: colour requires a style", httpx.ErrValidation)
	}
	colours, err := s.masters.ListColours(ctx, styleID)
	if err != nil {
		return fmt.Errorf("load colours: %w", err)
	}
	for _, c := range colours {
		if c.Code == code {
			return nil
		}
	}
	return fmt.Errorf("%w: colour %q does not belong to style %d", httpx.ErrValidation, code, styleID)
}

// Sheet assembles the printable size breakdown of an order.
func (s *Service) Sheet(ctx context.Context, id int64) (report.SizeSheet, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return report.SizeSheet{}, err
	}
	sheet := report.SizeSheet{
		OrderID: o.ID,
		Buyer:   o.Buyer,
		Brand:   o.Brand,
		Season:  o.Season,
		PO:      o.PO,
		Colour:  o.ColourCode,
		Total:   o.OrderQuantity,
	}
	var active []string
	if o.SizeCategoryID > 0 {
		sc, err := s.masters.GetSizeCategory(ctx, o.SizeCategoryID)
		if err != nil {
			return report.SizeSheet{}, err
		}
		sheet.SizeCategory = sc.Name
		active = sizematrix.ActiveSizes(&sc)
	}
	sheet.Rows = sizematrix.Breakdown(o.Quantities, active)
	if o.StyleID > 0 {
		styles, err := s.masters.ListStyles(ctx)
		if err != nil {
			return report.SizeSheet{}, err
		}
		for _, st := range styles {
			if st.ID == o.StyleID {
				sheet.Style = st.Name
				break
			}
		}
	}
	return sheet, nil
}

// RenderSheet produces the size breakdown PDF of an order.
func (s *Service) RenderSheet(ctx context.Context, id int64) ([]byte, error) {
	if s.renderer == nil {
		return nil, errors.New("pdf renderer not configured")
	}
	sheet, err := s.Sheet(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.renderer.RenderSizeSheet(ctx, sheet)
}

func (s *Service) record(ctx context.Context, action string, id int64, meta map[string]any) {
	_ = s.audit.Record(ctx, shared.AuditLog{
		Action:   action,
		Entity:   "order",
		EntityID: strconv.FormatInt(id, 10),
		Meta:     meta,
	})
}
