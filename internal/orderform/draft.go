package orderform

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/stitchline/stitchline-erp/internal/orders"
	"github.com/stitchline/stitchline-erp/internal/sizematrix"
)

// ValidationError is a draft problem caught before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Field names a scalar draft field.
type Field string

// Scalar fields settable through SetField. Style and size category have their own setters.
const (
	FieldBuyer      Field = "buyer"
	FieldBrand      Field = "brand"
	FieldSeason     Field = "season"
	FieldOC         Field = "oc"
	FieldPO         Field = "po"
	FieldCountry    Field = "country"
	FieldAgeGroup   Field = "ageGroupId"
	FieldCategory   Field = "categoryId"
	FieldColourCode Field = "colourCode"
)

// Draft is the order being entered or edited. Zero ids and an empty colour code mean
// unselected. The order quantity is always derived from the quantities.
type Draft struct {
	cache *MasterCache

	mu             sync.Mutex
	id             int64
	idempotencyKey string
	buyer          string
	brand          string
	season         string
	oc             string
	po             string
	country        string
	styleID        int64
	ageGroupID     int64
	categoryID     int64
	sizeCategoryID int64
	colourCode     string
	active         []string
	quantities     sizematrix.Quantities
}

// NewDraft returns an empty draft reading master data from cache.
func NewDraft(cache *MasterCache) *Draft {
	d := &Draft{cache: cache}
	d.resetLocked()
	return d
}

func (d *Draft) resetLocked() {
	d.id = 0
	d.idempotencyKey = uuid.NewString()
	d.buyer, d.brand, d.season, d.oc, d.po, d.country = "", "", "", "", "", ""
	d.styleID, d.ageGroupID, d.categoryID, d.sizeCategoryID = 0, 0, 0, 0
	d.colourCode = ""
	d.active = []string{}
	d.quantities = sizematrix.Quantities{}
}

// Reset empties the draft for the next order.
func (d *Draft) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resetLocked()
	d.cache.selectColourStyle(0)
}

// SetField updates one scalar field. Id fields accept "" and "0" as unselected.
func (d *Draft) SetField(name Field, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch name {
	case FieldBuyer:
		d.buyer = value
	case FieldBrand:
		d.brand = value
	case FieldSeason:
		d.season = value
	case FieldOC:
		d.oc = value
	case FieldPO:
		d.po = value
	case FieldCountry:
		d.country = value
	case FieldColourCode:
		d.colourCode = strings.TrimSpace(value)
	case FieldAgeGroup, FieldCategory:
		id, err := parseID(name, value)
		if err != nil {
			return err
		}
		if name == FieldAgeGroup {
			d.ageGroupID = id
		} else {
			d.categoryID = id
		}
	default:
		return fmt.Errorf("orderform: unknown field %q", name)
	}
	return nil
}

func parseID(name Field, value string) (int64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(value, 10, 64)
	if err != nil || id < 0 {
		return 0, &ValidationError{Field: string(name), Message: fmt.Sprintf("%s must be a positive number", name)}
	}
	return id, nil
}

// SetStyle selects a style. The colour is reset and the colour list cleared at once; the new
// list loads in the background and the returned channel yields its outcome. A style carrying a
// brand overwrites the brand field.
func (d *Draft) SetStyle(ctx context.Context, styleID int64) <-chan error {
	d.mu.Lock()
	d.styleID = styleID
	d.colourCode = ""
	if style, ok := d.cache.Style(styleID); ok && style.Brand != "" {
		d.brand = style.Brand
	}
	d.mu.Unlock()

	return d.reloadColours(ctx, styleID)
}

func (d *Draft) reloadColours(ctx context.Context, styleID int64) <-chan error {
	d.cache.selectColourStyle(styleID)
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- d.cache.fetchColours(ctx, styleID)
	}()
	return done
}

// SelectSizeCategory switches the size category. Quantities for sizes the new category lacks
// are dropped.
func (d *Draft) SelectSizeCategory(id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sizeCategoryID = id
	d.applySizesLocked()
}

// RefreshSizes re-reads the selected size category after its labels changed.
func (d *Draft) RefreshSizes() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.applySizesLocked()
}

func (d *Draft) applySizesLocked() {
	var rec *sizematrix.SizeCategory
	if d.sizeCategoryID != 0 {
		rec = d.cache.SizeCategory(d.sizeCategoryID)
	}
	d.active = sizematrix.ActiveSizes(rec)
	d.quantities = sizematrix.Reconcile(d.quantities, d.active)
}

// SetQuantity stores the quantity for one active size. Non-numeric or negative input counts as
// zero.
func (d *Draft) SetQuantity(label, raw string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := sizematrix.Normalize(label)
	if !slices.Contains(d.active, key) {
		return &ValidationError{Field: "quantities", Message: fmt.Sprintf("size %q is not in the selected size category", key)}
	}
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || qty < 0 {
		qty = 0
	}
	d.quantities[key] = qty
	return nil
}

// OrderQuantity is the sum of all quantities.
func (d *Draft) OrderQuantity() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sizematrix.Total(d.quantities)
}

// ActiveSizes returns the size keys of the selected size category in stored order.
func (d *Draft) ActiveSizes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.active)
}

// Quantity returns the quantity entered for label.
func (d *Draft) Quantity(label string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.quantities[sizematrix.Normalize(label)]
}

// Quantities returns a copy of the quantity map.
func (d *Draft) Quantities() sizematrix.Quantities {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(sizematrix.Quantities, len(d.quantities))
	for k, v := range d.quantities {
		out[k] = v
	}
	return out
}

// Rows lays the quantities out as a size breakdown.
func (d *Draft) Rows() []sizematrix.Row {
	d.mu.Lock()
	defer d.mu.Unlock()
	return sizematrix.Breakdown(d.quantities, d.active)
}

// ID is the stored order id, zero for a new order.
func (d *Draft) ID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.id
}

// StyleID is the selected style, zero when none.
func (d *Draft) StyleID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.styleID
}

// SizeCategoryID is the selected size category, zero when none.
func (d *Draft) SizeCategoryID() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sizeCategoryID
}

// ColourCode is the selected colour of the selected style.
func (d *Draft) ColourCode() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.colourCode
}

// Brand returns the brand field.
func (d *Draft) Brand() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.brand
}

// IdempotencyKey identifies this draft's create request. It changes on Reset.
func (d *Draft) IdempotencyKey() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.idempotencyKey
}

// ToSubmission builds the request body, failing on the first empty required field.
func (d *Draft) ToSubmission() (orders.OrderInput, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	in := orders.OrderInput{
		Buyer:          strings.TrimSpace(d.buyer),
		Brand:          strings.TrimSpace(d.brand),
		Season:         strings.TrimSpace(d.season),
		OC:             strings.TrimSpace(d.oc),
		PO:             strings.TrimSpace(d.po),
		Country:        strings.TrimSpace(d.country),
		StyleID:        d.styleID,
		AgeGroupID:     d.ageGroupID,
		CategoryID:     d.categoryID,
		SizeCategoryID: d.sizeCategoryID,
		ColourCode:     d.colourCode,
		Quantities:     make(map[string]int, len(d.quantities)),
	}
	for _, req := range []struct {
		field Field
		value string
	}{{FieldBuyer, in.Buyer}, {FieldBrand, in.Brand}, {FieldPO, in.PO}} {
		if req.value == "" {
			return orders.OrderInput{}, &ValidationError{Field: string(req.field), Message: fmt.Sprintf("%s is required", req.field)}
		}
	}
	for k, v := range d.quantities {
		in.Quantities[k] = v
	}
	return in, nil
}

// Hydrate loads a stored order for editing and starts loading the colours of its style.
// Quantities are kept as stored until the order's size category is in the cache.
func (d *Draft) Hydrate(ctx context.Context, o orders.Order) <-chan error {
	d.mu.Lock()
	d.id = o.ID
	d.buyer = o.Buyer
	d.brand = o.Brand
	d.season = o.Season
	d.oc = o.OC
	d.po = o.PO
	d.country = o.Country
	d.styleID = o.StyleID
	d.ageGroupID = o.AgeGroupID
	d.categoryID = o.CategoryID
	d.sizeCategoryID = o.SizeCategoryID
	d.colourCode = o.ColourCode
	d.quantities = sizematrix.Quantities{}
	for k, v := range o.Quantities {
		d.quantities[sizematrix.Normalize(k)] = v
	}
	if rec := d.cache.SizeCategory(o.SizeCategoryID); rec != nil {
		d.active = sizematrix.ActiveSizes(rec)
		d.quantities = sizematrix.Reconcile(d.quantities, d.active)
	} else {
		d.active = []string{}
	}
	styleID := d.styleID
	d.mu.Unlock()

	return d.reloadColours(ctx, styleID)
}
