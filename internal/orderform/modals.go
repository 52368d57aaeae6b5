package orderform

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/stitchline/stitchline-erp/internal/client"
	"github.com/stitchline/stitchline-erp/internal/masters"
)

// Kind names the master record an inline modal creates or edits.
type Kind string

const (
	KindStyle              Kind = "style"
	KindColour             Kind = "colour"
	KindAgeGroup           Kind = "ageGroup"
	KindCategory           Kind = "category"
	KindSizeCategory       Kind = "sizeCategory"
	KindSizeCategoryAppend Kind = "sizeCategoryAppend"
)

var (
	// ErrModalClosed is returned by Submit when no modal is open.
	ErrModalClosed = errors.New("orderform: no modal open")
	// ErrModalKind is returned when the request does not match the open modal.
	ErrModalKind = errors.New("orderform: request does not match the open modal")
	// ErrStyleChanged is returned when a colour was saved for a style that is no longer selected.
	// The colour exists on the server but is not selected in the draft.
	ErrStyleChanged = errors.New("style changed while saving; the new colour was not selected")
)

// Request is one modal submission. The concrete types below are the only implementations.
type Request interface {
	Kind() Kind
}

// StyleInput creates a style.
type StyleInput struct {
	Name  string
	Brand string
}

// ColourInput creates a colour for the draft's selected style.
type ColourInput struct {
	Code string
	Name string
}

// AgeGroupInput creates an age group.
type AgeGroupInput struct {
	Name string
}

// CategoryInput creates a category.
type CategoryInput struct {
	Name string
}

// SizeCategoryInput creates a size category from a comma-separated label list.
type SizeCategoryInput struct {
	Name  string
	Sizes string
}

// AppendSizesInput adds labels to the draft's selected size category.
type AppendSizesInput struct {
	Sizes string
}

func (StyleInput) Kind() Kind        { return KindStyle }
func (ColourInput) Kind() Kind       { return KindColour }
func (AgeGroupInput) Kind() Kind     { return KindAgeGroup }
func (CategoryInput) Kind() Kind     { return KindCategory }
func (SizeCategoryInput) Kind() Kind { return KindSizeCategory }
func (AppendSizesInput) Kind() Kind  { return KindSizeCategoryAppend }

// MasterWriter creates master records. *client.Client satisfies it.
type MasterWriter interface {
	CreateStyle(ctx context.Context, in masters.StyleInput) (masters.Style, error)
	CreateColour(ctx context.Context, in masters.ColourInput) (masters.Colour, error)
	CreateAgeGroup(ctx context.Context, in masters.AgeGroupInput) (masters.AgeGroup, error)
	CreateCategory(ctx context.Context, in masters.CategoryInput) (masters.Category, error)
	CreateSizeCategory(ctx context.Context, in masters.SizeCategoryInput) (masters.SizeCategory, error)
	AppendSizes(ctx context.Context, sizeCategoryID int64, sizes string) (masters.SizeCategory, error)
}

// Modals is the inline-create controller: closed, or open for exactly one Kind. The cache and
// draft change only after the server confirms a submission.
type Modals struct {
	api   MasterWriter
	cache *MasterCache
	draft *Draft

	inFlight atomic.Bool

	mu   sync.Mutex
	open Kind
	err  string
}

// NewModals returns a closed modal controller over cache and draft.
func NewModals(api MasterWriter, cache *MasterCache, draft *Draft) *Modals {
	return &Modals{api: api, cache: cache, draft: draft}
}

// Open shows the modal for kind. Appending sizes needs a selected size category; without one
// Open does nothing and reports false.
func (m *Modals) Open(kind Kind) bool {
	if kind == KindSizeCategoryAppend && m.draft.SizeCategoryID() == 0 {
		return false
	}
	m.mu.Lock()
	m.open = kind
	m.err = ""
	m.mu.Unlock()
	return true
}

// Cancel closes the modal without submitting.
func (m *Modals) Cancel() {
	m.mu.Lock()
	m.open = ""
	m.err = ""
	m.mu.Unlock()
}

// State returns the open kind and whether a modal is open.
func (m *Modals) State() (Kind, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open, m.open != ""
}

// InFlight reports whether a submission is pending.
func (m *Modals) InFlight() bool {
	return m.inFlight.Load()
}

// Err returns the message of the last failed submission.
func (m *Modals) Err() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Submit sends req. On success the record is merged into the cache, created records are
// selected in the draft and the modal closes. On failure the modal stays open with the error.
// A second Submit while one is pending returns ErrSubmitInFlight and sends nothing.
func (m *Modals) Submit(ctx context.Context, req Request) error {
	kind, open := m.State()
	if !open {
		return ErrModalClosed
	}
	if req == nil || req.Kind() != kind {
		return ErrModalKind
	}
	if !m.inFlight.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	defer m.inFlight.Store(false)

	var err error
	switch r := req.(type) {
	case StyleInput:
		var s masters.Style
		if s, err = m.api.CreateStyle(ctx, masters.StyleInput{Name: strings.TrimSpace(r.Name), Brand: strings.TrimSpace(r.Brand)}); err == nil {
			m.cache.AppendStyle(s)
			// Wait for the new style's colour list so a colour created next is not overwritten.
			<-m.draft.SetStyle(ctx, s.ID)
		}
	case ColourInput:
		styleID := m.draft.StyleID()
		if styleID == 0 {
			return m.fail(&ValidationError{Field: "styleId", Message: "select a style before adding a colour"}, "")
		}
		var c masters.Colour
		if c, err = m.api.CreateColour(ctx, masters.ColourInput{StyleID: styleID, Code: strings.TrimSpace(r.Code), Name: strings.TrimSpace(r.Name)}); err == nil {
			if !m.cache.AppendColour(c) || m.draft.StyleID() != styleID {
				// The operator picked another style meanwhile; the colour is not theirs to select.
				m.Cancel()
				return m.fail(ErrStyleChanged, "")
			}
			_ = m.draft.SetField(FieldColourCode, c.Code)
		}
	case AgeGroupInput:
		var a masters.AgeGroup
		if a, err = m.api.CreateAgeGroup(ctx, masters.AgeGroupInput{Name: strings.TrimSpace(r.Name)}); err == nil {
			m.cache.AppendAgeGroup(a)
			_ = m.draft.SetField(FieldAgeGroup, strconv.FormatInt(a.ID, 10))
		}
	case CategoryInput:
		var c masters.Category
		if c, err = m.api.CreateCategory(ctx, masters.CategoryInput{Name: strings.TrimSpace(r.Name)}); err == nil {
			m.cache.AppendCategory(c)
			_ = m.draft.SetField(FieldCategory, strconv.FormatInt(c.ID, 10))
		}
	case SizeCategoryInput:
		var sc masters.SizeCategory
		if sc, err = m.api.CreateSizeCategory(ctx, masters.SizeCategoryInput{Name: strings.TrimSpace(r.Name), Sizes: r.Sizes}); err == nil {
			m.cache.AppendSizeCategory(sc)
			m.draft.SelectSizeCategory(sc.ID)
		}
	case AppendSizesInput:
		var sc masters.SizeCategory
		if sc, err = m.api.AppendSizes(ctx, m.draft.SizeCategoryID(), r.Sizes); err == nil {
			m.cache.ReplaceSizeCategory(sc)
			m.draft.RefreshSizes()
		}
	default:
		return ErrModalKind
	}
	if err != nil {
		return m.fail(err, "could not save "+string(kind))
	}
	m.Cancel()
	return nil
}

func (m *Modals) fail(err error, fallback string) error {
	m.mu.Lock()
	m.err = client.UserMessage(err, fallback)
	m.mu.Unlock()
	return err
}
