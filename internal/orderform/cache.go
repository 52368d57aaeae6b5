// Package orderform holds the order entry workflow of the workbench: the master-data cache, the
// order draft with its size matrix, the inline master-data modals and the submit controller.
package orderform

import (
	"context"
	"errors"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/stitchline/stitchline-erp/internal/masters"
)

// ErrStaleColours reports a colour list that arrived after the style selection moved on. The
// list was discarded.
var ErrStaleColours = errors.New("orderform: colour list superseded by a newer style selection")

// MasterSource reads the master lists. *client.Client satisfies it.
type MasterSource interface {
	Styles(ctx context.Context) ([]masters.Style, error)
	Colours(ctx context.Context, styleID int64) ([]masters.Colour, error)
	AgeGroups(ctx context.Context) ([]masters.AgeGroup, error)
	Categories(ctx context.Context) ([]masters.Category, error)
	SizeCategories(ctx context.Context) ([]masters.SizeCategory, error)
}

// MasterCache keeps the reference lists the order form picks from. Colours belong to one style
// at a time.
type MasterCache struct {
	src MasterSource

	mu             sync.RWMutex
	styles         []masters.Style
	ageGroups      []masters.AgeGroup
	categories     []masters.Category
	sizeCategories []masters.SizeCategory
	colours        []masters.Colour
	colourStyle    int64
}

// NewMasterCache returns an empty cache over src. Call Load before reading it.
func NewMasterCache(src MasterSource) *MasterCache {
	return &MasterCache{src: src}
}

// Load fetches the style, age group, category and size category lists in parallel. Each fetch
// fills its own list; the first failure cancels the rest.
func (m *MasterCache) Load(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := m.src.Styles(ctx)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.styles = list
		m.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		list, err := m.src.AgeGroups(ctx)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.ageGroups = list
		m.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		list, err := m.src.Categories(ctx)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.categories = list
		m.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		list, err := m.src.SizeCategories(ctx)
		if err != nil {
			return err
		}
		m.mu.Lock()
		m.sizeCategories = list
		m.mu.Unlock()
		return nil
	})
	return g.Wait()
}

// selectColourStyle clears the colour list and tags it with styleID. Responses for any other
// style are discarded from now on.
func (m *MasterCache) selectColourStyle(styleID int64) {
	m.mu.Lock()
	m.colourStyle = styleID
	m.colours = nil
	m.mu.Unlock()
}

// fetchColours loads the colours of styleID and installs them if styleID is still selected.
func (m *MasterCache) fetchColours(ctx context.Context, styleID int64) error {
	if styleID == 0 {
		return nil
	}
	list, err := m.src.Colours(ctx, styleID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.colourStyle != styleID {
		return ErrStaleColours
	}
	if err != nil {
		return err
	}
	m.colours = list
	return nil
}

// ReloadColours selects styleID and loads its colours.
func (m *MasterCache) ReloadColours(ctx context.Context, styleID int64) error {
	m.selectColourStyle(styleID)
	return m.fetchColours(ctx, styleID)
}

// Styles returns a copy of the cached styles.
func (m *MasterCache) Styles() []masters.Style {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.styles)
}

// Colours returns the colours of the selected style. It is empty while a reload is pending.
func (m *MasterCache) Colours() []masters.Colour {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.colours)
}

// ColourStyle returns the style the colour list belongs to.
func (m *MasterCache) ColourStyle() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.colourStyle
}

// AgeGroups returns a copy of the cached age groups.
func (m *MasterCache) AgeGroups() []masters.AgeGroup {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.ageGroups)
}

// Categories returns a copy of the cached categories.
func (m *MasterCache) Categories() []masters.Category {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.categories)
}

// SizeCategories returns a copy of the cached size categories.
func (m *MasterCache) SizeCategories() []masters.SizeCategory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.sizeCategories)
}

// Style looks up a cached style.
func (m *MasterCache) Style(id int64) (masters.Style, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.styles {
		if s.ID == id {
			return s, true
		}
	}
	return masters.Style{}, false
}

// SizeCategory looks up a cached size category. It returns nil when id is unknown or zero.
func (m *MasterCache) SizeCategory(id int64) *masters.SizeCategory {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, sc := range m.sizeCategories {
		if sc.ID == id {
			rec := sc
			return &rec
		}
	}
	return nil
}

// AppendStyle adds a style the server has just created.
func (m *MasterCache) AppendStyle(s masters.Style) {
	m.mu.Lock()
	m.styles = append(m.styles, s)
	m.mu.Unlock()
}

// AppendColour adds c when it belongs to the selected style.
func (m *MasterCache) AppendColour(c masters.Colour) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.StyleID != m.colourStyle {
		return false
	}
	m.colours = append(m.colours, c)
	return true
}

// AppendAgeGroup adds an age group the server has just created.
func (m *MasterCache) AppendAgeGroup(a masters.AgeGroup) {
	m.mu.Lock()
	m.ageGroups = append(m.ageGroups, a)
	m.mu.Unlock()
}

// AppendCategory adds a category the server has just created.
func (m *MasterCache) AppendCategory(c masters.Category) {
	m.mu.Lock()
	m.categories = append(m.categories, c)
	m.mu.Unlock()
}

// AppendSizeCategory adds a size category the server has just created.
func (m *MasterCache) AppendSizeCategory(sc masters.SizeCategory) {
	m.mu.Lock()
	m.sizeCategories = append(m.sizeCategories, sc)
	m.mu.Unlock()
}

// ReplaceSizeCategory swaps the cached record with the same id in place, appending it when
// absent.
func (m *MasterCache) ReplaceSizeCategory(sc masters.SizeCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.sizeCategories {
		if m.sizeCategories[i].ID == sc.ID {
			m.sizeCategories[i] = sc
			return
		}
	}
	m.sizeCategories = append(m.sizeCategories, sc)
}
