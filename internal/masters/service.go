package masters

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/stitchline/stitchline-erp/internal/platform/cache"
	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
	"github.com/stitchline/stitchline-erp/internal/sizematrix"
)

// Warmer schedules an asynchronous refill of the master list cache.
type Warmer interface {
	EnqueueMastersWarm(ctx context.Context) error
}

// Service serves master lists through a read-through cache.
type Service struct {
	repo   Repository
	cache  *cache.JSONCache
	warmer Warmer
	logger *slog.Logger
}

// NewService constructs a Service. A nil cache reads straight from the repository and a nil
// warmer skips warmup scheduling.
func NewService(repo Repository, c *cache.JSONCache, warmer Warmer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: c, warmer: warmer, logger: logger}
}

func colourKey(styleID int64) string {
	return string(KindColours) + ":" + strconv.FormatInt(styleID, 10)
}

func (s *Service) ListStyles(ctx context.Context) ([]Style, error) {
	var out []Style
	err := s.cache.Fetch(ctx, string(KindStyles), &out, func(ctx context.Context) (any, error) {
		return s.repo.ListStyles(ctx)
	})
	return out, err
}

func (s *Service) ListColours(ctx context.Context, styleID int64) ([]Colour, error) {
	if styleID <= 0 {
		return nil, fmt.Errorf("%w: styleId is required", httpx.ErrValidation)
	}
	var out []Colour
	err := s.cache.Fetch(ctx, colourKey(styleID), &out, func(ctx context.Context) (any, error) {
		return s.repo.ListColours(ctx, styleID)
	})
	return out, err
}

func (s *Service) ListAgeGroups(ctx context.Context) ([]AgeGroup, error) {
	var out []AgeGroup
	err := s.cache.Fetch(ctx, string(KindAgeGroups), &out, func(ctx context.Context) (any, error) {
		return s.repo.ListAgeGroups(ctx)
	})
	return out, err
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := s.cache.Fetch(ctx, string(KindCategories), &out, func(ctx context.Context) (any, error) {
		return s.repo.ListCategories(ctx)
	})
	return out, err
}

func (s *Service) ListSizeCategories(ctx context.Context) ([]SizeCategory, error) {
	var out []SizeCategory
	err := s.cache.Fetch(ctx, string(KindSizeCategories), &out, func(ctx context.Context) (any, error) {
		return s.repo.ListSizeCategories(ctx)
	})
	return out, err
}

// GetSizeCategory reads one size category from the database, bypassing the cache.
func (s *Service) GetSizeCategory(ctx context.Context, id int64) (SizeCategory, error) {
	return s.repo.GetSizeCategory(ctx, id)
}

func (s *Service) CreateStyle(ctx context.Context, in StyleInput) (Style, error) {
	style, err := s.repo.CreateStyle(ctx, Style{Name: strings.TrimSpace(in.Name), Brand: strings.TrimSpace(in.Brand)})
	if err != nil {
		return Style{}, err
	}
	s.changed(ctx, string(KindStyles))
	return style, nil
}

func (s *Service) CreateColour(ctx context.Context, in ColourInput) (Colour, error) {
	colour, err := s.repo.CreateColour(ctx, Colour{
		Code:    strings.TrimSpace(in.Code),
		Name:    strings.TrimSpace(in.Name),
		StyleID: in.StyleID,
	})
	if err != nil {
		return Colour{}, err
	}
	s.changed(ctx, colourKey(in.StyleID))
	return colour, nil
}

func (s *Service) CreateAgeGroup(ctx context.Context, in AgeGroupInput) (AgeGroup, error) {
	a, err := s.repo.CreateAgeGroup(ctx, strings.TrimSpace(in.Name))
	if err != nil {
		return AgeGroup{}, err
	}
	s.changed(ctx, string(KindAgeGroups))
	return a, nil
}

func (s *Service) CreateCategory(ctx context.Context, in CategoryInput) (Category, error) {
	c, err := s.repo.CreateCategory(ctx, strings.TrimSpace(in.Name))
	if err != nil {
		return Category{}, err
	}
	s.changed(ctx, string(KindCategories))
	return c, nil
}

func (s *Service) CreateSizeCategory(ctx context.Context, in SizeCategoryInput) (SizeCategory, error) {
	sizes := sizematrix.Append("", in.Sizes)
	if sizes == "" {
		return SizeCategory{}, fmt.Errorf("%w: at least one size label is required", httpx.ErrValidation)
	}
	sc, err := s.repo.CreateSizeCategory(ctx, SizeCategory{Name: strings.TrimSpace(in.Name), Sizes: sizes})
	if err != nil {
		return SizeCategory{}, err
	}
	s.changed(ctx, string(KindSizeCategories))
	return sc, nil
}

// AppendSizes adds labels to a size category. Labels already present, compared
// case-insensitively, are ignored; nothing is ever removed.
func (s *Service) AppendSizes(ctx context.Context, id int64, in AppendSizesInput) (SizeCategory, error) {
	current, err := s.repo.GetSizeCategory(ctx, id)
	if err != nil {
		return SizeCategory{}, err
	}
	next := sizematrix.Append(current.Sizes, in.Sizes)
	if next == current.Sizes {
		return current, nil
	}
	ok, err := s.repo.ReplaceSizes(ctx, id, current.Sizes, next)
	if err != nil {
		return SizeCategory{}, err
	}
	if !ok {
		return SizeCategory{}, fmt.Errorf("%w: size category %d changed concurrently, reload and retry", httpx.ErrConflict, id)
	}
	current.Sizes = next
	s.changed(ctx, string(KindSizeCategories))
	return current, nil
}

// Warm drops and refills every cached list. Colour lists are refilled for every style.
func (s *Service) Warm(ctx context.Context) (int, error) {
	if err := s.cache.InvalidatePattern(ctx, "*"); err != nil {
		return 0, fmt.Errorf("invalidate masters cache: %w", err)
	}
	styles, err := s.ListStyles(ctx)
	if err != nil {
		return 0, err
	}
	warmed := 1
	if _, err := s.ListAgeGroups(ctx); err != nil {
		return warmed, err
	}
	warmed++
	if _, err := s.ListCategories(ctx); err != nil {
		return warmed, err
	}
	warmed++
	if _, err := s.ListSizeCategories(ctx); err != nil {
		return warmed, err
	}
	warmed++
	for _, style := range styles {
		if _, err := s.ListColours(ctx, style.ID); err != nil {
			return warmed, err
		}
		warmed++
	}
	return warmed, nil
}

func (s *Service) changed(ctx context.Context, key string) {
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.logger.Warn("invalidate masters cache", slog.String("key", key), slog.Any("error", err))
	}
	if s.warmer == nil {
		return
	}
	if err := s.warmer.EnqueueMastersWarm(ctx); err != nil {
		s.logger.Warn("enqueue masters warmup", slog.Any("error", err))
	}
}
