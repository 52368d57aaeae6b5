package masters

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stitchline/stitchline-erp/internal/platform/db"
	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
)

// Repository exposes master data persistence.
type Repository interface {
	ListStyles(ctx context.Context) ([]Style, error)
	CreateStyle(ctx context.Context, s Style) (Style, error)
	ListColours(ctx context.Context, styleID int64) ([]Colour, error)
	CreateColour(ctx context.Context, c Colour) (Colour, error)
	ListAgeGroups(ctx context.Context) ([]AgeGroup, error)
	CreateAgeGroup(ctx context.Context, name string) (AgeGroup, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, name string) (Category, error)
	ListSizeCategories(ctx context.Context) ([]SizeCategory, error)
	GetSizeCategory(ctx context.Context, id int64) (SizeCategory, error)
	CreateSizeCategory(ctx context.Context, sc SizeCategory) (SizeCategory, error)
	// ReplaceSizes swaps the size definition only if it still equals previous.
	ReplaceSizes(ctx context.Context, id int64, previous, next string) (bool, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PGRepository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

func (r *PGRepository) ListStyles(ctx context.Context) ([]Style, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, brand FROM styles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Style, error) {
		var s Style
		err := row.Scan(&s.ID, &s.Name, &s.Brand)
		return s, err
	})
}

func (r *PGRepository) CreateStyle(ctx context.Context, s Style) (Style, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO styles (name, brand) VALUES ($1, $2) RETURNING id`, s.Name, s.Brand).Scan(&s.ID)
	if err != nil {
		return Style{}, translate(err, "style")
	}
	return s, nil
}

func (r *PGRepository) ListColours(ctx context.Context, styleID int64) ([]Colour, error) {
	rows, err := r.db.Query(ctx, `SELECT code, name, style_id FROM colours WHERE style_id = $1 ORDER BY name`, styleID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Colour, error) {
		var c Colour
		err := row.Scan(&c.Code, &c.Name, &c.StyleID)
		return c, err
	})
}

func (r *PGRepository) CreateColour(ctx context.Context, c Colour) (Colour, error) {
	_, err := r.db.Exec(ctx, `INSERT INTO colours (code, style_id, name) VALUES ($1, $2, $3)`, c.Code, c.StyleID, c.Name)
	if err != nil {
		return Colour{}, translate(err, "colour")
	}
	return c, nil
}

func (r *PGRepository) ListAgeGroups(ctx context.Context) ([]AgeGroup, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM age_groups ORDER BY id`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (AgeGroup, error) {
		var a AgeGroup
		err := row.Scan(&a.ID, &a.Name)
		return a, err
	})
}

func (r *PGRepository) CreateAgeGroup(ctx context.Context, name string) (AgeGroup, error) {
	a := AgeGroup{Name: name}
	if err := r.db.QueryRow(ctx, `INSERT INTO age_groups (name) VALUES ($1) RETURNING id`, name).Scan(&a.ID); err != nil {
		return AgeGroup{}, translate(err, "age group")
	}
	return a, nil
}

func (r *PGRepository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name FROM garment_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Category, error) {
		var c Category
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
}

func (r *PGRepository) CreateCategory(ctx context.Context, name string) (Category, error) {
	c := Category{Name: name}
	if err := r.db.QueryRow(ctx, `INSERT INTO garment_categories (name) VALUES ($1) RETURNING id`, name).Scan(&c.ID); err != nil {
		return Category{}, translate(err, "category")
	}
	return c, nil
}

func (r *PGRepository) ListSizeCategories(ctx context.Context) ([]SizeCategory, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, sizes FROM size_categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (SizeCategory, error) {
		var sc SizeCategory
		err := row.Scan(&sc.ID, &sc.Name, &sc.Sizes)
		return sc, err
	})
}

func (r *PGRepository) GetSizeCategory(ctx context.Context, id int64) (SizeCategory, error) {
	var sc SizeCategory
	err := r.db.QueryRow(ctx, `SELECT id, name, sizes FROM size_categories WHERE id = $1`, id).Scan(&sc.ID, &sc.Name, &sc.Sizes)
	if errors.Is(err, pgx.ErrNoRows) {
		return SizeCategory{}, fmt.Errorf("size category %d: %w", id, httpx.ErrNotFound)
	}
	return sc, err
}

func (r *PGRepository) CreateSizeCategory(ctx context.Context, sc SizeCategory) (SizeCategory, error) {
	if err := r.db.QueryRow(ctx, `INSERT INTO size_categories (name, sizes) VALUES ($1, $2) RETURNING id`, sc.Name, sc.Sizes).Scan(&sc.ID); err != nil {
		return SizeCategory{}, translate(err, "size category")
	}
	return sc, nil
}

func (r *PGRepository) ReplaceSizes(ctx context.Context, id int64, previous, next string) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE size_categories SET sizes = $3 WHERE id = $1 AND sizes = $2`, id, previous, next)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func translate(err error, what string) error {
	switch {
	case db.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s already exists", httpx.ErrDuplicate, what)
	case db.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %s references an unknown record", httpx.ErrValidation, what)
	default:
		return err
	}
}
