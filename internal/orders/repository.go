package orders

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stitchline/stitchline-erp/internal/platform/db"
	"github.com/stitchline/stitchline-erp/internal/platform/httpx"
	"github.com/stitchline/stitchline-erp/internal/sizematrix"
)

// Repository exposes order persistence.
type Repository interface {
	List(ctx context.Context, filter ListFilter) ([]Order, int, error)
	Get(ctx context.Context, id int64) (Order, error)
	Create(ctx context.Context, o Order, lines []SizeLine) (Order, error)
	Update(ctx context.Context, o Order, lines []SizeLine) (Order, error)
	Delete(ctx context.Context, id int64) error
}

// PGRepository implements Repository using PostgreSQL. Writes run in a transaction so the
// header and its size lines change together.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PGRepository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const orderColumns = `id, buyer, brand, season, oc, po, country, COALESCE(style_id, 0), COALESCE(age_group_id, 0),
	COALESCE(category_id, 0), COALESCE(size_category_id, 0), colour_code, order_quantity, COALESCE(created_by, 0),
	created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Buyer, &o.Brand, &o.Season, &o.OC, &o.PO, &o.Country, &o.StyleID, &o.AgeGroupID,
		&o.CategoryID, &o.SizeCategoryID, &o.ColourCode, &o.OrderQuantity, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

func nullableID(id int64) any {
	if id <= 0 {
		return nil
	}
	return id
}

// List returns a page of order headers, newest first.
func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Order, int, error) {
	where := ` WHERE 1=1`
	args := []any{}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := strconv.Itoa(len(args))
		where += ` AND (buyer ILIKE $` + n + ` OR brand ILIKE $` + n + ` OR po ILIKE $` + n + `)`
	}
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	offset := (filter.Page - 1) * filter.Limit
	if offset < 0 {
		offset = 0
	}
	args = append(args, filter.Limit, offset)
	query := `SELECT ` + orderColumns + ` FROM orders` + where + ` ORDER BY id DESC LIMIT $` +
		strconv.Itoa(len(args)-1) + ` OFFSET $` + strconv.Itoa(len(args))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Order, error) {
		return scanOrder(row)
	})
	return items, total, err
}

// Get loads an order with its quantities.
func (r *PGRepository) Get(ctx context.Context, id int64) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, fmt.Errorf("order %d: %w", id, httpx.ErrNotFound)
	}
	if err != nil {
		return Order{}, err
	}
	rows, err := r.pool.Query(ctx, `SELECT size_label, quantity FROM order_sizes WHERE order_id = $1 ORDER BY position`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	o.Quantities = sizematrix.Quantities{}
	for rows.Next() {
		var label string
		var qty int
		if err := rows.Scan(&label, &qty); err != nil {
			return Order{}, err
		}
		o.Quantities[label] = qty
	}
	return o, rows.Err()
}

// Create inserts the header and its size lines.
func (r *PGRepository) Create(ctx context.Context, o Order, lines []SizeLine) (Order, error) {
	var created Order
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `INSERT INTO orders
			(buyer, brand, season, oc, po, country, style_id, age_group_id, category_id, size_category_id,
			 colour_code, order_quantity, created_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING `+orderColumns,
			o.Buyer, o.Brand, o.Season, o.OC, o.PO, o.Country, nullableID(o.StyleID), nullableID(o.AgeGroupID),
			nullableID(o.CategoryID), nullableID(o.SizeCategoryID), o.ColourCode, o.OrderQuantity, nullableID(o.CreatedBy))
		var err error
		created, err = scanOrder(row)
		if err != nil {
			return err
		}
		return writeLines(ctx, tx, created.ID, lines)
	})
	if err != nil {
		return Order{}, translate(err)
	}
	created.Quantities = o.Quantities
	return created, nil
}

// Update overwrites the header and replaces every size line.
func (r *PGRepository) Update(ctx context.Context, o Order, lines []SizeLine) (Order, error) {
	var updated Order
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `UPDATE orders SET
			buyer = $2, brand = $3, season = $4, oc = $5, po = $6, country = $7, style_id = $8, age_group_id = $9,
			category_id = $10, size_category_id = $11, colour_code = $12, order_quantity = $13, updated_at = $14
			WHERE id = $1
			RETURNING `+orderColumns,
			o.ID, o.Buyer, o.Brand, o.Season, o.OC, o.PO, o.Country, nullableID(o.StyleID), nullableID(o.AgeGroupID),
			nullableID(o.CategoryID), nullableID(o.SizeCategoryID), o.ColourCode, o.OrderQuantity, time.Now())
		var err error
		updated, err = scanOrder(row)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("order %d: %w", o.ID, httpx.ErrNotFound)
		}
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_sizes WHERE order_id = $1`, o.ID); err != nil {
			return err
		}
		return writeLines(ctx, tx, o.ID, lines)
	})
	if err != nil {
		return Order{}, translate(err)
	}
	updated.Quantities = o.Quantities
	return updated, nil
}

// Delete removes an order and, by cascade, its size lines.
func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %d: %w", id, httpx.ErrNotFound)
	}
	return nil
}

func writeLines(ctx context.Context, tx pgx.Tx, orderID int64, lines []SizeLine) error {
	if len(lines) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, []any{orderID, l.Label, l.Position, l.Quantity})
	}
	_, err := tx.CopyFrom(ctx, pgx.Identifier{"order_sizes"}, []string{"order_id", "size_label", "position", "quantity"}, pgx.CopyFromRows(rows))
	return err
}

func translate(err error) error {
	if db.IsForeignKeyViolation(err) {
		return fmt.Errorf("%w: order references an unknown master record", httpx.ErrValidation)
	}
	return err
}
