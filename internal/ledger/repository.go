package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/chuestock/chuestock/internal/platform/db"
)

// Repository persists ledger data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes the operations a posting transaction needs. Everything
// here runs against the same database transaction.
type TxRepository interface {
	ProductForUpdate(ctx context.Context, productID int64) (Product, error)
	InsertMovement(ctx context.Context, m *Movement) error
	UpdateStock(ctx context.Context, productID int64, stock int) error
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx executes the callback inside a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
	if err == nil || isDomainError(err) {
		return err
	}
	return mapPgError(err)
}

func isDomainError(err error) bool {
	var insufficient *InsufficientStockError
	return errors.As(err, &insufficient) ||
		errors.Is(err, ErrInvalidQuantity) ||
		errors.Is(err, ErrInvalidAction) ||
		errors.Is(err, ErrInvalidRefType) ||
		errors.Is(err, ErrRefTypeNotAllowed) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrConcurrencyConflict) ||
		errors.Is(err, ErrStorage)
}

// ProductForUpdate locks the product row for the remainder of the
// transaction. NOWAIT turns lock contention into an immediate error instead
// of queueing writers behind each other.
func (r *txRepo) ProductForUpdate(ctx context.Context, productID int64) (Product, error) {
	const q = `SELECT id, sku, name, price, stock FROM products WHERE id = $1 FOR UPDATE NOWAIT`
	var p Product
	err := r.tx.QueryRow(ctx, q, productID).Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, mapPgError(err)
	}
	return p, nil
}

func (r *txRepo) InsertMovement(ctx context.Context, m *Movement) error {
	const q = `
		INSERT INTO stock_movements (code, product_id, movement_type, quantity, unit_price, ref_type, ref_no, remark, created_by)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7, $8, $9)
		RETURNING id, created_at`
	err := r.tx.QueryRow(ctx, q,
		m.Code, m.ProductID, string(m.Type), m.Quantity, m.UnitPrice,
		string(m.RefType), m.RefNo, m.Remark, m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return mapPgError(err)
	}
	return nil
}

func (r *txRepo) UpdateStock(ctx context.Context, productID int64, stock int) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET stock = $2, updated_at = NOW() WHERE id = $1`, productID, stock)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of movements matching the filter, plus quantity
// totals and the row count over the whole filtered set.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Movement, Totals, int, error) {
	where, args := buildWhere(filter)

	pagination := filter.Pagination(0)
	listQuery := fmt.Sprintf(`
		SELECT m.id, m.code, m.product_id, p.sku, p.name, m.movement_type, m.quantity, m.unit_price,
		       COALESCE(m.ref_type, ''), m.ref_no, m.remark, m.created_by, m.created_at
		FROM stock_movements m
		JOIN products p ON p.id = m.product_id
		%s
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT %d OFFSET %d`, where, pagination.PerPage, pagination.Offset())

	rows, err := r.pool.Query(ctx, listQuery, args...)
	if err != nil {
		return nil, Totals{}, 0, mapPgError(err)
	}
	defer rows.Close()

	movements, err := scanMovements(rows)
	if err != nil {
		return nil, Totals{}, 0, mapPgError(err)
	}

	totalsQuery := fmt.Sprintf(`
		SELECT COUNT(*),
		       COALESCE(SUM(m.quantity) FILTER (WHERE m.movement_type = 'IN'), 0),
		       COALESCE(SUM(m.quantity) FILTER (WHERE m.movement_type = 'OUT'), 0)
		FROM stock_movements m
		JOIN products p ON p.id = m.product_id
		%s`, where)

	var total int
	var totals Totals
	if err := r.pool.QueryRow(ctx, totalsQuery, args...).Scan(&total, &totals.QtyIn, &totals.QtyOut); err != nil {
		return nil, Totals{}, 0, mapPgError(err)
	}

	return movements, totals, total, nil
}

// ProductBySKU resolves a product by its SKU.
func (r *Repository) ProductBySKU(ctx context.Context, sku string) (Product, error) {
	const q = `SELECT id, sku, name, price, stock FROM products WHERE sku = $1`
	var p Product
	err := r.pool.QueryRow(ctx, q, sku).Scan(&p.ID, &p.SKU, &p.Name, &p.Price, &p.Stock)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, mapPgError(err)
	}
	return p, nil
}

// HistoryDesc loads a product's entire movement history, newest first, for
// balance reconstruction.
func (r *Repository) HistoryDesc(ctx context.Context, productID int64) ([]Movement, error) {
	const q = `
		SELECT m.id, m.code, m.product_id, p.sku, p.name, m.movement_type, m.quantity, m.unit_price,
		       COALESCE(m.ref_type, ''), m.ref_no, m.remark, m.created_by, m.created_at
		FROM stock_movements m
		JOIN products p ON p.id = m.product_id
		WHERE m.product_id = $1
		ORDER BY m.created_at DESC, m.id DESC`
	rows, err := r.pool.Query(ctx, q, productID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	movements, err := scanMovements(rows)
	if err != nil {
		return nil, mapPgError(err)
	}
	return movements, nil
}

func buildWhere(filter Filter) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.ProductID != 0 {
		add("m.product_id = $%d", filter.ProductID)
	}
	if filter.CategoryID != 0 {
		add("p.category_id = $%d", filter.CategoryID)
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("(p.sku ILIKE $%d OR p.name ILIKE $%d)", len(args), len(args)))
	}
	if filter.Type != "" {
		add("m.movement_type = $%d", string(filter.Type))
	}
	if filter.RefType != "" {
		add("m.ref_type = $%d", string(filter.RefType))
	}
	if !filter.From.IsZero() {
		add("m.created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add("m.created_at < $%d", filter.To)
	}

	if len(conds) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanMovements(rows pgx.Rows) ([]Movement, error) {
	var movements []Movement
	for rows.Next() {
		var m Movement
		var refType string
		if err := rows.Scan(&m.ID, &m.Code, &m.ProductID, &m.ProductSKU, &m.ProductName, &m.Type,
			&m.Quantity, &m.UnitPrice, &refType, &m.RefNo, &m.Remark, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.RefType = RefType(refType)
		movements = append(movements, m)
	}
	return movements, rows.Err()
}

// mapPgError translates driver failures into domain errors. Lock contention
// and serialization aborts surface as a retryable conflict.
func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03", "40001", "40P01":
			return ErrConcurrencyConflict
		}
	}
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
