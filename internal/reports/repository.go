package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads ledger projections from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// MovementRows streams movements in the window ordered oldest first.
// productID of zero means all products.
func (r *Repository) MovementRows(ctx context.Context, from, to time.Time, productID int64) ([]MovementRow, error) {
	conds := []string{"1=1"}
	var args []any

	if !from.IsZero() {
		args = append(args, from)
		conds = append(conds, fmt.Sprintf("m.created_at >= $%d", len(args)))
	}
	if !to.IsZero() {
		args = append(args, to)
		conds = append(conds, fmt.Sprintf("m.created_at < $%d", len(args)))
	}
	if productID != 0 {
		args = append(args, productID)
		conds = append(conds, fmt.Sprintf("m.product_id = $%d", len(args)))
	}

	query := fmt.Sprintf(`
		SELECT m.product_id, p.sku, p.name, m.movement_type, m.quantity, m.unit_price, m.created_at
		FROM stock_movements m
		JOIN products p ON p.id = m.product_id
		WHERE %s
		ORDER BY m.created_at ASC, m.id ASC`, strings.Join(conds, " AND "))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storageErr(err)
	}
	defer rows.Close()

	var out []MovementRow
	for rows.Next() {
		var m MovementRow
		if err := rows.Scan(&m.ProductID, &m.ProductSKU, &m.ProductName, &m.Type,
			&m.Quantity, &m.UnitPrice, &m.CreatedAt); err != nil {
			return nil, storageErr(err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

// ProductCount returns the number of available products.
func (r *Repository) ProductCount(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE is_available`).Scan(&n); err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}

// StockTotal sums the denormalized counters across available products.
func (r *Repository) StockTotal(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(stock), 0) FROM products WHERE is_available`).Scan(&n); err != nil {
		return 0, storageErr(err)
	}
	return n, nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
