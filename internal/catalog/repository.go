package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads products from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const productColumns = `id, sku, name, slug, description, price, stock, is_available, COALESCE(category_id, 0), COALESCE(category_name, ''), created_at`

// List returns one page of products matching the filter, newest first, plus
// the total row count over the whole filtered set.
func (r *Repository) List(ctx context.Context, filter Filter) ([]Product, int, error) {
	where, args := buildWhere(filter)

	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}

	query := fmt.Sprintf(`SELECT %s FROM products %s ORDER BY created_at DESC, id DESC LIMIT %d OFFSET %d`,
		productColumns, where, perPage, (page-1)*perPage)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, storageErr(err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, storageErr(err)
	}

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM products %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, storageErr(err)
	}

	return products, total, nil
}

// BySKU resolves a single product.
func (r *Repository) BySKU(ctx context.Context, sku string) (Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE sku = $1`, productColumns)
	row := r.pool.QueryRow(ctx, query, sku)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, storageErr(err)
	}
	return p, nil
}

// MinMaxPrice reports the price spread over the filtered set. ok is false
// when the set is empty.
func (r *Repository) MinMaxPrice(ctx context.Context, filter Filter) (min, max int, ok bool, err error) {
	// The price facet ignores price bounds so the buckets describe the
	// whole spread the caller is narrowing within.
	filter.HasMin = false
	filter.HasMax = false
	where, args := buildWhere(filter)

	query := fmt.Sprintf(`SELECT MIN(price), MAX(price) FROM products %s`, where)
	var minP, maxP *int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&minP, &maxP); err != nil {
		return 0, 0, false, storageErr(err)
	}
	if minP == nil || maxP == nil {
		return 0, 0, false, nil
	}
	return *minP, *maxP, true, nil
}

func buildWhere(filter Filter) (string, []any) {
	conds := []string{"is_available"}
	var args []any

	if filter.Keyword != "" {
		args = append(args, "%"+filter.Keyword+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf("(name ILIKE $%d OR sku ILIKE $%d OR description ILIKE $%d OR category_name ILIKE $%d)", n, n, n, n))
	}
	if filter.CategoryID != 0 {
		args = append(args, filter.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}
	switch filter.Stock {
	case StockIn:
		conds = append(conds, "stock > 0")
	case StockOut:
		conds = append(conds, "stock = 0")
	}
	if filter.HasMin {
		args = append(args, filter.MinPrice)
		conds = append(conds, fmt.Sprintf("price >= $%d", len(args)))
	}
	if filter.HasMax {
		args = append(args, filter.MaxPrice)
		conds = append(conds, fmt.Sprintf("price <= $%d", len(args)))
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Slug, &p.Description, &p.Price,
		&p.Stock, &p.IsAvailable, &p.CategoryID, &p.CategoryName, &p.CreatedAt)
	return p, err
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
