package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MismatchGauge receives the result of an integrity sweep.
type MismatchGauge interface {
	SetStockMismatches(n int)
}

// IntegrityChecker compares each product's denormalized counter with the sum
// of its ledger. Mismatches are reported, never auto-fixed: the ledger is the
// source of truth and a drifted counter needs a human decision.
type IntegrityChecker struct {
	pool   *pgxpool.Pool
	gauge  MismatchGauge
	logger *slog.Logger
}

// NewIntegrityChecker constructs IntegrityChecker. gauge may be nil.
func NewIntegrityChecker(pool *pgxpool.Pool, gauge MismatchGauge, logger *slog.Logger) *IntegrityChecker {
	return &IntegrityChecker{pool: pool, gauge: gauge, logger: logger}
}

// Run executes one sweep and returns the number of drifted products.
func (c *IntegrityChecker) Run(ctx context.Context, productID int64) (int, error) {
	const query = `
		SELECT p.id, p.sku, p.stock,
		       COALESCE(SUM(CASE m.movement_type WHEN 'IN' THEN m.quantity WHEN 'OUT' THEN -m.quantity END), 0) AS ledger_stock
		FROM products p
		LEFT JOIN stock_movements m ON m.product_id = p.id
		WHERE $1 = 0 OR p.id = $1
		GROUP BY p.id, p.sku, p.stock
		HAVING p.stock <> COALESCE(SUM(CASE m.movement_type WHEN 'IN' THEN m.quantity WHEN 'OUT' THEN -m.quantity END), 0)`

	rows, err := c.pool.Query(ctx, query, productID)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	mismatches := 0
	for rows.Next() {
		var (
			id          int64
			sku         string
			counter     int
			ledgerStock int
		)
		if err := rows.Scan(&id, &sku, &counter, &ledgerStock); err != nil {
			return 0, err
		}
		mismatches++
		c.logger.Error("stock counter drifted from ledger",
			"product_id", id, "sku", sku, "counter", counter, "ledger", ledgerStock)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	if c.gauge != nil && productID == 0 {
		c.gauge.SetStockMismatches(mismatches)
	}
	if mismatches == 0 {
		c.logger.Info("stock integrity sweep clean")
	}
	return mismatches, nil
}

// HandleTask processes TaskStockIntegrity tasks.
func (c *IntegrityChecker) HandleTask(ctx context.Context, t *asynq.Task) error {
	var payload StockIntegrityPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	_, err := c.Run(ctx, payload.ProductID)
	return err
}
