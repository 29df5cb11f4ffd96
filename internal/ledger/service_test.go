package ledger

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chuestock/chuestock/internal/shared"
)

type memoryRepo struct {
	products  map[int64]Product
	movements []Movement
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo(products ...Product) *memoryRepo {
	repo := &memoryRepo{products: make(map[int64]Product)}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) List(ctx context.Context, filter Filter) ([]Movement, Totals, int, error) {
	var matched []Movement
	var totals Totals
	for i := len(r.movements) - 1; i >= 0; i-- {
		m := r.movements[i]
		if filter.ProductID != 0 && m.ProductID != filter.ProductID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		if !filter.From.IsZero() && m.CreatedAt.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && !m.CreatedAt.Before(filter.To) {
			continue
		}
		matched = append(matched, m)
		if m.Type == MovementIn {
			totals.QtyIn += m.Quantity
		} else {
			totals.QtyOut += m.Quantity
		}
	}
	return matched, totals, len(matched), nil
}

func (r *memoryRepo) ProductBySKU(ctx context.Context, sku string) (Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			return p, nil
		}
	}
	return Product{}, ErrNotFound
}

func (r *memoryRepo) HistoryDesc(ctx context.Context, productID int64) ([]Movement, error) {
	var out []Movement
	for i := len(r.movements) - 1; i >= 0; i-- {
		if r.movements[i].ProductID == productID {
			out = append(out, r.movements[i])
		}
	}
	return out, nil
}

func (tx *memoryTx) ProductForUpdate(ctx context.Context, productID int64) (Product, error) {
	p, ok := tx.repo.products[productID]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (tx *memoryTx) InsertMovement(ctx context.Context, m *Movement) error {
	tx.repo.nextID++
	m.ID = tx.repo.nextID
	m.CreatedAt = time.Now()
	tx.repo.movements = append(tx.repo.movements, *m)
	return nil
}

func (tx *memoryTx) UpdateStock(ctx context.Context, productID int64, stock int) error {
	p, ok := tx.repo.products[productID]
	if !ok {
		return ErrNotFound
	}
	p.Stock = stock
	tx.repo.products[productID] = p
	return nil
}

type recordingAudit struct {
	logs []shared.AuditLog
}

func (a *recordingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

func newTestService(repo *memoryRepo) *Service {
	return NewService(repo, nil, nil, nil, slog.Default(), time.UTC)
}

func TestPostInAndOutUpdatesCounter(t *testing.T) {
	repo := newMemoryRepo(Product{ID: 1, SKU: "SKU-1", Name: "Widget", Price: 2500, Stock: 0})
	svc := newTestService(repo)
	ctx := context.Background()

	result, err := svc.Post(ctx, PostInput{ProductID: 1, Action: MovementIn, Quantity: 10, RefType: RefSupplierInvoice})
	require.NoError(t, err)
	require.Equal(t, 10, result.Stock)
	require.Equal(t, "Stock IN recorded successfully.", result.Message)
	require.Equal(t, 2500, result.Movement.UnitPrice)
	require.NotEmpty(t, result.Movement.Code)

	result, err = svc.Post(ctx, PostInput{ProductID: 1, Action: MovementOut, Quantity: 4, RefType: RefCustomerInvoice})
	require.NoError(t, err)
	require.Equal(t, 6, result.Stock)
	require.Equal(t, "Stock OUT recorded successfully.", result.Message)

	require.Equal(t, 6, repo.products[1].Stock)
	require.Len(t, repo.movements, 2)
}

func TestPostValidationOrder(t *testing.T) {
	tests := []struct {
		name  string
		input PostInput
		want  error
	}{
		{
			name:  "zero quantity",
			input: PostInput{ProductID: 1, Action: MovementIn, Quantity: 0},
			want:  ErrInvalidQuantity,
		},
		{
			name:  "negative quantity before bad action",
			input: PostInput{ProductID: 1, Action: "TRANSFER", Quantity: -5},
			want:  ErrInvalidQuantity,
		},
		{
			name:  "unknown action",
			input: PostInput{ProductID: 1, Action: "TRANSFER", Quantity: 5},
			want:  ErrInvalidAction,
		},
		{
			name:  "unknown ref type",
			input: PostInput{ProductID: 1, Action: MovementIn, Quantity: 5, RefType: "VOUCHER"},
			want:  ErrInvalidRefType,
		},
		{
			name:  "ref type not allowed for action",
			input: PostInput{ProductID: 1, Action: MovementIn, Quantity: 5, RefType: RefCustomerInvoice},
			want:  ErrRefTypeNotAllowed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMemoryRepo(Product{ID: 1, SKU: "SKU-1", Name: "Widget", Stock: 3})
			svc := newTestService(repo)

			_, err := svc.Post(context.Background(), tc.input)
			require.ErrorIs(t, err, tc.want)
			require.Empty(t, repo.movements)
			require.Equal(t, 3, repo.products[1].Stock)
		})
	}
}

func TestPostInsufficientStockWinsOverRefTypeRules(t *testing.T) {
	repo := newMemoryRepo(Product{ID: 1, SKU: "SKU-1", Name: "Widget", Stock: 3})
	svc := newTestService(repo)

	// Both the stock check and the ref-type rules would fail here; the
	// stock rejection must be the one reported.
	_, err := svc.Post(context.Background(), PostInput{
		ProductID: 1, Action: MovementOut, Quantity: 10, RefType: "VOUCHER",
	})

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 3, insufficient.Stock)
	require.Equal(t, "Not enough stock. Current stock is 3", err.Error())
}

func TestPostBoundaryQuantityDrainsStock(t *testing.T) {
	repo := newMemoryRepo(Product{ID: 1, SKU: "SKU-1", Name: "Widget", Stock: 5})
	svc := newTestService(repo)

	result, err := svc.Post(context.Background(), PostInput{ProductID: 1, Action: MovementOut, Quantity: 5})
	require.NoError(t, err)
	require.Equal(t, 0, result.Stock)
}

func TestPostUnknownProduct(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.Post(context.Background(), PostInput{ProductID: 99, Action: MovementIn, Quantity: 1})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostEmptyRefTypeAllowed(t *testing.T) {
	repo := newMemoryRepo(Product{ID: 1, SKU: "SKU-1", Name: "Widget", Stock: 0})
	svc := newTestService(repo)

	_, err := svc.Post(context.Background(), PostInput{ProductID: 1, Action: MovementIn, Quantity: 2})
	require.NoError(t, err)
}

func TestPostRecordsAudit(t *testing.T) {
	repo := newMemoryRepo(Product{ID: 1, SKU: "SKU-1", Name: "Widget", Stock: 0})
	audit := &recordingAudit{}
	svc := NewService(repo, audit, nil, nil, slog.Default(), time.UTC)
	actor := int64(7)

	_, err := svc.Post(context.Background(), PostInput{ProductID: 1, Action: MovementIn, Quantity: 2, ActorID: &actor})
	require.NoError(t, err)
	require.Len(t, audit.logs, 1)
	require.Equal(t, int64(7), audit.logs[0].ActorID)
	require.Equal(t, "ledger.movement.post", audit.logs[0].Action)
}

func TestListTotalsCoverWholeFilteredSet(t *testing.T) {
	repo := newMemoryRepo(Product{ID: 1, SKU: "SKU-1", Name: "Widget", Stock: 0})
	svc := newTestService(repo)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Post(ctx, PostInput{ProductID: 1, Action: MovementIn, Quantity: 10})
		require.NoError(t, err)
	}
	_, err := svc.Post(ctx, PostInput{ProductID: 1, Action: MovementOut, Quantity: 5})
	require.NoError(t, err)

	result, err := svc.List(ctx, Filter{Page: 1, PerPage: 2})
	require.NoError(t, err)
	require.Equal(t, 30, result.Totals.QtyIn)
	require.Equal(t, 5, result.Totals.QtyOut)
	require.Equal(t, 25, result.Totals.Net())
	require.Equal(t, 4, result.Pagination.Total)
	require.Equal(t, 2, result.Pagination.TotalPages)
}

func TestProductHistoryReconstructsBalances(t *testing.T) {
	repo := newMemoryRepo(Product{ID: 1, SKU: "SKU-1", Name: "Widget", Stock: 0})
	svc := newTestService(repo)
	ctx := context.Background()

	steps := []struct {
		action MovementType
		qty    int
	}{
		{MovementIn, 10},
		{MovementOut, 4},
		{MovementIn, 6},
		{MovementOut, 2},
	}
	for _, s := range steps {
		_, err := svc.Post(ctx, PostInput{ProductID: 1, Action: s.action, Quantity: s.qty})
		require.NoError(t, err)
	}

	result, err := svc.ProductHistory(ctx, "SKU-1", 1, 20)
	require.NoError(t, err)
	require.True(t, result.Consistent)
	require.Equal(t, 10, result.Stock)
	require.Len(t, result.Rows, 4)

	// Newest first: OUT 2 (12->10), IN 6 (6->12), OUT 4 (10->6), IN 10 (0->10).
	require.Equal(t, 12, result.Rows[0].Before)
	require.Equal(t, 10, result.Rows[0].After)
	require.Equal(t, 6, result.Rows[1].Before)
	require.Equal(t, 12, result.Rows[1].After)
	require.Equal(t, 10, result.Rows[2].Before)
	require.Equal(t, 6, result.Rows[2].After)
	require.Equal(t, 0, result.Rows[3].Before)
	require.Equal(t, 10, result.Rows[3].After)

	require.Equal(t, Totals{QtyIn: 16, QtyOut: 6}, result.Totals)
}

func TestProductHistoryFlagsNegativeIntermediateBalance(t *testing.T) {
	// Counter 0 with history IN 5 then OUT 5 reconciles at the ends, but the
	// walk dips to -5 in between: the ledger order cannot have happened.
	repo := newMemoryRepo(Product{ID: 1, SKU: "SKU-1", Name: "Widget", Stock: 0})
	repo.movements = []Movement{
		{ID: 1, ProductID: 1, Type: MovementOut, Quantity: 5, CreatedAt: time.Now().Add(-time.Hour)},
		{ID: 2, ProductID: 1, Type: MovementIn, Quantity: 5, CreatedAt: time.Now()},
	}
	svc := newTestService(repo)

	result, err := svc.ProductHistory(context.Background(), "SKU-1", 1, 20)
	require.NoError(t, err)
	require.False(t, result.Consistent)
	require.Equal(t, -5, result.Rows[0].Before)
	require.Equal(t, 0, result.Rows[0].After)
	require.Equal(t, 0, result.Rows[1].Before)
	require.Equal(t, -5, result.Rows[1].After)
}

type contentionRepo struct {
	*memoryRepo
	contended bool
}

type contendedTx struct {
	TxRepository
}

func (contendedTx) ProductForUpdate(ctx context.Context, productID int64) (Product, error) {
	return Product{}, ErrConcurrencyConflict
}

func (r *contentionRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.memoryRepo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if r.contended {
			return fn(ctx, contendedTx{tx})
		}
		return fn(ctx, tx)
	})
}

func TestPostConcurrentDrainOneWins(t *testing.T) {
	base := newMemoryRepo(Product{ID: 1, SKU: "SKU-1", Name: "Widget", Stock: 5})
	repo := &contentionRepo{memoryRepo: base}
	svc := NewService(repo, nil, nil, nil, slog.Default(), time.UTC)
	ctx := context.Background()

	// First poster takes the row lock and drains most of the stock.
	result, err := svc.Post(ctx, PostInput{ProductID: 1, Action: MovementOut, Quantity: 4})
	require.NoError(t, err)
	require.Equal(t, 1, result.Stock)

	// Second poster hits the held lock and is told to retry.
	repo.contended = true
	_, err = svc.Post(ctx, PostInput{ProductID: 1, Action: MovementOut, Quantity: 4})
	require.ErrorIs(t, err, ErrConcurrencyConflict)
	require.Len(t, base.movements, 1)
	require.Equal(t, 1, base.products[1].Stock)

	// The retry sees the drained counter and is rejected outright: exactly
	// one of the two competing movements ever lands.
	repo.contended = false
	_, err = svc.Post(ctx, PostInput{ProductID: 1, Action: MovementOut, Quantity: 4})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 1, insufficient.Stock)
	require.Len(t, base.movements, 1)
	require.Equal(t, 1, base.products[1].Stock)
}

func TestProductHistoryFlagsDriftedCounter(t *testing.T) {
	repo := newMemoryRepo(Product{ID: 1, SKU: "SKU-1", Name: "Widget", Stock: 9})
	repo.movements = []Movement{
		{ID: 1, ProductID: 1, Type: MovementIn, Quantity: 5, CreatedAt: time.Now()},
	}
	svc := newTestService(repo)

	result, err := svc.ProductHistory(context.Background(), "SKU-1", 1, 20)
	require.NoError(t, err)
	require.False(t, result.Consistent)
	// The walk still reports balances relative to the counter.
	require.Equal(t, 4, result.Rows[0].Before)
	require.Equal(t, 9, result.Rows[0].After)
}
