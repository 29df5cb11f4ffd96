package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/chuestock/chuestock/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	List(ctx context.Context, filter Filter) ([]Movement, Totals, int, error)
	ProductBySKU(ctx context.Context, sku string) (Product, error)
	HistoryDesc(ctx context.Context, productID int64) ([]Movement, error)
}

// CacheInvalidator bumps report cache versions after a successful post.
type CacheInvalidator interface {
	Bump(ctx context.Context) error
}

// AuditRecorder persists audit trail entries.
type AuditRecorder interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// MovementCounter feeds accepted movements into metrics.
type MovementCounter interface {
	RecordMovement(movementType string)
}

// Service implements ledger use cases.
type Service struct {
	repo    RepositoryPort
	audit   AuditRecorder
	cache   CacheInvalidator
	metrics MovementCounter
	logger  *slog.Logger
	loc     *time.Location
	now     func() time.Time
}

// NewService constructs Service. audit, cache and metrics may be nil.
func NewService(repo RepositoryPort, audit AuditRecorder, cache CacheInvalidator, metrics MovementCounter, logger *slog.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:    repo,
		audit:   audit,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		loc:     loc,
		now:     time.Now,
	}
}

// PostInput carries a movement submission.
type PostInput struct {
	ProductID int64
	Action    MovementType
	Quantity  int
	RefType   RefType
	RefNo     string
	Remark    string
	ActorID   *int64
}

// PostResult reports an accepted movement together with the updated counter.
type PostResult struct {
	Movement Movement `json:"movement"`
	Stock    int      `json:"stock"`
	Message  string   `json:"message"`
}

// Post validates and records a stock movement. Validation runs against the
// stock level observed under the product row lock, so the sufficiency check
// and the counter update cannot race with a concurrent post for the same
// product.
func (s *Service) Post(ctx context.Context, in PostInput) (PostResult, error) {
	var result PostResult

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.ProductForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}

		if err := Validate(in.Action, in.Quantity, in.RefType, product.Stock); err != nil {
			return err
		}

		movement := Movement{
			Code:        uuid.NewString(),
			ProductID:   product.ID,
			ProductSKU:  product.SKU,
			ProductName: product.Name,
			Type:        in.Action,
			Quantity:    in.Quantity,
			UnitPrice:   product.Price,
			RefType:     in.RefType,
			RefNo:       in.RefNo,
			Remark:      in.Remark,
			CreatedBy:   in.ActorID,
		}
		if err := tx.InsertMovement(ctx, &movement); err != nil {
			return err
		}

		stock := product.Stock + in.Quantity
		if in.Action == MovementOut {
			stock = product.Stock - in.Quantity
		}
		if err := tx.UpdateStock(ctx, product.ID, stock); err != nil {
			return err
		}

		result = PostResult{
			Movement: movement,
			Stock:    stock,
			Message:  fmt.Sprintf("Stock %s recorded successfully.", in.Action),
		}
		return nil
	})
	if err != nil {
		return PostResult{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordMovement(string(in.Action))
	}
	if s.cache != nil {
		if err := s.cache.Bump(ctx); err != nil {
			s.logger.Warn("report cache bump failed", "error", err)
		}
	}
	s.recordAudit(ctx, in, result)

	return result, nil
}

func (s *Service) recordAudit(ctx context.Context, in PostInput, result PostResult) {
	if s.audit == nil {
		return
	}
	var actorID int64
	if in.ActorID != nil {
		actorID = *in.ActorID
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   "ledger.movement.post",
		Entity:   "stock_movement",
		EntityID: strconv.FormatInt(result.Movement.ID, 10),
		Meta: map[string]any{
			"product_id": in.ProductID,
			"type":       string(in.Action),
			"quantity":   in.Quantity,
			"stock":      result.Stock,
		},
	})
	if err != nil {
		s.logger.Warn("audit record failed", "error", err)
	}
}

// ListResult is one page of the movement listing. Totals cover the whole
// filtered set, not just this page.
type ListResult struct {
	Movements  []Movement        `json:"movements"`
	Totals     Totals            `json:"totals"`
	Pagination shared.Pagination `json:"pagination"`
}

// List returns movements matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter Filter) (ListResult, error) {
	filter = filter.Resolve(s.now().In(s.loc))

	movements, totals, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return ListResult{}, err
	}
	if movements == nil {
		movements = []Movement{}
	}
	return ListResult{
		Movements:  movements,
		Totals:     totals,
		Pagination: filter.Pagination(total),
	}, nil
}

// HistoryResult is a product's movement history with reconstructed balances.
// Consistent is false when the counter cannot be explained by the ledger.
type HistoryResult struct {
	Product    Product           `json:"-"`
	SKU        string            `json:"sku"`
	Name       string            `json:"name"`
	Stock      int               `json:"stock"`
	Rows       []BalanceRow      `json:"rows"`
	Totals     Totals            `json:"totals"`
	Pagination shared.Pagination `json:"pagination"`
	Consistent bool              `json:"consistent"`
}

// ProductHistory reconstructs per-movement balances for one product by
// walking its full history backwards from the current counter.
func (s *Service) ProductHistory(ctx context.Context, sku string, page, perPage int) (HistoryResult, error) {
	product, err := s.repo.ProductBySKU(ctx, sku)
	if err != nil {
		return HistoryResult{}, err
	}

	movements, err := s.repo.HistoryDesc(ctx, product.ID)
	if err != nil {
		return HistoryResult{}, err
	}

	rows, initial, negative := Reconstruct(product.Stock, movements)
	consistent := initial == 0 && !negative
	if !consistent {
		s.logger.Warn("stock counter does not reconcile with ledger",
			"sku", product.SKU, "stock", product.Stock, "residual", initial, "negative_balance", negative)
	}

	var totals Totals
	for _, m := range movements {
		switch m.Type {
		case MovementIn:
			totals.QtyIn += m.Quantity
		case MovementOut:
			totals.QtyOut += m.Quantity
		}
	}

	pagination := Filter{Page: page, PerPage: perPage}.Pagination(len(rows))
	start := pagination.Offset()
	if start > len(rows) {
		start = len(rows)
	}
	end := start + pagination.PerPage
	if end > len(rows) {
		end = len(rows)
	}

	return HistoryResult{
		Product:    product,
		SKU:        product.SKU,
		Name:       product.Name,
		Stock:      product.Stock,
		Rows:       rows[start:end],
		Totals:     totals,
		Pagination: pagination,
		Consistent: consistent,
	}, nil
}
