package reports

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	MovementRows(ctx context.Context, from, to time.Time, productID int64) ([]MovementRow, error)
	ProductCount(ctx context.Context) (int, error)
	StockTotal(ctx context.Context) (int, error)
}

// Service implements reporting use cases.
type Service struct {
	repo   RepositoryPort
	cache  *Cache
	logger *slog.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewService constructs Service. cache may be nil.
func NewService(repo RepositoryPort, cache *Cache, logger *slog.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
		loc:    loc,
		now:    time.Now,
	}
}

const (
	defaultDashboardDays = 15
	defaultTopN          = 10
	productDailyDays     = 30

	dayFormat = "2006-01-02"
)

// DailyActivity buckets movements per calendar day in the reporting zone.
// Days without traffic are absent; the series ascends by day.
func (s *Service) DailyActivity(ctx context.Context, filter DailyFilter) ([]DayActivity, error) {
	rows, err := s.repo.MovementRows(ctx, filter.From, filter.To, filter.ProductID)
	if err != nil {
		return nil, err
	}
	return s.aggregateDaily(rows), nil
}

// ProductDaily is the product detail series: the last 30 days of that
// product's traffic, newest day first.
func (s *Service) ProductDaily(ctx context.Context, productID int64) ([]DayActivity, error) {
	now := s.now().In(s.loc)
	from := startOfDay(now).AddDate(0, 0, -(productDailyDays - 1))

	rows, err := s.repo.MovementRows(ctx, from, time.Time{}, productID)
	if err != nil {
		return nil, err
	}

	days := s.aggregateDaily(rows)
	for i, j := 0, len(days)-1; i < j; i, j = i+1, j-1 {
		days[i], days[j] = days[j], days[i]
	}
	return days, nil
}

// TopOutProducts ranks products by OUT quantity over the window, largest
// first, ties broken by product id ascending. n defaults to 10.
func (s *Service) TopOutProducts(ctx context.Context, from, to time.Time, n int) ([]ProductRank, error) {
	rows, err := s.repo.MovementRows(ctx, from, to, 0)
	if err != nil {
		return nil, err
	}
	return rankTopOut(rows, n), nil
}

// Dashboard assembles the overview for the window, serving from cache when
// warm. Swapped bounds are tolerated; a missing window defaults to the last
// 15 days.
func (s *Service) Dashboard(ctx context.Context, from, to time.Time) (Dashboard, error) {
	from, to = s.resolveWindow(from, to)

	key, err := s.cacheKey(ctx, from, to)
	if err != nil {
		// Degrade to an uncached computation when Redis is unavailable.
		s.logger.Warn("dashboard cache unavailable", "error", err)
		return s.buildDashboard(ctx, from, to)
	}

	var dashboard Dashboard
	err = s.cache.FetchJSON(ctx, key, &dashboard, func(ctx context.Context) (interface{}, error) {
		return s.buildDashboard(ctx, from, to)
	})
	if err != nil {
		return Dashboard{}, err
	}
	return dashboard, nil
}

// Warmup precomputes the default dashboard window into the cache.
func (s *Service) Warmup(ctx context.Context) error {
	_, err := s.Dashboard(ctx, time.Time{}, time.Time{})
	return err
}

func (s *Service) resolveWindow(from, to time.Time) (time.Time, time.Time) {
	now := s.now().In(s.loc)
	if from.IsZero() && to.IsZero() {
		to = startOfDay(now).AddDate(0, 0, 1)
		from = to.AddDate(0, 0, -defaultDashboardDays)
		return from, to
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -defaultDashboardDays)
	}
	if to.IsZero() {
		to = startOfDay(now).AddDate(0, 0, 1)
	}
	if from.After(to) {
		from, to = to, from
	}
	return from, to
}

func (s *Service) cacheKey(ctx context.Context, from, to time.Time) (string, error) {
	if s.cache == nil {
		return "", nil
	}
	return s.cache.BuildKey(ctx, keyDashboard(from.Format(dayFormat), to.Format(dayFormat))...)
}

func (s *Service) buildDashboard(ctx context.Context, from, to time.Time) (Dashboard, error) {
	var (
		productCount int
		stockTotal   int
		rows         []MovementRow
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		productCount, err = s.repo.ProductCount(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stockTotal, err = s.repo.StockTotal(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.repo.MovementRows(gctx, from, to, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	return Dashboard{
		From:          from.Format(dayFormat),
		To:            to.Format(dayFormat),
		TotalProducts: productCount,
		TotalStock:    stockTotal,
		TopOut:        rankTopOut(rows, defaultTopN),
		Daily:         s.aggregateDaily(rows),
		GeneratedAt:   s.now().UTC(),
	}, nil
}

func (s *Service) aggregateDaily(rows []MovementRow) []DayActivity {
	byDay := make(map[string]*DayActivity)
	var order []string
	for _, m := range rows {
		day := m.CreatedAt.In(s.loc).Format(dayFormat)
		entry, ok := byDay[day]
		if !ok {
			entry = &DayActivity{Day: day}
			byDay[day] = entry
			order = append(order, day)
		}
		switch m.Type {
		case "IN":
			entry.QtyIn += m.Quantity
		case "OUT":
			entry.QtyOut += m.Quantity
			entry.Income += m.Quantity * m.UnitPrice
		}
	}

	sort.Strings(order)
	out := make([]DayActivity, 0, len(order))
	for _, day := range order {
		entry := byDay[day]
		entry.Net = entry.QtyIn - entry.QtyOut
		out = append(out, *entry)
	}
	return out
}

func rankTopOut(rows []MovementRow, n int) []ProductRank {
	if n <= 0 {
		n = defaultTopN
	}

	byProduct := make(map[int64]*ProductRank)
	for _, m := range rows {
		if m.Type != "OUT" {
			continue
		}
		rank, ok := byProduct[m.ProductID]
		if !ok {
			rank = &ProductRank{ProductID: m.ProductID, SKU: m.ProductSKU, Name: m.ProductName}
			byProduct[m.ProductID] = rank
		}
		rank.QtyOut += m.Quantity
		rank.Income += m.Quantity * m.UnitPrice
	}

	ranks := make([]ProductRank, 0, len(byProduct))
	for _, rank := range byProduct {
		ranks = append(ranks, *rank)
	}
	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].QtyOut != ranks[j].QtyOut {
			return ranks[i].QtyOut > ranks[j].QtyOut
		}
		return ranks[i].ProductID < ranks[j].ProductID
	})

	if len(ranks) > n {
		ranks = ranks[:n]
	}
	return ranks
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
