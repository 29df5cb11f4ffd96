package catalog

import (
	"context"

	"github.com/chuestock/chuestock/internal/shared"
)

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	List(ctx context.Context, filter Filter) ([]Product, int, error)
	BySKU(ctx context.Context, sku string) (Product, error)
	MinMaxPrice(ctx context.Context, filter Filter) (min, max int, ok bool, err error)
}

// Service implements catalog use cases.
type Service struct {
	repo RepositoryPort
}

// NewService constructs Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ListResult is one page of the product listing with price facets for the
// whole filtered set.
type ListResult struct {
	Products   []Product         `json:"products"`
	Facets     PriceFacets       `json:"facets"`
	Pagination shared.Pagination `json:"pagination"`
}

const facetBuckets = 5

// List returns products matching the filter together with price facets.
func (s *Service) List(ctx context.Context, filter Filter) (ListResult, error) {
	products, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return ListResult{}, err
	}

	minP, maxP, ok, err := s.repo.MinMaxPrice(ctx, filter)
	if err != nil {
		return ListResult{}, err
	}

	facets := PriceFacets{Ranges: []PriceRange{}}
	if ok {
		facets = PriceFacets{Min: minP, Max: maxP, Ranges: BuildPriceRanges(minP, maxP, facetBuckets)}
	}

	if products == nil {
		products = []Product{}
	}
	return ListResult{
		Products:   products,
		Facets:     facets,
		Pagination: shared.NewPagination(filter.Page, filter.PerPage, total),
	}, nil
}

// BySKU resolves a single product.
func (s *Service) BySKU(ctx context.Context, sku string) (Product, error) {
	return s.repo.BySKU(ctx, sku)
}
