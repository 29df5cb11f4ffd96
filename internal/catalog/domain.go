// Package catalog exposes the product read model the ledger records
// movements against. Products are seeded externally; nothing here mutates
// them.
package catalog

import (
	"errors"
	"time"
)

// Product is the catalog read model.
type Product struct {
	ID           int64     `json:"id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	Price        int       `json:"price"`
	Stock        int       `json:"stock"`
	IsAvailable  bool      `json:"is_available"`
	CategoryID   int64     `json:"category_id,omitempty"`
	CategoryName string    `json:"category_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// StockState narrows a listing by counter state.
type StockState string

const (
	// StockAny applies no stock constraint.
	StockAny StockState = ""
	// StockIn matches products with stock on hand.
	StockIn StockState = "in"
	// StockOut matches products with an exhausted counter.
	StockOut StockState = "out"
)

// Filter narrows a product listing. Zero values mean "no constraint".
type Filter struct {
	Keyword    string
	CategoryID int64
	Stock      StockState
	MinPrice   int
	MaxPrice   int
	HasMin     bool
	HasMax     bool

	Page    int
	PerPage int
}

// PriceFacets reports the price spread over a filtered product set.
type PriceFacets struct {
	Min    int          `json:"min"`
	Max    int          `json:"max"`
	Ranges []PriceRange `json:"ranges"`
}

// ErrNotFound indicates the requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrStorage indicates a durability-layer failure.
var ErrStorage = errors.New("storage failure")
