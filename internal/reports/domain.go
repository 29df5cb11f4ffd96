// Package reports aggregates ledger movements into day-level and ranking
// views for dashboards.
package reports

import (
	"errors"
	"time"
)

// MovementRow is the flat ledger projection the aggregations consume.
type MovementRow struct {
	ProductID   int64
	ProductSKU  string
	ProductName string
	Type        string
	Quantity    int
	UnitPrice   int
	CreatedAt   time.Time
}

// DayActivity is one calendar day of ledger traffic. Income counts OUT
// movements only, valued at the recorded unit price.
type DayActivity struct {
	Day    string `json:"day"`
	QtyIn  int    `json:"qty_in"`
	QtyOut int    `json:"qty_out"`
	Net    int    `json:"net"`
	Income int    `json:"income"`
}

// ProductRank is one row of the top-movers ranking.
type ProductRank struct {
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	QtyOut    int    `json:"qty_out"`
	Income    int    `json:"income"`
}

// Dashboard is the cached overview the reporting endpoint serves.
type Dashboard struct {
	From          string        `json:"from"`
	To            string        `json:"to"`
	TotalProducts int           `json:"total_products"`
	TotalStock    int           `json:"total_stock"`
	TopOut        []ProductRank `json:"top_out"`
	Daily         []DayActivity `json:"daily"`
	GeneratedAt   time.Time     `json:"generated_at"`
}

// DailyFilter narrows a daily activity series.
type DailyFilter struct {
	From      time.Time
	To        time.Time
	ProductID int64
}

// ErrStorage indicates a durability-layer failure.
var ErrStorage = errors.New("storage failure")
