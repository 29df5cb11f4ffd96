package ledger

import (
	"errors"
	"fmt"
	"time"
)

// MovementType enumerates the two ledger actions.
type MovementType string

const (
	// MovementIn records stock entering the warehouse.
	MovementIn MovementType = "IN"
	// MovementOut records stock leaving the warehouse.
	MovementOut MovementType = "OUT"
)

// Valid reports whether the action is one of IN/OUT.
func (t MovementType) Valid() bool {
	return t == MovementIn || t == MovementOut
}

// RefType classifies why a movement occurred. Empty means unspecified and is
// always permitted.
type RefType string

const (
	RefSupplierInvoice     RefType = "SUP_INV"
	RefCustomerInvoice     RefType = "CUS_INV"
	RefSupplierRequisition RefType = "SUP_REQ"
	RefCustomerRequisition RefType = "CUS_REQ"
	RefAdjustment          RefType = "ADJ"
)

// RefTypes lists every known reference type.
var RefTypes = []RefType{
	RefSupplierInvoice,
	RefCustomerInvoice,
	RefSupplierRequisition,
	RefCustomerRequisition,
	RefAdjustment,
}

// allowedRefTypes is the closed action/reference compatibility table.
var allowedRefTypes = map[MovementType]map[RefType]struct{}{
	MovementIn: {
		RefSupplierInvoice:     {},
		RefSupplierRequisition: {},
		RefAdjustment:          {},
	},
	MovementOut: {
		RefCustomerInvoice:     {},
		RefCustomerRequisition: {},
		RefAdjustment:          {},
	},
}

// Valid reports whether the reference type is a member of the global enum.
func (r RefType) Valid() bool {
	for _, known := range RefTypes {
		if r == known {
			return true
		}
	}
	return false
}

// AllowedFor reports whether the reference type may accompany the action.
func (r RefType) AllowedFor(t MovementType) bool {
	_, ok := allowedRefTypes[t][r]
	return ok
}

// Movement is one immutable ledger entry. UnitPrice is a snapshot of the
// product price at posting time and never changes afterwards.
type Movement struct {
	ID          int64        `json:"id"`
	Code        string       `json:"code"`
	ProductID   int64        `json:"product_id"`
	ProductSKU  string       `json:"product_sku"`
	ProductName string       `json:"product_name"`
	Type        MovementType `json:"movement_type"`
	Quantity    int          `json:"quantity"`
	UnitPrice   int          `json:"unit_price"`
	RefType     RefType      `json:"ref_type,omitempty"`
	RefNo       string       `json:"ref_no,omitempty"`
	Remark      string       `json:"remark,omitempty"`
	CreatedBy   *int64       `json:"created_by,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Product is the slice of the catalog entity the ledger reads and whose stock
// counter it maintains.
type Product struct {
	ID    int64
	SKU   string
	Name  string
	Price int
	Stock int
}

// Totals sums quantities over a whole filtered movement set, not one page.
type Totals struct {
	QtyIn  int `json:"qty_in"`
	QtyOut int `json:"qty_out"`
}

// Net returns qty in minus qty out.
func (t Totals) Net() int {
	return t.QtyIn - t.QtyOut
}

// Validation and posting failures.
var (
	ErrInvalidQuantity   = errors.New("quantity must be greater than 0")
	ErrInvalidAction     = errors.New("invalid action")
	ErrInvalidRefType    = errors.New("invalid reference type")
	ErrRefTypeNotAllowed = errors.New("selected ref type is not allowed for this action")

	// ErrNotFound indicates the referenced product or movement is absent.
	ErrNotFound = errors.New("product not found")
	// ErrConcurrencyConflict indicates the product row is locked by a
	// concurrent movement; the caller may retry.
	ErrConcurrencyConflict = errors.New("concurrent stock update in progress")
	// ErrStorage indicates a durability-layer failure; not retried.
	ErrStorage = errors.New("storage failure")
)

// InsufficientStockError rejects an OUT movement larger than current stock.
// The message reports the stock observed under the row lock.
type InsufficientStockError struct {
	Stock int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Not enough stock. Current stock is %d", e.Stock)
}

// Validate applies the admission rules in order, first failure wins:
// quantity, action, stock sufficiency, reference-type membership,
// reference-type/action compatibility. It never mutates state; currentStock
// must be read under the same lock that guards the subsequent write.
func Validate(action MovementType, quantity int, refType RefType, currentStock int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !action.Valid() {
		return ErrInvalidAction
	}
	if action == MovementOut && quantity > currentStock {
		return &InsufficientStockError{Stock: currentStock}
	}
	if refType != "" && !refType.Valid() {
		return ErrInvalidRefType
	}
	if refType != "" && !refType.AllowedFor(action) {
		return ErrRefTypeNotAllowed
	}
	return nil
}
