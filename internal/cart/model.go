package cart

import (
	"fmt"

	"github.com/gofrs/uuid"
	"github.com/shopspring/decimal"
)

// Line is a cart row joined to the live product record. UnitPrice and
// AvailableStock reflect the catalog at read time. Prices are only frozen
// when an order is placed.
type Line struct {
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	LineSubtotal   decimal.Decimal `json:"line_subtotal"`
	AvailableStock int             `json:"available_stock"`
	ImageURL       string          `json:"image_url,omitempty"`
}

type Snapshot struct {
	Lines    []Line          `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// StockWarning reports a reconciliation the user should see: either a line
// whose quantity was reduced to the remaining stock, or one dropped outright.
type StockWarning struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Remaining   int       `json:"remaining_stock"`
	Dropped     bool      `json:"dropped"`
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

func (w StockWarning) Message() string {
	if w.Dropped {
		return fmt.Sprintf("%s is out of stock and was removed from your cart", w.ProductName)
	}
	return fmt.Sprintf("only %d of %s left in stock; your cart was updated", w.Remaining, w.ProductName)
}
