package order

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCalculateBreakdown(t *testing.T) {
	cfg := DefaultPricingConfig()

	tests := []struct {
		name     string
		subtotal string
		shipping string
		tax      string
		total    string
	}{
		{
			name:     "below free shipping threshold",
			subtotal: "300",
			shipping: "99",
			tax:      "54",
			total:    "453",
		},
		{
			name:     "at free shipping threshold",
			subtotal: "2000",
			shipping: "0",
			tax:      "360",
			total:    "2360",
		},
		{
			name:     "just below free shipping threshold",
			subtotal: "1999.99",
			shipping: "99",
			tax:      "359.9982",
			total:    "2458.9882",
		},
		{
			name:     "zero subtotal",
			subtotal: "0",
			shipping: "99",
			tax:      "0",
			total:    "99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := CalculateBreakdown(cfg, decimal.RequireFromString(tt.subtotal))
			assert.True(t, b.Shipping.Equal(decimal.RequireFromString(tt.shipping)), "shipping = %s", b.Shipping)
			assert.True(t, b.Tax.Equal(decimal.RequireFromString(tt.tax)), "tax = %s", b.Tax)
			assert.True(t, b.Total.Equal(decimal.RequireFromString(tt.total)), "total = %s", b.Total)
			assert.True(t, b.Total.Equal(b.Subtotal.Add(b.Shipping).Add(b.Tax)))
		})
	}
}

func TestCalculateBreakdown_TaxOnShipping(t *testing.T) {
	cfg := DefaultPricingConfig()
	cfg.TaxOnShipping = true

	b := CalculateBreakdown(cfg, decimal.NewFromInt(300))

	// 0.18 * (300 + 99)
	assert.True(t, b.Tax.Equal(decimal.RequireFromString("71.82")), "tax = %s", b.Tax)
	assert.True(t, b.Total.Equal(decimal.RequireFromString("470.82")), "total = %s", b.Total)
}

func TestGenerateOrderNumber(t *testing.T) {
	id := mustUUID(t)
	now := time.Date(2026, 3, 15, 9, 30, 45, 0, time.UTC)

	number := generateOrderNumber(now, id)

	assert.Len(t, number, 24)
	assert.Equal(t, "MP20260315093045", number[:16])
	assert.Regexp(t, "^[0-9A-F]{8}$", number[16:])
}
