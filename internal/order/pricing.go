package order

import "github.com/shopspring/decimal"

// PricingConfig holds the checkout pricing rules: a flat tax rate applied to
// the subtotal (optionally including shipping), and a fixed shipping charge
// waived once the subtotal reaches the free-shipping threshold.
type PricingConfig struct {
	TaxRate               decimal.Decimal
	ShippingCharge        decimal.Decimal
	FreeShippingThreshold decimal.Decimal
	TaxOnShipping         bool
}

func DefaultPricingConfig() PricingConfig {
	return PricingConfig{
		TaxRate:               decimal.RequireFromString("0.18"),
		ShippingCharge:        decimal.NewFromInt(99),
		FreeShippingThreshold: decimal.NewFromInt(2000),
	}
}

type Breakdown struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

// CalculateBreakdown computes the monetary breakdown for a subtotal. Pure:
// no rounding is folded into the stored amounts; display formatting rounds.
func CalculateBreakdown(cfg PricingConfig, subtotal decimal.Decimal) Breakdown {
	shipping := cfg.ShippingCharge
	if subtotal.GreaterThanOrEqual(cfg.FreeShippingThreshold) {
		shipping = decimal.Zero
	}

	taxable := subtotal
	if cfg.TaxOnShipping {
		taxable = taxable.Add(shipping)
	}
	tax := taxable.Mul(cfg.TaxRate)

	return Breakdown{
		Subtotal: subtotal,
		Shipping: shipping,
		Tax:      tax,
		Total:    subtotal.Add(shipping).Add(tax),
	}
}
