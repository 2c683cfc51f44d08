// Package pricing holds the storefront's order pricing rules. The cart and
// the order service both price through here so a checkout total shown to the
// shopper matches what the backend charges.
package pricing

import "math"

const (
	TaxRate               = 0.08
	FreeShippingThreshold = 100.0
	ShippingCost          = 10.0
)

// Breakdown is a priced subtotal.
type Breakdown struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Shipping float64 `json:"shipping"`
	Total    float64 `json:"total"`
}

// Tax is subtotal × TaxRate.
func Tax(subtotal float64) float64 {
	return subtotal * TaxRate
}

// Shipping is free at or above the threshold.
func Shipping(subtotal float64) float64 {
	if subtotal >= FreeShippingThreshold {
		return 0
	}
	return ShippingCost
}

// Compute prices a subtotal. Total is always Subtotal+Tax+Shipping.
func Compute(subtotal float64) Breakdown {
	b := Breakdown{
		Subtotal: subtotal,
		Tax:      Tax(subtotal),
		Shipping: Shipping(subtotal),
	}
	b.Total = b.Subtotal + b.Tax + b.Shipping
	return b
}

// ComputeRounded is Compute with every component rounded to cents, used for
// persisted order amounts.
func ComputeRounded(subtotal float64) Breakdown {
	b := Breakdown{
		Subtotal: Round(subtotal),
		Tax:      Round(Tax(subtotal)),
		Shipping: Shipping(subtotal),
	}
	b.Total = Round(b.Subtotal + b.Tax + b.Shipping)
	return b
}

// Round rounds to the nearest cent.
func Round(v float64) float64 {
	return math.Round(v*100) / 100
}

// ToMinorUnits converts a dollar amount to cents.
func ToMinorUnits(v float64) int64 {
	return int64(math.Round(v * 100))
}
