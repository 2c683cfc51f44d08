package cart

import (
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/SKANDA-SR/e-commerse-website/internal/pricing"
)

// Summary is the checkout view of a cart.
type Summary struct {
	Items     []Line  `json:"items"`
	ItemCount int     `json:"itemCount"`
	Subtotal  float64 `json:"subtotal"`
	Tax       float64 `json:"tax"`
	Shipping  float64 `json:"shipping"`
	Total     float64 `json:"total"`
}

func TotalItems(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}

func Subtotal(lines []Line) float64 {
	var sum float64
	for _, l := range lines {
		sum += l.Price * float64(l.Quantity)
	}
	return sum
}

// Summarize prices lines. Total is always Subtotal+Tax+Shipping.
func Summarize(lines []Line) Summary {
	b := pricing.Compute(Subtotal(lines))
	if lines == nil {
		lines = []Line{}
	}
	return Summary{
		Items:     lines,
		ItemCount: TotalItems(lines),
		Subtotal:  b.Subtotal,
		Tax:       b.Tax,
		Shipping:  b.Shipping,
		Total:     b.Total,
	}
}

var (
	printer   = message.NewPrinter(language.AmericanEnglish)
	usdSymbol = printer.Sprint(currency.NarrowSymbol(currency.USD))
)

// FormatCurrency renders a USD amount for display, e.g. "$37.00".
func FormatCurrency(amount float64) string {
	return printer.Sprintf("%s%.2f", usdSymbol, pricing.Round(amount))
}
