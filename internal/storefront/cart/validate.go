package cart

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	productmodels "github.com/SKANDA-SR/e-commerse-website/internal/product/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/pricing"
)

// ProductLookup reads the live catalog record for a product id.
type ProductLookup interface {
	Product(ctx context.Context, id string) (*productmodels.Product, error)
}

type WarningKind string

const (
	WarningRemoved  WarningKind = "removed"
	WarningClamped  WarningKind = "clamped"
	WarningRepriced WarningKind = "repriced"
)

// Warning describes one adjustment Validate made to the cart.
type Warning struct {
	ProductID string      `json:"productId"`
	Kind      WarningKind `json:"kind"`
	Message   string      `json:"message"`
}

func (w Warning) String() string { return w.Message }

// Validate reconciles every line with the live catalog:
//   - missing, inactive or sold-out products are dropped;
//   - quantities above stock are clamped;
//   - changed prices replace the snapshot price.
//
// Each adjustment yields a warning. A line whose lookup fails for any reason
// other than the catalog's product-not-found answer, or whose response names
// a different product, is kept unchanged. A bare 404 from a wrong base URL
// therefore keeps the line. The cart is persisted only when something changed.
func (c *Cart) Validate(ctx context.Context, catalog ProductLookup) ([]Warning, error) {
	var (
		kept     = make([]Line, 0, len(c.lines))
		warnings []Warning
		changed  bool
	)

	for _, line := range c.lines {
		p, err := catalog.Product(ctx, line.ID)
		switch {
		case errors.Is(err, apperrors.ErrProductNotFound):
			warnings = append(warnings, removed(line))
			changed = true
			continue
		case err != nil:
			c.logger.Warn("Keeping cart line, product lookup failed",
				zap.String("product_id", line.ID), zap.Error(err))
			kept = append(kept, line)
			continue
		case p == nil || p.ID != line.ID:
			kept = append(kept, line)
			continue
		}

		next, w := reconcile(line, p)
		warnings = append(warnings, w...)
		if next == nil {
			changed = true
			continue
		}
		if *next != line {
			changed = true
		}
		kept = append(kept, *next)
	}

	if !changed {
		return warnings, nil
	}
	c.lines = kept
	if err := c.save(ctx); err != nil {
		return warnings, err
	}
	return warnings, nil
}

// reconcile returns the adjusted line, or nil when it must be dropped.
func reconcile(line Line, p *productmodels.Product) (*Line, []Warning) {
	if !p.IsActive || p.Stock <= 0 {
		return nil, []Warning{removed(line)}
	}

	var warnings []Warning
	if line.Quantity > p.Stock {
		line.Quantity = p.Stock
		warnings = append(warnings, Warning{
			ProductID: line.ID,
			Kind:      WarningClamped,
			Message:   fmt.Sprintf("%s quantity reduced to available stock (%d)", line.Name, p.Stock),
		})
	}
	if pricing.Round(line.Price) != pricing.Round(p.Price) {
		warnings = append(warnings, Warning{
			ProductID: line.ID,
			Kind:      WarningRepriced,
			Message:   fmt.Sprintf("%s price changed from %s to %s", line.Name, FormatCurrency(line.Price), FormatCurrency(p.Price)),
		})
		line.Price = p.Price
	}
	line.Stock = p.Stock
	return &line, warnings
}

func removed(line Line) Warning {
	return Warning{
		ProductID: line.ID,
		Kind:      WarningRemoved,
		Message:   fmt.Sprintf("%s is no longer available and was removed from cart", line.Name),
	}
}
