// Package cart is the shopper's client-held cart. Lines live in a
// storage.Store under storage.KeyCart as one JSON array that is rewritten on
// every change. Totals use the same pricing rules as the order service.
package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	productmodels "github.com/SKANDA-SR/e-commerse-website/internal/product/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/storage"
)

const PlaceholderImage = "https://via.placeholder.com/100x100?text=No+Image"

// Line is a product snapshot taken when it was added. Stock is the ceiling
// seen at add time or at the last validation.
type Line struct {
	ID       string  `json:"_id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Image    string  `json:"image"`
	Quantity int     `json:"quantity"`
	Stock    int     `json:"stock"`
}

type Cart struct {
	store  storage.Store
	logger *zap.Logger
	lines  []Line
}

// Open loads the persisted cart. A missing or unreadable value starts an
// empty cart.
func Open(ctx context.Context, store storage.Store, logger *zap.Logger) (*Cart, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Cart{store: store, logger: logger}

	raw, ok, err := store.Get(ctx, storage.KeyCart)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if ok {
		if err := json.Unmarshal([]byte(raw), &c.lines); err != nil {
			logger.Warn("Discarding unreadable cart", zap.Error(err))
			c.lines = nil
		}
	}
	return c, nil
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// AddItem merges qty into an existing line or appends a snapshot of p.
// Stock is not checked here; Validate enforces it.
func (c *Cart) AddItem(ctx context.Context, p *productmodels.Product, qty int) error {
	if qty < 1 {
		qty = 1
	}
	if i := c.index(p.ID); i >= 0 {
		c.lines[i].Quantity += qty
	} else {
		image := p.PrimaryImage()
		if image == "" {
			image = PlaceholderImage
		}
		c.lines = append(c.lines, Line{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Image:    image,
			Quantity: qty,
			Stock:    p.Stock,
		})
	}
	return c.save(ctx)
}

// RemoveItem is a no-op when the product is not in the cart.
func (c *Cart) RemoveItem(ctx context.Context, productID string) error {
	i := c.index(productID)
	if i < 0 {
		return nil
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return c.save(ctx)
}

// UpdateQuantity sets qty verbatim; qty <= 0 removes the line.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, qty int) error {
	if qty <= 0 {
		return c.RemoveItem(ctx, productID)
	}
	i := c.index(productID)
	if i < 0 {
		return nil
	}
	c.lines[i].Quantity = qty
	return c.save(ctx)
}

func (c *Cart) Clear(ctx context.Context) error {
	c.lines = nil
	if err := c.store.Delete(ctx, storage.KeyCart); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }
func (c *Cart) TotalItems() int { return TotalItems(c.lines) }
func (c *Cart) Subtotal() float64 { return Subtotal(c.lines) }
func (c *Cart) Tax() float64 { return Summarize(c.lines).Tax }
func (c *Cart) Shipping() float64 { return Summarize(c.lines).Shipping }
func (c *Cart) Total() float64 { return Summarize(c.lines).Total }
func (c *Cart) Summary() Summary { return Summarize(c.Items()) }
func (c *Cart) IsInCart(id string) bool { return c.index(id) >= 0 }

func (c *Cart) ItemQuantity(productID string) int {
	if i := c.index(productID); i >= 0 {
		return c.lines[i].Quantity
	}
	return 0
}

func (c *Cart) index(productID string) int {
	for i := range c.lines {
		if c.lines[i].ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) save(ctx context.Context) error {
	lines := c.lines
	if lines == nil {
		lines = []Line{}
	}
	b, err := json.Marshal(lines)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, storage.KeyCart, string(b)); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	return nil
}
