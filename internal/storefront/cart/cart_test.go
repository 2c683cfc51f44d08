package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	productmodels "github.com/SKANDA-SR/e-commerse-website/internal/product/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/storage"
)

type fakeCatalog struct {
	products map[string]*productmodels.Product
	errs     map[string]error
	calls    int
}

func (f *fakeCatalog) Product(_ context.Context, id string) (*productmodels.Product, error) {
	f.calls++
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	if p, ok := f.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, apperrors.NotFound("Product not found")
}

func product(id, name string, price float64, stock int) *productmodels.Product {
	return &productmodels.Product{ID: id, Name: name, Price: price, Stock: stock, IsActive: true}
}

func openCart(t *testing.T, store storage.Store) *Cart {
	t.Helper()
	c, err := Open(context.Background(), store, nil)
	require.NoError(t, err)
	return c
}

func TestAddItemMergesSameProduct(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := openCart(t, store)

	p := product("p1", "Headphones", 10, 9)
	require.NoError(t, c.AddItem(ctx, p, 2))
	require.NoError(t, c.AddItem(ctx, p, 3))

	items := c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5, items[0].Quantity)
	assert.Equal(t, PlaceholderImage, items[0].Image)
	assert.True(t, c.IsInCart("p1"))
	assert.Equal(t, 5, c.ItemQuantity("p1"))
	assert.Equal(t, 0, c.ItemQuantity("nope"))

	reopened := openCart(t, store)
	assert.Equal(t, items, reopened.Items())
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()
	a := openCart(t, storage.NewMemoryStore())
	b := openCart(t, storage.NewMemoryStore())
	for _, c := range []*Cart{a, b} {
		require.NoError(t, c.AddItem(ctx, product("p1", "A", 10, 5), 1))
		require.NoError(t, c.AddItem(ctx, product("p2", "B", 5, 5), 1))
	}

	require.NoError(t, a.UpdateQuantity(ctx, "p1", 0))
	require.NoError(t, b.RemoveItem(ctx, "p1"))
	assert.Equal(t, b.Items(), a.Items())

	require.NoError(t, a.UpdateQuantity(ctx, "p2", 7))
	assert.Equal(t, 7, a.ItemQuantity("p2"))

	require.NoError(t, a.UpdateQuantity(ctx, "missing", 3))
	require.NoError(t, a.RemoveItem(ctx, "missing"))
	assert.Len(t, a.Items(), 1)
}

func TestSummaryExample(t *testing.T) {
	ctx := context.Background()
	c := openCart(t, storage.NewMemoryStore())
	require.NoError(t, c.AddItem(ctx, product("p1", "A", 10, 5), 2))
	require.NoError(t, c.AddItem(ctx, product("p2", "B", 5, 5), 1))

	s := c.Summary()
	assert.Equal(t, 3, s.ItemCount)
	assert.InDelta(t, 25.0, s.Subtotal, 1e-9)
	assert.InDelta(t, 2.0, s.Tax, 1e-9)
	assert.Equal(t, 10.0, s.Shipping)
	assert.InDelta(t, 37.0, s.Total, 1e-9)
	assert.Equal(t, c.Subtotal()+c.Tax()+c.Shipping(), c.Total())
}

func TestFreeShippingAtThreshold(t *testing.T) {
	s := Summarize([]Line{{ID: "p1", Price: 50, Quantity: 2}})
	assert.Equal(t, 0.0, s.Shipping)
	assert.InDelta(t, 108.0, s.Total, 1e-9)

	empty := Summarize(nil)
	assert.Equal(t, 0, empty.ItemCount)
	assert.NotNil(t, empty.Items)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := openCart(t, store)
	require.NoError(t, c.AddItem(ctx, product("p1", "A", 10, 5), 1))
	require.NoError(t, c.Clear(ctx))

	assert.True(t, c.IsEmpty())
	_, ok, _ := store.Get(ctx, storage.KeyCart)
	assert.False(t, ok)
}

func TestOpenDiscardsCorruptCart(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set(context.Background(), storage.KeyCart, "{not json"))

	c := openCart(t, store)
	assert.True(t, c.IsEmpty())
}

func TestValidateClampsToStock(t *testing.T) {
	ctx := context.Background()
	c := openCart(t, storage.NewMemoryStore())
	require.NoError(t, c.AddItem(ctx, product("p1", "Lamp", 20, 10), 5))

	catalog := &fakeCatalog{products: map[string]*productmodels.Product{"p1": product("p1", "Lamp", 20, 3)}}
	warnings, err := c.Validate(ctx, catalog)
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, WarningClamped, warnings[0].Kind)
	assert.Contains(t, warnings[0].Message, "(3)")
	assert.Equal(t, 3, c.ItemQuantity("p1"))
	assert.Equal(t, 3, c.Items()[0].Stock)
}

func TestValidateReconcilesAndIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	c := openCart(t, store)
	require.NoError(t, c.AddItem(ctx, product("gone", "Gone", 5, 5), 1))
	require.NoError(t, c.AddItem(ctx, product("inactive", "Old", 5, 5), 1))
	require.NoError(t, c.AddItem(ctx, product("soldout", "Popular", 5, 5), 1))
	require.NoError(t, c.AddItem(ctx, product("repriced", "Mug", 8, 5), 2))
	require.NoError(t, c.AddItem(ctx, product("flaky", "Book", 15, 5), 1))
	require.NoError(t, c.AddItem(ctx, product("fine", "Pen", 2, 5), 1))

	inactive := product("inactive", "Old", 5, 5)
	inactive.IsActive = false
	catalog := &fakeCatalog{
		products: map[string]*productmodels.Product{
			"inactive": inactive,
			"soldout":  product("soldout", "Popular", 5, 0),
			"repriced": product("repriced", "Mug", 9.5, 5),
			"fine":     product("fine", "Pen", 2, 5),
		},
		errs: map[string]error{"flaky": apperrors.Transport(errors.New("connection refused"))},
	}

	warnings, err := c.Validate(ctx, catalog)
	require.NoError(t, err)

	kinds := map[string]WarningKind{}
	for _, w := range warnings {
		kinds[w.ProductID] = w.Kind
	}
	assert.Equal(t, map[string]WarningKind{
		"gone":     WarningRemoved,
		"inactive": WarningRemoved,
		"soldout":  WarningRemoved,
		"repriced": WarningRepriced,
	}, kinds)

	var ids []string
	for _, l := range c.Items() {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []string{"repriced", "flaky", "fine"}, ids)
	assert.Equal(t, 9.5, c.Items()[0].Price)

	persisted := openCart(t, store)
	assert.Equal(t, c.Items(), persisted.Items())

	again, err := c.Validate(ctx, catalog)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Equal(t, persisted.Items(), c.Items())
}

type staleCatalog struct{}

func (staleCatalog) Product(_ context.Context, _ string) (*productmodels.Product, error) {
	return product("other", "Other", 1, 1), nil
}

func TestValidateIgnoresResponseForOtherProduct(t *testing.T) {
	ctx := context.Background()
	c := openCart(t, storage.NewMemoryStore())
	require.NoError(t, c.AddItem(ctx, product("p1", "Lamp", 20, 10), 5))

	warnings, err := c.Validate(ctx, staleCatalog{})
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 5, c.ItemQuantity("p1"))
	assert.Equal(t, 20.0, c.Items()[0].Price)
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$37.00", FormatCurrency(37))
	assert.Equal(t, "$0.50", FormatCurrency(0.5))
	assert.Equal(t, "$100.00", FormatCurrency(99.999))
}

func TestValidateKeepsLinesOnBareNotFound(t *testing.T) {
	ctx := context.Background()
	c := openCart(t, storage.NewMemoryStore())
	require.NoError(t, c.AddItem(ctx, product("p1", "Lamp", 20, 10), 2))
	require.NoError(t, c.AddItem(ctx, product("p2", "Desk", 90, 3), 1))

	// A misrouted request gets a plain 404, not the catalog's answer.
	catalog := &fakeCatalog{errs: map[string]error{
		"p1": apperrors.NotFound("Not Found"),
		"p2": apperrors.NotFound("Not Found"),
	}}

	warnings, err := c.Validate(ctx, catalog)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, 2, catalog.calls)
	assert.Equal(t, 2, c.ItemQuantity("p1"))
	assert.Equal(t, 1, c.ItemQuantity("p2"))
}
