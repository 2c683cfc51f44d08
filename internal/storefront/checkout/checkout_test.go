package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	ordermodels "github.com/SKANDA-SR/e-commerse-website/internal/order/models"
	productmodels "github.com/SKANDA-SR/e-commerse-website/internal/product/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/cart"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/session"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/storage"
	usermodels "github.com/SKANDA-SR/e-commerse-website/internal/user/models"
)

type fakeAuth struct{}

func (fakeAuth) Login(_ context.Context, email, _ string) (*usermodels.AuthResponse, error) {
	return &usermodels.AuthResponse{ID: uuid.New(), Name: "John Doe", Email: email, Role: usermodels.RoleUser, Token: "tok"}, nil
}

func (fakeAuth) Register(ctx context.Context, _, email, password string) (*usermodels.AuthResponse, error) {
	return fakeAuth{}.Login(ctx, email, password)
}

func (fakeAuth) Profile(context.Context, string) (*usermodels.User, error) {
	return nil, apperrors.ErrNotFound
}

func (fakeAuth) UpdateProfile(context.Context, string, usermodels.UpdateProfileRequest) (*usermodels.AuthResponse, error) {
	return nil, apperrors.ErrNotFound
}

type fakeCatalog map[string]*productmodels.Product

func (f fakeCatalog) Product(_ context.Context, id string) (*productmodels.Product, error) {
	p, ok := f[id]
	if !ok {
		return nil, apperrors.NotFound("Product not found")
	}
	cp := *p
	return &cp, nil
}

type fakeOrders struct {
	calls  []ordermodels.PlaceOrderRequest
	tokens []string
	err    error
}

func (f *fakeOrders) PlaceOrder(_ context.Context, token string, req ordermodels.PlaceOrderRequest) (*ordermodels.Order, error) {
	f.calls = append(f.calls, req)
	f.tokens = append(f.tokens, token)
	if f.err != nil {
		return nil, f.err
	}
	return &ordermodels.Order{ID: uuid.New(), OrderNumber: "ORD-1-0000ABCD", Status: ordermodels.StatusCreated}, nil
}

type fixture struct {
	store   *storage.MemoryStore
	cart    *cart.Cart
	session *session.Session
	catalog fakeCatalog
	orders  *fakeOrders
	co      *Checkout
}

func setup(t *testing.T, signedIn bool) *fixture {
	t.Helper()
	ctx := context.Background()
	f := &fixture{
		store: storage.NewMemoryStore(),
		catalog: fakeCatalog{
			"p1": {ID: "p1", Name: "Headphones", Price: 40, Stock: 5, IsActive: true},
			"p2": {ID: "p2", Name: "T-Shirt", Price: 19.99, Stock: 3, IsActive: true},
		},
		orders: &fakeOrders{},
	}
	var err error
	f.cart, err = cart.Open(ctx, f.store, nil)
	require.NoError(t, err)
	f.session = session.New(fakeAuth{}, f.store, f.cart, nil)
	if signedIn {
		_, err = f.session.Login(ctx, "john@example.com", "password123")
		require.NoError(t, err)
	}
	f.co = New(f.session, f.cart, f.catalog, f.orders, nil)
	return f
}

func (f *fixture) add(t *testing.T, id string, qty int) {
	t.Helper()
	require.NoError(t, f.cart.AddItem(context.Background(), f.catalog[id], qty))
}

func validRequest() Request {
	return Request{
		ShippingAddress: ordermodels.ShippingAddress{Street: "123 Main St", City: "New York", State: "NY", ZipCode: "10001", Country: "USA"},
		PaymentMethod:   ordermodels.PaymentCreditCard,
		OrderNotes:      "  leave at the door ",
	}
}

func TestPlaceOrderSubmitsAndClearsCart(t *testing.T) {
	f := setup(t, true)
	f.add(t, "p1", 2)
	f.add(t, "p2", 1)

	res, err := f.co.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, "ORD-1-0000ABCD", res.OrderNumber)
	assert.NotEmpty(t, res.OrderID)

	require.Len(t, f.orders.calls, 1)
	assert.Equal(t, "tok", f.orders.tokens[0])
	assert.Equal(t, []ordermodels.OrderLine{{Product: "p1", Quantity: 2}, {Product: "p2", Quantity: 1}}, f.orders.calls[0].OrderItems)
	assert.Equal(t, "leave at the door", f.orders.calls[0].OrderNotes)
	assert.True(t, f.cart.IsEmpty())
}

func TestPrecheckFailuresNeverCallBackend(t *testing.T) {
	noCity := validRequest()
	noCity.ShippingAddress.City = "   "
	noPayment := validRequest()
	noPayment.PaymentMethod = ""

	tests := []struct {
		name     string
		signedIn bool
		fill     bool
		req      Request
		want     string
	}{
		{"signed out", false, true, validRequest(), "Please log in to continue"},
		{"empty cart", true, false, validRequest(), "Your cart is empty"},
		{"blank city", true, true, noCity, "Missing shipping address fields: city"},
		{"no payment method", true, true, noPayment, "Please select a payment method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setup(t, tt.signedIn)
			if tt.fill {
				f.add(t, "p1", 1)
			}
			_, err := f.co.PlaceOrder(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.Empty(t, f.orders.calls)
		})
	}
}

func TestCartChangesStopCheckout(t *testing.T) {
	f := setup(t, true)
	f.add(t, "p2", 5)

	_, err := f.co.PlaceOrder(context.Background(), validRequest())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCartChanged))
	var changed *CartChangedError
	require.ErrorAs(t, err, &changed)
	require.Len(t, changed.Warnings, 1)
	assert.Equal(t, cart.WarningClamped, changed.Warnings[0].Kind)
	assert.Empty(t, f.orders.calls)
	assert.Equal(t, 3, f.cart.ItemQuantity("p2"))

	_, err = f.co.PlaceOrder(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Equal(t, 3, f.orders.calls[0].OrderItems[0].Quantity)
}

func TestCartEmptiedByValidation(t *testing.T) {
	f := setup(t, true)
	f.add(t, "p1", 1)
	delete(f.catalog, "p1")

	_, err := f.co.PlaceOrder(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, f.orders.calls)
}

func TestRejectedOrderKeepsCart(t *testing.T) {
	f := setup(t, true)
	f.add(t, "p1", 1)
	f.orders.err = apperrors.New(400, "Insufficient stock for Headphones", nil)

	_, err := f.co.PlaceOrder(context.Background(), validRequest())
	require.Error(t, err)
	assert.Equal(t, 1, f.cart.ItemQuantity("p1"))
	assert.True(t, f.session.IsAuthenticated(context.Background()))
}

func TestExpiredCredentialSignsOutButKeepsCart(t *testing.T) {
	f := setup(t, true)
	f.add(t, "p1", 1)
	f.orders.err = apperrors.ErrInvalidToken

	_, err := f.co.PlaceOrder(context.Background(), validRequest())
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	assert.False(t, f.session.IsAuthenticated(context.Background()))
	assert.Equal(t, 1, f.cart.ItemQuantity("p1"))
}
