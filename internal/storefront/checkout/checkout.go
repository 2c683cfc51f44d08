// Package checkout turns the shopper's cart into an order. Every local check
// runs before the network is touched, and the cart is only cleared once the
// backend has accepted the order.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	ordermodels "github.com/SKANDA-SR/e-commerse-website/internal/order/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/cart"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/session"
)

var (
	ErrEmptyCart       = apperrors.Validation("Your cart is empty")
	ErrNoPaymentMethod = apperrors.Validation("Please select a payment method")
	ErrCartChanged     = errors.New("cart changed during validation")
)

// CartChangedError carries the reconciliation warnings that stopped a
// checkout. It matches ErrCartChanged.
type CartChangedError struct {
	Warnings []cart.Warning
}

func (e *CartChangedError) Error() string {
	msgs := make([]string, len(e.Warnings))
	for i, w := range e.Warnings {
		msgs[i] = w.Message
	}
	return "Your cart was updated: " + strings.Join(msgs, "; ")
}

func (e *CartChangedError) Unwrap() error { return ErrCartChanged }

type OrderAPI interface {
	PlaceOrder(ctx context.Context, token string, req ordermodels.PlaceOrderRequest) (*ordermodels.Order, error)
}

type Request struct {
	ShippingAddress ordermodels.ShippingAddress
	PaymentMethod   string
	OrderNotes      string
}

type Result struct {
	OrderID     string
	OrderNumber string
	Order       *ordermodels.Order
}

type Checkout struct {
	session *session.Session
	cart    *cart.Cart
	catalog cart.ProductLookup
	orders  OrderAPI
	logger  *zap.Logger
}

func New(s *session.Session, c *cart.Cart, catalog cart.ProductLookup, orders OrderAPI, logger *zap.Logger) *Checkout {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checkout{session: s, cart: c, catalog: catalog, orders: orders, logger: logger}
}

// Precheck runs the local checks that need no network: signed in, cart not
// empty, a complete shipping address and a payment method.
func (co *Checkout) Precheck(ctx context.Context, req Request) error {
	if err := co.session.RequireAuth(ctx); err != nil {
		return err
	}
	if co.cart.IsEmpty() {
		return ErrEmptyCart
	}
	if missing := req.ShippingAddress.MissingFields(); len(missing) > 0 {
		return apperrors.Validation(fmt.Sprintf("Missing shipping address fields: %s", strings.Join(missing, ", ")))
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		return ErrNoPaymentMethod
	}
	return nil
}

// PlaceOrder validates the cart against the catalog and submits it. When
// validation adjusted the cart it stops with a *CartChangedError so the
// shopper can review the changes and call PlaceOrder again. On any failure
// the cart is left as it is.
func (co *Checkout) PlaceOrder(ctx context.Context, req Request) (*Result, error) {
	if err := co.Precheck(ctx, req); err != nil {
		return nil, err
	}

	warnings, err := co.cart.Validate(ctx, co.catalog)
	if err != nil {
		return nil, err
	}
	if len(warnings) > 0 {
		if co.cart.IsEmpty() {
			return nil, ErrEmptyCart
		}
		return nil, &CartChangedError{Warnings: warnings}
	}

	body := ordermodels.PlaceOrderRequest{
		OrderItems:      lines(co.cart.Items()),
		ShippingAddress: trimAddress(req.ShippingAddress),
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		OrderNotes:      strings.TrimSpace(req.OrderNotes),
	}

	var order *ordermodels.Order
	err = co.session.Authorized(ctx, func(token string) error {
		var err error
		order, err = co.orders.PlaceOrder(ctx, token, body)
		return err
	})
	if err != nil {
		co.logger.Warn("Order rejected", zap.Error(err))
		return nil, err
	}

	if err := co.cart.Clear(ctx); err != nil {
		co.logger.Error("Order placed but cart could not be cleared", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
	co.logger.Info("Order placed", zap.String("order_id", order.ID.String()), zap.String("order_number", order.OrderNumber))

	return &Result{OrderID: order.ID.String(), OrderNumber: order.OrderNumber, Order: order}, nil
}

func lines(items []cart.Line) []ordermodels.OrderLine {
	out := make([]ordermodels.OrderLine, len(items))
	for i, it := range items {
		out[i] = ordermodels.OrderLine{Product: it.ID, Quantity: it.Quantity}
	}
	return out
}

func trimAddress(a ordermodels.ShippingAddress) ordermodels.ShippingAddress {
	return ordermodels.ShippingAddress{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		ZipCode: strings.TrimSpace(a.ZipCode),
		Country: strings.TrimSpace(a.Country),
	}
}
