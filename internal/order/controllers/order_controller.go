package controllers

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SKANDA-SR/e-commerse-website/internal/common/auth"
	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	"github.com/SKANDA-SR/e-commerse-website/internal/order/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/order/services"
)

const maxWebhookBytes = 64 << 10

type Orders interface {
	PlaceOrder(ctx context.Context, userID string, req models.PlaceOrderRequest) (*models.Order, error)
	MyOrders(ctx context.Context, userID string, page, limit int) (*models.OrderPage, error)
	ListOrders(ctx context.Context, page, limit int) (*models.OrderPage, error)
	GetOrder(ctx context.Context, id string, caller auth.Claims) (*models.Order, error)
	PayOrder(ctx context.Context, id string, caller auth.Claims, result models.PaymentResult) (*models.Order, error)
	CancelOrder(ctx context.Context, id string, caller auth.Claims) (*models.Order, error)
	FulfillOrder(ctx context.Context, id string) (*models.Order, error)
}

type Payments interface {
	CreatePaymentIntent(ctx context.Context, id string, caller auth.Claims) (*services.Intent, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

type OrderController struct {
	orders   Orders
	payments Payments
}

func NewOrderController(orders Orders, payments Payments) *OrderController {
	return &OrderController{orders: orders, payments: payments}
}

func caller(c *gin.Context) (auth.Claims, bool) {
	claims, ok := auth.CurrentClaims(c)
	if !ok {
		_ = c.Error(apperrors.ErrNoToken)
	}
	return claims, ok
}

func paging(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	return page, limit
}

// PlaceOrder handles POST /api/orders
func (oc *OrderController) PlaceOrder(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	var req models.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperrors.Validation("Invalid order payload"))
		return
	}
	order, err := oc.orders.PlaceOrder(c.Request.Context(), claims.UserID, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

// GetMyOrders handles GET /api/orders/myorders
func (oc *OrderController) GetMyOrders(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	page, limit := paging(c)
	res, err := oc.orders.MyOrders(c.Request.Context(), claims.UserID, page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetOrders handles GET /api/orders (admin)
func (oc *OrderController) GetOrders(c *gin.Context) {
	page, limit := paging(c)
	res, err := oc.orders.ListOrders(c.Request.Context(), page, limit)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetOrder handles GET /api/orders/:id
func (oc *OrderController) GetOrder(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	order, err := oc.orders.GetOrder(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PayOrder handles PUT /api/orders/:id/pay
func (oc *OrderController) PayOrder(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	var result models.PaymentResult
	if err := c.ShouldBindJSON(&result); err != nil {
		_ = c.Error(apperrors.Validation("Invalid payment result"))
		return
	}
	order, err := oc.orders.PayOrder(c.Request.Context(), c.Param("id"), claims, result)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrder handles PUT /api/orders/:id/cancel
func (oc *OrderController) CancelOrder(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	order, err := oc.orders.CancelOrder(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// FulfillOrder handles PUT /api/orders/:id/fulfill (admin)
func (oc *OrderController) FulfillOrder(c *gin.Context) {
	order, err := oc.orders.FulfillOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CreatePaymentIntent handles POST /api/orders/:id/payment-intent
func (oc *OrderController) CreatePaymentIntent(c *gin.Context) {
	claims, ok := caller(c)
	if !ok {
		return
	}
	intent, err := oc.payments.CreatePaymentIntent(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, intent)
}

// StripeWebhook handles POST /api/payments/webhook
func (oc *OrderController) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBytes))
	if err != nil {
		_ = c.Error(apperrors.Validation("Unreadable webhook body"))
		return
	}
	if err := oc.payments.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature")); err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
