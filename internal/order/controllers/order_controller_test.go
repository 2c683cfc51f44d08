package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SKANDA-SR/e-commerse-website/internal/common/auth"
	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	"github.com/SKANDA-SR/e-commerse-website/internal/order/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/order/services"
)

type MockOrders struct{ mock.Mock }

func (m *MockOrders) order(args mock.Arguments) (*models.Order, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Order), args.Error(1)
}

func (m *MockOrders) page(args mock.Arguments) (*models.OrderPage, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OrderPage), args.Error(1)
}

func (m *MockOrders) PlaceOrder(_ context.Context, userID string, req models.PlaceOrderRequest) (*models.Order, error) {
	return m.order(m.Called(userID, req))
}

func (m *MockOrders) MyOrders(_ context.Context, userID string, page, limit int) (*models.OrderPage, error) {
	return m.page(m.Called(userID, page, limit))
}

func (m *MockOrders) ListOrders(_ context.Context, page, limit int) (*models.OrderPage, error) {
	return m.page(m.Called(page, limit))
}

func (m *MockOrders) GetOrder(_ context.Context, id string, caller auth.Claims) (*models.Order, error) {
	return m.order(m.Called(id, caller.UserID))
}

func (m *MockOrders) PayOrder(_ context.Context, id string, caller auth.Claims, result models.PaymentResult) (*models.Order, error) {
	return m.order(m.Called(id, caller.UserID, result))
}

func (m *MockOrders) CancelOrder(_ context.Context, id string, caller auth.Claims) (*models.Order, error) {
	return m.order(m.Called(id, caller.UserID))
}

func (m *MockOrders) FulfillOrder(_ context.Context, id string) (*models.Order, error) {
	return m.order(m.Called(id))
}

type MockPayments struct{ mock.Mock }

func (m *MockPayments) CreatePaymentIntent(_ context.Context, id string, caller auth.Claims) (*services.Intent, error) {
	args := m.Called(id, caller.UserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.Intent), args.Error(1)
}

func (m *MockPayments) HandleWebhook(_ context.Context, payload []byte, signature string) error {
	return m.Called(string(payload), signature).Error(0)
}

type fixture struct {
	router   *gin.Engine
	orders   *MockOrders
	payments *MockPayments
	userID   string
	user     string
	admin    string
}

func setup(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewTokenService("test-secret", time.Hour)
	require.NoError(t, err)

	f := &fixture{orders: new(MockOrders), payments: new(MockPayments), userID: uuid.NewString()}
	f.user, err = tokens.Generate(f.userID, "john@example.com", auth.RoleUser)
	require.NoError(t, err)
	f.admin, err = tokens.Generate(uuid.NewString(), "admin@example.com", auth.RoleAdmin)
	require.NoError(t, err)

	oc := NewOrderController(f.orders, f.payments)
	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	api := r.Group("/api")
	api.POST("/payments/webhook", oc.StripeWebhook)

	orders := api.Group("/orders", auth.Authenticate(tokens))
	orders.POST("", oc.PlaceOrder)
	orders.GET("", auth.RequireAdmin(), oc.GetOrders)
	orders.GET("/myorders", oc.GetMyOrders)
	orders.GET("/:id", oc.GetOrder)
	orders.PUT("/:id/pay", oc.PayOrder)
	orders.PUT("/:id/cancel", oc.CancelOrder)
	orders.PUT("/:id/fulfill", auth.RequireAdmin(), oc.FulfillOrder)
	orders.POST("/:id/payment-intent", oc.CreatePaymentIntent)

	f.router = r
	return f
}

func (f *fixture) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestPlaceOrder(t *testing.T) {
	f := setup(t)

	req := models.PlaceOrderRequest{
		OrderItems:      []models.OrderLine{{Product: "p1", Quantity: 2}},
		ShippingAddress: models.ShippingAddress{Street: "1 Elm", City: "Austin", State: "TX", ZipCode: "73301", Country: "US"},
		PaymentMethod:   models.PaymentPayPal,
	}
	id := uuid.New()
	f.orders.On("PlaceOrder", f.userID, req).Return(&models.Order{ID: id, Status: models.StatusCreated, TotalPrice: 118}, nil)

	w := f.do(http.MethodPost, "/api/orders", "", req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = f.do(http.MethodPost, "/api/orders", f.user, req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), id.String())
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	f := setup(t)

	f.orders.On("PlaceOrder", f.userID, mock.Anything).Return(nil, apperrors.New(400, "Insufficient stock for T-Shirt", nil))

	w := f.do(http.MethodPost, "/api/orders", f.user, gin.H{"orderItems": []gin.H{{"product": "p2", "quantity": 9}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"code":400,"message":"Insufficient stock for T-Shirt"}`, w.Body.String())
}

func TestAdminRoutes(t *testing.T) {
	f := setup(t)

	f.orders.On("ListOrders", 2, 5).Return(&models.OrderPage{Orders: []models.Order{}}, nil)
	f.orders.On("FulfillOrder", "o1").Return(&models.Order{Status: models.StatusFulfilled}, nil)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodGet, "/api/orders", f.user, nil).Code)
	assert.Equal(t, http.StatusOK, f.do(http.MethodGet, "/api/orders?page=2&limit=5", f.admin, nil).Code)

	assert.Equal(t, http.StatusForbidden, f.do(http.MethodPut, "/api/orders/o1/fulfill", f.user, nil).Code)
	w := f.do(http.MethodPut, "/api/orders/o1/fulfill", f.admin, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"fulfilled"`)
}

func TestMyOrdersAndLifecycle(t *testing.T) {
	f := setup(t)

	f.orders.On("MyOrders", f.userID, 0, 0).Return(&models.OrderPage{Orders: []models.Order{}, Meta: models.MetaData{Page: 1, Limit: 10}}, nil)
	f.orders.On("GetOrder", "missing", f.userID).Return(nil, services.ErrOrderNotFound)
	f.orders.On("PayOrder", "o1", f.userID, models.PaymentResult{ID: "PAY-1", Status: "COMPLETED"}).Return(&models.Order{Status: models.StatusPaid}, nil)
	f.orders.On("CancelOrder", "o1", f.userID).Return(nil, apperrors.New(400, "Order is fulfilled and cannot be marked cancelled", nil))

	w := f.do(http.MethodGet, "/api/orders/myorders", f.user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"orders":[]`)

	w = f.do(http.MethodGet, "/api/orders/missing", f.user, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Order not found")

	w = f.do(http.MethodPut, "/api/orders/o1/pay", f.user, models.PaymentResult{ID: "PAY-1", Status: "COMPLETED"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodPut, "/api/orders/o1/cancel", f.user, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPaymentIntentAndWebhook(t *testing.T) {
	f := setup(t)

	f.payments.On("CreatePaymentIntent", "o1", f.userID).Return(&services.Intent{ID: "pi_1", ClientSecret: "sec"}, nil)
	f.payments.On("HandleWebhook", `{"id":"evt_1"}`, "t=1,v1=abc").Return(nil)
	f.payments.On("HandleWebhook", mock.Anything, "").Return(apperrors.Validation("Invalid webhook"))

	w := f.do(http.MethodPost, "/api/orders/o1/payment-intent", f.user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"clientSecret":"sec"`)

	req := httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(`{"id":"evt_1"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=abc")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/payments/webhook", strings.NewReader(`{}`))
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
