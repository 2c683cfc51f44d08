package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/SKANDA-SR/e-commerse-website/internal/common/auth"
	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	ordercontrollers "github.com/SKANDA-SR/e-commerse-website/internal/order/controllers"
	orderservices "github.com/SKANDA-SR/e-commerse-website/internal/order/services"
	productcontrollers "github.com/SKANDA-SR/e-commerse-website/internal/product/controllers"
	productrepo "github.com/SKANDA-SR/e-commerse-website/internal/product/repository"
	productservices "github.com/SKANDA-SR/e-commerse-website/internal/product/services"
	usercontrollers "github.com/SKANDA-SR/e-commerse-website/internal/user/controllers"
	userservices "github.com/SKANDA-SR/e-commerse-website/internal/user/services"
)

func newRouter(t *testing.T) (*gin.Engine, *auth.TokenService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewTokenService("routes-secret", time.Hour)
	require.NoError(t, err)

	catalog := productservices.NewProductService(productrepo.NewMemoryProductRepository(), nil, nil, nil, zap.NewNop())
	orders := orderservices.NewOrderService(nil, catalog, nil, nil, zap.NewNop())

	r := gin.New()
	r.Use(apperrors.ErrorMiddleware())
	Register(r, tokens, Controllers{
		Products: productcontrollers.NewProductController(catalog),
		Users:    usercontrollers.NewUserController(userservices.NewUserService(nil, tokens, zap.NewNop())),
		Orders:   ordercontrollers.NewOrderController(orders, orderservices.NewPaymentService(orders, nil, "usd", nil)),
	})
	return r, tokens
}

func TestRegisterMountsEveryEndpoint(t *testing.T) {
	r, _ := newRouter(t)

	got := map[string]bool{}
	for _, route := range r.Routes() {
		got[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /health",
		"GET /api/products",
		"GET /api/products/featured",
		"GET /api/products/categories",
		"GET /api/products/:id",
		"POST /api/products",
		"PUT /api/products/:id",
		"DELETE /api/products/:id",
		"POST /api/products/:id/image-upload-url",
		"POST /api/users/register",
		"POST /api/users/login",
		"GET /api/users/profile",
		"PUT /api/users/profile",
		"POST /api/orders",
		"GET /api/orders",
		"GET /api/orders/myorders",
		"GET /api/orders/:id",
		"PUT /api/orders/:id/pay",
		"PUT /api/orders/:id/cancel",
		"PUT /api/orders/:id/fulfill",
		"POST /api/orders/:id/payment-intent",
		"POST /api/payments/webhook",
	} {
		assert.True(t, got[want], "missing route %s", want)
	}
}

func TestAdminGuards(t *testing.T) {
	r, tokens := newRouter(t)
	userToken, err := tokens.Generate(uuid.NewString(), "john@example.com", auth.RoleUser)
	require.NoError(t, err)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/products"},
		{http.MethodPut, "/api/products/p1"},
		{http.MethodDelete, "/api/products/p1"},
		{http.MethodGet, "/api/orders"},
		{http.MethodPut, "/api/orders/o1/fulfill"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s without token", tc.method, tc.path)

		req = httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`))
		req.Header.Set("Authorization", "Bearer "+userToken)
		w = httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code, "%s %s as user", tc.method, tc.path)
	}
}

func TestPublicCatalogAndHealth(t *testing.T) {
	r, _ := newRouter(t)

	for _, path := range []string{"/health", "/api/products", "/api/products/featured", "/api/products/categories"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/products/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
