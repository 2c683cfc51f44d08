package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	ordermodels "github.com/SKANDA-SR/e-commerse-website/internal/order/models"
	productmodels "github.com/SKANDA-SR/e-commerse-website/internal/product/models"
)

func TestProductsSendsFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products", r.URL.Path)
		assert.Equal(t, "Electronics", r.URL.Query().Get("category"))
		assert.Equal(t, "price-asc", r.URL.Query().Get("sortBy"))
		assert.Equal(t, "12", r.URL.Query().Get("limit"))
		assert.Empty(t, r.URL.Query().Get("search"))
		_ = json.NewEncoder(w).Encode(productmodels.ProductPage{
			Products:    []productmodels.Product{{ID: "p1", Name: "Headphones", Price: 99.99, IsActive: true}},
			CurrentPage: 1,
			TotalPages:  1,
			Total:       1,
		})
	}))
	defer srv.Close()

	page, err := NewClient(srv.URL+"/api/", time.Second).Products(context.Background(), ProductFilter{
		Category: "Electronics",
		SortBy:   productmodels.SortPriceAsc,
		Page:     1,
		Limit:    12,
	})
	require.NoError(t, err)
	require.Len(t, page.Products, 1)
	assert.Equal(t, "Headphones", page.Products[0].Name)
}

func TestErrorStatusesMapToAppErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/products/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"code":404,"message":"Product not found"}`))
		case "/api/orders":
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL+"/api", time.Second)

	_, err := c.Product(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.True(t, errors.Is(err, apperrors.ErrProductNotFound))
	assert.Equal(t, "Product not found", err.Error())

	_, err = c.PlaceOrder(context.Background(), "expired", ordermodels.PlaceOrderRequest{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	assert.Equal(t, "Unauthorized", err.Error())
}

func TestUnroutedNotFoundIsNotProductNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewClient(srv.URL+"/wrong-prefix", time.Second).Product(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, apperrors.StatusCode(err))
	assert.False(t, errors.Is(err, apperrors.ErrProductNotFound))
}

func TestBearerTokenAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var req ordermodels.PlaceOrderRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) && assert.Len(t, req.OrderItems, 1) {
			assert.Equal(t, "p1", req.OrderItems[0].Product)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"_id":"6f1c1c8e-2f8f-4a43-9a52-2b1d0f6e8a11","orderNumber":"ORD-1-ABCDEF12","status":"created"}`))
	}))
	defer srv.Close()

	order, err := NewClient(srv.URL, time.Second).PlaceOrder(context.Background(), "tok", ordermodels.PlaceOrderRequest{
		OrderItems: []ordermodels.OrderLine{{Product: "p1", Quantity: 1}},
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-1-ABCDEF12", order.OrderNumber)
	assert.Equal(t, "6f1c1c8e-2f8f-4a43-9a52-2b1d0f6e8a11", order.ID.String())
}

func TestNetworkFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Categories(context.Background())
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, apperrors.StatusCode(err))
}
