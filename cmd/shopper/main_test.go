package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	ordermodels "github.com/SKANDA-SR/e-commerse-website/internal/order/models"
	productmodels "github.com/SKANDA-SR/e-commerse-website/internal/product/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/api"
	"github.com/SKANDA-SR/e-commerse-website/internal/storefront/storage"
	usermodels "github.com/SKANDA-SR/e-commerse-website/internal/user/models"
)

func stubAPI(t *testing.T, placed *[]ordermodels.PlaceOrderRequest) *httptest.Server {
	t.Helper()
	headphones := productmodels.Product{ID: "p1", Name: "Wireless Bluetooth Headphones", Category: "Electronics", Price: 99.99, Stock: 50, IsActive: true}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/products/p1", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(headphones)
	})
	mux.HandleFunc("/api/users/login", func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(usermodels.AuthResponse{ID: uuid.New(), Name: "John Doe", Email: "john@example.com", Role: "user", Token: "tok"})
	})
	mux.HandleFunc("/api/orders", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"code":401,"message":"Not authorized, no token"}`))
			return
		}
		var req ordermodels.PlaceOrderRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		*placed = append(*placed, req)
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(ordermodels.Order{ID: uuid.New(), OrderNumber: "ORD-42-DEADBEEF", Status: ordermodels.StatusCreated})
	})
	return httptest.NewServer(mux)
}

func TestShopperFlow(t *testing.T) {
	var placed []ordermodels.PlaceOrderRequest
	srv := stubAPI(t, &placed)
	defer srv.Close()

	ctx := context.Background()
	store := storage.NewMemoryStore()
	var out bytes.Buffer
	a, err := newApp(ctx, api.NewClient(srv.URL+"/api", time.Second), store, zap.NewNop(), &out)
	require.NoError(t, err)

	require.NoError(t, a.run(ctx, "add", []string{"p1", "2"}))
	assert.Contains(t, out.String(), "Wireless Bluetooth Headphones added to cart")

	out.Reset()
	require.NoError(t, a.run(ctx, "cart", nil))
	assert.Contains(t, out.String(), "199.98")

	checkoutArgs := []string{"-street", "123 Main St", "-city", "New York", "-state", "NY", "-zip", "10001", "-country", "USA", "-payment", "paypal"}
	err = a.run(ctx, "checkout", checkoutArgs)
	require.Error(t, err)
	assert.Empty(t, placed)

	require.NoError(t, a.run(ctx, "login", []string{"john@example.com", "password123"}))
	out.Reset()
	require.NoError(t, a.run(ctx, "checkout", checkoutArgs))
	assert.Contains(t, out.String(), "ORD-42-DEADBEEF")

	require.Len(t, placed, 1)
	assert.Equal(t, []ordermodels.OrderLine{{Product: "p1", Quantity: 2}}, placed[0].OrderItems)
	assert.Equal(t, "paypal", placed[0].PaymentMethod)
	assert.True(t, a.cart.IsEmpty())
}

func TestUnknownCommand(t *testing.T) {
	ctx := context.Background()
	a, err := newApp(ctx, api.NewClient("http://127.0.0.1:0", time.Second), storage.NewMemoryStore(), zap.NewNop(), &bytes.Buffer{})
	require.NoError(t, err)

	assert.Error(t, a.run(ctx, "frobnicate", nil))
	assert.ErrorIs(t, a.run(ctx, "qty", []string{"p1"}), errUsage)
}
