// Package api is the storefront's HTTP client for the /api backend. Non-2xx
// responses come back as *apperrors.Error carrying the server's status and
// message; network failures come back as transport errors.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	ordermodels "github.com/SKANDA-SR/e-commerse-website/internal/order/models"
	productmodels "github.com/SKANDA-SR/e-commerse-website/internal/product/models"
	usermodels "github.com/SKANDA-SR/e-commerse-website/internal/user/models"
)

const DefaultTimeout = 15 * time.Second

type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient targets baseURL, e.g. http://localhost:5000/api.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// ProductFilter mirrors the catalog query string.
type ProductFilter struct {
	Search   string
	Category string
	MinPrice string
	MaxPrice string
	SortBy   string
	Page     int
	Limit    int
}

func (f ProductFilter) values() url.Values {
	q := url.Values{}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("search", f.Search)
	set("category", f.Category)
	set("minPrice", f.MinPrice)
	set("maxPrice", f.MaxPrice)
	set("sortBy", f.SortBy)
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

func (c *Client) Products(ctx context.Context, f ProductFilter) (*productmodels.ProductPage, error) {
	var page productmodels.ProductPage
	if err := c.do(ctx, http.MethodGet, "/products", f.values(), "", nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// Product implements the cart's catalog lookup.
func (c *Client) Product(ctx context.Context, id string) (*productmodels.Product, error) {
	var p productmodels.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, "", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Featured(ctx context.Context) ([]productmodels.Product, error) {
	var products []productmodels.Product
	if err := c.do(ctx, http.MethodGet, "/products/featured", nil, "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	if err := c.do(ctx, http.MethodGet, "/products/categories", nil, "", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*usermodels.AuthResponse, error) {
	var res usermodels.AuthResponse
	body := usermodels.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/users/login", nil, "", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Register(ctx context.Context, name, email, password string) (*usermodels.AuthResponse, error) {
	var res usermodels.AuthResponse
	body := usermodels.RegisterRequest{Name: name, Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/users/register", nil, "", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Profile(ctx context.Context, token string) (*usermodels.User, error) {
	var u usermodels.User
	if err := c.do(ctx, http.MethodGet, "/users/profile", nil, token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, req usermodels.UpdateProfileRequest) (*usermodels.AuthResponse, error) {
	var res usermodels.AuthResponse
	if err := c.do(ctx, http.MethodPut, "/users/profile", nil, token, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) PlaceOrder(ctx context.Context, token string, req ordermodels.PlaceOrderRequest) (*ordermodels.Order, error) {
	var o ordermodels.Order
	if err := c.do(ctx, http.MethodPost, "/orders", nil, token, req, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) MyOrders(ctx context.Context, token string, page, limit int) (*ordermodels.OrderPage, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var res ordermodels.OrderPage
	if err := c.do(ctx, http.MethodGet, "/orders/myorders", q, token, nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) Order(ctx context.Context, token, id string) (*ordermodels.Order, error) {
	var o ordermodels.Order
	if err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, token, nil, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, in, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return apperrors.Internal(err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return apperrors.Internal(err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.Transport(err)
	}
	return decode(resp, out)
}

func decode(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e apperrors.Error
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		if json.Unmarshal(raw, &e) != nil || e.Message == "" {
			e.Message = http.StatusText(resp.StatusCode)
		}
		return apperrors.New(resp.StatusCode, e.Message, nil)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Transport(fmt.Errorf("decode response: %w", err))
	}
	return nil
}
