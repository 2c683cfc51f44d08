package models

import (
	"math"
	"strconv"
	"strings"
)

// Sort keys accepted by the catalog. Anything else sorts newest first.
const (
	SortPriceAsc  = "price-asc"
	SortPriceDesc = "price-desc"
	SortName      = "name"
	SortNewest    = "newest"
	SortRating    = "rating"
)

const (
	DefaultPage  = 1
	DefaultLimit = 12
	MaxLimit     = 100
	FeaturedMax  = 8
)

// ProductQuery is a normalized catalog listing request.
type ProductQuery struct {
	Search   string
	Category string
	MinPrice *float64
	MaxPrice *float64
	SortBy   string
	Page     int
	Limit    int
}

// Skip is the number of matches before the requested page. It saturates at
// math.MaxInt for pages too far out to address.
func (q ProductQuery) Skip() int {
	return pageOffset(q.Page, q.Limit)
}

// pageOffset is (page-1)*limit without overflow.
func pageOffset(page, limit int) int {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// SearchTerms splits the search string into lower-cased terms.
func (q ProductQuery) SearchTerms() []string {
	return strings.Fields(strings.ToLower(q.Search))
}

// ParseProductQuery normalizes raw query-string values. Non-numeric price
// bounds are ignored; "all" or an empty category means no category filter.
func ParseProductQuery(search, category, minPrice, maxPrice, sortBy, page, limit string) ProductQuery {
	q := ProductQuery{
		Search: strings.TrimSpace(search),
		SortBy: normalizeSort(sortBy),
		Page:   DefaultPage,
		Limit:  DefaultLimit,
	}
	if c := strings.TrimSpace(category); c != "" && c != "all" {
		q.Category = c
	}
	q.MinPrice = parseBound(minPrice)
	q.MaxPrice = parseBound(maxPrice)

	if n, err := strconv.Atoi(page); err == nil && n >= 1 {
		q.Page = n
	}
	if n, err := strconv.Atoi(limit); err == nil && n >= 1 {
		q.Limit = n
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

func parseBound(raw string) *float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) {
		return nil
	}
	return &v
}

func normalizeSort(s string) string {
	switch s {
	case SortPriceAsc, SortPriceDesc, SortName, SortNewest, SortRating:
		return s
	default:
		return SortNewest
	}
}

// ProductPage is one page of a catalog listing.
type ProductPage struct {
	Products    []Product `json:"products"`
	CurrentPage int       `json:"currentPage"`
	TotalPages  int       `json:"totalPages"`
	Total       int64     `json:"total"`
	HasNextPage bool      `json:"hasNextPage"`
	HasPrevPage bool      `json:"hasPrevPage"`
}

// NewProductPage fills the paging fields from the total match count.
func NewProductPage(products []Product, total int64, q ProductQuery) ProductPage {
	if products == nil {
		products = []Product{}
	}
	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	return ProductPage{
		Products:    products,
		CurrentPage: q.Page,
		TotalPages:  totalPages,
		Total:       total,
		HasNextPage: q.Page < totalPages,
		HasPrevPage: q.Page > 1,
	}
}
