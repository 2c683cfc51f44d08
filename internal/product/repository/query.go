package repository

import (
	"sort"
	"strings"

	"github.com/SKANDA-SR/e-commerse-website/internal/product/models"
)

// matches applies the listing filter in process, for stores without a query
// language (DynamoDB scans, the in-memory store).
func matches(p *models.Product, q models.ProductQuery, terms []string) bool {
	if !p.IsActive {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if q.MinPrice != nil && p.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.Price > *q.MaxPrice {
		return false
	}
	if len(terms) == 0 {
		return true
	}
	haystack := strings.ToLower(p.Name + " " + p.Description + " " + strings.Join(p.Tags, " "))
	for _, t := range terms {
		if strings.Contains(haystack, t) {
			return true
		}
	}
	return false
}

func sortProducts(products []models.Product, sortBy string) {
	less := func(a, b *models.Product) (bool, bool) {
		switch sortBy {
		case models.SortPriceAsc:
			return a.Price < b.Price, a.Price == b.Price
		case models.SortPriceDesc:
			return a.Price > b.Price, a.Price == b.Price
		case models.SortName:
			return a.Name < b.Name, a.Name == b.Name
		case models.SortRating:
			return a.Rating.Average > b.Rating.Average, a.Rating.Average == b.Rating.Average
		default:
			return a.CreatedAt.After(b.CreatedAt), a.CreatedAt.Equal(b.CreatedAt)
		}
	}
	sort.SliceStable(products, func(i, j int) bool {
		lt, eq := less(&products[i], &products[j])
		if eq {
			return products[i].ID < products[j].ID
		}
		return lt
	})
}

// applyQuery filters, sorts and pages a full product set.
func applyQuery(all []models.Product, q models.ProductQuery) ([]models.Product, int64) {
	terms := q.SearchTerms()
	matched := make([]models.Product, 0, len(all))
	for i := range all {
		if matches(&all[i], q, terms) {
			matched = append(matched, all[i])
		}
	}
	sortProducts(matched, q.SortBy)

	total := int64(len(matched))
	start := q.Skip()
	if start < 0 || start >= len(matched) {
		return []models.Product{}, total
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total
}

func featured(all []models.Product, limit int) []models.Product {
	out := make([]models.Product, 0, limit)
	for _, p := range all {
		if p.IsActive && p.IsFeatured {
			out = append(out, p)
		}
	}
	sortProducts(out, models.SortNewest)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func distinctCategories(all []models.Product) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, p := range all {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; !ok {
			seen[p.Category] = struct{}{}
			out = append(out, p.Category)
		}
	}
	sort.Strings(out)
	return out
}
