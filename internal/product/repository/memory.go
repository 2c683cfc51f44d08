package repository

import (
	"context"
	"sync"
	"time"

	"github.com/SKANDA-SR/e-commerse-website/internal/product/models"
)

// MemoryProductRepository keeps the catalog in process. Used for local runs
// and tests.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
	now      func() time.Time
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[string]models.Product),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryProductRepository) snapshot() []models.Product {
	all := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		all = append(all, p)
	}
	return all
}

func (r *MemoryProductRepository) FindByID(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *MemoryProductRepository) Find(_ context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	page, total := applyQuery(r.snapshot(), q)
	return page, total, nil
}

func (r *MemoryProductRepository) Featured(_ context.Context, limit int) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return featured(r.snapshot(), limit), nil
}

func (r *MemoryProductRepository) Categories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return distinctCategories(r.snapshot()), nil
}

func (r *MemoryProductRepository) Create(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = *product
	return nil
}

func (r *MemoryProductRepository) CreateMany(_ context.Context, products []models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range products {
		r.products[p.ID] = p
	}
	return nil
}

func (r *MemoryProductRepository) Replace(_ context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[product.ID]; !ok {
		return ErrNotFound
	}
	r.products[product.ID] = *product
	return nil
}

func (r *MemoryProductRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *MemoryProductRepository) DeleteAll(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = make(map[string]models.Product)
	return nil
}

func (r *MemoryProductRepository) AdjustStock(_ context.Context, id string, delta int) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	if p.Stock+delta < 0 {
		return nil, ErrInsufficientStock
	}
	p.Stock += delta
	p.UpdatedAt = r.now()
	r.products[id] = p
	return &p, nil
}

func (r *MemoryProductRepository) EnsureIndexes(context.Context) error { return nil }
