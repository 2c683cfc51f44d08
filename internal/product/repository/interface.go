package repository

import (
	"context"
	"errors"

	"github.com/SKANDA-SR/e-commerse-website/internal/product/models"
)

var (
	ErrNotFound          = errors.New("product not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductRepo is the catalog storage contract. Adapters use plain Go types so
// the Mongo, DynamoDB and in-memory stores are interchangeable.
type ProductRepo interface {
	FindByID(ctx context.Context, id string) (*models.Product, error)
	// Find returns one page of active products matching q plus the total
	// number of matches.
	Find(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error)
	Featured(ctx context.Context, limit int) ([]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Create(ctx context.Context, product *models.Product) error
	CreateMany(ctx context.Context, products []models.Product) error
	// Replace overwrites a stored product. Returns ErrNotFound when absent.
	Replace(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	// AdjustStock adds delta to stock atomically. A negative delta only
	// applies when enough stock remains, otherwise ErrInsufficientStock.
	AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error)
	EnsureIndexes(ctx context.Context) error
}
