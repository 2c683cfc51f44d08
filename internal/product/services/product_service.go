package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	"github.com/SKANDA-SR/e-commerse-website/internal/product/cache"
	"github.com/SKANDA-SR/e-commerse-website/internal/product/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/product/repository"
	awspkg "github.com/SKANDA-SR/e-commerse-website/pkg/aws"
)

const imageUploadExpiry = 15 * time.Minute

// ErrProductNotFound is the 404 every catalog lookup returns.
var ErrProductNotFound = apperrors.ErrProductNotFound

// ImagePresigner issues upload URLs for product images.
type ImagePresigner interface {
	PresignPut(ctx context.Context, key, contentType string, expiry time.Duration) (*awspkg.PresignedUpload, error)
}

type ProductService struct {
	repo      repository.ProductRepo
	cache     *cache.CacheManager
	presigner ImagePresigner
	metrics   *awspkg.MetricsClient
	logger    *zap.Logger
	now       func() time.Time
}

// NewProductService wires the catalog. cache, presigner and metrics may be nil.
func NewProductService(repo repository.ProductRepo, cm *cache.CacheManager, presigner ImagePresigner, metrics *awspkg.MetricsClient, logger *zap.Logger) *ProductService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProductService{
		repo:      repo,
		cache:     cm,
		presigner: presigner,
		metrics:   metrics,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *ProductService) ListProducts(ctx context.Context, q models.ProductQuery) (*models.ProductPage, error) {
	if page, ok := s.cache.GetProductList(ctx, q); ok {
		s.recordCache(ctx, awspkg.MetricCacheHits)
		return page, nil
	}
	s.recordCache(ctx, awspkg.MetricCacheMisses)

	products, total, err := s.repo.Find(ctx, q)
	if err != nil {
		s.logger.Error("Failed to list products", zap.Error(err))
		return nil, apperrors.Internal(err)
	}

	page := models.NewProductPage(products, total, q)
	s.cache.SetProductListAsync(q, page)
	return &page, nil
}

// GetProduct returns a product whether or not it is active.
func (s *ProductService) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if p, ok := s.cache.GetProduct(ctx, id); ok {
		return p, nil
	}
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	s.cache.SetProductAsync(*p)
	return p, nil
}

func (s *ProductService) FeaturedProducts(ctx context.Context) ([]models.Product, error) {
	products, err := s.repo.Featured(ctx, models.FeaturedMax)
	if err != nil {
		s.logger.Error("Failed to load featured products", zap.Error(err))
		return nil, apperrors.Internal(err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func (s *ProductService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.repo.Categories(ctx)
	if err != nil {
		s.logger.Error("Failed to load categories", zap.Error(err))
		return nil, apperrors.Internal(err)
	}
	return categories, nil
}

// validateNew enforces the required fields of a new product.
func validateNew(in *models.ProductInput) error {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(in.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(in.Category) == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return apperrors.Validation("Missing required fields: " + strings.Join(missing, ", "))
	}
	return validateNumbers(in)
}

func validateNumbers(in *models.ProductInput) error {
	if in.Price < 0 {
		return apperrors.Validation("Price must be zero or greater")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return apperrors.Validation("Stock must be zero or greater")
	}
	return nil
}

func (s *ProductService) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	if err := validateNew(&in); err != nil {
		return nil, err
	}

	product := in.ToProduct(uuid.NewString(), s.now())
	if err := s.repo.Create(ctx, product); err != nil {
		s.logger.Error("Failed to create product", zap.Error(err))
		return nil, apperrors.Internal(err)
	}

	s.invalidate(ctx, product.ID)
	if s.metrics != nil {
		_ = s.metrics.RecordCount(ctx, awspkg.MetricProductsCreated, map[string]string{"Category": product.Category})
	}
	s.logger.Info("Product created", zap.String("product_id", product.ID), zap.String("name", product.Name))
	return product, nil
}

// UpdateProduct merges in over the stored product. Falsy scalars keep their
// old values; see models.ProductInput.ApplyTo.
func (s *ProductService) UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error) {
	if err := validateNumbers(&in); err != nil {
		return nil, err
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.mapRepoError(err)
	}

	in.ApplyTo(product)
	product.UpdatedAt = s.now()

	if err := s.repo.Replace(ctx, product); err != nil {
		return nil, s.mapRepoError(err)
	}
	s.invalidate(ctx, id)
	return product, nil
}

func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.mapRepoError(err)
	}
	s.invalidate(ctx, id)
	s.logger.Info("Product removed", zap.String("product_id", id))
	return nil
}

// ReserveStock decrements stock if at least qty units remain.
func (s *ProductService) ReserveStock(ctx context.Context, id string, qty int) (*models.Product, error) {
	if qty <= 0 {
		return nil, apperrors.Validation("Quantity must be at least 1")
	}
	p, err := s.repo.AdjustStock(ctx, id, -qty)
	if err != nil {
		return nil, s.mapRepoError(err)
	}
	s.invalidate(ctx, id)
	if s.metrics != nil {
		_ = s.metrics.RecordValue(ctx, awspkg.MetricStockReserved, float64(qty), nil)
	}
	return p, nil
}

// ReleaseStock returns qty units, undoing a reservation.
func (s *ProductService) ReleaseStock(ctx context.Context, id string, qty int) error {
	if qty <= 0 {
		return nil
	}
	if _, err := s.repo.AdjustStock(ctx, id, qty); err != nil {
		return s.mapRepoError(err)
	}
	s.invalidate(ctx, id)
	if s.metrics != nil {
		_ = s.metrics.RecordValue(ctx, awspkg.MetricStockReleased, float64(qty), nil)
	}
	return nil
}

// ImageUploadResult is what the admin client needs to PUT an image.
type ImageUploadResult struct {
	Upload *awspkg.PresignedUpload `json:"upload"`
	Key    string                  `json:"key"`
}

var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// PresignImageUpload issues a presigned S3 PUT for a new image of product id.
func (s *ProductService) PresignImageUpload(ctx context.Context, id, filename, contentType string) (*ImageUploadResult, error) {
	if s.presigner == nil {
		return nil, apperrors.New(http.StatusServiceUnavailable, "Image uploads are not configured", nil)
	}
	ext, ok := allowedImageTypes[strings.ToLower(contentType)]
	if !ok {
		return nil, apperrors.Validation("Unsupported image content type")
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, s.mapRepoError(err)
	}

	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	if base == "" || base == "." || base == "/" {
		base = "image"
	}
	key := fmt.Sprintf("products/%s/%s-%s%s", id, uuid.NewString()[:8], sanitizeKeyPart(base), ext)

	upload, err := s.presigner.PresignPut(ctx, key, contentType, imageUploadExpiry)
	if err != nil {
		s.logger.Error("Failed to presign image upload", zap.Error(err), zap.String("product_id", id))
		return nil, apperrors.Transport(err)
	}
	return &ImageUploadResult{Upload: upload, Key: key}, nil
}

func sanitizeKeyPart(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

func (s *ProductService) invalidate(ctx context.Context, id string) {
	s.cache.InvalidateProduct(ctx, id)
}

func (s *ProductService) recordCache(ctx context.Context, metric string) {
	if s.metrics == nil {
		return
	}
	_ = s.metrics.RecordCount(ctx, metric, map[string]string{"Cache": "products"})
}

func (s *ProductService) mapRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrProductNotFound
	case errors.Is(err, repository.ErrInsufficientStock):
		return apperrors.ErrInsufficientStock
	default:
		s.logger.Error("Product store error", zap.Error(err))
		return apperrors.Internal(err)
	}
}
