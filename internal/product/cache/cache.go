package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/SKANDA-SR/e-commerse-website/internal/product/models"
)

const (
	ProductCachePrefix     = "product:detail:"
	ProductListCachePrefix = "products:v:"
	CacheVersionKey        = "products:version"

	DefaultCacheTTL = 10 * time.Minute
)

// CacheManager caches catalog pages and product details in Redis. List keys
// embed a version number; bumping the version invalidates every cached page
// at once. A nil manager or nil client behaves as an always-missing cache.
type CacheManager struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewCacheManager(client *redis.Client, ttl time.Duration) *CacheManager {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CacheManager{redis: client, ttl: ttl}
}

func (cm *CacheManager) enabled() bool {
	return cm != nil && cm.redis != nil
}

// GetProductList returns a cached listing page.
func (cm *CacheManager) GetProductList(ctx context.Context, q models.ProductQuery) (*models.ProductPage, bool) {
	if !cm.enabled() {
		return nil, false
	}
	version, err := cm.getCacheVersion(ctx)
	if err != nil || version == 0 {
		return nil, false
	}

	cachedData, err := cm.redis.Get(ctx, ListCacheKey(version, q)).Result()
	if err != nil {
		return nil, false
	}

	var page models.ProductPage
	if err := json.Unmarshal([]byte(cachedData), &page); err != nil {
		zap.L().Warn("Failed to unmarshal cached product list", zap.Error(err))
		return nil, false
	}
	return &page, true
}

// SetProductListAsync writes a listing page in the background.
func (cm *CacheManager) SetProductListAsync(q models.ProductQuery, page models.ProductPage) {
	if !cm.enabled() {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		version, err := cm.getCacheVersion(bgCtx)
		if err != nil || version == 0 {
			return
		}

		jsonBytes, err := json.Marshal(page)
		if err != nil {
			zap.L().Warn("Failed to marshal product list for cache", zap.Error(err))
			return
		}
		if err := cm.redis.Set(bgCtx, ListCacheKey(version, q), jsonBytes, cm.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache product list", zap.Error(err))
		}
	}()
}

// GetProduct returns a cached product detail.
func (cm *CacheManager) GetProduct(ctx context.Context, productID string) (*models.Product, bool) {
	if !cm.enabled() {
		return nil, false
	}
	data, err := cm.redis.Get(ctx, ProductCachePrefix+productID).Bytes()
	if err != nil {
		return nil, false
	}
	var product models.Product
	if err := json.Unmarshal(data, &product); err != nil {
		zap.L().Warn("Failed to unmarshal cached product", zap.Error(err), zap.String("product_id", productID))
		return nil, false
	}
	return &product, true
}

// SetProductAsync caches a single product in the background.
func (cm *CacheManager) SetProductAsync(product models.Product) {
	if !cm.enabled() {
		return
	}
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		productJSON, err := json.Marshal(product)
		if err != nil {
			zap.L().Warn("Failed to marshal product for cache", zap.Error(err), zap.String("product_id", product.ID))
			return
		}
		if err := cm.redis.Set(bgCtx, ProductCachePrefix+product.ID, productJSON, cm.ttl).Err(); err != nil {
			zap.L().Warn("Failed to cache product", zap.Error(err), zap.String("product_id", product.ID))
		}
	}()
}

// Invalidate bumps the list version.
func (cm *CacheManager) Invalidate(ctx context.Context) error {
	if !cm.enabled() {
		return nil
	}
	newVersion, err := cm.redis.Incr(ctx, CacheVersionKey).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate cache: %w", err)
	}
	zap.L().Debug("Product cache invalidated", zap.Int64("new_version", newVersion))
	return nil
}

// InvalidateProduct drops every list page plus the product's detail entry.
// Failures are logged; the catalog keeps serving from the store.
func (cm *CacheManager) InvalidateProduct(ctx context.Context, productID string) {
	if !cm.enabled() {
		return
	}
	if err := cm.Invalidate(ctx); err != nil {
		zap.L().Error("Failed to invalidate product list cache", zap.Error(err), zap.String("product_id", productID))
	}
	if err := cm.redis.Del(ctx, ProductCachePrefix+productID).Err(); err != nil {
		zap.L().Warn("Failed to delete product cache", zap.Error(err), zap.String("product_id", productID))
	}
}

func (cm *CacheManager) getCacheVersion(ctx context.Context) (int64, error) {
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		ver, err := cm.redis.Get(ctx, CacheVersionKey).Int64()
		if err == nil && ver > 0 {
			return ver, nil
		}
		if err == redis.Nil {
			if err := cm.redis.SetNX(ctx, CacheVersionKey, 1, 0).Err(); err == nil {
				continue
			}
		}
		if i < maxRetries-1 {
			time.Sleep(50 * time.Millisecond)
		}
	}
	return 0, fmt.Errorf("failed to get cache version after %d retries", maxRetries)
}

// ListCacheKey identifies one listing page under a cache version.
func ListCacheKey(version int64, q models.ProductQuery) string {
	return fmt.Sprintf(
		"%s%d:p:%d:l:%d:q:%s:c:%s:s:%s:min:%s:max:%s",
		ProductListCachePrefix,
		version,
		q.Page,
		q.Limit,
		q.Search,
		q.Category,
		q.SortBy,
		formatFloatForCache(q.MinPrice),
		formatFloatForCache(q.MaxPrice),
	)
}

func formatFloatForCache(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}
