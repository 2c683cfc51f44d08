// Package migrate copies a catalog from one product store to another.
package migrate

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SKANDA-SR/e-commerse-website/internal/product/models"
)

// Source streams every product. fn receives either a product or a decode error.
type Source interface {
	Each(ctx context.Context, batchSize int32, fn func(*models.Product, error) error) error
}

type Target interface {
	Create(ctx context.Context, product *models.Product) error
}

type Stats struct {
	Migrated int
	Skipped  int
}

// Copy writes every source product into target. Missing ids and timestamps
// are filled in; per-product failures are logged and skipped.
func Copy(ctx context.Context, src Source, dst Target, batchSize int32, log *zap.Logger) (Stats, error) {
	var stats Stats
	err := src.Each(ctx, batchSize, func(p *models.Product, err error) error {
		if err != nil {
			log.Warn("Skipping undecodable product", zap.Error(err))
			stats.Skipped++
			return nil
		}
		normalize(p, time.Now().UTC())
		if err := dst.Create(ctx, p); err != nil {
			log.Warn("Failed to write product", zap.String("product_id", p.ID), zap.Error(err))
			stats.Skipped++
			return nil
		}
		stats.Migrated++
		if stats.Migrated%100 == 0 {
			log.Info("Migration progress", zap.Int("migrated", stats.Migrated))
		}
		return nil
	})
	return stats, err
}

func normalize(p *models.Product, now time.Time) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	if p.Images == nil {
		p.Images = []models.Image{}
	}
}
