package main

import (
	"context"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"go.uber.org/zap"

	"github.com/SKANDA-SR/e-commerse-website/internal/common/logger"
	"github.com/SKANDA-SR/e-commerse-website/internal/config"
	"github.com/SKANDA-SR/e-commerse-website/internal/database"
	ordermodels "github.com/SKANDA-SR/e-commerse-website/internal/order/models"
	orderrepo "github.com/SKANDA-SR/e-commerse-website/internal/order/repository"
	productrepo "github.com/SKANDA-SR/e-commerse-website/internal/product/repository"
	"github.com/SKANDA-SR/e-commerse-website/internal/seed"
	usermodels "github.com/SKANDA-SR/e-commerse-website/internal/user/models"
	userrepo "github.com/SKANDA-SR/e-commerse-website/internal/user/repository"
	awspkg "github.com/SKANDA-SR/e-commerse-website/pkg/aws"
)

func main() {
	log := logger.Initialize("development")
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var awsCfg sdkaws.Config
	if cfg.AWSEnabled {
		if awsCfg, err = awspkg.LoadAWSConfig(ctx); err != nil {
			log.Fatal("Failed to load AWS config", zap.Error(err))
		}
	}

	db, err := database.ConnectPostgres(cfg.PostgresDSN(), false)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	if err := database.Migrate(db, &usermodels.User{}, &ordermodels.Order{}, &ordermodels.OrderItem{}); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	products, closeProducts, err := productrepo.Open(ctx, cfg, awsCfg)
	if err != nil {
		log.Fatal("Failed to open product store", zap.Error(err))
	}
	defer closeProducts()
	if err := products.EnsureIndexes(ctx); err != nil {
		log.Warn("Failed to ensure product indexes", zap.Error(err))
	}

	fixtures, err := seed.Default()
	if err != nil {
		log.Fatal("Failed to load fixtures", zap.Error(err))
	}

	s := &seed.Seeder{
		Users:    userrepo.NewGormUserRepository(db),
		Orders:   orderrepo.NewGormOrderRepository(db),
		Products: products,
		Logger:   log,
	}
	log.Info("Starting database seeding...", zap.String("product_store", cfg.ProductStore))
	if err := s.Run(ctx, fixtures); err != nil {
		log.Fatal("Seeding failed", zap.Error(err))
	}

	log.Info("Database seeding completed successfully")
	for _, u := range fixtures.Users {
		log.Info("Sample account", zap.String("email", u.Email), zap.String("password", u.Password), zap.String("role", u.Role))
	}
}
