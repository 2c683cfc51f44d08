package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/SKANDA-SR/e-commerse-website/internal/common/auth"
	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	"github.com/SKANDA-SR/e-commerse-website/internal/common/logger"
	"github.com/SKANDA-SR/e-commerse-website/internal/common/middleware"
	"github.com/SKANDA-SR/e-commerse-website/internal/config"
	"github.com/SKANDA-SR/e-commerse-website/internal/database"
	"github.com/SKANDA-SR/e-commerse-website/internal/order/events"
	ordercontrollers "github.com/SKANDA-SR/e-commerse-website/internal/order/controllers"
	ordermodels "github.com/SKANDA-SR/e-commerse-website/internal/order/models"
	orderrepo "github.com/SKANDA-SR/e-commerse-website/internal/order/repository"
	orderservices "github.com/SKANDA-SR/e-commerse-website/internal/order/services"
	"github.com/SKANDA-SR/e-commerse-website/internal/product/cache"
	productcontrollers "github.com/SKANDA-SR/e-commerse-website/internal/product/controllers"
	productrepo "github.com/SKANDA-SR/e-commerse-website/internal/product/repository"
	productservices "github.com/SKANDA-SR/e-commerse-website/internal/product/services"
	"github.com/SKANDA-SR/e-commerse-website/internal/routes"
	usercontrollers "github.com/SKANDA-SR/e-commerse-website/internal/user/controllers"
	usermodels "github.com/SKANDA-SR/e-commerse-website/internal/user/models"
	userrepo "github.com/SKANDA-SR/e-commerse-website/internal/user/repository"
	userservices "github.com/SKANDA-SR/e-commerse-website/internal/user/services"
	awspkg "github.com/SKANDA-SR/e-commerse-website/pkg/aws"
)

const (
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Initialize("development").Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var awsCfg sdkaws.Config
	if cfg.AWSEnabled {
		awsCfg, err = awspkg.LoadAWSConfig(ctx)
		if err != nil {
			logger.Initialize(cfg.Env).Fatal("Failed to load AWS config", zap.Error(err))
		}
	}

	log := initLogger(ctx, cfg, awsCfg)
	defer func() { _ = log.Sync() }()

	var metrics *awspkg.MetricsClient
	if cfg.AWSEnabled {
		metrics = awspkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.CloudWatchEnabled)
	}

	// Users and orders
	db, err := database.ConnectPostgres(cfg.PostgresDSN(), cfg.Env != "production")
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	if err := database.Migrate(db, &usermodels.User{}, &ordermodels.Order{}, &ordermodels.OrderItem{}); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Products
	products, closeProducts, err := productrepo.Open(ctx, cfg, awsCfg)
	if err != nil {
		log.Fatal("Failed to open product store", zap.Error(err), zap.String("store", cfg.ProductStore))
	}
	defer closeProducts()
	if err := products.EnsureIndexes(ctx); err != nil {
		log.Warn("Failed to ensure product indexes", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn("Redis unavailable, catalog cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	var presigner productservices.ImagePresigner
	if cfg.AWSEnabled && cfg.ProductImageBucket != "" {
		presigner = awspkg.NewS3Presigner(awsCfg, cfg.ProductImageBucket)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		log.Fatal("Failed to create token service", zap.Error(err))
	}

	catalog := productservices.NewProductService(products, cache.NewCacheManager(redisClient, cfg.CacheTTL), presigner, metrics, log.Named("products"))
	accounts := userservices.NewUserService(userrepo.NewGormUserRepository(db), tokens, log.Named("users"))

	publisher, closePublisher := orderPublisher(cfg, awsCfg)
	defer closePublisher()
	orders := orderservices.NewOrderService(orderrepo.NewGormOrderRepository(db), catalog, publisher, metrics, log.Named("orders"))

	var gateway orderservices.PaymentGateway
	if cfg.StripeSecretKey != "" {
		gateway = orderservices.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	}
	payments := orderservices.NewPaymentService(orders, gateway, cfg.Currency, log.Named("payments"))

	if cfg.AWSEnabled && cfg.PaymentQueueURL != "" {
		consumer := orderservices.NewPaymentConsumer(awspkg.NewSQSConsumer(awsCfg, cfg.PaymentQueueURL, log), orders, log.Named("payment-consumer"))
		go consumer.Start(ctx)
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(
		gin.Recovery(),
		logger.RequestID(),
		middleware.RequestLogger(log),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.AllowedOrigins),
		middleware.RateLimitMiddleware(middleware.NewRateLimiter(ctx, middleware.PerMinute(cfg.RateLimitPerMin), cfg.RateLimitBurst, 10*time.Minute)),
		middleware.RequestTimeout(requestTimeout),
		middleware.MetricsMiddleware(metrics, "storefront-api"),
		apperrors.ErrorMiddleware(),
	)

	routes.Register(r, tokens, routes.Controllers{
		Products: productcontrollers.NewProductController(catalog),
		Users:    usercontrollers.NewUserController(accounts),
		Orders:   ordercontrollers.NewOrderController(orders, payments),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Storefront API listening", zap.String("port", cfg.Port), zap.String("env", cfg.Env), zap.String("product_store", cfg.ProductStore))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited")
}

func initLogger(ctx context.Context, cfg *config.Config, awsCfg sdkaws.Config) *zap.Logger {
	if !cfg.AWSEnabled || !cfg.CloudWatchEnabled {
		return logger.Initialize(cfg.Env)
	}
	sink, err := awspkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatchLogGroup, "storefront-api")
	if err != nil {
		log := logger.Initialize(cfg.Env)
		log.Warn("CloudWatch Logs unavailable, logging to stdout only", zap.Error(err))
		return log
	}
	return logger.InitializeWithWriter(cfg.Env, sink)
}

func orderPublisher(cfg *config.Config, awsCfg sdkaws.Config) (events.Publisher, func()) {
	var sinks events.Multi
	closers := []func(){}

	if cfg.AWSEnabled && cfg.OrderEventsTopicARN != "" {
		sinks = append(sinks, events.NewSNSPublisher(awspkg.NewSNSClient(awsCfg), cfg.OrderEventsTopicARN))
	}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)
		sinks = append(sinks, kp)
		closers = append(closers, func() { _ = kp.Close() })
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	if len(sinks) == 0 {
		return events.Nop{}, closeAll
	}
	return sinks, closeAll
}
