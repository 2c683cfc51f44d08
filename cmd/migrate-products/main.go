// Command migrate-products copies the MongoDB catalog into the DynamoDB
// products table.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/SKANDA-SR/e-commerse-website/internal/common/logger"
	"github.com/SKANDA-SR/e-commerse-website/internal/database"
	"github.com/SKANDA-SR/e-commerse-website/internal/product/migrate"
	"github.com/SKANDA-SR/e-commerse-website/internal/product/repository"
	awspkg "github.com/SKANDA-SR/e-commerse-website/pkg/aws"
)

func main() {
	_ = godotenv.Load()
	log := logger.Initialize("development")
	defer func() { _ = log.Sync() }()

	var mongoURI, dbName, table string
	var batch int
	flag.StringVar(&mongoURI, "mongo", getEnv("MONGODB_URI", "mongodb://localhost:27017"), "MongoDB URI")
	flag.StringVar(&dbName, "db", getEnv("MONGODB_DB", "ecommerce"), "MongoDB database name")
	flag.StringVar(&table, "table", getEnv("DYNAMODB_PRODUCTS_TABLE", "products"), "DynamoDB table name")
	flag.IntVar(&batch, "batch", 500, "Mongo cursor batch size")
	flag.Parse()

	ctx := context.Background()

	client, db, err := database.ConnectMongo(ctx, mongoURI, dbName)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	defer func() { _ = database.DisconnectMongo(client) }()

	awsCfg, err := awspkg.LoadAWSConfig(ctx)
	if err != nil {
		log.Fatal("Failed to load AWS config", zap.Error(err))
	}

	src := repository.NewMongoProductRepository(db)
	dst := repository.NewDynamoProductRepository(dynamodb.NewFromConfig(awsCfg), table)

	stats, err := migrate.Copy(ctx, src, dst, int32(batch), log)
	if err != nil {
		log.Fatal("Migration failed", zap.Error(err), zap.Int("migrated", stats.Migrated))
	}
	log.Info("Migration complete", zap.Int("migrated", stats.Migrated), zap.Int("skipped", stats.Skipped), zap.String("table", table))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
