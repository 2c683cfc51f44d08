package repository

import (
	"context"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/SKANDA-SR/e-commerse-website/internal/config"
	"github.com/SKANDA-SR/e-commerse-website/internal/database"
)

// Open builds the product store named by cfg.ProductStore. The returned
// func releases its connection.
func Open(ctx context.Context, cfg *config.Config, awsCfg sdkaws.Config) (ProductRepo, func(), error) {
	switch cfg.ProductStore {
	case config.ProductStoreDynamo:
		return NewDynamoProductRepository(dynamodb.NewFromConfig(awsCfg), cfg.DynamoProductsTable), func() {}, nil
	case config.ProductStoreMemory:
		return NewMemoryProductRepository(), func() {}, nil
	default:
		client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		return NewMongoProductRepository(db), func() { _ = database.DisconnectMongo(client) }, nil
	}
}
