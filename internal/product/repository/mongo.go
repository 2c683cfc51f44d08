package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/SKANDA-SR/e-commerse-website/internal/product/models"
)

type MongoProductRepository struct {
	collection *mongo.Collection
}

func NewMongoProductRepository(db *mongo.Database) *MongoProductRepository {
	return &MongoProductRepository{collection: db.Collection("products")}
}

// buildFilter translates a listing query into a Mongo filter.
func buildFilter(q models.ProductQuery) bson.M {
	filter := bson.M{"isActive": true}
	if q.Search != "" {
		filter["$text"] = bson.M{"$search": q.Search}
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if q.MinPrice != nil || q.MaxPrice != nil {
		price := bson.M{}
		if q.MinPrice != nil {
			price["$gte"] = *q.MinPrice
		}
		if q.MaxPrice != nil {
			price["$lte"] = *q.MaxPrice
		}
		filter["price"] = price
	}
	return filter
}

// buildSort orders by the requested key with _id as tie-breaker.
func buildSort(sortBy string) bson.D {
	switch sortBy {
	case models.SortPriceAsc:
		return bson.D{{Key: "price", Value: 1}, {Key: "_id", Value: 1}}
	case models.SortPriceDesc:
		return bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: 1}}
	case models.SortName:
		return bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}
	case models.SortRating:
		return bson.D{{Key: "rating.average", Value: -1}, {Key: "_id", Value: 1}}
	default:
		return bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
	}
}

func (r *MongoProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	var product models.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product: %w", err)
	}
	return &product, nil
}

func (r *MongoProductRepository) Find(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	filter := buildFilter(q)

	findOptions := options.Find().
		SetSort(buildSort(q.SortBy)).
		SetSkip(int64(q.Skip())).
		SetLimit(int64(q.Limit))

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("find products: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("decode products: %w", err)
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	return products, total, nil
}

func (r *MongoProductRepository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	opts := options.Find().SetLimit(int64(limit)).SetSort(buildSort(models.SortNewest))
	cursor, err := r.collection.Find(ctx, bson.M{"isFeatured": true, "isActive": true}, opts)
	if err != nil {
		return nil, fmt.Errorf("find featured: %w", err)
	}
	defer cursor.Close(ctx)

	products := []models.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("decode featured: %w", err)
	}
	return products, nil
}

func (r *MongoProductRepository) Categories(ctx context.Context) ([]string, error) {
	raw, err := r.collection.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("distinct categories: %w", err)
	}
	categories := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			categories = append(categories, s)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

func (r *MongoProductRepository) Create(ctx context.Context, product *models.Product) error {
	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) CreateMany(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	docs := make([]interface{}, len(products))
	for i := range products {
		docs[i] = products[i]
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert products: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) Replace(ctx context.Context, product *models.Product) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return fmt.Errorf("replace product: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoProductRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("delete products: %w", err)
	}
	return nil
}

func (r *MongoProductRepository) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	filter := bson.M{"_id": id}
	if delta < 0 {
		filter["stock"] = bson.M{"$gte": -delta}
	}
	update := bson.M{
		"$inc": bson.M{"stock": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var product models.Product
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&product)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the product is gone or the stock guard failed.
		if _, findErr := r.FindByID(ctx, id); findErr != nil {
			return nil, findErr
		}
		return nil, ErrInsufficientStock
	}
	if err != nil {
		return nil, fmt.Errorf("adjust stock: %w", err)
	}
	return &product, nil
}

// EnsureIndexes creates the text index used by search plus listing indexes.
func (r *MongoProductRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "name", Value: "text"},
				{Key: "description", Value: "text"},
				{Key: "tags", Value: "text"},
			},
			Options: options.Index().SetName("product_text"),
		},
		{Keys: bson.D{{Key: "category", Value: 1}, {Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "isActive", Value: 1}, {Key: "isFeatured", Value: 1}}},
	}
	if _, err := r.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create product indexes: %w", err)
	}
	return nil
}

// Each streams every stored product, active or not, in batches of batchSize.
// Documents that fail to decode are passed to fn as errors and skipped.
func (r *MongoProductRepository) Each(ctx context.Context, batchSize int32, fn func(*models.Product, error) error) error {
	cur, err := r.collection.Find(ctx, bson.M{}, options.Find().SetBatchSize(batchSize))
	if err != nil {
		return fmt.Errorf("find products: %w", err)
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var p models.Product
		if err := cur.Decode(&p); err != nil {
			if cbErr := fn(nil, err); cbErr != nil {
				return cbErr
			}
			continue
		}
		if err := fn(&p, nil); err != nil {
			return err
		}
	}
	return cur.Err()
}
