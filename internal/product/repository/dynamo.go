package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/SKANDA-SR/e-commerse-website/internal/product/models"
)

// DynamoAPI is the subset of the DynamoDB client the adapter uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// DynamoProductRepository stores products in a table keyed by `product_id`.
// Listing scans the table and filters in process.
type DynamoProductRepository struct {
	client DynamoAPI
	table  string
}

func NewDynamoProductRepository(client DynamoAPI, table string) *DynamoProductRepository {
	return &DynamoProductRepository{client: client, table: table}
}

type ddbProduct struct {
	ProductID      string             `dynamodbav:"product_id"`
	Name           string             `dynamodbav:"name"`
	Description    string             `dynamodbav:"description"`
	Price          float64            `dynamodbav:"price"`
	OriginalPrice  *float64           `dynamodbav:"original_price,omitempty"`
	Category       string             `dynamodbav:"category"`
	Brand          string             `dynamodbav:"brand,omitempty"`
	Images         []models.Image     `dynamodbav:"images"`
	Stock          int                `dynamodbav:"stock"`
	Specifications map[string]string  `dynamodbav:"specifications,omitempty"`
	Tags           []string           `dynamodbav:"tags,omitempty"`
	Weight         *float64           `dynamodbav:"weight,omitempty"`
	Dimensions     *models.Dimensions `dynamodbav:"dimensions,omitempty"`
	Rating         models.Rating      `dynamodbav:"rating"`
	IsActive       bool               `dynamodbav:"is_active"`
	IsFeatured     bool               `dynamodbav:"is_featured"`
	CreatedAt      string             `dynamodbav:"created_at"`
	UpdatedAt      string             `dynamodbav:"updated_at"`
}

func toDDB(p *models.Product) ddbProduct {
	return ddbProduct{
		ProductID:      p.ID,
		Name:           p.Name,
		Description:    p.Description,
		Price:          p.Price,
		OriginalPrice:  p.OriginalPrice,
		Category:       p.Category,
		Brand:          p.Brand,
		Images:         p.Images,
		Stock:          p.Stock,
		Specifications: p.Specifications,
		Tags:           p.Tags,
		Weight:         p.Weight,
		Dimensions:     p.Dimensions,
		Rating:         p.Rating,
		IsActive:       p.IsActive,
		IsFeatured:     p.IsFeatured,
		CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func (dp ddbProduct) toModel() models.Product {
	p := models.Product{
		ID:             dp.ProductID,
		Name:           dp.Name,
		Description:    dp.Description,
		Price:          dp.Price,
		OriginalPrice:  dp.OriginalPrice,
		Category:       dp.Category,
		Brand:          dp.Brand,
		Images:         dp.Images,
		Stock:          dp.Stock,
		Specifications: dp.Specifications,
		Tags:           dp.Tags,
		Weight:         dp.Weight,
		Dimensions:     dp.Dimensions,
		Rating:         dp.Rating,
		IsActive:       dp.IsActive,
		IsFeatured:     dp.IsFeatured,
	}
	if p.Images == nil {
		p.Images = []models.Image{}
	}
	if t, err := time.Parse(time.RFC3339Nano, dp.CreatedAt); err == nil {
		p.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, dp.UpdatedAt); err == nil {
		p.UpdatedAt = t
	}
	return p
}

func (d *DynamoProductRepository) key(id string) (map[string]types.AttributeValue, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"product_id": id})
	if err != nil {
		return nil, fmt.Errorf("marshal key: %w", err)
	}
	return key, nil
}

func (d *DynamoProductRepository) FindByID(ctx context.Context, id string) (*models.Product, error) {
	key, err := d.key(id)
	if err != nil {
		return nil, err
	}
	out, err := d.client.GetItem(ctx, &dynamodb.GetItemInput{TableName: &d.table, Key: key})
	if err != nil {
		return nil, fmt.Errorf("dynamodb GetItem failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrNotFound
	}
	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Item, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	p := dp.toModel()
	return &p, nil
}

// scanAll reads the whole table through the scan paginator.
func (d *DynamoProductRepository) scanAll(ctx context.Context) ([]models.Product, error) {
	paginator := dynamodb.NewScanPaginator(d.client, &dynamodb.ScanInput{TableName: &d.table})
	var all []models.Product
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan page failed: %w", err)
		}
		for _, it := range page.Items {
			var dp ddbProduct
			if err := attributevalue.UnmarshalMap(it, &dp); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			all = append(all, dp.toModel())
		}
	}
	return all, nil
}

func (d *DynamoProductRepository) Find(ctx context.Context, q models.ProductQuery) ([]models.Product, int64, error) {
	all, err := d.scanAll(ctx)
	if err != nil {
		return nil, 0, err
	}
	page, total := applyQuery(all, q)
	return page, total, nil
}

func (d *DynamoProductRepository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	all, err := d.scanAll(ctx)
	if err != nil {
		return nil, err
	}
	return featured(all, limit), nil
}

func (d *DynamoProductRepository) Categories(ctx context.Context) ([]string, error) {
	all, err := d.scanAll(ctx)
	if err != nil {
		return nil, err
	}
	return distinctCategories(all), nil
}

func (d *DynamoProductRepository) Create(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(toDDB(product))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: &d.table, Item: item})
	if err != nil {
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

// CreateMany uses BatchWriteItem in chunks of 25, retrying unprocessed items.
func (d *DynamoProductRepository) CreateMany(ctx context.Context, products []models.Product) error {
	const chunkSize = 25
	for i := 0; i < len(products); i += chunkSize {
		end := i + chunkSize
		if end > len(products) {
			end = len(products)
		}
		writeReqs := make([]types.WriteRequest, 0, end-i)
		for j := range products[i:end] {
			item, err := attributevalue.MarshalMap(toDDB(&products[i+j]))
			if err != nil {
				return fmt.Errorf("marshal batch item: %w", err)
			}
			writeReqs = append(writeReqs, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}
		req := &dynamodb.BatchWriteItemInput{RequestItems: map[string][]types.WriteRequest{d.table: writeReqs}}
		for attempts := 0; ; attempts++ {
			out, err := d.client.BatchWriteItem(ctx, req)
			if err != nil {
				return fmt.Errorf("batch write failed: %w", err)
			}
			unp := out.UnprocessedItems[d.table]
			if len(unp) == 0 {
				break
			}
			if attempts >= 2 {
				return fmt.Errorf("batch write had unprocessed items after retries")
			}
			req.RequestItems[d.table] = unp
			time.Sleep(time.Duration(attempts+1) * 300 * time.Millisecond)
		}
	}
	return nil
}

func (d *DynamoProductRepository) Replace(ctx context.Context, product *models.Product) error {
	item, err := attributevalue.MarshalMap(toDDB(product))
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}
	_, err = d.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &d.table,
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(product_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("dynamodb PutItem failed: %w", err)
	}
	return nil
}

func (d *DynamoProductRepository) Delete(ctx context.Context, id string) error {
	key, err := d.key(id)
	if err != nil {
		return err
	}
	_, err = d.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &d.table,
		Key:                 key,
		ConditionExpression: aws.String("attribute_exists(product_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrNotFound
		}
		return fmt.Errorf("delete item failed: %w", err)
	}
	return nil
}

func (d *DynamoProductRepository) DeleteAll(ctx context.Context) error {
	all, err := d.scanAll(ctx)
	if err != nil {
		return err
	}
	for _, p := range all {
		if err := d.Delete(ctx, p.ID); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// AdjustStock applies delta with a conditional UpdateItem so concurrent
// orders cannot oversell.
func (d *DynamoProductRepository) AdjustStock(ctx context.Context, id string, delta int) (*models.Product, error) {
	key, err := d.key(id)
	if err != nil {
		return nil, err
	}

	need := 0
	if delta < 0 {
		need = -delta
	}
	deltaAV, _ := attributevalue.Marshal(delta)
	needAV, _ := attributevalue.Marshal(need)
	nowAV, _ := attributevalue.Marshal(time.Now().UTC().Format(time.RFC3339Nano))

	out, err := d.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           &d.table,
		Key:                 key,
		UpdateExpression:    aws.String("SET #stock = #stock + :delta, updated_at = :now"),
		ConditionExpression: aws.String("attribute_exists(product_id) AND #stock >= :need"),
		ExpressionAttributeNames: map[string]string{
			"#stock": "stock",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta": deltaAV,
			":need":  needAV,
			":now":   nowAV,
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			if _, findErr := d.FindByID(ctx, id); findErr != nil {
				return nil, findErr
			}
			return nil, ErrInsufficientStock
		}
		return nil, fmt.Errorf("adjust stock failed: %w", err)
	}

	var dp ddbProduct
	if err := attributevalue.UnmarshalMap(out.Attributes, &dp); err != nil {
		return nil, fmt.Errorf("unmarshal item: %w", err)
	}
	p := dp.toModel()
	return &p, nil
}

// EnsureIndexes is a no-op; the table is provisioned by infrastructure.
func (d *DynamoProductRepository) EnsureIndexes(context.Context) error { return nil }
