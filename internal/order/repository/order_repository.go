package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SKANDA-SR/e-commerse-website/internal/order/models"
)

var (
	ErrNotFound = errors.New("order not found")
	// ErrStaleStatus means the order left the expected status before the update landed.
	ErrStaleStatus = errors.New("order status changed concurrently")
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error)
	Create(ctx context.Context, order *models.Order) error
	Update(ctx context.Context, order *models.Order) error
	Transition(ctx context.Context, order *models.Order, from string) error
	DeleteAll(ctx context.Context) error
}

// GormOrderRepository implements OrderRepository using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByUserID retrieves orders for a specific user with pagination
func (r *GormOrderRepository) FindByUserID(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.Order, int64, error) {
	return r.paginate(r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID), page, limit)
}

// FindAll retrieves all orders with pagination
func (r *GormOrderRepository) FindAll(ctx context.Context, page, limit int) ([]models.Order, int64, error) {
	return r.paginate(r.db.WithContext(ctx).Model(&models.Order{}), page, limit)
}

func (r *GormOrderRepository) paginate(query *gorm.DB, page, limit int) ([]models.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	orders := []models.Order{}
	if err := query.
		Preload("OrderItems").
		Offset(models.PageOffset(page, limit)).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("id = ?", id))
}

func (r *GormOrderRepository) FindByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	return r.first(r.db.WithContext(ctx).Where("payment_intent_id = ?", intentID))
}

func (r *GormOrderRepository) first(query *gorm.DB) (*models.Order, error) {
	var order models.Order
	err := query.Preload("OrderItems").First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Create writes the order and its items in one transaction.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		if len(order.OrderItems) == 0 {
			return nil
		}
		for i := range order.OrderItems {
			order.OrderItems[i].OrderID = order.ID
		}
		return tx.Create(&order.OrderItems).Error
	})
}

// Update saves the order row. Items are immutable after creation.
func (r *GormOrderRepository) Update(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error
}

// Transition persists order's status and timestamps only if the stored
// status is still from.
func (r *GormOrderRepository) Transition(ctx context.Context, order *models.Order, from string) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, from).
		Updates(map[string]interface{}{
			"status":                order.Status,
			"paid_at":               order.PaidAt,
			"fulfilled_at":          order.FulfilledAt,
			"cancelled_at":          order.CancelledAt,
			"payment_id":            order.PaymentResult.ID,
			"payment_status":        order.PaymentResult.Status,
			"payment_update_time":   order.PaymentResult.UpdateTime,
			"payment_email_address": order.PaymentResult.EmailAddress,
			"payment_intent_id":     order.PaymentIntentID,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleStatus
	}
	return nil
}

// DeleteAll removes every order and item. Used by the seeder.
func (r *GormOrderRepository) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return all.Delete(&models.Order{}).Error
	})
}
