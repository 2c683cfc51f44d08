package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/SKANDA-SR/e-commerse-website/internal/common/auth"
	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	"github.com/SKANDA-SR/e-commerse-website/internal/order/events"
	"github.com/SKANDA-SR/e-commerse-website/internal/order/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/order/repository"
	"github.com/SKANDA-SR/e-commerse-website/internal/pricing"
	productmodels "github.com/SKANDA-SR/e-commerse-website/internal/product/models"
	awspkg "github.com/SKANDA-SR/e-commerse-website/pkg/aws"
)

const (
	defaultOrderLimit = 10
	maxOrderLimit     = 100
)

var ErrOrderNotFound = apperrors.NotFound("Order not found")

// Catalog is the slice of the product service that orders depend on.
type Catalog interface {
	GetProduct(ctx context.Context, id string) (*productmodels.Product, error)
	ReserveStock(ctx context.Context, id string, qty int) (*productmodels.Product, error)
	ReleaseStock(ctx context.Context, id string, qty int) error
}

type OrderService struct {
	repo      repository.OrderRepository
	catalog   Catalog
	publisher events.Publisher
	metrics   *awspkg.MetricsClient
	logger    *zap.Logger
	now       func() time.Time
}

func NewOrderService(repo repository.OrderRepository, catalog Catalog, publisher events.Publisher, metrics *awspkg.MetricsClient, logger *zap.Logger) *OrderService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OrderService{
		repo:      repo,
		catalog:   catalog,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// PlaceOrder prices the request from the catalog, reserves stock line by
// line and persists the order. Reservations are released if any later step
// fails.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, req models.PlaceOrderRequest) (*models.Order, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	lines, err := mergeLines(req.OrderItems)
	if err != nil {
		return nil, err
	}
	if missing := req.ShippingAddress.MissingFields(); len(missing) > 0 {
		return nil, apperrors.Validation("Missing shipping address fields: " + strings.Join(missing, ", "))
	}
	if !models.ValidPaymentMethod(req.PaymentMethod) {
		return nil, apperrors.Validation("Invalid payment method")
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		p, err := s.catalog.GetProduct(ctx, line.Product)
		if err != nil {
			if apperrors.StatusCode(err) == http.StatusNotFound {
				return nil, apperrors.NotFound("Product not found: " + line.Product)
			}
			return nil, err
		}
		if !p.IsActive {
			return nil, apperrors.Validation(fmt.Sprintf("Product %s is no longer available", p.Name))
		}
		if !p.Available(line.Quantity) {
			return nil, insufficientStock(p.Name)
		}
		items = append(items, models.OrderItem{
			ProductID: p.ID,
			Name:      p.Name,
			Image:     p.PrimaryImage(),
			Quantity:  line.Quantity,
			Price:     p.Price,
		})
	}

	// The reservation returns the stored document after the decrement, so
	// each line is priced from the store rather than the read cache.
	reserved := make([]models.OrderItem, 0, len(items))
	for i, it := range items {
		p, err := s.catalog.ReserveStock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			s.release(ctx, reserved)
			s.recordFailure(ctx)
			if errors.Is(err, apperrors.ErrInsufficientStock) {
				return nil, insufficientStock(it.Name)
			}
			return nil, err
		}
		reserved = append(reserved, it)
		if p == nil {
			continue
		}
		if !p.IsActive {
			s.release(ctx, reserved)
			s.recordFailure(ctx)
			return nil, apperrors.Validation(fmt.Sprintf("Product %s is no longer available", p.Name))
		}
		items[i].Name = p.Name
		items[i].Image = p.PrimaryImage()
		items[i].Price = p.Price
	}

	var subtotal float64
	for _, it := range items {
		subtotal += it.Price * float64(it.Quantity)
	}
	totals := pricing.ComputeRounded(subtotal)

	now := s.now()
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     models.NewOrderNumber(now),
		UserID:          uid,
		OrderItems:      items,
		ShippingAddress: trimAddress(req.ShippingAddress),
		PaymentMethod:   req.PaymentMethod,
		OrderNotes:      strings.TrimSpace(req.OrderNotes),
		ItemsPrice:      totals.Subtotal,
		TaxPrice:        totals.Tax,
		ShippingPrice:   totals.Shipping,
		TotalPrice:      totals.Total,
		Status:          models.StatusCreated,
	}

	if err := s.repo.Create(ctx, order); err != nil {
		s.logger.Error("Failed to persist order", zap.Error(err), zap.String("user_id", userID))
		s.release(ctx, reserved)
		s.recordFailure(ctx)
		return nil, apperrors.Internal(err)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.Int("items", len(items)),
		zap.Float64("total", order.TotalPrice),
	)
	s.publish(ctx, models.EventOrderCreated, order)
	if s.metrics != nil {
		_ = s.metrics.RecordCount(ctx, awspkg.MetricOrdersCreated, nil)
		_ = s.metrics.RecordValue(ctx, awspkg.MetricOrderValue, order.TotalPrice, nil)
	}
	return order, nil
}

// mergeLines validates the requested lines and folds duplicates together,
// keeping first-seen order.
func mergeLines(in []models.OrderLine) ([]models.OrderLine, error) {
	if len(in) == 0 {
		return nil, apperrors.Validation("No order items")
	}
	index := make(map[string]int, len(in))
	out := make([]models.OrderLine, 0, len(in))
	for _, l := range in {
		id := strings.TrimSpace(l.Product)
		if id == "" {
			return nil, apperrors.Validation("Every order item needs a product")
		}
		if l.Quantity <= 0 {
			return nil, apperrors.Validation("Quantity must be at least 1")
		}
		if i, ok := index[id]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[id] = len(out)
		out = append(out, models.OrderLine{Product: id, Quantity: l.Quantity})
	}
	return out, nil
}

func trimAddress(a models.ShippingAddress) models.ShippingAddress {
	return models.ShippingAddress{
		Street:  strings.TrimSpace(a.Street),
		City:    strings.TrimSpace(a.City),
		State:   strings.TrimSpace(a.State),
		ZipCode: strings.TrimSpace(a.ZipCode),
		Country: strings.TrimSpace(a.Country),
	}
}

func insufficientStock(name string) error {
	return apperrors.New(apperrors.ErrInsufficientStock.Code, "Insufficient stock for "+name, nil)
}

func (s *OrderService) release(ctx context.Context, items []models.OrderItem) {
	for _, it := range items {
		if err := s.catalog.ReleaseStock(ctx, it.ProductID, it.Quantity); err != nil {
			s.logger.Error("Failed to release stock",
				zap.Error(err),
				zap.String("product_id", it.ProductID),
				zap.Int("quantity", it.Quantity),
			)
		}
	}
}

func (s *OrderService) MyOrders(ctx context.Context, userID string, page, limit int) (*models.OrderPage, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	page, limit = normalizePaging(page, limit)
	orders, total, err := s.repo.FindByUserID(ctx, uid, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.Error(err), zap.String("user_id", userID))
		return nil, apperrors.Internal(err)
	}
	return newOrderPage(orders, total, page, limit), nil
}

// ListOrders returns every order, newest first. Admin only.
func (s *OrderService) ListOrders(ctx context.Context, page, limit int) (*models.OrderPage, error) {
	page, limit = normalizePaging(page, limit)
	orders, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch all orders", zap.Error(err))
		return nil, apperrors.Internal(err)
	}
	return newOrderPage(orders, total, page, limit), nil
}

func normalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultOrderLimit
	}
	if limit > maxOrderLimit {
		limit = maxOrderLimit
	}
	return page, limit
}

func newOrderPage(orders []models.Order, total int64, page, limit int) *models.OrderPage {
	if orders == nil {
		orders = []models.Order{}
	}
	seen := int64(models.PageOffset(page, limit))
	return &models.OrderPage{
		Orders: orders,
		Meta: models.MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  (total + int64(limit) - 1) / int64(limit),
			HasMore:     seen < total && total-seen > int64(limit),
		},
	}
}

// GetOrder returns the order if caller owns it or is an admin. Anyone else
// gets a 404 so order ids cannot be probed.
func (s *OrderService) GetOrder(ctx context.Context, id string, caller auth.Claims) (*models.Order, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() && order.UserID.String() != caller.UserID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *OrderService) find(ctx context.Context, id string) (*models.Order, error) {
	oid, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrOrderNotFound
	}
	order, err := s.repo.FindByID(ctx, oid)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		s.logger.Error("Failed to fetch order", zap.Error(err), zap.String("order_id", id))
		return nil, apperrors.Internal(err)
	}
	return order, nil
}

// PayOrder records a client-reported payment result.
func (s *OrderService) PayOrder(ctx context.Context, id string, caller auth.Claims, result models.PaymentResult) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	return s.markPaid(ctx, order, result)
}

// MarkPaid is the shared end of every payment confirmation path. Confirming
// an already paid order is a no-op.
func (s *OrderService) MarkPaid(ctx context.Context, id string, result models.PaymentResult) (*models.Order, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.markPaid(ctx, order, result)
}

func (s *OrderService) markPaid(ctx context.Context, order *models.Order, result models.PaymentResult) (*models.Order, error) {
	if order.IsPaid() {
		return order, nil
	}
	if result.UpdateTime == "" {
		result.UpdateTime = s.now().UTC().Format(time.RFC3339)
	}
	err := s.transition(ctx, order, models.StatusPaid, func(o *models.Order, now time.Time) {
		o.PaidAt = &now
		o.PaymentResult = result
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		_ = s.metrics.RecordCount(ctx, awspkg.MetricOrdersPaid, map[string]string{"PaymentMethod": order.PaymentMethod})
	}
	return order, nil
}

// CancelOrder cancels a created or paid order and returns its stock.
func (s *OrderService) CancelOrder(ctx context.Context, id string, caller auth.Claims) (*models.Order, error) {
	order, err := s.GetOrder(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, order)
}

func (s *OrderService) cancel(ctx context.Context, order *models.Order) (*models.Order, error) {
	err := s.transition(ctx, order, models.StatusCancelled, func(o *models.Order, now time.Time) {
		o.CancelledAt = &now
	})
	if err != nil {
		return nil, err
	}
	s.release(ctx, order.OrderItems)
	if s.metrics != nil {
		_ = s.metrics.RecordCount(ctx, awspkg.MetricOrdersCancelled, nil)
	}
	return order, nil
}

// FulfillOrder marks a paid order shipped. Admin only.
func (s *OrderService) FulfillOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.transition(ctx, order, models.StatusFulfilled, func(o *models.Order, now time.Time) {
		o.FulfilledAt = &now
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CancelUnpaid cancels an order whose payment failed. Orders that were paid
// in the meantime are left alone.
func (s *OrderService) CancelUnpaid(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusCreated {
		return order, nil
	}
	return s.cancel(ctx, order)
}

// AttachPaymentIntent remembers the gateway intent so webhooks can find the order.
func (s *OrderService) AttachPaymentIntent(ctx context.Context, order *models.Order, intentID string) error {
	order.PaymentIntentID = intentID
	if err := s.repo.Update(ctx, order); err != nil {
		s.logger.Error("Failed to store payment intent", zap.Error(err), zap.String("order_id", order.ID.String()))
		return apperrors.Internal(err)
	}
	return nil
}

// FindByPaymentIntent resolves a gateway intent back to its order.
func (s *OrderService) FindByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	order, err := s.repo.FindByPaymentIntent(ctx, intentID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return order, nil
}

var eventForStatus = map[string]string{
	models.StatusPaid:      models.EventOrderPaid,
	models.StatusCancelled: models.EventOrderCancelled,
	models.StatusFulfilled: models.EventOrderFulfilled,
}

func (s *OrderService) transition(ctx context.Context, order *models.Order, next string, apply func(*models.Order, time.Time)) error {
	if !order.CanTransition(next) {
		return apperrors.New(apperrors.ErrInvalidOrder.Code, fmt.Sprintf("Order is %s and cannot be marked %s", order.Status, next), nil)
	}

	from := order.Status
	order.Status = next
	apply(order, s.now())

	if err := s.repo.Transition(ctx, order, from); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return apperrors.New(apperrors.ErrInvalidOrder.Code, "Order was updated concurrently, please retry", err)
		}
		s.logger.Error("Failed to update order status", zap.Error(err), zap.String("order_id", order.ID.String()), zap.String("status", next))
		return apperrors.Internal(err)
	}

	s.logger.Info("Order status changed",
		zap.String("order_id", order.ID.String()),
		zap.String("from", from),
		zap.String("to", next),
	)
	s.publish(ctx, eventForStatus[next], order)
	return nil
}

func (s *OrderService) publish(ctx context.Context, eventType string, order *models.Order) {
	if err := s.publisher.Publish(ctx, models.NewEvent(eventType, order, s.now())); err != nil {
		s.logger.Warn("Failed to publish order event",
			zap.Error(err),
			zap.String("event_type", eventType),
			zap.String("order_id", order.ID.String()),
		)
	}
}

func (s *OrderService) recordFailure(ctx context.Context) {
	if s.metrics != nil {
		_ = s.metrics.RecordCount(ctx, awspkg.MetricOrdersFailed, nil)
	}
}
