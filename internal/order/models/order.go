package models

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	usermodels "github.com/SKANDA-SR/e-commerse-website/internal/user/models"
)

// Order lifecycle.
const (
	StatusCreated   = "created"
	StatusPaid      = "paid"
	StatusFulfilled = "fulfilled"
	StatusCancelled = "cancelled"
)

// Accepted payment methods.
const (
	PaymentCreditCard     = "credit-card"
	PaymentPayPal         = "paypal"
	PaymentStripe         = "stripe"
	PaymentCashOnDelivery = "cash-on-delivery"
)

var paymentMethods = map[string]bool{
	PaymentCreditCard:     true,
	PaymentPayPal:         true,
	PaymentStripe:         true,
	PaymentCashOnDelivery: true,
}

func ValidPaymentMethod(m string) bool { return paymentMethods[m] }

var transitions = map[string][]string{
	StatusCreated: {StatusPaid, StatusCancelled},
	StatusPaid:    {StatusFulfilled, StatusCancelled},
}

// ShippingAddress uses the same five fields as a user profile address.
type ShippingAddress = usermodels.Address

type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"_id"`
	OrderNumber     string          `gorm:"uniqueIndex;not null" json:"orderNumber"`
	UserID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"user"`
	OrderItems      []OrderItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"orderItems"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`
	PaymentMethod   string          `gorm:"type:varchar(32);not null" json:"paymentMethod"`
	PaymentResult   PaymentResult   `gorm:"embedded;embeddedPrefix:payment_" json:"paymentResult"`
	PaymentIntentID string          `gorm:"index" json:"-"`
	OrderNotes      string          `json:"orderNotes"`
	ItemsPrice      float64         `gorm:"type:numeric(12,2);not null" json:"itemsPrice"`
	TaxPrice        float64         `gorm:"type:numeric(12,2);not null" json:"taxPrice"`
	ShippingPrice   float64         `gorm:"type:numeric(12,2);not null" json:"shippingPrice"`
	TotalPrice      float64         `gorm:"type:numeric(12,2);not null" json:"totalPrice"`
	Status          string          `gorm:"type:varchar(20);not null;default:'created'" json:"status"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	FulfilledAt     *time.Time      `json:"fulfilledAt,omitempty"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updatedAt"`
}

// OrderItem freezes the product name, image and price at submission.
type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"-"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	ProductID string    `gorm:"not null" json:"product"`
	Name      string    `gorm:"not null" json:"name"`
	Image     string    `json:"image"`
	Quantity  int       `gorm:"not null" json:"quantity"`
	Price     float64   `gorm:"type:numeric(12,2);not null" json:"price"`
}

func (o *Order) IsPaid() bool { return o.PaidAt != nil }

// CanTransition reports whether the order may move to status next.
func (o *Order) CanTransition(next string) bool {
	for _, s := range transitions[o.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// NewOrderNumber builds "ORD-<unix millis>-<8 hex>".
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}

// OrderLine is one requested product; price always comes from the catalog.
type OrderLine struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type PlaceOrderRequest struct {
	OrderItems      []OrderLine     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	OrderNotes      string          `json:"orderNotes"`
}

type OrderPage struct {
	Orders []Order  `json:"orders"`
	Meta   MetaData `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// PageOffset is the number of orders before page, saturating at math.MaxInt.
func PageOffset(page, limit int) int {
	if page <= 1 || limit <= 0 {
		return 0
	}
	if page-1 > math.MaxInt/limit {
		return math.MaxInt
	}
	return (page - 1) * limit
}

// Event is published on order lifecycle changes.
type Event struct {
	Type        string    `json:"type"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	UserID      string    `json:"user_id"`
	Status      string    `json:"status"`
	TotalPrice  float64   `json:"total_price"`
	Items       []Line    `json:"items,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type Line struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventOrderCancelled = "order.cancelled"
	EventOrderFulfilled = "order.fulfilled"
)

func NewEvent(eventType string, o *Order, now time.Time) Event {
	lines := make([]Line, 0, len(o.OrderItems))
	for _, it := range o.OrderItems {
		lines = append(lines, Line{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	return Event{
		Type:        eventType,
		OrderID:     o.ID.String(),
		OrderNumber: o.OrderNumber,
		UserID:      o.UserID.String(),
		Status:      o.Status,
		TotalPrice:  o.TotalPrice,
		Items:       lines,
		Timestamp:   now.UTC(),
	}
}

// PaymentEvent arrives from the payment queue.
type PaymentEvent struct {
	Type      string    `json:"type"`
	OrderID   string    `json:"order_id"`
	PaymentID string    `json:"payment_id,omitempty"`
	Status    string    `json:"status,omitempty"`
	Email     string    `json:"email_address,omitempty"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

const (
	PaymentSucceeded = "payment_succeeded"
	PaymentFailed    = "payment_failed"
)
