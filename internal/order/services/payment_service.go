package services

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"github.com/stripe/stripe-go/v80/webhook"
	"go.uber.org/zap"

	"github.com/SKANDA-SR/e-commerse-website/internal/common/auth"
	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	"github.com/SKANDA-SR/e-commerse-website/internal/order/models"
	"github.com/SKANDA-SR/e-commerse-website/internal/pricing"
)

// PaymentGateway creates card payments and verifies their webhooks.
type PaymentGateway interface {
	CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error)
	ParseWebhook(payload []byte, signature string) (stripe.Event, error)
}

type Intent struct {
	ID           string `json:"paymentIntentId"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
}

// StripeGateway is the PaymentGateway backed by Stripe.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	return &StripeGateway{api: client.New(secretKey, nil), webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, err
	}
	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret, Amount: pi.Amount, Currency: string(pi.Currency)}, nil
}

func (g *StripeGateway) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	return webhook.ConstructEvent(payload, signature, g.webhookSecret)
}

// PaymentService connects orders to the card gateway.
type PaymentService struct {
	orders   *OrderService
	gateway  PaymentGateway
	currency string
	logger   *zap.Logger
}

func NewPaymentService(orders *OrderService, gateway PaymentGateway, currency string, logger *zap.Logger) *PaymentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{orders: orders, gateway: gateway, currency: strings.ToLower(currency), logger: logger}
}

// CreatePaymentIntent starts a card payment for an unpaid order owned by caller.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, id string, caller auth.Claims) (*Intent, error) {
	if s.gateway == nil {
		return nil, apperrors.New(http.StatusServiceUnavailable, "Card payments are not configured", nil)
	}
	order, err := s.orders.GetOrder(ctx, id, caller)
	if err != nil {
		return nil, err
	}
	if order.Status != models.StatusCreated {
		return nil, apperrors.New(apperrors.ErrInvalidOrder.Code, "Order is already "+order.Status, nil)
	}

	intent, err := s.gateway.CreatePaymentIntent(ctx, pricing.ToMinorUnits(order.TotalPrice), s.currency, map[string]string{
		"order_id": order.ID.String(),
		"user_id":  order.UserID.String(),
	})
	if err != nil {
		s.logger.Error("Failed to create payment intent", zap.Error(err), zap.String("order_id", id))
		return nil, apperrors.New(apperrors.ErrPaymentFailed.Code, "Could not start payment", err)
	}
	if err := s.orders.AttachPaymentIntent(ctx, order, intent.ID); err != nil {
		return nil, err
	}
	return intent, nil
}

// HandleWebhook verifies and applies a gateway event. Unknown events are
// acknowledged and ignored. A successful payment for an order that can no
// longer be paid is acknowledged and logged for refund.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return apperrors.New(http.StatusServiceUnavailable, "Card payments are not configured", nil)
	}
	event, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("Stripe webhook signature verification failed", zap.Error(err))
		return apperrors.Validation("Invalid webhook")
	}

	s.logger.Info("Processing Stripe webhook", zap.String("event_type", string(event.Type)), zap.String("event_id", event.ID))

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		pi, orderID, err := s.intentOrder(ctx, event)
		if err != nil {
			return err
		}
		_, err = s.orders.MarkPaid(ctx, orderID, models.PaymentResult{
			ID:           pi.ID,
			Status:       string(pi.Status),
			UpdateTime:   time.Unix(event.Created, 0).UTC().Format(time.RFC3339),
			EmailAddress: pi.ReceiptEmail,
		})
		if code := apperrors.StatusCode(err); err != nil && code >= 400 && code < 500 {
			s.logger.Error("Captured payment for order that cannot be paid, refund required",
				zap.Error(err),
				zap.String("order_id", orderID),
				zap.String("payment_intent_id", pi.ID),
				zap.Int64("amount", pi.Amount),
				zap.String("currency", string(pi.Currency)))
			return nil
		}
		return err
	case stripe.EventTypePaymentIntentPaymentFailed:
		pi, orderID, err := s.intentOrder(ctx, event)
		if err != nil {
			return err
		}
		s.logger.Warn("Card payment failed", zap.String("order_id", orderID), zap.String("payment_intent_id", pi.ID))
		return nil
	default:
		s.logger.Info("Unhandled webhook event type", zap.String("event_type", string(event.Type)))
		return nil
	}
}

func (s *PaymentService) intentOrder(ctx context.Context, event stripe.Event) (*stripe.PaymentIntent, string, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, "", apperrors.Validation("Malformed payment intent")
	}
	if id := pi.Metadata["order_id"]; id != "" {
		return &pi, id, nil
	}
	order, err := s.orders.FindByPaymentIntent(ctx, pi.ID)
	if err != nil {
		return nil, "", err
	}
	return &pi, order.ID.String(), nil
}
