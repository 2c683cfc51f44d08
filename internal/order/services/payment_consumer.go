package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	"github.com/SKANDA-SR/e-commerse-website/internal/order/models"
	awspkg "github.com/SKANDA-SR/e-commerse-website/pkg/aws"
)

// PaymentConsumer applies payment confirmations delivered over SQS, either
// raw or wrapped in an SNS envelope.
type PaymentConsumer struct {
	consumer *awspkg.SQSConsumer
	orders   *OrderService
	logger   *zap.Logger
}

func NewPaymentConsumer(consumer *awspkg.SQSConsumer, orders *OrderService, logger *zap.Logger) *PaymentConsumer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentConsumer{consumer: consumer, orders: orders, logger: logger}
}

// Start polls until ctx is cancelled.
func (c *PaymentConsumer) Start(ctx context.Context) {
	c.logger.Info("Starting payment events queue consumer")
	if err := c.consumer.StartPolling(ctx, c.HandleMessage); err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("Payment consumer stopped", zap.Error(err))
	}
}

// HandleMessage returns an error only for failures worth redelivering.
// Malformed or unknown messages are dropped.
func (c *PaymentConsumer) HandleMessage(ctx context.Context, body string) error {
	var envelope struct {
		Message string `json:"Message"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err == nil && envelope.Message != "" {
		body = envelope.Message
	}

	var evt models.PaymentEvent
	if err := json.Unmarshal([]byte(body), &evt); err != nil {
		c.logger.Warn("Dropping invalid payment event", zap.Error(err))
		return nil
	}
	if evt.OrderID == "" || evt.Type == "" {
		c.logger.Warn("Dropping payment event with missing fields", zap.String("order_id", evt.OrderID), zap.String("type", evt.Type))
		return nil
	}

	var err error
	switch evt.Type {
	case models.PaymentSucceeded:
		status := evt.Status
		if status == "" {
			status = "succeeded"
		}
		result := models.PaymentResult{ID: evt.PaymentID, Status: status, EmailAddress: evt.Email}
		if !evt.Timestamp.IsZero() {
			result.UpdateTime = evt.Timestamp.UTC().Format(time.RFC3339)
		}
		_, err = c.orders.MarkPaid(ctx, evt.OrderID, result)
	case models.PaymentFailed:
		_, err = c.orders.CancelUnpaid(ctx, evt.OrderID)
	default:
		c.logger.Info("Ignoring payment event", zap.String("type", evt.Type))
		return nil
	}

	if err == nil {
		c.logger.Info("Payment event applied", zap.String("order_id", evt.OrderID), zap.String("type", evt.Type))
		return nil
	}
	// Retrying cannot fix a missing order or an illegal transition.
	if code := apperrors.StatusCode(err); code < http.StatusInternalServerError {
		c.logger.Warn("Payment event rejected", zap.Error(err), zap.String("order_id", evt.OrderID))
		return nil
	}
	return err
}
