package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stripe/stripe-go/v80"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/SKANDA-SR/e-commerse-website/internal/common/errors"
	"github.com/SKANDA-SR/e-commerse-website/internal/order/models"
	awspkg "github.com/SKANDA-SR/e-commerse-website/pkg/aws"
)

type MockGateway struct{ mock.Mock }

func (m *MockGateway) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	args := m.Called(amount, currency, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Intent), args.Error(1)
}

func (m *MockGateway) ParseWebhook(payload []byte, signature string) (stripe.Event, error) {
	args := m.Called(string(payload), signature)
	return args.Get(0).(stripe.Event), args.Error(1)
}

func intentEvent(eventType stripe.EventType, intentID, orderID string) stripe.Event {
	raw := fmt.Sprintf(`{"id":%q,"object":"payment_intent","status":"succeeded","receipt_email":"john@example.com","metadata":{"order_id":%q}}`, intentID, orderID)
	return stripe.Event{
		ID:      "evt_1",
		Type:    eventType,
		Created: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC).Unix(),
		Data:    &stripe.EventData{Raw: json.RawMessage(raw)},
	}
}

func (s *OrderServiceSuite) TestCreatePaymentIntent() {
	order, err := s.place(s.line("p1", 3))
	s.Require().NoError(err)

	gw := new(MockGateway)
	gw.On("CreatePaymentIntent", int64(12960), "usd", map[string]string{
		"order_id": order.ID.String(),
		"user_id":  s.buyer.UserID,
	}).Return(&Intent{ID: "pi_1", ClientSecret: "pi_1_secret", Amount: 12960, Currency: "usd"}, nil)

	payments := NewPaymentService(s.svc, gw, "USD", zaptest.NewLogger(s.T()))
	intent, err := payments.CreatePaymentIntent(s.ctx, order.ID.String(), s.buyer)
	s.Require().NoError(err)
	s.Equal("pi_1_secret", intent.ClientSecret)

	stored, err := s.svc.FindByPaymentIntent(s.ctx, "pi_1")
	s.Require().NoError(err)
	s.Equal(order.ID, stored.ID)
	gw.AssertExpectations(s.T())
}

func (s *OrderServiceSuite) TestCreatePaymentIntentWithoutGateway() {
	payments := NewPaymentService(s.svc, nil, "usd", nil)
	_, err := payments.CreatePaymentIntent(s.ctx, "any", s.buyer)
	s.Equal(http.StatusServiceUnavailable, apperrors.StatusCode(err))
}

func (s *OrderServiceSuite) TestWebhookMarksOrderPaid() {
	order, err := s.place(s.line("p1", 1))
	s.Require().NoError(err)

	gw := new(MockGateway)
	gw.On("ParseWebhook", "payload", "sig").Return(intentEvent(stripe.EventTypePaymentIntentSucceeded, "pi_9", order.ID.String()), nil)
	gw.On("ParseWebhook", "payload", "forged").Return(stripe.Event{}, assert.AnError)

	payments := NewPaymentService(s.svc, gw, "usd", zaptest.NewLogger(s.T()))
	s.Require().NoError(payments.HandleWebhook(s.ctx, []byte("payload"), "sig"))

	paid, err := s.svc.GetOrder(s.ctx, order.ID.String(), s.buyer)
	s.Require().NoError(err)
	s.Equal(models.StatusPaid, paid.Status)
	s.Equal("pi_9", paid.PaymentResult.ID)
	s.Equal("john@example.com", paid.PaymentResult.EmailAddress)
	s.Equal("2026-01-02T03:04:05Z", paid.PaymentResult.UpdateTime)

	// redelivery is harmless
	s.NoError(payments.HandleWebhook(s.ctx, []byte("payload"), "sig"))

	err = payments.HandleWebhook(s.ctx, []byte("payload"), "forged")
	s.Equal(http.StatusBadRequest, apperrors.StatusCode(err))
}

func (s *OrderServiceSuite) TestWebhookForCancelledOrderIsAcknowledged() {
	order, err := s.place(s.line("p1", 1))
	s.Require().NoError(err)
	_, err = s.svc.CancelOrder(s.ctx, order.ID.String(), s.buyer)
	s.Require().NoError(err)

	gw := new(MockGateway)
	gw.On("ParseWebhook", "payload", "sig").Return(intentEvent(stripe.EventTypePaymentIntentSucceeded, "pi_late", order.ID.String()), nil)

	core, logs := observer.New(zapcore.ErrorLevel)
	payments := NewPaymentService(s.svc, gw, "usd", zap.New(core))
	s.NoError(payments.HandleWebhook(s.ctx, []byte("payload"), "sig"))

	stored, err := s.svc.GetOrder(s.ctx, order.ID.String(), s.buyer)
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, stored.Status)

	entries := logs.FilterField(zap.String("payment_intent_id", "pi_late")).All()
	s.Require().Len(entries, 1)
	s.Contains(entries[0].Message, "refund required")
}

type fakeSQS struct {
	bodies  []string
	deleted int
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, _ *sqs.ReceiveMessageInput, _ ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	out := &sqs.ReceiveMessageOutput{}
	for i := range f.bodies {
		body := f.bodies[i]
		handle := fmt.Sprintf("rh-%d", i)
		out.Messages = append(out.Messages, types.Message{Body: &body, ReceiptHandle: &handle})
	}
	f.bodies = nil
	return out, nil
}

func (f *fakeSQS) DeleteMessage(context.Context, *sqs.DeleteMessageInput, ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.deleted++
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) SendMessage(context.Context, *sqs.SendMessageInput, ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	return &sqs.SendMessageOutput{}, nil
}

func (s *OrderServiceSuite) TestPaymentConsumer() {
	paidOrder, err := s.place(s.line("p1", 1))
	s.Require().NoError(err)
	failedOrder, err := s.place(s.line("p1", 2))
	s.Require().NoError(err)
	s.Equal(2, s.stock("p1"))

	succeeded, _ := json.Marshal(models.PaymentEvent{Type: models.PaymentSucceeded, OrderID: paidOrder.ID.String(), PaymentID: "pay_1"})
	envelope, _ := json.Marshal(map[string]string{"Type": "Notification", "Message": string(succeeded)})
	failed, _ := json.Marshal(models.PaymentEvent{Type: models.PaymentFailed, OrderID: failedOrder.ID.String()})

	queue := &fakeSQS{bodies: []string{
		string(envelope),
		string(failed),
		`not json`,
		`{"type":"payment_succeeded","order_id":"00000000-0000-0000-0000-000000000000"}`,
	}}
	consumer := NewPaymentConsumer(awspkg.NewSQSConsumerWithClient(queue, "queue-url", nil), s.svc, zaptest.NewLogger(s.T()))

	handled, err := consumer.consumer.PollOnce(s.ctx, consumer.HandleMessage)
	s.Require().NoError(err)
	s.Equal(4, handled)
	s.Equal(4, queue.deleted)

	got, err := s.svc.MarkPaid(s.ctx, paidOrder.ID.String(), models.PaymentResult{})
	s.Require().NoError(err)
	s.Equal("pay_1", got.PaymentResult.ID)
	s.Equal("succeeded", got.PaymentResult.Status)

	cancelled, err := s.svc.GetOrder(s.ctx, failedOrder.ID.String(), s.buyer)
	s.Require().NoError(err)
	s.Equal(models.StatusCancelled, cancelled.Status)
	s.Equal(4, s.stock("p1"))
}

func (s *OrderServiceSuite) line(id string, qty int) models.OrderLine {
	return models.OrderLine{Product: id, Quantity: qty}
}
