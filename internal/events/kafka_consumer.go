package events

import (
	"context"

	"github.com/BnBPlug/service-reservation/internal/application"
	"github.com/BnBPlug/service-reservation/internal/domain/reservation"
	"github.com/BnBPlug/service-reservation/internal/platform/apperr"
	"github.com/BnBPlug/service-reservation/internal/platform/kafka"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RefundCanceller cancels the reservation a refunded payment belonged to.
type RefundCanceller interface {
	CancelForRefund(ctx context.Context, bookingID, reason string) (*application.ReservationDTO, error)
}

// PaymentEventConsumer listens to payment events and cancels refunded reservations.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  RefundCanceller
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	service RefundCanceller,
	logger *zap.Logger,
) *PaymentEventConsumer {
	return &PaymentEventConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, reservation.TopicPaymentEvents, logger),
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *PaymentEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // malformed, never retried
	}

	switch cloudEvent.Type {
	case reservation.EventPaymentRefunded:
		return c.handlePaymentRefunded(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentRefunded(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt reservation.PaymentRefundedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentRefundedEvent data", zap.Error(err))
		return nil
	}
	if evt.BookingID == "" {
		c.logger.Warn("payment refund without booking id",
			zap.String("payment_id", evt.PaymentID.String()),
		)
		return nil
	}

	c.logger.Info("processing payment refunded event",
		zap.String("booking_id", evt.BookingID),
		zap.String("payment_id", evt.PaymentID.String()),
		zap.Int64("amount", evt.Amount),
	)

	reason := evt.Reason
	if reason == "" {
		reason = "payment refunded"
	}

	if _, err := c.service.CancelForRefund(ctx, evt.BookingID, reason); err != nil {
		if apperr.IsNotFound(err) || apperr.IsInvalidState(err) {
			c.logger.Warn("refund does not match a cancellable reservation",
				zap.String("booking_id", evt.BookingID),
				zap.Error(err),
			)
			return nil
		}
		c.logger.Error("failed to cancel reservation after refund",
			zap.String("booking_id", evt.BookingID),
			zap.Error(err),
		)
		return err
	}

	c.logger.Info("reservation cancelled after refund",
		zap.String("booking_id", evt.BookingID),
	)
	return nil
}
