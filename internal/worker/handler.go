package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/greenbasket/greenbasket/internal/domain"
)

// Sender delivers outbound mail; the email service client satisfies it.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NotificationHandler turns order created events into confirmation emails.
type NotificationHandler struct {
	mailer Sender
	logger *slog.Logger
}

func NewNotificationHandler(mailer Sender, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{
		mailer: mailer,
		logger: logger,
	}
}

func (h *NotificationHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderCreatedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order created event: %w", err)
	}

	h.logger.Info("processing order created event", "order_id", event.OrderID, "user_id", event.UserID)

	if event.UserEmail == "" {
		h.logger.Warn("event has no user email, skipping notification", "order_id", event.OrderID)
		return nil
	}

	if err := h.sendConfirmationEmail(ctx, event); err != nil {
		h.logger.Error("failed to send confirmation email", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("send confirmation email: %w", err)
	}

	h.logger.Info("order notification complete", "order_id", event.OrderID)
	return nil
}

func (h *NotificationHandler) sendConfirmationEmail(ctx context.Context, event domain.OrderCreatedEvent) error {
	subject := "Order Confirmation: " + event.OrderID

	body := fmt.Sprintf(
		"Hi %s,\n\nYour order %s with %d items for a total of %d has been placed",
		event.UserName, event.OrderID, len(event.Items), event.TotalAmount,
	)
	if event.PaymentMethod == domain.PaymentMethodCOD {
		body += " and will be collected on delivery."
	} else {
		body += " and your payment has been received."
	}

	return h.mailer.Send(ctx, event.UserEmail, subject, body)
}
