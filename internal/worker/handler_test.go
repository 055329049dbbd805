package worker

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/greenbasket/greenbasket/internal/domain"
)

type captureSender struct {
	to       []string
	subjects []string
	bodies   []string
}

func (c *captureSender) Send(_ context.Context, to, subject, body string) error {
	c.to = append(c.to, to)
	c.subjects = append(c.subjects, subject)
	c.bodies = append(c.bodies, body)
	return nil
}

func TestHandleSendsConfirmation(t *testing.T) {
	sender := &captureSender{}
	h := NewNotificationHandler(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))

	event := domain.OrderCreatedEvent{
		OrderID:       "order-1",
		UserID:        "u1",
		UserEmail:     "asha@example.com",
		UserName:      "Asha",
		Items:         []domain.OrderItem{{ProductID: "p1", Quantity: 2, Price: 500}},
		TotalAmount:   1000,
		PaymentMethod: domain.PaymentMethodOnline,
		Timestamp:     time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if len(sender.to) != 1 {
		t.Fatalf("expected 1 email, got %d", len(sender.to))
	}
	if sender.to[0] != "asha@example.com" {
		t.Fatalf("expected email to asha@example.com, got %q", sender.to[0])
	}
	if !strings.Contains(sender.subjects[0], "order-1") {
		t.Fatalf("expected subject to contain order id, got %q", sender.subjects[0])
	}
	if !strings.Contains(sender.bodies[0], "payment has been received") {
		t.Fatalf("expected online payment wording, got %q", sender.bodies[0])
	}
}

func TestHandleCODWording(t *testing.T) {
	sender := &captureSender{}
	h := NewNotificationHandler(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))

	event := domain.OrderCreatedEvent{
		OrderID:       "order-2",
		UserEmail:     "ravi@example.com",
		PaymentMethod: domain.PaymentMethodCOD,
	}
	payload, _ := json.Marshal(event)

	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("handle failed: %v", err)
	}

	if !strings.Contains(sender.bodies[0], "collected on delivery") {
		t.Fatalf("expected COD wording, got %q", sender.bodies[0])
	}
}

func TestHandleSkipsEventsWithoutEmail(t *testing.T) {
	sender := &captureSender{}
	h := NewNotificationHandler(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))

	payload, _ := json.Marshal(domain.OrderCreatedEvent{OrderID: "order-3"})

	if err := h.Handle(context.Background(), payload); err != nil {
		t.Fatalf("handle failed: %v", err)
	}
	if len(sender.to) != 0 {
		t.Fatalf("expected no email, got %d", len(sender.to))
	}
}

func TestHandleRejectsBadPayload(t *testing.T) {
	sender := &captureSender{}
	h := NewNotificationHandler(sender, slog.New(slog.NewTextHandler(io.Discard, nil)))

	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
