package domain

import "time"

// OrderCreatedEvent is published to Kafka after a checkout completes, so the
// notification worker can send the confirmation email.
type OrderCreatedEvent struct {
	OrderID       string        `json:"order_id"`
	UserID        string        `json:"user_id"`
	UserEmail     string        `json:"user_email"`
	UserName      string        `json:"user_name"`
	Items         []OrderItem   `json:"items"`
	TotalAmount   int64         `json:"total_amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Timestamp     time.Time     `json:"timestamp"`
}
