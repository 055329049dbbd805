package domain

import "time"

type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodCOD    PaymentMethod = "COD"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
)

// OrderItem is a point-in-time copy of the product at purchase. Products may
// change or disappear afterwards without touching historical orders.
type OrderItem struct {
	ProductID     string `json:"product_id"`
	Name          string `json:"name"`
	Price         int64  `json:"price"`
	DiscountPrice int64  `json:"discount_price"`
	Image         string `json:"image"`
	Quantity      int    `json:"quantity"`
}

type Order struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	UserName      string        `json:"user_name"`
	Items         []OrderItem   `json:"items"`
	TotalAmount   int64         `json:"total_amount"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	// Gateway correlation fields, empty for cash-on-delivery.
	GatewayOrderID   string      `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string      `json:"gateway_payment_id,omitempty"`
	GatewaySignature string      `json:"-"`
	Status           OrderStatus `json:"status"`
	IsDelivered      bool        `json:"is_delivered"`
	DeliveredAt      *time.Time  `json:"delivered_at,omitempty"`
	CreatedAt        time.Time   `json:"created_at"`
}

type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "Success"
	PaymentStatusFailed  PaymentStatus = "Failed"
)

// Payment is written once per verified online payment and never mutated.
type Payment struct {
	ID             string        `json:"id"`
	UserID         string        `json:"user_id"`
	GatewayOrderID string        `json:"gateway_order_id"`
	PaymentID      string        `json:"payment_id"`
	Amount         int64         `json:"amount"`
	Status         PaymentStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
}
