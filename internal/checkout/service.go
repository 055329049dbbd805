package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/greenbasket/greenbasket/internal/domain"
	"github.com/greenbasket/greenbasket/internal/payment"
)

var (
	ErrInvalidAmount         = errors.New("invalid amount")
	ErrEmptyCart             = errors.New("cart items required")
	ErrMissingPaymentDetails = errors.New("missing payment details")
	ErrSignatureMismatch     = errors.New("signature mismatch")
	ErrNoValidItems          = errors.New("no valid cart items")
	ErrUserNotFound          = errors.New("user not found")
)

// ProductGetter is the catalog surface checkout needs for enrichment.
type ProductGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

// UserGetter is the identity surface checkout needs for enrichment.
type UserGetter interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// OrderStore persists the order and clears the cart atomically.
type OrderStore interface {
	CreateAndClearCart(ctx context.Context, order *domain.Order) error
}

// PaymentStore records verified online payments.
type PaymentStore interface {
	Create(ctx context.Context, p *domain.Payment) error
}

// IntentCreator mints gateway payment intents.
type IntentCreator interface {
	CreateIntent(ctx context.Context, amountMinor int64, currency string) (*payment.Intent, error)
}

// EventPublisher announces completed checkouts. May be absent.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// Service is the order reconciliation flow: it turns a verified payment
// outcome and a cart snapshot into a durable order and an empty cart.
type Service struct {
	products  ProductGetter
	users     UserGetter
	orders    OrderStore
	payments  PaymentStore
	gateway   IntentCreator
	publisher EventPublisher
	secret    string
	currency  string
	logger    *slog.Logger
}

func NewService(
	products ProductGetter,
	users UserGetter,
	orders OrderStore,
	payments PaymentStore,
	gateway IntentCreator,
	publisher EventPublisher,
	secret, currency string,
	logger *slog.Logger,
) *Service {
	return &Service{
		products:  products,
		users:     users,
		orders:    orders,
		payments:  payments,
		gateway:   gateway,
		publisher: publisher,
		secret:    secret,
		currency:  currency,
		logger:    logger,
	}
}

// CreatePaymentIntent mints a gateway intent for amount, given in whole
// currency units; the gateway receives minor units.
func (s *Service) CreatePaymentIntent(ctx context.Context, amount int64) (*payment.Intent, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	intent, err := s.gateway.CreateIntent(ctx, amount*100, s.currency)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	s.logger.Info("payment intent created", "intent_id", intent.IntentID, "amount", intent.Amount)
	return intent, nil
}

// VerifyInput carries everything the client relays back after paying.
type VerifyInput struct {
	UserID           string
	GatewayOrderID   string
	GatewayPaymentID string
	GatewaySignature string
	Amount           int64
	Items            []domain.CartItem
	Method           domain.PaymentMethod
}

// VerifyAndReconcile verifies an online payment confirmation, enriches the
// cart snapshot against current product and user records, persists the order
// together with clearing the cart, and returns the order.
//
// The payment record is written before the order transaction: a crash between
// the two leaves a Success payment with no order, and the client must retry.
// There is no idempotency key, so a retried call creates a second order.
func (s *Service) VerifyAndReconcile(ctx context.Context, in VerifyInput) (*domain.Order, error) {
	if len(in.Items) == 0 {
		return nil, ErrEmptyCart
	}

	if in.Method == domain.PaymentMethodOnline {
		if in.GatewayOrderID == "" || in.GatewayPaymentID == "" || in.GatewaySignature == "" {
			return nil, ErrMissingPaymentDetails
		}

		if !verifySignature(s.secret, in.GatewayOrderID, in.GatewayPaymentID, in.GatewaySignature) {
			return nil, ErrSignatureMismatch
		}

		if err := s.payments.Create(ctx, &domain.Payment{
			UserID:         in.UserID,
			GatewayOrderID: in.GatewayOrderID,
			PaymentID:      in.GatewayPaymentID,
			Amount:         in.Amount,
			Status:         domain.PaymentStatusSuccess,
		}); err != nil {
			return nil, fmt.Errorf("save payment: %w", err)
		}
	}

	user, items, err := s.enrich(ctx, in.UserID, in.Items)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:           user.ID,
		UserName:         user.Name,
		Items:            items,
		TotalAmount:      in.Amount,
		PaymentMethod:    in.Method,
		GatewayOrderID:   in.GatewayOrderID,
		GatewayPaymentID: in.GatewayPaymentID,
		GatewaySignature: in.GatewaySignature,
		Status:           domain.OrderStatusCompleted,
	}
	if in.Method != domain.PaymentMethodOnline {
		order.GatewayOrderID = ""
		order.GatewayPaymentID = ""
		order.GatewaySignature = ""
		order.Status = domain.OrderStatusPending
	}

	if err := s.orders.CreateAndClearCart(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	s.publishCreated(ctx, user, order)

	s.logger.Info("order reconciled", "order_id", order.ID, "user_id", user.ID, "method", order.PaymentMethod)
	return order, nil
}

// PlaceCashOnDelivery runs the same enrichment and persistence without any
// gateway interaction.
func (s *Service) PlaceCashOnDelivery(ctx context.Context, userID string, items []domain.CartItem, totalAmount int64) (*domain.Order, error) {
	if userID == "" || totalAmount <= 0 {
		return nil, ErrInvalidAmount
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	user, enriched, err := s.enrich(ctx, userID, items)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:        user.ID,
		UserName:      user.Name,
		Items:         enriched,
		TotalAmount:   totalAmount,
		PaymentMethod: domain.PaymentMethodCOD,
		Status:        domain.OrderStatusPending,
	}

	if err := s.orders.CreateAndClearCart(ctx, order); err != nil {
		return nil, fmt.Errorf("save order: %w", err)
	}

	s.publishCreated(ctx, user, order)

	s.logger.Info("COD order placed", "order_id", order.ID, "user_id", user.ID)
	return order, nil
}

// enrich replaces client-supplied display fields with the current product and
// user records, so a client cannot fabricate prices. Lines whose product no
// longer exists are dropped.
func (s *Service) enrich(ctx context.Context, userID string, items []domain.CartItem) (*domain.User, []domain.OrderItem, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return nil, nil, ErrUserNotFound
	}

	enriched := make([]domain.OrderItem, 0, len(items))
	for _, item := range items {
		product, err := s.products.GetByID(ctx, item.ProductID)
		if err != nil {
			return nil, nil, fmt.Errorf("load product %s: %w", item.ProductID, err)
		}
		if product == nil {
			s.logger.Warn("dropping cart line, product gone", "product_id", item.ProductID, "user_id", userID)
			continue
		}

		image := ""
		if len(product.Images) > 0 {
			image = product.Images[0].URL
		}

		enriched = append(enriched, domain.OrderItem{
			ProductID:     product.ID,
			Name:          product.Name,
			Price:         product.Price,
			DiscountPrice: product.DiscountPrice,
			Image:         image,
			Quantity:      item.Quantity,
		})
	}

	if len(enriched) == 0 {
		return nil, nil, ErrNoValidItems
	}

	return user, enriched, nil
}

func (s *Service) publishCreated(ctx context.Context, user *domain.User, order *domain.Order) {
	if s.publisher == nil {
		return
	}

	event := domain.OrderCreatedEvent{
		OrderID:       order.ID,
		UserID:        user.ID,
		UserEmail:     user.Email,
		UserName:      user.Name,
		Items:         order.Items,
		TotalAmount:   order.TotalAmount,
		PaymentMethod: order.PaymentMethod,
		Timestamp:     time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, order.ID, event); err != nil {
		s.logger.Error("failed to publish order created event", "error", err, "order_id", order.ID)
	}
}
