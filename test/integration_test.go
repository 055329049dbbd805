//go:build integration

package test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/greenbasket/greenbasket/internal/cart"
	"github.com/greenbasket/greenbasket/internal/catalog"
	"github.com/greenbasket/greenbasket/internal/checkout"
	"github.com/greenbasket/greenbasket/internal/domain"
	"github.com/greenbasket/greenbasket/internal/email"
	"github.com/greenbasket/greenbasket/internal/identity"
	"github.com/greenbasket/greenbasket/internal/messaging"
	"github.com/greenbasket/greenbasket/internal/orders"
	"github.com/greenbasket/greenbasket/internal/payment"
	"github.com/greenbasket/greenbasket/internal/worker"
)

const gatewaySecret = "integration-key-secret"

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

// staticGateway satisfies the intent creator without a running gateway; the
// reconciliation path under test never mints intents.
type staticGateway struct{}

func (staticGateway) CreateIntent(_ context.Context, amountMinor int64, currency string) (*payment.Intent, error) {
	return &payment.Intent{IntentID: "order_static", Amount: amountMinor, Currency: currency}, nil
}

func seedUser(ctx context.Context, t *testing.T, users *identity.UserRepository) *domain.User {
	t.Helper()

	user := &domain.User{
		Name:         "Asha Verma",
		Email:        "asha@example.com",
		PasswordHash: "not-checked-here",
		Role:         domain.RoleUser,
	}
	if err := users.Create(ctx, user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedProduct(ctx context.Context, t *testing.T, products *catalog.Repository, name string, price int64) *domain.Product {
	t.Helper()

	p := &domain.Product{
		Name:        name,
		Slug:        catalog.Slugify(name),
		Description: "integration seed",
		Type:        domain.ProductTypePlants,
		Price:       price,
		Quantity:    10,
		Images:      []domain.ProductImage{{URL: "https://img.example.com/" + catalog.Slugify(name) + ".jpg"}},
		InStock:     true,
	}
	if err := products.Create(ctx, p); err != nil {
		t.Fatalf("failed to seed product %s: %v", name, err)
	}
	return p
}

func TestCheckoutReconciliation(t *testing.T) {
	ctx := context.Background()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	users := identity.NewUserRepository(db)
	products := catalog.NewRepository(db)
	carts := cart.NewRepository(db)
	orderRepo := orders.NewRepository(db)
	payments := payment.NewRepository(db)

	user := seedUser(ctx, t, users)
	monstera := seedProduct(ctx, t, products, "Monstera Deliciosa", 500)
	pot := seedProduct(ctx, t, products, "Terracotta Pot", 120)

	// Adding the same product twice increments the existing line.
	if _, err := carts.AddItem(ctx, user.ID, monstera.ID, 1); err != nil {
		t.Fatalf("failed to add item: %v", err)
	}
	if _, err := carts.AddItem(ctx, user.ID, monstera.ID, 1); err != nil {
		t.Fatalf("failed to add item again: %v", err)
	}
	if _, err := carts.AddItem(ctx, user.ID, pot.ID, 3); err != nil {
		t.Fatalf("failed to add second product: %v", err)
	}

	basket, err := carts.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to load cart: %v", err)
	}
	if len(basket.Items) != 2 {
		t.Fatalf("expected 2 cart lines, got %d", len(basket.Items))
	}
	if basket.Items[0].ProductID != monstera.ID || basket.Items[0].Quantity != 2 {
		t.Fatalf("expected monstera quantity 2, got %+v", basket.Items[0])
	}

	service := checkout.NewService(products, users, orderRepo, payments, staticGateway{}, nil, gatewaySecret, "INR", testLogger)

	total := monstera.Price*2 + pot.Price*3
	order, err := service.VerifyAndReconcile(ctx, checkout.VerifyInput{
		UserID:           user.ID,
		GatewayOrderID:   "order_int_1",
		GatewayPaymentID: "pay_int_1",
		GatewaySignature: checkout.Sign(gatewaySecret, "order_int_1", "pay_int_1"),
		Amount:           total,
		Items:            basket.Items,
		Method:           domain.PaymentMethodOnline,
	})
	if err != nil {
		t.Fatalf("failed to reconcile order: %v", err)
	}

	persisted, err := orderRepo.GetByID(ctx, order.ID)
	if err != nil {
		t.Fatalf("failed to load order: %v", err)
	}
	if persisted == nil {
		t.Fatal("expected persisted order")
	}
	if persisted.TotalAmount != total {
		t.Fatalf("expected total %d, got %d", total, persisted.TotalAmount)
	}
	if persisted.Status != domain.OrderStatusCompleted {
		t.Fatalf("expected completed status, got %s", persisted.Status)
	}
	if persisted.UserName != user.Name {
		t.Fatalf("expected enriched user name %q, got %q", user.Name, persisted.UserName)
	}
	if len(persisted.Items) != 2 {
		t.Fatalf("expected 2 order items, got %d", len(persisted.Items))
	}
	for _, item := range persisted.Items {
		if item.ProductID == monstera.ID && item.Price != monstera.Price {
			t.Fatalf("expected enriched price %d, got %d", monstera.Price, item.Price)
		}
	}

	// The order transaction also emptied the cart.
	basket, err = carts.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to reload cart: %v", err)
	}
	if len(basket.Items) != 0 {
		t.Fatalf("expected empty cart after checkout, got %d lines", len(basket.Items))
	}

	paid, err := payments.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list payments: %v", err)
	}
	if len(paid) != 1 || paid[0].Status != domain.PaymentStatusSuccess {
		t.Fatalf("expected one successful payment, got %+v", paid)
	}
}

func TestCheckoutRejectsTamperedSignature(t *testing.T) {
	ctx := context.Background()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	users := identity.NewUserRepository(db)
	products := catalog.NewRepository(db)
	carts := cart.NewRepository(db)
	orderRepo := orders.NewRepository(db)
	payments := payment.NewRepository(db)

	user := seedUser(ctx, t, users)
	fern := seedProduct(ctx, t, products, "Boston Fern", 250)

	if _, err := carts.AddItem(ctx, user.ID, fern.ID, 1); err != nil {
		t.Fatalf("failed to add item: %v", err)
	}

	service := checkout.NewService(products, users, orderRepo, payments, staticGateway{}, nil, gatewaySecret, "INR", testLogger)

	_, err = service.VerifyAndReconcile(ctx, checkout.VerifyInput{
		UserID:           user.ID,
		GatewayOrderID:   "order_int_2",
		GatewayPaymentID: "pay_int_2",
		GatewaySignature: checkout.Sign("wrong-secret", "order_int_2", "pay_int_2"),
		Amount:           250,
		Items:            []domain.CartItem{{ProductID: fern.ID, Quantity: 1}},
		Method:           domain.PaymentMethodOnline,
	})
	if !errors.Is(err, checkout.ErrSignatureMismatch) {
		t.Fatalf("expected signature mismatch, got %v", err)
	}

	placed, err := orderRepo.ListByUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list orders: %v", err)
	}
	if len(placed) != 0 {
		t.Fatalf("expected no orders after rejected verification, got %d", len(placed))
	}

	// Cart survives a failed checkout.
	basket, err := carts.Get(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to reload cart: %v", err)
	}
	if len(basket.Items) != 1 {
		t.Fatalf("expected cart to keep its line, got %d", len(basket.Items))
	}
}

func TestCartRejectsUnknownProduct(t *testing.T) {
	ctx := context.Background()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db, err := OpenDB(pg.ConnStr)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()

	users := identity.NewUserRepository(db)
	carts := cart.NewRepository(db)

	user := seedUser(ctx, t, users)

	_, err = carts.AddItem(ctx, user.ID, "11111111-1111-1111-1111-111111111111", 1)
	if !errors.Is(err, cart.ErrProductNotFound) {
		t.Fatalf("expected product not found, got %v", err)
	}
}

type emailCapture struct {
	mu       sync.Mutex
	received []capturedEmail
}

type capturedEmail struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

func (c *emailCapture) handler(w http.ResponseWriter, r *http.Request) {
	var msg capturedEmail
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	c.mu.Lock()
	c.received = append(c.received, msg)
	c.mu.Unlock()

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"sent"}`))
}

func (c *emailCapture) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.received)
}

func (c *emailCapture) last() capturedEmail {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.received[len(c.received)-1]
}

func TestOrderEventReachesNotificationWorker(t *testing.T) {
	ctx := context.Background()

	brokers, cleanupKafka := SetupKafka(ctx, t)
	defer cleanupKafka()

	capture := &emailCapture{}
	emailSrv := httptest.NewServer(http.HandlerFunc(capture.handler))
	defer emailSrv.Close()

	producer := messaging.NewProducer(brokers, messaging.TopicOrderCreated)
	defer func() { _ = producer.Close() }()

	event := domain.OrderCreatedEvent{
		OrderID:       "order-int-42",
		UserID:        "user-int-1",
		UserEmail:     "asha@example.com",
		UserName:      "Asha Verma",
		Items:         []domain.OrderItem{{ProductID: "p1", Name: "Monstera Deliciosa", Price: 500, Quantity: 2}},
		TotalAmount:   1000,
		PaymentMethod: domain.PaymentMethodOnline,
		Timestamp:     time.Now().UTC(),
	}
	if err := producer.Publish(ctx, event.OrderID, event); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	consumer := messaging.NewConsumer(brokers, messaging.TopicOrderCreated, "notification-worker-test",
		messaging.WithStartOffset(kafka.FirstOffset))
	defer func() { _ = consumer.Close() }()

	handler := worker.NewNotificationHandler(email.NewClient(emailSrv.URL, emailSrv.Client()), testLogger)

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- consumer.Consume(consumeCtx, func(ctx context.Context, payload []byte) error {
			err := handler.Handle(ctx, payload)
			cancel()
			return err
		})
	}()

	select {
	case err := <-done:
		if err != nil && !errors.Is(err, context.Canceled) {
			t.Fatalf("consumer failed: %v", err)
		}
	case <-time.After(60 * time.Second):
		t.Fatal("timed out waiting for the worker to process the event")
	}

	if capture.count() != 1 {
		t.Fatalf("expected 1 confirmation email, got %d", capture.count())
	}

	sent := capture.last()
	if sent.To != event.UserEmail {
		t.Fatalf("expected email to %s, got %s", event.UserEmail, sent.To)
	}
	if sent.Subject != "Order Confirmation: order-int-42" {
		t.Fatalf("unexpected subject %q", sent.Subject)
	}
}
