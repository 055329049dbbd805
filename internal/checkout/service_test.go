package checkout

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbasket/greenbasket/internal/domain"
	"github.com/greenbasket/greenbasket/internal/payment"
)

type fakeProducts struct {
	products map[string]*domain.Product
}

func (f *fakeProducts) GetByID(_ context.Context, id string) (*domain.Product, error) {
	return f.products[id], nil
}

type fakeUsers struct {
	users map[string]*domain.User
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	return f.users[id], nil
}

type fakeOrderStore struct {
	orders []*domain.Order
	err    error
}

func (f *fakeOrderStore) CreateAndClearCart(_ context.Context, order *domain.Order) error {
	if f.err != nil {
		return f.err
	}
	order.ID = "order-1"
	f.orders = append(f.orders, order)
	return nil
}

type fakePaymentStore struct {
	payments []*domain.Payment
}

func (f *fakePaymentStore) Create(_ context.Context, p *domain.Payment) error {
	f.payments = append(f.payments, p)
	return nil
}

type fakeGateway struct {
	amounts []int64
	err     error
}

func (f *fakeGateway) CreateIntent(_ context.Context, amountMinor int64, currency string) (*payment.Intent, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.amounts = append(f.amounts, amountMinor)
	return &payment.Intent{IntentID: "order_abc", Amount: amountMinor, Currency: currency}, nil
}

type fakePublisher struct {
	events []any
}

func (f *fakePublisher) Publish(_ context.Context, _ string, event any) error {
	f.events = append(f.events, event)
	return nil
}

const testSecret = "test-key-secret"

type fixture struct {
	service   *Service
	orders    *fakeOrderStore
	payments  *fakePaymentStore
	gateway   *fakeGateway
	publisher *fakePublisher
}

func newFixture() *fixture {
	f := &fixture{
		orders:    &fakeOrderStore{},
		payments:  &fakePaymentStore{},
		gateway:   &fakeGateway{},
		publisher: &fakePublisher{},
	}

	products := &fakeProducts{products: map[string]*domain.Product{
		"p1": {
			ID:     "p1",
			Name:   "Monstera Deliciosa",
			Price:  500,
			Images: []domain.ProductImage{{URL: "https://img.example/p1.jpg"}},
		},
		"p2": {ID: "p2", Name: "Clay Pot", Price: 120},
	}}
	users := &fakeUsers{users: map[string]*domain.User{
		"u1": {ID: "u1", Name: "Asha", Email: "asha@example.com"},
	}}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.service = NewService(products, users, f.orders, f.payments, f.gateway, f.publisher, testSecret, "INR", logger)
	return f
}

func TestCreatePaymentIntent(t *testing.T) {
	f := newFixture()

	intent, err := f.service.CreatePaymentIntent(context.Background(), 500)
	require.NoError(t, err)

	assert.Equal(t, "order_abc", intent.IntentID)
	assert.Equal(t, int64(50000), intent.Amount, "gateway must receive minor units")
	assert.Equal(t, "INR", intent.Currency)
}

func TestCreatePaymentIntentInvalidAmount(t *testing.T) {
	f := newFixture()

	for _, amount := range []int64{0, -1} {
		_, err := f.service.CreatePaymentIntent(context.Background(), amount)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.Empty(t, f.gateway.amounts)
}

func TestCreatePaymentIntentGatewayFailure(t *testing.T) {
	f := newFixture()
	f.gateway.err = errors.New("gateway unavailable")

	_, err := f.service.CreatePaymentIntent(context.Background(), 500)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidAmount)
}

func onlineInput() VerifyInput {
	return VerifyInput{
		UserID:           "u1",
		GatewayOrderID:   "order_abc",
		GatewayPaymentID: "pay_xyz",
		GatewaySignature: Sign(testSecret, "order_abc", "pay_xyz"),
		Amount:           1000,
		Items:            []domain.CartItem{{ProductID: "p1", Quantity: 2}},
		Method:           domain.PaymentMethodOnline,
	}
}

func TestVerifyAndReconcileSuccess(t *testing.T) {
	f := newFixture()

	order, err := f.service.VerifyAndReconcile(context.Background(), onlineInput())
	require.NoError(t, err)

	require.Len(t, f.orders.orders, 1)
	assert.Equal(t, domain.OrderStatusCompleted, order.Status)
	assert.Equal(t, "u1", order.UserID)
	assert.Equal(t, "Asha", order.UserName)
	assert.Equal(t, int64(1000), order.TotalAmount)
	assert.Equal(t, "order_abc", order.GatewayOrderID)
	assert.Equal(t, "pay_xyz", order.GatewayPaymentID)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "p1", item.ProductID)
	assert.Equal(t, "Monstera Deliciosa", item.Name)
	assert.Equal(t, int64(500), item.Price, "price must come from the product record")
	assert.Equal(t, "https://img.example/p1.jpg", item.Image)
	assert.Equal(t, 2, item.Quantity)

	require.Len(t, f.payments.payments, 1)
	assert.Equal(t, domain.PaymentStatusSuccess, f.payments.payments[0].Status)
	assert.Equal(t, "pay_xyz", f.payments.payments[0].PaymentID)

	require.Len(t, f.publisher.events, 1)
	event, ok := f.publisher.events[0].(domain.OrderCreatedEvent)
	require.True(t, ok)
	assert.Equal(t, order.ID, event.OrderID)
	assert.Equal(t, "asha@example.com", event.UserEmail)
}

func TestVerifyAndReconcileAlteredSignature(t *testing.T) {
	f := newFixture()

	in := onlineInput()
	in.GatewaySignature = Sign(testSecret, "order_abc", "pay_other")

	_, err := f.service.VerifyAndReconcile(context.Background(), in)
	assert.ErrorIs(t, err, ErrSignatureMismatch)
	assert.Empty(t, f.orders.orders, "no order must be persisted")
	assert.Empty(t, f.payments.payments, "no payment must be persisted")
}

func TestVerifyAndReconcileMissingPaymentDetails(t *testing.T) {
	f := newFixture()

	in := onlineInput()
	in.GatewayPaymentID = ""

	_, err := f.service.VerifyAndReconcile(context.Background(), in)
	assert.ErrorIs(t, err, ErrMissingPaymentDetails)
	assert.Empty(t, f.payments.payments)
}

func TestVerifyAndReconcileEmptyCart(t *testing.T) {
	f := newFixture()

	in := onlineInput()
	in.Items = nil

	_, err := f.service.VerifyAndReconcile(context.Background(), in)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestVerifyAndReconcileDropsMissingProducts(t *testing.T) {
	f := newFixture()

	in := onlineInput()
	in.Items = []domain.CartItem{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "gone", Quantity: 1},
	}

	order, err := f.service.VerifyAndReconcile(context.Background(), in)
	require.NoError(t, err)

	require.Len(t, order.Items, 1)
	assert.Equal(t, "p1", order.Items[0].ProductID)
}

func TestVerifyAndReconcileAllProductsGone(t *testing.T) {
	f := newFixture()

	in := onlineInput()
	in.Items = []domain.CartItem{{ProductID: "gone", Quantity: 1}}

	_, err := f.service.VerifyAndReconcile(context.Background(), in)
	assert.ErrorIs(t, err, ErrNoValidItems)
	assert.Empty(t, f.orders.orders)
}

func TestVerifyAndReconcileUnknownUser(t *testing.T) {
	f := newFixture()

	in := onlineInput()
	in.UserID = "nobody"

	_, err := f.service.VerifyAndReconcile(context.Background(), in)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, f.orders.orders)
}

func TestPlaceCashOnDelivery(t *testing.T) {
	f := newFixture()

	order, err := f.service.PlaceCashOnDelivery(context.Background(), "u1",
		[]domain.CartItem{{ProductID: "p2", Quantity: 3}}, 360)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderStatusPending, order.Status)
	assert.Equal(t, domain.PaymentMethodCOD, order.PaymentMethod)
	assert.Empty(t, order.GatewayOrderID)
	assert.Empty(t, order.GatewaySignature)
	assert.Equal(t, int64(360), order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.Equal(t, int64(120), order.Items[0].Price)

	assert.Empty(t, f.payments.payments, "COD writes no payment row")
	require.Len(t, f.orders.orders, 1)
	assert.Len(t, f.publisher.events, 1)
}

func TestPlaceCashOnDeliveryUnknownUser(t *testing.T) {
	f := newFixture()

	_, err := f.service.PlaceCashOnDelivery(context.Background(), "nobody",
		[]domain.CartItem{{ProductID: "p1", Quantity: 1}}, 500)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, f.orders.orders)
}

func TestPlaceCashOnDeliveryValidation(t *testing.T) {
	f := newFixture()

	_, err := f.service.PlaceCashOnDelivery(context.Background(), "", []domain.CartItem{{ProductID: "p1", Quantity: 1}}, 500)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.service.PlaceCashOnDelivery(context.Background(), "u1", []domain.CartItem{{ProductID: "p1", Quantity: 1}}, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = f.service.PlaceCashOnDelivery(context.Background(), "u1", nil, 500)
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestVerifyAndReconcileWithoutPublisher(t *testing.T) {
	f := newFixture()
	f.service.publisher = nil

	_, err := f.service.VerifyAndReconcile(context.Background(), onlineInput())
	require.NoError(t, err)
	require.Len(t, f.orders.orders, 1)
}
