package orders

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/greenbasket/greenbasket/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateAndClearCart persists the order with its snapshotted line items and
// deletes the user's cart in the same transaction, so a completed checkout
// can never leave the order without also emptying the cart.
func (r *Repository) CreateAndClearCart(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()
	order.CreatedAt = time.Now().UTC()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, user_name, total_amount, payment_method,
			gateway_order_id, gateway_payment_id, gateway_signature, status, is_delivered, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, $10)
	`, order.ID, order.UserID, order.UserName, order.TotalAmount, order.PaymentMethod,
		order.GatewayOrderID, order.GatewayPaymentID, order.GatewaySignature, order.Status, order.CreatedAt)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		itemID := uuid.New().String()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, product_id, name, price, discount_price, image, quantity)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, itemID, order.ID, item.ProductID, item.Name, item.Price, item.DiscountPrice, item.Image, item.Quantity)
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, order.UserID)
	if err != nil {
		return err
	}

	return tx.Commit()
}

const orderColumns = `id, user_id, user_name, total_amount, payment_method,
	gateway_order_id, gateway_payment_id, status, is_delivered, delivered_at, created_at`

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}

	err := r.db.QueryRowContext(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE id = $1
	`, id).Scan(
		&order.ID, &order.UserID, &order.UserName, &order.TotalAmount, &order.PaymentMethod,
		&order.GatewayOrderID, &order.GatewayPaymentID, &order.Status,
		&order.IsDelivered, &order.DeliveredAt, &order.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, price, discount_price, image, quantity
		FROM order_items
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Price, &item.DiscountPrice, &item.Image, &item.Quantity); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
}

// ListAll returns every order, optionally only those created after since.
func (r *Repository) ListAll(ctx context.Context, since *time.Time) ([]domain.Order, error) {
	if since != nil {
		return r.list(ctx, `
			SELECT `+orderColumns+`
			FROM orders
			WHERE created_at >= $1
			ORDER BY created_at DESC
		`, *since)
	}
	return r.list(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		ORDER BY created_at DESC
	`)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID, &order.UserID, &order.UserName, &order.TotalAmount, &order.PaymentMethod,
			&order.GatewayOrderID, &order.GatewayPaymentID, &order.Status,
			&order.IsDelivered, &order.DeliveredAt, &order.CreatedAt,
		); err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, name, price, discount_price, image, quantity
		FROM order_items
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Name, &item.Price, &item.DiscountPrice, &item.Image, &item.Quantity); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// MarkDelivered is the only legal mutation of a persisted order.
func (r *Repository) MarkDelivered(ctx context.Context, id string) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET is_delivered = true, delivered_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}
