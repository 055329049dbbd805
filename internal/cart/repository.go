package cart

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/greenbasket/greenbasket/internal/domain"
)

var ErrProductNotFound = errors.New("product not found")

const foreignKeyViolation = "23503"

// Repository stores one cart row per user plus its line items. Writes are
// last-write-wins: concurrent requests for the same user's cart are not
// synchronized, and one of two racing updates can be lost.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Get returns the user's cart, or an empty one when none exists. Absence is
// not an error.
func (r *Repository) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	cart := &domain.Cart{UserID: userID, Items: []domain.CartItem{}}

	err := r.db.QueryRowContext(ctx, `
		SELECT updated_at FROM carts WHERE user_id = $1
	`, userID).Scan(&cart.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return cart, nil
		}
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, quantity
		FROM cart_items
		WHERE user_id = $1
		ORDER BY added_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ProductID, &item.Quantity); err != nil {
			return nil, err
		}
		cart.Items = append(cart.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return cart, nil
}

// AddItem creates the cart lazily and either appends a line or increments the
// quantity of an existing one. The product must still exist.
func (r *Repository) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO carts (user_id, updated_at) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = $2
	`, userID, now)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cart_items (user_id, product_id, quantity, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
	`, userID, productID, quantity, now)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == foreignKeyViolation {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.Get(ctx, userID)
}

// SetItemQuantity overwrites one line's quantity. A missing line is a no-op.
func (r *Repository) SetItemQuantity(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	_, err := r.db.ExecContext(ctx, `
		UPDATE cart_items SET quantity = $1
		WHERE user_id = $2 AND product_id = $3
	`, quantity, userID, productID)
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, userID)
}

func (r *Repository) RemoveItem(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items
		WHERE user_id = $1 AND product_id = $2
	`, userID, productID)
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, userID)
}

// Clear drops the cart row; line items go with it. Checkout does not call
// this: the order repository deletes the cart inside the order transaction.
func (r *Repository) Clear(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM carts WHERE user_id = $1`, userID)
	return err
}
