package payment

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/greenbasket/greenbasket/internal/domain"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create writes the payment record. Payments are immutable after this.
func (r *Repository) Create(ctx context.Context, p *domain.Payment) error {
	p.ID = uuid.New().String()
	p.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO payments (id, user_id, gateway_order_id, payment_id, amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.UserID, p.GatewayOrderID, p.PaymentID, p.Amount, p.Status, p.CreatedAt)
	return err
}

func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, gateway_order_id, payment_id, amount, status, created_at
		FROM payments
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	payments := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.GatewayOrderID, &p.PaymentID, &p.Amount, &p.Status, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return payments, nil
}
