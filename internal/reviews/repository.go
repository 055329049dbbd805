package reviews

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

func (r *Repository) Create(ctx context.Context, review *domain.Review) error {
	review.ID = uuid.New().String()
	review.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, user_id, product_id, rating, title, comment, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, review.ID, review.UserID, review.ProductID, review.Rating, review.Title, review.Comment, review.Verified, review.CreatedAt)
	return err
}

// ListForProduct returns the product's reviews with the reviewer name joined
// in, newest first.
func (r *Repository) ListForProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT r.id, r.user_id, COALESCE(u.name, ''), r.product_id, r.rating, r.title, r.comment, r.verified, r.created_at
		FROM reviews r
		LEFT JOIN users u ON u.id = r.user_id
		WHERE r.product_id = $1
		ORDER BY r.created_at DESC
	`, productID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	reviews := []domain.Review{}
	for rows.Next() {
		var review domain.Review
		if err := rows.Scan(
			&review.ID, &review.UserID, &review.UserName, &review.ProductID,
			&review.Rating, &review.Title, &review.Comment, &review.Verified, &review.CreatedAt,
		); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reviews, nil
}

func (r *Repository) Update(ctx context.Context, id string, rating int, title, comment string) (*domain.Review, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE reviews SET rating = $1, title = $2, comment = $3
		WHERE id = $4
	`, rating, title, comment, id)
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

	review := &domain.Review{}
	err = r.db.QueryRowContext(ctx, `
		SELECT id, user_id, product_id, rating, title, comment, verified, created_at
		FROM reviews
		WHERE id = $1
	`, id).Scan(
		&review.ID, &review.UserID, &review.ProductID, &review.Rating,
		&review.Title, &review.Comment, &review.Verified, &review.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return review, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	return err
}

func (r *Repository) CreateTestimonial(ctx context.Context, t *domain.Testimonial) error {
	t.ID = uuid.New().String()
	t.CreatedAt = time.Now().UTC()
	if t.Rating == 0 {
		t.Rating = 5
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO testimonials (id, name, comment, rating, image, featured, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, t.ID, t.Name, t.Comment, t.Rating, t.Image, t.Featured, t.CreatedAt)
	return err
}

func (r *Repository) FeaturedTestimonials(ctx context.Context, limit int) ([]domain.Testimonial, error) {
	return r.queryTestimonials(ctx, `
		SELECT id, name, comment, rating, image, featured, created_at
		FROM testimonials
		WHERE featured
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
}

func (r *Repository) ListTestimonials(ctx context.Context) ([]domain.Testimonial, error) {
	return r.queryTestimonials(ctx, `
		SELECT id, name, comment, rating, image, featured, created_at
		FROM testimonials
		ORDER BY created_at DESC
	`)
}

func (r *Repository) queryTestimonials(ctx context.Context, query string, args ...any) ([]domain.Testimonial, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	testimonials := []domain.Testimonial{}
	for rows.Next() {
		var t domain.Testimonial
		if err := rows.Scan(&t.ID, &t.Name, &t.Comment, &t.Rating, &t.Image, &t.Featured, &t.CreatedAt); err != nil {
			return nil, err
		}
		testimonials = append(testimonials, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return testimonials, nil
}

func (r *Repository) UpdateTestimonial(ctx context.Context, t *domain.Testimonial) (*domain.Testimonial, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE testimonials SET name = $1, comment = $2, rating = $3, image = $4, featured = $5
		WHERE id = $6
	`, t.Name, t.Comment, t.Rating, t.Image, t.Featured, t.ID)
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

	updated := &domain.Testimonial{}
	err = r.db.QueryRowContext(ctx, `
		SELECT id, name, comment, rating, image, featured, created_at
		FROM testimonials
		WHERE id = $1
	`, t.ID).Scan(&updated.ID, &updated.Name, &updated.Comment, &updated.Rating, &updated.Image, &updated.Featured, &updated.CreatedAt)
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *Repository) DeleteTestimonial(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
	return err
}
