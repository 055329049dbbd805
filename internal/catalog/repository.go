package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/greenbasket/greenbasket/internal/domain"
)

var (
	ErrSlugTaken      = errors.New("slug already exists")
	ErrCategoryExists = errors.New("category already exists")
)

const uniqueViolation = "23505"

// Filter is the combined list query: any subset of the fields may be set.
type Filter struct {
	Search       string
	CategorySlug string
	Type         string
	MinPrice     *int64
	MaxPrice     *int64
	SortBy       string
	Order        string
	Page         int
	Limit        int
}

// Page is one page of the catalog listing.
type Page struct {
	Products      []domain.Product `json:"products"`
	Page          int              `json:"page"`
	TotalPages    int              `json:"total_pages"`
	TotalProducts int              `json:"total_products"`
}

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const productColumns = `id, name, slug, description, type, category_ids, tags, price,
	discount_price, quantity, images, rating, in_stock, featured, bulk, created_at, updated_at`

// sortColumns whitelists what the listing may order by.
var sortColumns = map[string]string{
	"created_at": "created_at",
	"createdAt":  "created_at",
	"price":      "price",
	"name":       "name",
	"rating":     "rating",
}

func (r *Repository) Create(ctx context.Context, p *domain.Product) error {
	p.ID = uuid.New().String()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt

	images, err := json.Marshal(p.Images)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO products (`+productColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $16)
	`, p.ID, p.Name, p.Slug, p.Description, p.Type, pq.Array(p.CategoryIDs), pq.Array(p.Tags),
		p.Price, p.DiscountPrice, p.Quantity, images, p.Rating, p.InStock, p.Featured, p.Bulk, p.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return ErrSlugTaken
		}
		return err
	}

	return nil
}

func (r *Repository) Update(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return nil, err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, slug = $2, description = $3, type = $4, category_ids = $5, tags = $6,
			price = $7, discount_price = $8, quantity = $9, images = $10, rating = $11,
			in_stock = $12, featured = $13, bulk = $14, updated_at = NOW()
		WHERE id = $15
	`, p.Name, p.Slug, p.Description, p.Type, pq.Array(p.CategoryIDs), pq.Array(p.Tags),
		p.Price, p.DiscountPrice, p.Quantity, images, p.Rating, p.InStock, p.Featured, p.Bulk, p.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, p.ID)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	return r.getOne(ctx, `SELECT `+productColumns+` FROM products WHERE slug = $1`, slug)
}

func (r *Repository) getOne(ctx context.Context, query string, arg any) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx, query, arg)
	p, err := scanProduct(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// List applies the filter, returning one page plus totals. An unknown
// category slug yields an empty page rather than an error.
func (r *Repository) List(ctx context.Context, f Filter) (*Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 10
	}

	var conds []string
	var args []any

	if f.Search != "" {
		args = append(args, "%"+f.Search+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	if f.CategorySlug != "" {
		category, err := r.GetCategoryBySlug(ctx, f.CategorySlug)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return &Page{Products: []domain.Product{}, Page: f.Page}, nil
		}
		args = append(args, category.ID)
		conds = append(conds, fmt.Sprintf("$%d = ANY(category_ids)", len(args)))
	}

	if f.Type != "" {
		args = append(args, f.Type)
		conds = append(conds, fmt.Sprintf("type ILIKE $%d", len(args)))
	}

	if f.MinPrice != nil {
		args = append(args, *f.MinPrice)
		conds = append(conds, fmt.Sprintf("price >= $%d", len(args)))
	}
	if f.MaxPrice != nil {
		args = append(args, *f.MaxPrice)
		conds = append(conds, fmt.Sprintf("price <= $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products"+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	sortCol, ok := sortColumns[f.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	direction := "ASC"
	if f.Order == "desc" {
		direction = "DESC"
	}

	offset := (f.Page - 1) * f.Limit
	args = append(args, f.Limit, offset)
	query := fmt.Sprintf(
		"SELECT %s FROM products%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		productColumns, where, sortCol, direction, len(args)-1, len(args),
	)

	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	totalPages := (total + f.Limit - 1) / f.Limit
	return &Page{
		Products:      products,
		Page:          f.Page,
		TotalPages:    totalPages,
		TotalProducts: total,
	}, nil
}

// Similar returns products sharing at least one category with the product at
// slug, best-rated first, newest breaking ties.
func (r *Repository) Similar(ctx context.Context, slug string, limit int) ([]domain.Product, error) {
	current, err := r.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, nil
	}
	if len(current.CategoryIDs) == 0 {
		return []domain.Product{}, nil
	}

	return r.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE id != $1 AND category_ids && $2
		ORDER BY rating DESC, created_at DESC
		LIMIT $3
	`, current.ID, pq.Array(current.CategoryIDs), limit)
}

func (r *Repository) Featured(ctx context.Context, limit int) ([]domain.Product, error) {
	return r.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE featured
		ORDER BY random()
		LIMIT $1
	`, limit)
}

func (r *Repository) Bulk(ctx context.Context) ([]domain.Product, error) {
	return r.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE bulk
		ORDER BY created_at DESC
	`)
}

func (r *Repository) Search(ctx context.Context, q string) ([]domain.Product, error) {
	return r.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE name ILIKE $1
		ORDER BY name
	`, "%"+q+"%")
}

func (r *Repository) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	var images []byte

	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Description, &p.Type,
		pq.Array(&p.CategoryIDs), pq.Array(&p.Tags),
		&p.Price, &p.DiscountPrice, &p.Quantity, &images, &p.Rating,
		&p.InStock, &p.Featured, &p.Bulk, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(images) > 0 {
		if err := json.Unmarshal(images, &p.Images); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (r *Repository) CreateCategory(ctx context.Context, c *domain.Category) error {
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (id, name, slug, image, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.Name, c.Slug, c.Image, c.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == uniqueViolation {
			return ErrCategoryExists
		}
		return err
	}

	return nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, slug, image, created_at
		FROM categories
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Image, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return categories, nil
}

func (r *Repository) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	c := &domain.Category{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, slug, image, created_at
		FROM categories
		WHERE slug = $1
	`, slug).Scan(&c.ID, &c.Name, &c.Slug, &c.Image, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *Repository) GetCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	c := &domain.Category{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, slug, image, created_at
		FROM categories
		WHERE name = $1
	`, name).Scan(&c.ID, &c.Name, &c.Slug, &c.Image, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}
