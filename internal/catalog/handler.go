package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/greenbasket/greenbasket/internal/domain"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)

	page, err := h.repo.List(r.Context(), f)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, page)
}

// HandleListByCategory is the path-parameter variant of the listing.
func (h *Handler) HandleListByCategory(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)
	f.CategorySlug = r.PathValue("slug")

	page, err := h.repo.List(r.Context(), f)
	if err != nil {
		h.logger.Error("failed to list products by category", "error", err, "category", f.CategorySlug)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, page)
}

func filterFromQuery(r *http.Request) Filter {
	q := r.URL.Query()

	f := Filter{
		Search:       q.Get("search"),
		CategorySlug: q.Get("category"),
		Type:         q.Get("type"),
		SortBy:       q.Get("sortBy"),
		Order:        q.Get("order"),
	}

	f.Page, _ = strconv.Atoi(q.Get("page"))
	f.Limit, _ = strconv.Atoi(q.Get("limit"))

	if v, err := strconv.ParseInt(q.Get("minPrice"), 10, 64); err == nil {
		f.MinPrice = &v
	}
	if v, err := strconv.ParseInt(q.Get("maxPrice"), 10, 64); err == nil {
		f.MaxPrice = &v
	}

	return f
}

func (h *Handler) HandleGetBySlug(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	product, err := h.repo.GetBySlug(r.Context(), slug)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "slug", slug)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get product", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if product == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "search query is required")
		return
	}

	products, err := h.repo.Search(r.Context(), q)
	if err != nil {
		h.logger.Error("failed to search products", "error", err, "query", q)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handler) HandleFeatured(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.Featured(r.Context(), 8)
	if err != nil {
		h.logger.Error("failed to get featured products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleBulk(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.Bulk(r.Context())
	if err != nil {
		h.logger.Error("failed to get bulk products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleSimilar(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 {
		limit = 8
	}

	products, err := h.repo.Similar(r.Context(), slug, limit)
	if err != nil {
		h.logger.Error("failed to get similar products", "error", err, "slug", slug)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if products == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

type productRequest struct {
	Name          string                `json:"name"`
	Slug          string                `json:"slug"`
	Description   string                `json:"description"`
	Type          domain.ProductType    `json:"type"`
	Categories    []string              `json:"categories"` // category names
	Tags          []string              `json:"tags"`
	Price         int64                 `json:"price"`
	DiscountPrice int64                 `json:"discount_price"`
	Quantity      int                   `json:"quantity"`
	Images        []domain.ProductImage `json:"images"`
	Rating        float64               `json:"rating"`
	InStock       bool                  `json:"in_stock"`
	Featured      bool                  `json:"featured"`
	Bulk          bool                  `json:"bulk"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" || req.Description == "" || req.Type == "" {
		h.writeError(w, http.StatusBadRequest, "name, description and type are required")
		return
	}
	if !domain.ValidProductType(req.Type) {
		h.writeError(w, http.StatusBadRequest, "invalid product type")
		return
	}
	if req.Price < 0 || req.DiscountPrice < 0 {
		h.writeError(w, http.StatusBadRequest, "price must not be negative")
		return
	}
	if req.Rating < 0 || req.Rating > 5 {
		h.writeError(w, http.StatusBadRequest, "rating must be between 0 and 5")
		return
	}
	if req.Quantity < 0 {
		h.writeError(w, http.StatusBadRequest, "quantity must not be negative")
		return
	}

	categoryIDs, err := h.resolveCategories(r, req.Categories)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name)
	} else {
		slug = strings.ToLower(slug)
	}

	product := &domain.Product{
		Name:          strings.TrimSpace(req.Name),
		Slug:          slug,
		Description:   strings.TrimSpace(req.Description),
		Type:          req.Type,
		CategoryIDs:   categoryIDs,
		Tags:          req.Tags,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Quantity:      req.Quantity,
		Images:        req.Images,
		Rating:        req.Rating,
		InStock:       req.InStock,
		Featured:      req.Featured,
		Bulk:          req.Bulk,
	}

	if err := h.repo.Create(r.Context(), product); err != nil {
		if errors.Is(err, ErrSlugTaken) {
			h.writeError(w, http.StatusBadRequest, "product with this slug already exists")
			return
		}
		h.logger.Error("failed to create product", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("product created", "product_id", product.ID, "slug", product.Slug)
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) resolveCategories(r *http.Request, names []string) ([]string, error) {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		category, err := h.repo.GetCategoryByName(r.Context(), name)
		if err != nil {
			return nil, errors.New("failed to resolve categories")
		}
		if category == nil {
			return nil, errors.New("category '" + name + "' does not exist")
		}
		ids = append(ids, category.ID)
	}
	return ids, nil
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Type != "" && !domain.ValidProductType(req.Type) {
		h.writeError(w, http.StatusBadRequest, "invalid product type")
		return
	}

	categoryIDs, err := h.resolveCategories(r, req.Categories)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	product := &domain.Product{
		ID:            id,
		Name:          req.Name,
		Slug:          strings.ToLower(req.Slug),
		Description:   req.Description,
		Type:          req.Type,
		CategoryIDs:   categoryIDs,
		Tags:          req.Tags,
		Price:         req.Price,
		DiscountPrice: req.DiscountPrice,
		Quantity:      req.Quantity,
		Images:        req.Images,
		Rating:        req.Rating,
		InStock:       req.InStock,
		Featured:      req.Featured,
		Bulk:          req.Bulk,
	}

	updated, err := h.repo.Update(r.Context(), product)
	if err != nil {
		if errors.Is(err, ErrSlugTaken) {
			h.writeError(w, http.StatusBadRequest, "product with this slug already exists")
			return
		}
		h.logger.Error("failed to update product", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if updated == nil {
		h.writeError(w, http.StatusNotFound, "product not found")
		return
	}

	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete product", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted successfully"})
}

type categoryRequest struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

func (h *Handler) HandleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "category name is required")
		return
	}
	if req.Image == "" {
		h.writeError(w, http.StatusBadRequest, "category image is required")
		return
	}

	category := &domain.Category{
		Name:  req.Name,
		Slug:  Slugify(req.Name),
		Image: req.Image,
	}

	if err := h.repo.CreateCategory(r.Context(), category); err != nil {
		if errors.Is(err, ErrCategoryExists) {
			h.writeError(w, http.StatusBadRequest, "category with this name or slug already exists")
			return
		}
		h.logger.Error("failed to create category", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("category created", "category_id", category.ID, "slug", category.Slug)
	h.writeJSON(w, http.StatusCreated, category)
}

func (h *Handler) HandleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.ListCategories(r.Context())
	if err != nil {
		h.logger.Error("failed to list categories", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, categories)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
