package reviews

import (
	"encoding/json"
	"log/slog"
	"net/http"

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

type createReviewRequest struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Rating    int    `json:"rating"`
	Title     string `json:"title"`
	Comment   string `json:"comment"`
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" || req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "user_id and product_id are required")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		h.writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	review := &domain.Review{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
		Verified:  true,
	}
	if err := h.repo.Create(r.Context(), review); err != nil {
		h.logger.Error("failed to create review", "error", err, "product_id", req.ProductID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusCreated, review)
}

type productReviewsResponse struct {
	Reviews       []domain.Review `json:"reviews"`
	TotalReviews  int             `json:"total_reviews"`
	AverageRating float64         `json:"average_rating"`
	Breakdown     map[int]int     `json:"rating_breakdown"`
}

// HandleListForProduct returns the product's reviews together with the
// aggregate rating summary the product page renders.
func (h *Handler) HandleListForProduct(w http.ResponseWriter, r *http.Request) {
	productID := r.PathValue("productId")

	reviews, err := h.repo.ListForProduct(r.Context(), productID)
	if err != nil {
		h.logger.Error("failed to list reviews", "error", err, "product_id", productID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	breakdown := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	sum := 0
	for _, review := range reviews {
		sum += review.Rating
		if review.Rating >= 1 && review.Rating <= 5 {
			breakdown[review.Rating]++
		}
	}

	average := 0.0
	if len(reviews) > 0 {
		average = float64(sum) / float64(len(reviews))
	}

	h.writeJSON(w, http.StatusOK, productReviewsResponse{
		Reviews:       reviews,
		TotalReviews:  len(reviews),
		AverageRating: average,
		Breakdown:     breakdown,
	})
}

type updateReviewRequest struct {
	Rating  int    `json:"rating"`
	Title   string `json:"title"`
	Comment string `json:"comment"`
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		h.writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	review, err := h.repo.Update(r.Context(), id, req.Rating, req.Title, req.Comment)
	if err != nil {
		h.logger.Error("failed to update review", "error", err, "review_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if review == nil {
		h.writeError(w, http.StatusNotFound, "review not found")
		return
	}

	h.writeJSON(w, http.StatusOK, review)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete review", "error", err, "review_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "review deleted"})
}

type testimonialRequest struct {
	Name     string `json:"name"`
	Comment  string `json:"comment"`
	Rating   int    `json:"rating"`
	Image    string `json:"image"`
	Featured bool   `json:"featured"`
}

func (h *Handler) HandleCreateTestimonial(w http.ResponseWriter, r *http.Request) {
	var req testimonialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Comment == "" {
		h.writeError(w, http.StatusBadRequest, "name and comment are required")
		return
	}

	t := &domain.Testimonial{
		Name:     req.Name,
		Comment:  req.Comment,
		Rating:   req.Rating,
		Image:    req.Image,
		Featured: req.Featured,
	}
	if err := h.repo.CreateTestimonial(r.Context(), t); err != nil {
		h.logger.Error("failed to create testimonial", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) HandleFeaturedTestimonials(w http.ResponseWriter, r *http.Request) {
	testimonials, err := h.repo.FeaturedTestimonials(r.Context(), 6)
	if err != nil {
		h.logger.Error("failed to list featured testimonials", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"testimonials": testimonials})
}

func (h *Handler) HandleListTestimonials(w http.ResponseWriter, r *http.Request) {
	testimonials, err := h.repo.ListTestimonials(r.Context())
	if err != nil {
		h.logger.Error("failed to list testimonials", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{"testimonials": testimonials})
}

func (h *Handler) HandleUpdateTestimonial(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req testimonialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.repo.UpdateTestimonial(r.Context(), &domain.Testimonial{
		ID:       id,
		Name:     req.Name,
		Comment:  req.Comment,
		Rating:   req.Rating,
		Image:    req.Image,
		Featured: req.Featured,
	})
	if err != nil {
		h.logger.Error("failed to update testimonial", "error", err, "testimonial_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if updated == nil {
		h.writeError(w, http.StatusNotFound, "testimonial not found")
		return
	}

	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleDeleteTestimonial(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.repo.DeleteTestimonial(r.Context(), id); err != nil {
		h.logger.Error("failed to delete testimonial", "error", err, "testimonial_id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"message": "testimonial deleted"})
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
