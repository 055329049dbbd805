package checkout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/greenbasket/greenbasket/internal/domain"
)

type Handler struct {
	service *Service
	logger  *slog.Logger
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

type createIntentRequest struct {
	Amount int64 `json:"amount"`
}

type createIntentResponse struct {
	Success  bool   `json:"success"`
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (h *Handler) HandleCreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	intent, err := h.service.CreatePaymentIntent(r.Context(), req.Amount)
	if err != nil {
		if errors.Is(err, ErrInvalidAmount) {
			h.writeError(w, http.StatusBadRequest, "invalid amount")
			return
		}
		h.logger.Error("failed to create payment intent", "error", err)
		h.writeError(w, http.StatusInternalServerError, "server error in order creation")
		return
	}

	h.writeJSON(w, http.StatusOK, createIntentResponse{
		Success:  true,
		OrderID:  intent.IntentID,
		Amount:   intent.Amount,
		Currency: intent.Currency,
	})
}

type paymentData struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewaySignature string `json:"gateway_signature"`
}

type verifyRequest struct {
	UserID        string               `json:"user_id"`
	PaymentData   paymentData          `json:"payment_data"`
	Amount        int64                `json:"amount"`
	CartItems     []domain.CartItem    `json:"cart_items"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
}

func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.VerifyAndReconcile(r.Context(), VerifyInput{
		UserID:           req.UserID,
		GatewayOrderID:   req.PaymentData.GatewayOrderID,
		GatewayPaymentID: req.PaymentData.GatewayPaymentID,
		GatewaySignature: req.PaymentData.GatewaySignature,
		Amount:           req.Amount,
		Items:            req.CartItems,
		Method:           req.PaymentMethod,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyCart):
			h.writeError(w, http.StatusBadRequest, "cart items required")
		case errors.Is(err, ErrMissingPaymentDetails):
			h.writeError(w, http.StatusBadRequest, "missing payment details")
		case errors.Is(err, ErrSignatureMismatch):
			h.writeError(w, http.StatusBadRequest, "signature mismatch")
		case errors.Is(err, ErrNoValidItems):
			h.writeError(w, http.StatusBadRequest, "invalid cart items")
		case errors.Is(err, ErrUserNotFound):
			h.writeError(w, http.StatusNotFound, "user not found")
		default:
			h.logger.Error("failed to verify payment", "error", err, "user_id", req.UserID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"message": "order saved successfully",
		"order":   order,
	})
}

type codRequest struct {
	UserID      string            `json:"user_id"`
	CartItems   []domain.CartItem `json:"cart_items"`
	TotalAmount int64             `json:"total_amount"`
}

func (h *Handler) HandlePlaceCOD(w http.ResponseWriter, r *http.Request) {
	var req codRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.service.PlaceCashOnDelivery(r.Context(), req.UserID, req.CartItems, req.TotalAmount)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidAmount), errors.Is(err, ErrEmptyCart):
			h.writeError(w, http.StatusBadRequest, "missing required order details")
		case errors.Is(err, ErrNoValidItems):
			h.writeError(w, http.StatusBadRequest, "invalid cart items")
		case errors.Is(err, ErrUserNotFound):
			h.writeError(w, http.StatusNotFound, "user not found")
		default:
			h.logger.Error("failed to place COD order", "error", err, "user_id", req.UserID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]any{
		"message": "COD order placed successfully",
		"order":   order,
	})
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
