package paygate

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/greenbasket/greenbasket/internal/checkout"
)

// Handler simulates a hosted payment gateway. It mints intents, and on
// confirmation signs the order/payment pair with the shared secret so the
// backend can verify the confirmation came from the gateway.
type Handler struct {
	keyID     string
	keySecret string
	logger    *slog.Logger

	mu      sync.Mutex
	intents map[string]intentRecord
}

type intentRecord struct {
	Amount   int64
	Currency string
}

func NewHandler(keyID, keySecret string, logger *slog.Logger) *Handler {
	return &Handler{
		keyID:     keyID,
		keySecret: keySecret,
		logger:    logger,
		intents:   make(map[string]intentRecord),
	}
}

type createIntentRequest struct {
	KeyID    string `json:"key_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type createIntentResponse struct {
	IntentID string `json:"intent_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (h *Handler) HandleCreateIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.KeyID != h.keyID {
		h.writeError(w, http.StatusUnauthorized, "unknown key id")
		return
	}
	if req.Amount <= 0 {
		h.writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	// Simulate processor latency.
	delay := time.Duration(50+rand.Intn(151)) * time.Millisecond
	time.Sleep(delay)

	intentID := "order_" + uuid.New().String()

	h.mu.Lock()
	h.intents[intentID] = intentRecord{Amount: req.Amount, Currency: req.Currency}
	h.mu.Unlock()

	h.logger.Info("intent created", "intent_id", intentID, "amount", req.Amount, "currency", req.Currency)

	h.writeJSON(w, http.StatusCreated, createIntentResponse{
		IntentID: intentID,
		Amount:   req.Amount,
		Currency: req.Currency,
	})
}

type confirmResponse struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	GatewaySignature string `json:"gateway_signature"`
}

// HandleConfirm settles an intent: it mints a payment id and returns the
// signed confirmation a real gateway would deliver to the client.
func (h *Handler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	intentID := r.PathValue("id")

	h.mu.Lock()
	_, ok := h.intents[intentID]
	delete(h.intents, intentID)
	h.mu.Unlock()

	if !ok {
		h.writeError(w, http.StatusNotFound, "unknown intent")
		return
	}

	paymentID := "pay_" + uuid.New().String()

	h.logger.Info("intent confirmed", "intent_id", intentID, "payment_id", paymentID)

	h.writeJSON(w, http.StatusOK, confirmResponse{
		GatewayOrderID:   intentID,
		GatewayPaymentID: paymentID,
		GatewaySignature: checkout.Sign(h.keySecret, intentID, paymentID),
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
