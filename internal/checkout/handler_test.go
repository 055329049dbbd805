package checkout

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestHandler(f *fixture) *Handler {
	return NewHandler(f.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleCreateIntent(t *testing.T) {
	f := newFixture()
	h := newTestHandler(f)

	req := httptest.NewRequest(http.MethodPost, "/payment/create-order", strings.NewReader(`{"amount": 500}`))
	rec := httptest.NewRecorder()
	h.HandleCreateIntent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var resp createIntentResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Success {
		t.Fatal("expected success true")
	}
	if resp.OrderID != "order_abc" {
		t.Fatalf("expected order id order_abc, got %q", resp.OrderID)
	}
	if resp.Amount != 50000 {
		t.Fatalf("expected minor-unit amount 50000, got %d", resp.Amount)
	}
}

func TestHandleCreateIntentBadAmount(t *testing.T) {
	f := newFixture()
	h := newTestHandler(f)

	req := httptest.NewRequest(http.MethodPost, "/payment/create-order", strings.NewReader(`{"amount": 0}`))
	rec := httptest.NewRecorder()
	h.HandleCreateIntent(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestHandleVerify(t *testing.T) {
	f := newFixture()
	h := newTestHandler(f)

	sig := Sign(testSecret, "order_abc", "pay_xyz")
	body := `{
		"user_id": "u1",
		"payment_data": {
			"gateway_order_id": "order_abc",
			"gateway_payment_id": "pay_xyz",
			"gateway_signature": "` + sig + `"
		},
		"amount": 1000,
		"cart_items": [{"product_id": "p1", "quantity": 2}],
		"payment_method": "online"
	}`

	req := httptest.NewRequest(http.MethodPost, "/payment/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleVerify(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if len(f.orders.orders) != 1 {
		t.Fatalf("expected 1 order, got %d", len(f.orders.orders))
	}
}

func TestHandleVerifyBadSignature(t *testing.T) {
	f := newFixture()
	h := newTestHandler(f)

	body := `{
		"user_id": "u1",
		"payment_data": {
			"gateway_order_id": "order_abc",
			"gateway_payment_id": "pay_xyz",
			"gateway_signature": "deadbeef"
		},
		"amount": 1000,
		"cart_items": [{"product_id": "p1", "quantity": 2}],
		"payment_method": "online"
	}`

	req := httptest.NewRequest(http.MethodPost, "/payment/verify", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleVerify(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
	if len(f.orders.orders) != 0 {
		t.Fatalf("expected no orders, got %d", len(f.orders.orders))
	}
}

func TestHandlePlaceCOD(t *testing.T) {
	f := newFixture()
	h := newTestHandler(f)

	body := `{"user_id": "u1", "cart_items": [{"product_id": "p2", "quantity": 3}], "total_amount": 360}`
	req := httptest.NewRequest(http.MethodPost, "/payment/place-cod-order", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandlePlaceCOD(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
}

func TestHandlePlaceCODUnknownUser(t *testing.T) {
	f := newFixture()
	h := newTestHandler(f)

	body := `{"user_id": "nobody", "cart_items": [{"product_id": "p1", "quantity": 1}], "total_amount": 500}`
	req := httptest.NewRequest(http.MethodPost, "/payment/place-cod-order", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandlePlaceCOD(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}
