package cart

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newValidationHandler() *Handler {
	return NewHandler(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandleAddItemValidation(t *testing.T) {
	h := newValidationHandler()

	cases := []struct {
		name string
		body string
	}{
		{"missing user", `{"product_id": "p1", "quantity": 1}`},
		{"missing product", `{"user_id": "u1", "quantity": 1}`},
		{"zero quantity", `{"user_id": "u1", "product_id": "p1", "quantity": 0}`},
		{"negative quantity", `{"user_id": "u1", "product_id": "p1", "quantity": -2}`},
		{"malformed body", `{"user_id":`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/cart/add", strings.NewReader(c.body))
			rec := httptest.NewRecorder()
			h.HandleAddItem(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected status %d, got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestHandleUpdateItemValidation(t *testing.T) {
	h := newValidationHandler()

	req := httptest.NewRequest(http.MethodPut, "/cart/update",
		strings.NewReader(`{"user_id": "u1", "product_id": "p1", "quantity": 0}`))
	rec := httptest.NewRecorder()
	h.HandleUpdateItem(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}

func TestHandleRemoveItemRequiresUser(t *testing.T) {
	h := newValidationHandler()

	mux := http.NewServeMux()
	mux.HandleFunc("DELETE /cart/remove/{productId}", h.HandleRemoveItem)

	req := httptest.NewRequest(http.MethodDelete, "/cart/remove/p1", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
