package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/greenbasket/greenbasket/internal/domain"
)

func TestRequireAuth(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	var gotClaims *Claims
	handler := m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		gotClaims, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected %d without token, got %d", http.StatusUnauthorized, rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected %d with bad token, got %d", http.StatusForbidden, rec.Code)
	}

	token, err := m.Issue(&domain.User{ID: "u1", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d with valid token, got %d", http.StatusOK, rec.Code)
	}
	if gotClaims == nil || gotClaims.UserID() != "u1" {
		t.Fatalf("expected claims for u1 in context, got %+v", gotClaims)
	}
}

func TestRequireAdmin(t *testing.T) {
	m := NewTokenManager("secret", time.Hour)

	handler := m.RequireAdmin(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	userToken, err := m.Issue(&domain.User{ID: "u1", Role: domain.RoleUser})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+userToken)
	rec := httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected %d for non-admin, got %d", http.StatusForbidden, rec.Code)
	}

	adminToken, err := m.Issue(&domain.User{ID: "u2", Role: domain.RoleAdmin})
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	rec = httptest.NewRecorder()
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected %d for admin, got %d", http.StatusOK, rec.Code)
	}
}
