package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"galaxyinn/backend/internal/domain"
	"galaxyinn/backend/internal/service"
	"galaxyinn/backend/internal/store"
)

var decimalTwo = decimal.NewFromInt(2)

func itoa(n int) string { return strconv.Itoa(n) }

func TestMiddlewareSetsSecurityHeaders(t *testing.T) {
	h := newTestAPI(t, true).Handler()
	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected X-Content-Type-Options nosniff, got %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("expected X-Frame-Options DENY, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("expected configured origin, got %q", got)
	}
}

func TestPreflightReturnsNoContent(t *testing.T) {
	h := newTestAPI(t, true).Handler()
	rec := doJSON(t, h, http.MethodOptions, "/api/v1/products", "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestLoginRateLimitReturns429(t *testing.T) {
	h := newTestAPI(t, true).Handler()

	for i := 0; i < 6; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"admin","pin":"0000"}`))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "127.0.0.1:5000"
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, req)

		if i < 5 && rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d expected 401 before limit, got %d", i+1, rec.Code)
		}
		if i == 5 && rec.Code != http.StatusTooManyRequests {
			t.Fatalf("attempt 6 expected 429, got %d", rec.Code)
		}
	}
}

func TestJSONBodyTooLargeRejected(t *testing.T) {
	h := newTestAPI(t, true).Handler()
	body := fmt.Sprintf(`{"username":"%s","pin":"1"}`, strings.Repeat("a", (1<<20)+1024))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized body, got %d", rec.Code)
	}
}

func TestUnknownFieldsRejected(t *testing.T) {
	h := newTestAPI(t, true).Handler()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"admin","pin":"2580","password":"x"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", rec.Code)
	}
}

func TestServerErrorsHideDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	writeServiceError(rec, errors.New("pq: relation kv_documents does not exist"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "kv_documents") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("product 9: %w", store.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("tx-1: %w", store.ErrInvalidState), http.StatusConflict},
		{fmt.Errorf("%w: empty order", store.ErrInvalidInput), http.StatusBadRequest},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	api := newTestAPI(t, true)
	expired, err := api.auth.sign(domain.UserView{ID: 1, Username: "admin", Role: domain.RoleAdmin}, time.Now().Add(-time.Minute))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := api.auth.ParseToken(expired); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	other := NewAuthManager("another-secret", time.Hour, true, nil)
	forged, err := other.sign(domain.UserView{ID: 1, Username: "admin", Role: domain.RoleAdmin}, time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := api.auth.ParseToken(forged); err == nil {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestParsePositiveLimitCaps(t *testing.T) {
	if got := parsePositiveLimit("5000", 200, 1000); got != 1000 {
		t.Fatalf("expected cap 1000, got %d", got)
	}
	if got := parsePositiveLimit("-3", 200, 1000); got != 200 {
		t.Fatalf("expected fallback 200, got %d", got)
	}
	if got := parsePositiveLimit("25", 200, 1000); got != 25 {
		t.Fatalf("expected 25, got %d", got)
	}
}
