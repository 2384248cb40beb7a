package httpapi

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"galaxyinn/backend/internal/domain"
	"galaxyinn/backend/internal/service"
	"galaxyinn/backend/internal/store"
	"galaxyinn/backend/internal/store/memory"
)

// newTestAPI builds a full API over an in-memory store and the default catalog so
// handler tests exercise the complete request path.
func newTestAPI(t *testing.T, authRequired bool) *API {
	t.Helper()
	t.Setenv("SEED_ADMIN_PIN", "2580")
	t.Setenv("SEED_CASHIER_PIN", "1397")

	repo := store.NewRepository(memory.New())
	t.Cleanup(func() { _ = repo.Close() })

	svc := service.New(repo, service.Options{})
	auth := NewAuthManager("test-secret-key", time.Hour, authRequired, svc)
	return New(svc, auth, "*")
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode body: %v (raw %q)", err, rec.Body.String())
	}
	return out
}

func login(t *testing.T, h http.Handler, username, pin string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: username, PIN: pin})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d (body: %s)", username, rec.Code, rec.Body.String())
	}
	return decodeBody[domain.LoginResponse](t, rec).AccessToken
}

func TestHandleHealth(t *testing.T) {
	h := newTestAPI(t, true).Handler()

	rec := doJSON(t, h, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody[map[string]any](t, rec)
	if body["ok"] != true {
		t.Fatalf("expected ok:true, got %v", body["ok"])
	}
}

func TestHandleLogin(t *testing.T) {
	h := newTestAPI(t, true).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "admin", PIN: "2580"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	resp := decodeBody[domain.LoginResponse](t, rec)
	if resp.AccessToken == "" {
		t.Fatalf("expected access token")
	}
	if resp.User.Role != domain.RoleAdmin {
		t.Fatalf("expected admin role, got %q", resp.User.Role)
	}
	if strings.Contains(rec.Body.String(), "pin_hash") {
		t.Fatalf("login response leaked pin hash")
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", domain.LoginRequest{Username: "admin", PIN: "0000"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong pin: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"username": "admin"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing pin: expected 400, got %d", rec.Code)
	}
}

func TestProductsRequireBearerToken(t *testing.T) {
	h := newTestAPI(t, true).Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/v1/products", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/products", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with garbage token, got %d", rec.Code)
	}

	token := login(t, h, "cashier", "1397")
	rec = doJSON(t, h, http.MethodGet, "/api/v1/products", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	body := decodeBody[struct {
		Data []domain.ProductWithInventory `json:"data"`
	}](t, rec)
	if len(body.Data) == 0 {
		t.Fatalf("expected seeded products")
	}
}

func TestCashierCannotUseAdminRoutes(t *testing.T) {
	h := newTestAPI(t, true).Handler()
	token := login(t, h, "cashier", "1397")

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/transactions/tx-1/reverse"},
		{http.MethodDelete, "/api/v1/products/1"},
		{http.MethodPost, "/api/v1/products/1/restock"},
		{http.MethodGet, "/api/v1/users"},
		{http.MethodGet, "/api/v1/reports/cash-up"},
	} {
		rec := doJSON(t, h, tc.method, tc.path, token, nil)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestSaleAndReversalOverHTTP(t *testing.T) {
	h := newTestAPI(t, true).Handler()
	admin := login(t, h, "admin", "2580")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/order/apply", admin, domain.OrderActionRequest{
		Action:    "add_item",
		ProductID: 1,
		Quantity:  2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("apply: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	state := decodeBody[domain.OrderState](t, rec)
	if len(state.Items) != 1 || state.Items[0].Quantity != 2 {
		t.Fatalf("unexpected order state: %+v", state)
	}
	if !state.Total.Equal(state.Items[0].UnitPrice.Mul(decimalTwo)) {
		t.Fatalf("expected total of two units, got %s", state.Total)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/checkout", admin, domain.CheckoutRequest{
		Items:         state.Items,
		PaymentMethod: domain.PaymentMpesa,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	tx := decodeBody[domain.Transaction](t, rec)
	if tx.Status != domain.TxStatusCompleted || tx.PaymentMethod != domain.PaymentMpesa {
		t.Fatalf("unexpected transaction: %+v", tx)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/transactions/"+tx.ID+"/receipt", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("receipt: expected 200, got %d", rec.Code)
	}
	receipt := decodeBody[domain.ReceiptResponse](t, rec)
	if receipt.TransactionID != tx.ID || receipt.EscposBase64 == "" {
		t.Fatalf("unexpected receipt: %+v", receipt)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/transactions/"+tx.ID+"/reverse", admin, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reverse: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	reversed := decodeBody[domain.ReverseResponse](t, rec)
	if reversed.Transaction.Status != domain.TxStatusReversed || len(reversed.Items) != 1 {
		t.Fatalf("unexpected reverse response: %+v", reversed)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/transactions/"+tx.ID+"/reverse", admin, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("second reverse: expected 409, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/transactions/tx-missing/reverse", admin, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown reverse: expected 404, got %d", rec.Code)
	}
}

func TestCheckoutRejectsEmptyOrder(t *testing.T) {
	h := newTestAPI(t, false).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/checkout", "", domain.CheckoutRequest{PaymentMethod: domain.PaymentCash})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (body: %s)", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/checkout", "", domain.CheckoutRequest{PaymentMethod: "Bitcoin"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad payment method: expected 400, got %d", rec.Code)
	}
}

func TestAuthDisabledActsAsAdmin(t *testing.T) {
	h := newTestAPI(t, false).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/products/1/restock", "", domain.RestockRequest{Units: 6})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	item := decodeBody[domain.InventoryItem](t, rec)
	if item.QuantityUnits != 126 {
		t.Fatalf("expected 126 units after restock, got %d", item.QuantityUnits)
	}
}

func TestProductLifecycleOverHTTP(t *testing.T) {
	h := newTestAPI(t, false).Handler()

	name := "Balozi 500ml"
	typ := domain.ProductBottle
	units := 10
	rec := doJSON(t, h, http.MethodPost, "/api/v1/products", "", domain.ProductInput{
		Name:      &name,
		Type:      &typ,
		Inventory: &domain.InventoryInput{QuantityUnits: &units},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	created := decodeBody[domain.ProductWithInventory](t, rec)
	if created.ID == 0 || created.Inventory == nil || created.Inventory.QuantityUnits != 10 {
		t.Fatalf("unexpected created product: %+v", created)
	}

	renamed := "Balozi Lager 500ml"
	rec = doJSON(t, h, http.MethodPatch, "/api/v1/products/"+itoa(created.ID), "", domain.ProductInput{Name: &renamed})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if got := decodeBody[domain.ProductWithInventory](t, rec); got.Name != renamed {
		t.Fatalf("expected renamed product, got %q", got.Name)
	}

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/products/"+itoa(created.ID), "", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, "/api/v1/products/"+itoa(created.ID), "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPatch, "/api/v1/products/abc", "", domain.ProductInput{Name: &renamed})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id: expected 400, got %d", rec.Code)
	}
}

func TestVariantsForDrum(t *testing.T) {
	h := newTestAPI(t, false).Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/v1/products/5/variants", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := decodeBody[struct {
		Data []domain.Product `json:"data"`
	}](t, rec)
	if len(body.Data) != 3 {
		t.Fatalf("expected 3 whiskey pour variants, got %d", len(body.Data))
	}
	for _, v := range body.Data {
		if v.Type != domain.ProductPour || v.ParentProductID == nil || *v.ParentProductID != 5 {
			t.Fatalf("unexpected variant: %+v", v)
		}
	}
}

func TestSuspendAndResumeOverHTTP(t *testing.T) {
	h := newTestAPI(t, false).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/order/apply", "", domain.OrderActionRequest{Action: "add_item", ProductID: 2})
	state := decodeBody[domain.OrderState](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/suspended-orders", "", domain.SuspendRequest{Items: state.Items})
	if rec.Code != http.StatusCreated {
		t.Fatalf("suspend: expected 201, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	suspended := decodeBody[domain.SuspendedOrder](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/suspended-orders/"+suspended.ID+"/resume", "", domain.ResumeRequest{ActiveItems: state.Items})
	if rec.Code != http.StatusConflict {
		t.Fatalf("resume over active order: expected 409, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/suspended-orders/"+suspended.ID+"/resume", "", domain.ResumeRequest{})
	if rec.Code != http.StatusOK {
		t.Fatalf("resume: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	resumed := decodeBody[domain.OrderState](t, rec)
	if len(resumed.Items) != 1 || resumed.Items[0].ProductID != 2 {
		t.Fatalf("unexpected resumed order: %+v", resumed)
	}

	rec = doJSON(t, h, http.MethodPost, "/api/v1/suspended-orders/"+suspended.ID+"/discard", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("discard after resume: expected 404, got %d", rec.Code)
	}
}

func TestTransactionReportFormats(t *testing.T) {
	h := newTestAPI(t, false).Handler()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/order/apply", "", domain.OrderActionRequest{Action: "add_item", ProductID: 1})
	state := decodeBody[domain.OrderState](t, rec)
	rec = doJSON(t, h, http.MethodPost, "/api/v1/checkout", "", domain.CheckoutRequest{Items: state.Items, PaymentMethod: domain.PaymentCash})
	if rec.Code != http.StatusCreated {
		t.Fatalf("checkout: expected 201, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/reports/transactions?format=csv", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	records, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus one row, got %d records", len(records))
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/reports/transactions?format=xlsx", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("xlsx: expected 200, got %d", rec.Code)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatalf("expected zip container for xlsx")
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/reports/transactions?format=pdf", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown format: expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/reports/transactions?from=2026-13-01", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad date: expected 400, got %d", rec.Code)
	}
}

func TestDashboardAndStockAlerts(t *testing.T) {
	h := newTestAPI(t, false).Handler()

	rec := doJSON(t, h, http.MethodGet, "/api/v1/reports/dashboard", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d (body: %s)", rec.Code, rec.Body.String())
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/reports/stock-alerts", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stock alerts: expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/reports/cash-up?counted=abc", "", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad counted: expected 400, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/api/v1/reports/expenses", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expense summary: expected 200, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestAPI(t, false).Handler()

	rec := doJSON(t, h, http.MethodPut, "/api/v1/checkout", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}
