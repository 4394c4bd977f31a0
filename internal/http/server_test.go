package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/eyeonits/finapp-personal-finance-tracker/internal/ledger"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/services"
	"github.com/eyeonits/finapp-personal-finance-tracker/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}

	roles := ledger.AccountRoles{
		PrimaryOutflow: func(id string) bool { return id == "chk" },
		Income:         func(id string) bool { return id == "chk" },
	}
	srv := NewServer(":0",
		services.NewTransactionService(repo, nil),
		services.NewImportService(repo, nil),
		services.NewAnalyticsService(repo, roles, ledger.DefaultSignRules(), 3),
		services.NewRecurringService(repo),
	)
	t.Cleanup(func() {
		srv.Shutdown(context.Background())
		repo.Close()
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, srv, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, rec.Code)
		}
	}
}

func TestTransactionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/transactions", map[string]any{
		"account_id":       "chk",
		"transaction_date": "2024-01-05",
		"description":      "coffee",
		"amount_cents":     -450,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[transactionDTO](t, rec)
	if created.ID == "" || created.Source != "manual" {
		t.Errorf("created = %+v", created)
	}

	rec = doJSON(t, srv, http.MethodGet, "/transactions/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}

	created.Category = "dining"
	rec = doJSON(t, srv, http.MethodPut, "/transactions/"+created.ID, created)
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, srv, http.MethodDelete, "/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/transactions/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}

func TestTransactionValidationMapsTo422(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/transactions", map[string]any{
		"transaction_date": "2024-01-05",
		"description":      "no account",
		"amount_cents":     -100,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("create without account = %d, want 422", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/transactions", "{not json")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed body = %d, want 400", rec.Code)
	}
}

func TestListTransactionsWithFilters(t *testing.T) {
	srv := newTestServer(t)

	seed := []map[string]any{
		{"account_id": "chk", "transaction_date": "2024-01-05", "description": "grocery mart", "category": "food", "amount_cents": -5000},
		{"account_id": "chk", "transaction_date": "2024-01-10", "description": "rent january", "category": "housing", "amount_cents": -120000},
		{"account_id": "cc", "transaction_date": "2024-01-15", "description": "grocery mart", "category": "food", "amount_cents": -4200},
		{"account_id": "chk", "transaction_date": "2024-02-01", "description": "grocery mart", "category": "food", "amount_cents": -6000},
	}
	for _, body := range seed {
		if rec := doJSON(t, srv, http.MethodPost, "/transactions", body); rec.Code != http.StatusCreated {
			t.Fatalf("seed = %d: %s", rec.Code, rec.Body.String())
		}
	}

	rec := doJSON(t, srv, http.MethodGet, "/transactions?start=2024-01-01&end=2024-01-31", nil)
	if got := decodeBody[[]transactionDTO](t, rec); len(got) != 3 {
		t.Errorf("january list = %d rows, want 3", len(got))
	}

	rec = doJSON(t, srv, http.MethodGet, "/transactions?account=chk&q=grocery", nil)
	got := decodeBody[[]transactionDTO](t, rec)
	if len(got) != 2 {
		t.Errorf("filtered list = %+v, want the two chk grocery rows", got)
	}

	rec = doJSON(t, srv, http.MethodGet, "/transactions?min=-60.00&max=-45.00", nil)
	got = decodeBody[[]transactionDTO](t, rec)
	if len(got) != 2 {
		t.Errorf("amount-bounded list = %+v, want -50.00 and -60.00 rows", got)
	}

	rec = doJSON(t, srv, http.MethodGet, "/transactions?start=2024-02-01&end=2024-01-01", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("inverted range = %d, want 400", rec.Code)
	}
}

func TestDashboardCaching(t *testing.T) {
	srv := newTestServer(t)

	if rec := doJSON(t, srv, http.MethodPost, "/transactions", map[string]any{
		"account_id": "chk", "transaction_date": "2024-01-05", "description": "coffee", "amount_cents": -450,
	}); rec.Code != http.StatusCreated {
		t.Fatalf("seed = %d", rec.Code)
	}

	url := "/analytics/dashboard?start=2024-01-01&end=2024-01-31"
	rec := doJSON(t, srv, http.MethodGet, url, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard = %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Header().Get("X-Cache") == "hit" {
		t.Error("first request must not be a cache hit")
	}

	rec = doJSON(t, srv, http.MethodGet, url, nil)
	if rec.Header().Get("X-Cache") != "hit" {
		t.Error("second request should be served from cache")
	}

	// A write invalidates the cache.
	if rec := doJSON(t, srv, http.MethodPost, "/transactions", map[string]any{
		"account_id": "chk", "transaction_date": "2024-01-06", "description": "lunch", "amount_cents": -1200,
	}); rec.Code != http.StatusCreated {
		t.Fatalf("write = %d", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, url, nil)
	if rec.Header().Get("X-Cache") == "hit" {
		t.Error("request after write must not be a cache hit")
	}
	d := decodeBody[services.Dashboard](t, rec)
	if d.Summary.TransactionCount != 2 {
		t.Errorf("dashboard after write counts %d transactions, want 2", d.Summary.TransactionCount)
	}
}

func TestAnalyticsBadPeriodMapsTo400(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/analytics/dashboard?start=2024-02-01&end=2024-01-01", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("inverted period = %d, want 400", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/analytics/trends?start=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed date = %d, want 400", rec.Code)
	}
	rec = doJSON(t, srv, http.MethodGet, "/analytics/dashboard?start=2024-01-01&end=2024-01-31&as_of=bogus", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed as_of = %d, want 400", rec.Code)
	}
}

func TestRecurringPaymentFlow(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/recurring-payments", map[string]any{
		"name":         "Rent",
		"amount_cents": 120000,
		"frequency":    "monthly",
		"start_date":   "2024-01-01",
		"active":       true,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	payment := decodeBody[recurringDTO](t, rec)

	rec = doJSON(t, srv, http.MethodPost, "/recurring-payments/generate?as_of=2024-01-01&months=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("generate = %d: %s", rec.Code, rec.Body.String())
	}
	created := decodeBody[map[string]int](t, rec)
	if created["created"] != 2 {
		t.Errorf("generated = %d, want 2 (Jan 1 and Feb 1)", created["created"])
	}

	rec = doJSON(t, srv, http.MethodGet, "/payment-records?payment="+payment.ID, nil)
	records := decodeBody[[]paymentRecordDTO](t, rec)
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	rec = doJSON(t, srv, http.MethodPost, "/payment-records/"+records[0].ID+"/pay", map[string]any{
		"paid_date": "2024-01-02",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("pay = %d: %s", rec.Code, rec.Body.String())
	}
	paid := decodeBody[paymentRecordDTO](t, rec)
	if paid.Status != "paid" || paid.AmountPaidCents != 120000 {
		t.Errorf("paid record = %+v", paid)
	}

	// Paying twice is a validation failure.
	rec = doJSON(t, srv, http.MethodPost, "/payment-records/"+records[0].ID+"/pay", map[string]any{
		"paid_date": "2024-01-03",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("double pay = %d, want 422", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodPost, "/payment-records/"+records[1].ID+"/skip", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("skip = %d", rec.Code)
	}

	rec = doJSON(t, srv, http.MethodGet, "/recurring-payments/summary", nil)
	summary := decodeBody[services.PaymentSummary](t, rec)
	if summary.ActiveCount != 1 || summary.EstimatedMonthly.Cents != 120000 {
		t.Errorf("summary = %+v", summary)
	}
}

func TestRecurringValidationMapsTo422(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/recurring-payments", map[string]any{
		"name":         "Bad",
		"amount_cents": 100,
		"frequency":    "fortnightly",
		"start_date":   "2024-01-01",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad frequency = %d, want 422", rec.Code)
	}
}

func TestImportEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "statement.csv")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	fmt.Fprint(part, "Transaction Date,Post Date,Description,Category,Type,Amount,Memo\n01/15/2024,,COFFEE,Food,Sale,-4.50,\n")
	mw.WriteField("type", "credit_card")
	mw.WriteField("account", "cc")
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("import = %d: %s", rec.Code, rec.Body.String())
	}
	result := decodeBody[services.ImportResult](t, rec)
	if result.RowsInserted != 1 {
		t.Errorf("result = %+v", result)
	}

	rec2 := doJSON(t, srv, http.MethodGet, "/imports", nil)
	if rec2.Code != http.StatusOK {
		t.Fatalf("history = %d", rec2.Code)
	}

	// Unknown import type is a client error.
	var buf2 bytes.Buffer
	mw2 := multipart.NewWriter(&buf2)
	part2, _ := mw2.CreateFormFile("file", "x.csv")
	fmt.Fprint(part2, "a,b\n")
	mw2.WriteField("type", "paypal")
	mw2.WriteField("account", "x")
	mw2.Close()
	req2 := httptest.NewRequest(http.MethodPost, "/imports", &buf2)
	req2.Header.Set("Content-Type", mw2.FormDataContentType())
	rec3 := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec3, req2)
	if rec3.Code != http.StatusBadRequest {
		t.Errorf("unknown type = %d, want 400", rec3.Code)
	}
}
