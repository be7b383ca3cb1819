package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezonia/fattura-processor/internal/model"
	"github.com/rezonia/fattura-processor/internal/ratelimit"
	"github.com/rezonia/fattura-processor/internal/server"
	"github.com/rezonia/fattura-processor/internal/store/memory"
)

func newTestServer(t *testing.T, opts ...server.Option) (*server.Server, *memory.Store) {
	t.Helper()
	config := &server.Config{
		Address:             ":8080",
		Debug:               true,
		MaxUploadBytes:      1 << 20,
		VATRate:             decimal.NewFromInt(10),
		DifferenceThreshold: decimal.NewFromInt(5),
	}
	store := memory.New()
	opts = append([]server.Option{server.WithLogger(zerolog.Nop())}, opts...)
	return server.NewServer(config, store, opts...), store
}

func readTestFile(t *testing.T, filename string) []byte {
	t.Helper()
	content, err := os.ReadFile(filepath.Join("testdata", filename))
	require.NoError(t, err, "failed to read test file: %s", filename)
	return content
}

func do(t *testing.T, srv *server.Server, method, path string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var response map[string]interface{}
	decode(t, w, &response)
	assert.Equal(t, "ok", response["status"])
	assert.NotEmpty(t, response["time"])
}

func TestRequestIDIsEchoed(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestParseEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/invoices/parse?file_name=a.xml", readTestFile(t, "fattura_ordinaria.xml"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response server.ParseResponse
	decode(t, w, &response)
	assert.True(t, response.Success)
	require.NotNil(t, response.Invoice)
	assert.Equal(t, "FPR 12/24", response.Invoice.Number)
	assert.Equal(t, "a.xml", response.Invoice.FileName)
	require.NotNil(t, response.Amounts)
	assert.Equal(t, "482.85", response.Amounts.Total.StringFixed(2))
	assert.Len(t, response.Installments, 1)
	assert.Empty(t, response.Errors)
}

func TestParseEndpoint_SafeErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	doc := `<FatturaElettronica><FatturaElettronicaBody/></FatturaElettronica>`
	w := do(t, srv, http.MethodPost, "/api/v1/invoices/parse", []byte(doc))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response server.ParseResponse
	decode(t, w, &response)
	assert.False(t, response.Success)
	assert.NotNil(t, response.Invoice)
	assert.Nil(t, response.Amounts)
	require.Len(t, response.Errors, 3)
	assert.Equal(t, model.CodeMissingVAT, response.Errors[0].Code)
}

func TestParseEndpoint_Strict(t *testing.T) {
	srv, _ := newTestServer(t)

	doc := `<FatturaElettronica><FatturaElettronicaBody/></FatturaElettronica>`
	w := do(t, srv, http.MethodPost, "/api/v1/invoices/parse?strict=true", []byte(doc))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var response server.ErrorResponse
	decode(t, w, &response)
	assert.Equal(t, model.CodeMissingVAT, response.Code)

	w = do(t, srv, http.MethodPost, "/api/v1/invoices/parse?strict=true", readTestFile(t, "fattura_ordinaria.xml"))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestParseEndpoint_EmptyBody(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/invoices/parse", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseEndpoint_TooLarge(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/invoices/parse", bytes.Repeat([]byte("<"), 2<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestValidateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/invoices/validate", readTestFile(t, "fattura_ordinaria.xml"))
	assert.Equal(t, http.StatusOK, w.Code)

	var response server.ValidationResponse
	decode(t, w, &response)
	assert.True(t, response.Valid)

	w = do(t, srv, http.MethodPost, "/api/v1/invoices/validate", []byte("not xml"))
	assert.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &response)
	assert.False(t, response.Valid)
	require.Len(t, response.Errors, 1)
	assert.Equal(t, model.CodeInvalidXML, response.Errors[0].Code)
}

func TestImportEndpoint(t *testing.T) {
	srv, store := newTestServer(t)
	require.NoError(t, store.Create(t.Context(), &model.SupplierRecord{ID: "s1", Name: "Studio Rossi", TaxID: "01234567890"}))

	w := do(t, srv, http.MethodPost, "/api/v1/invoices/import", readTestFile(t, "fattura_ordinaria.xml"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var response struct {
		Supplier model.SupplierMatchResult `json:"supplier"`
		Amounts  model.Amounts             `json:"amounts"`
	}
	decode(t, w, &response)
	assert.True(t, response.Supplier.Matched)
	assert.Equal(t, "s1", response.Supplier.Entry.ID)
	assert.Equal(t, "399.75", response.Amounts.Net.StringFixed(2))
}

func TestImportEndpoint_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/invoices/import", []byte("not xml"))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(t, srv, http.MethodPost, "/api/v1/invoices/import", []byte("MIAGCSqGSIb3DQEHAqCA"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestCreateSupplierEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	body := []byte(`{"name": "Mario Verdi", "tax_id": "1234567890", "default_account_ref": "4010"}`)
	w := do(t, srv, http.MethodPost, "/api/v1/suppliers", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec model.SupplierRecord
	decode(t, w, &rec)
	assert.Equal(t, "01234567890", rec.TaxID)
	assert.Equal(t, "4010", rec.DefaultAccountRef)

	w = do(t, srv, http.MethodGet, "/api/v1/suppliers/"+rec.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, srv, http.MethodGet, "/api/v1/suppliers/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, srv, http.MethodPost, "/api/v1/suppliers", []byte(`{"tax_id": "01234567890"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/api/v1/suppliers", []byte(`{`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

const closureJSON = `{
  "actor_id": "user-7",
  "closure": {
    "id": "closure-1",
    "date": "2024-03-15T00:00:00Z",
    "venue_id": "venue-1",
    "stations": [
      {"name": "Bar", "cash": 400, "pos": 200, "float": 100, "counted": 390},
      {"name": "Sala", "cash": "150.00", "pos": "100.00", "counted": 150}
    ],
    "expenses": [{"amount": 50, "payee": "Fornitore pane", "account_ref": "6010"}],
    "bank_deposit": 300
  }
}`

func TestClosureTotalsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	body := []byte(`{
  "stations": [{"cash": 400, "pos": 200, "counted": 390}, {"cash": 150, "pos": 100, "counted": 150}],
  "expenses": [{"amount": 50, "payee": "x"}],
  "vat_rate": 22
}`)
	w := do(t, srv, http.MethodPost, "/api/v1/closures/totals", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var totals model.ClosureTotals
	decode(t, w, &totals)
	assert.Equal(t, "850.00", totals.SalesTotal.StringFixed(2))
	assert.Equal(t, "-10.00", totals.CashDifference.StringFixed(2))
	assert.Equal(t, "600.00", totals.CashIncomeTotal.StringFixed(2))
	assert.Equal(t, "696.72", totals.NetSales.StringFixed(2))
	assert.True(t, totals.HasSignificantDifference)
}

func TestClosurePostingLifecycle(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/closures/post", []byte(closureJSON))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var posted server.PostClosureResponse
	decode(t, w, &posted)
	assert.Equal(t, 5, posted.EntriesCreated)
	assert.Equal(t, "1200.00", posted.TotalDebits.StringFixed(2))
	assert.Equal(t, "350.00", posted.TotalCredits.StringFixed(2))
	assert.True(t, posted.Totals.HasSignificantDifference)

	// Posting again without reversal is refused
	w = do(t, srv, http.MethodPost, "/api/v1/closures/post", []byte(closureJSON))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, srv, http.MethodGet, "/api/v1/closures/closure-1/entries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed server.EntriesResponse
	decode(t, w, &listed)
	assert.Len(t, listed.Entries, 5)
	assert.Equal(t, "1200.00", listed.Totals.TotalDebits.StringFixed(2))
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), listed.Entries[0].Date.UTC())

	w = do(t, srv, http.MethodDelete, "/api/v1/closures/closure-1/entries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":5`)

	// Reversal is idempotent
	w = do(t, srv, http.MethodDelete, "/api/v1/closures/closure-1/entries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"deleted":0`)

	w = do(t, srv, http.MethodGet, "/api/v1/closures/closure-1/entries", nil)
	decode(t, w, &listed)
	assert.Empty(t, listed.Entries)
}

func TestPostClosure_Validation(t *testing.T) {
	srv, _ := newTestServer(t)

	w := do(t, srv, http.MethodPost, "/api/v1/closures/post", []byte(`{"closure": {"id": "c"}}`))
	assert.Equal(t, http.StatusBadRequest, w.Code, "actor_id is required")

	w = do(t, srv, http.MethodPost, "/api/v1/closures/post", []byte(`{"actor_id": "u", "closure": {}}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, srv, http.MethodPost, "/api/v1/closures/post", []byte(`{"actor_id": "u", "closure": {"id": "c", "status": "posted"}}`))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRateLimit(t *testing.T) {
	limiter := ratelimit.New(ratelimit.NewCacheStore(time.Minute), 2, time.Minute)
	srv, _ := newTestServer(t, server.WithRateLimiter(limiter))

	for i := 0; i < 2; i++ {
		w := do(t, srv, http.MethodPost, "/api/v1/invoices/validate", []byte("<a/>"))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := do(t, srv, http.MethodPost, "/api/v1/invoices/validate", []byte("<a/>"))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Health is not limited
	w = do(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}
