package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/findosh/tradeimport/internal/config"
	"github.com/findosh/tradeimport/internal/models"
	"github.com/findosh/tradeimport/internal/services/importer"
	"github.com/findosh/tradeimport/internal/services/telemetry"
	"github.com/findosh/tradeimport/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const trading212CSV = `Action,Time,ISIN,Ticker,Name,No. of shares,Price / share,Currency (Price / share),Exchange rate,Total,Currency (Total)
Market buy,2024-01-02 14:30:00,US0378331005,AAPL,Apple,10,180.00,USD,1.00,1800.00,USD
Market sell,2024-01-03 15:00:00,US0378331005,AAPL,Apple,4,190.00,USD,1.00,760.00,USD
`

func newTestHandler(t *testing.T) (*Handler, *storage.EventRepository) {
	t.Helper()
	db, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	repo := storage.NewEventRepository(db)

	cfg := &config.Config{MaxUploadBytes: 1 << 20, ImportTimeout: 5 * time.Second}
	return New(cfg, importer.NewService(nil), repo, zerolog.Nop()), repo
}

func router(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", h.Health)
	r.Get("/api/brokers", h.Brokers)
	r.Get("/api/telemetry/stats", h.TelemetryStats)
	r.Post("/api/import", h.Import)
	r.Post("/api/import/mapped", h.ImportMapped)
	r.Post("/api/detect", h.Detect)
	r.Post("/api/validate", h.Validate)
	r.Post("/api/mapping", h.Mapping)
	r.Post("/api/realized", h.Realized)
	r.Post("/api/export/{format}", h.Export)
	return r
}

func uploadRequest(t *testing.T, path, name, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatal(err)
	}
	part.Write([]byte(content))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func jsonRequest(path string, v interface{}) *http.Request {
	data, _ := json.Marshal(v)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := serve(router(h), httptest.NewRequest(http.MethodGet, "/health", nil))

	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"ok"`) {
		t.Errorf("Expected 200 ok, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestImport(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := serve(router(h), uploadRequest(t, "/api/import", "trades.csv", trading212CSV, nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var result models.ImportResult
	if err := json.Unmarshal(rr.Body.Bytes(), &result); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if result.Broker != "trading212" || len(result.Trades) != 2 || result.Meta.Invalid != 0 {
		t.Errorf("Expected 2 trading212 trades, got %s with %d trades and %+v", result.Broker, len(result.Trades), result.Meta)
	}
	if result.Trades[0].Type != models.TradeBuy || result.Trades[1].Type != models.TradeSell {
		t.Errorf("Expected BUY then SELL, got %s then %s", result.Trades[0].Type, result.Trades[1].Type)
	}
}

func TestImport_Errors(t *testing.T) {
	h, _ := newTestHandler(t)

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"unsupported", uploadRequest(t, "/api/import", "statement.pdf", "%PDF-1.4", nil), http.StatusUnsupportedMediaType},
		{"empty", uploadRequest(t, "/api/import", "trades.csv", "\n\n", nil), http.StatusUnprocessableEntity},
		{"no file", httptest.NewRequest(http.MethodPost, "/api/import", nil), http.StatusBadRequest},
		{"too large", uploadRequest(t, "/api/import", "trades.csv", strings.Repeat("a,b\n", 300000), nil), http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(router(h), tt.req)
			if rr.Code != tt.status {
				t.Errorf("Expected %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			if !strings.Contains(rr.Body.String(), `"error"`) {
				t.Errorf("Expected JSON error body, got %s", rr.Body.String())
			}
		})
	}
}

func TestImportMapped(t *testing.T) {
	h, _ := newTestHandler(t)
	text := "Trade Date,Instrument,Buy/Sell,Shares,Execution Price\n2024-01-02,AAPL,Buy,10,180.00\n"

	mapping := `{"date":"Trade Date","ticker":"Instrument","action":"Buy/Sell","quantity":"Shares","price":"Execution Price"}`
	rr := serve(router(h), uploadRequest(t, "/api/import/mapped", "blotter.csv", text, map[string]string{"mapping": mapping}))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var result models.ImportResult
	json.Unmarshal(rr.Body.Bytes(), &result)
	if result.Broker != importer.GenericSource || len(result.Trades) != 1 {
		t.Errorf("Expected 1 generic trade, got %s with %d", result.Broker, len(result.Trades))
	}

	rr = serve(router(h), uploadRequest(t, "/api/import/mapped", "blotter.csv", text, map[string]string{"mapping": `{"date":"Trade Date"}`}))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for an incomplete mapping, got %d", rr.Code)
	}

	rr = serve(router(h), uploadRequest(t, "/api/import/mapped", "blotter.csv", text, map[string]string{"mapping": "not json"}))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a malformed mapping, got %d", rr.Code)
	}
}

func TestDetect(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := serve(router(h), uploadRequest(t, "/api/detect", "trades.csv", trading212CSV, nil))

	var got importer.Detection
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if got.Broker != "trading212" || got.Rows != 2 || got.Headers[0] != "Action" {
		t.Errorf("Unexpected detection: %+v", got)
	}
}

func TestValidate(t *testing.T) {
	h, _ := newTestHandler(t)
	text := trading212CSV + "Market buy,2024-01-04 10:00:00,US0378331005,AAPL,Apple,ten,180.00,USD,1.00,1800.00,USD\n"

	rr := serve(router(h), uploadRequest(t, "/api/validate", "trades.csv", text, nil))

	var got struct {
		Rows   int `json:"rows"`
		Valid  int `json:"valid"`
		Errors []struct {
			Line  int    `json:"line"`
			Error string `json:"error"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if got.Rows != 3 || got.Valid != 2 || len(got.Errors) != 1 || got.Errors[0].Line != 4 {
		t.Errorf("Expected one error on line 4, got %s", rr.Body.String())
	}
}

func TestMapping(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := serve(router(h), jsonRequest("/api/mapping", MappingRequest{Headers: []string{"Date", "Symbol", "Quantity"}}))
	var got struct {
		Mapping models.Mapping `json:"mapping"`
		Missing []string       `json:"missing"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if got.Mapping.Ticker != "Symbol" || len(got.Missing) != 2 {
		t.Errorf("Expected ticker mapped and 2 missing, got %s", rr.Body.String())
	}

	rr = serve(router(h), jsonRequest("/api/mapping", MappingRequest{}))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 without headers, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/mapping", strings.NewReader(`{"headers":["a"]}`))
	if rr := serve(router(h), req); rr.Code != http.StatusUnsupportedMediaType {
		t.Errorf("Expected 415 without a JSON content type, got %d", rr.Code)
	}
}

func TestBrokers(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := serve(router(h), httptest.NewRequest(http.MethodGet, "/api/brokers", nil))

	var got struct {
		Brokers []string `json:"brokers"`
	}
	json.Unmarshal(rr.Body.Bytes(), &got)
	if len(got.Brokers) != 18 || got.Brokers[0] != "trading212" {
		t.Errorf("Expected 18 brokers starting with trading212, got %v", got.Brokers)
	}
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func realizedTrades() []models.Trade {
	return []models.Trade{
		{Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), Ticker: "AAPL", Type: models.TradeBuy,
			Qty: mustDecimal("10"), Price: mustDecimal("100"), Currency: "USD"},
		{Date: time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC), Ticker: "AAPL", Type: models.TradeSell,
			Qty: mustDecimal("10"), Price: mustDecimal("150"), Currency: "USD"},
	}
}

func TestRealized(t *testing.T) {
	h, _ := newTestHandler(t)
	rr := serve(router(h), jsonRequest("/api/realized", RealizedRequest{Trades: realizedTrades()}))

	var got struct {
		Results []models.RealizedPL `json:"results"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(got.Results) != 1 || !got.Results[0].RealizedBase.Equal(mustDecimal("500")) {
		t.Errorf("Expected AAPL realized 500, got %s", rr.Body.String())
	}
}

func TestExport(t *testing.T) {
	h, _ := newTestHandler(t)

	rr := serve(router(h), jsonRequest("/api/export/turbotax", ExportRequest{Trades: realizedTrades()}))
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Expected CSV content type, got %s", ct)
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), "trades-turbotax.csv") {
		t.Errorf("Expected attachment filename, got %s", rr.Header().Get("Content-Disposition"))
	}
	if !strings.HasPrefix(rr.Body.String(), "Currency Name,") {
		t.Errorf("Expected TurboTax header, got %s", rr.Body.String())
	}

	rr = serve(router(h), jsonRequest("/api/export/quicken", ExportRequest{}))
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown format, got %d", rr.Code)
	}
}

func TestTelemetryStats(t *testing.T) {
	h, repo := newTestHandler(t)
	e := telemetry.NewEvent(telemetry.KindParseResult, "kraken").WithCounts(3, 1, 2, 4)
	if err := repo.Record(context.Background(), e); err != nil {
		t.Fatalf("Record: %v", err)
	}

	rr := serve(router(h), httptest.NewRequest(http.MethodGet, "/api/telemetry/stats?window=1h", nil))
	var got struct {
		Brokers []storage.BrokerStats `json:"brokers"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if len(got.Brokers) != 1 || got.Brokers[0].Trades != 2 {
		t.Errorf("Expected kraken stats, got %s", rr.Body.String())
	}

	rr = serve(router(h), httptest.NewRequest(http.MethodGet, "/api/telemetry/stats?window=soon", nil))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for a bad window, got %d", rr.Code)
	}
}
