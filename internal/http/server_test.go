package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

type fakeVerifier struct{ userID string }

func (f *fakeVerifier) VerifyToken(token string) (string, error) {
	if token != "good-token" {
		return "", core.Validationf("invalid token")
	}
	return f.userID, nil
}

type fakeTransactionAPI struct {
	lastUserID string
	lastFilter core.Filter
	lastPage   core.Page
	tx         core.Transaction
	txs        []core.Transaction
	total      int
	err        error
}

func (f *fakeTransactionAPI) Create(_ context.Context, tx core.Transaction) (core.Transaction, error) {
	f.lastUserID = tx.UserID
	if f.err != nil {
		return core.Transaction{}, f.err
	}
	tx.ID = "tx-1"
	return tx, nil
}

func (f *fakeTransactionAPI) Get(_ context.Context, userID, _ string) (core.Transaction, error) {
	f.lastUserID = userID
	return f.tx, f.err
}

func (f *fakeTransactionAPI) Update(_ context.Context, userID, _ string, _ core.TransactionUpdate) (core.Transaction, error) {
	f.lastUserID = userID
	return f.tx, f.err
}

func (f *fakeTransactionAPI) Delete(_ context.Context, userID, _ string) error {
	f.lastUserID = userID
	return f.err
}

func (f *fakeTransactionAPI) List(_ context.Context, userID string, flt core.Filter, p core.Page) ([]core.Transaction, int, error) {
	f.lastUserID = userID
	f.lastFilter = flt
	f.lastPage = p
	return f.txs, f.total, f.err
}

type fakeAggregationAPI struct {
	report core.Report
	err    error
}

func (f *fakeAggregationAPI) Aggregate(_ context.Context, _ string, _, _ *core.Date) (core.Report, error) {
	return f.report, f.err
}

type fakeReceiptAPI struct {
	gotMIME  string
	gotBytes []byte
	draft    core.Draft
	err      error
}

func (f *fakeReceiptAPI) Process(_ context.Context, data []byte, mimeType string) (core.Draft, error) {
	f.gotBytes = data
	f.gotMIME = mimeType
	return f.draft, f.err
}

type fakePinger struct{ err error }

func (f *fakePinger) PingContext(context.Context) error { return f.err }

func testHandler(tx *fakeTransactionAPI, agg *fakeAggregationAPI, rcpt *fakeReceiptAPI, pinger Pinger) http.Handler {
	srv := NewServer(ServerConfig{
		Transactions:   tx,
		Aggregations:   agg,
		Receipts:       rcpt,
		Verifier:       &fakeVerifier{userID: "u1"},
		Store:          pinger,
		UploadMaxBytes: 1 << 20,
	})
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	return srv.Handler(logger)
}

func authedRequest(method, target string, body io.Reader) *http.Request {
	r := httptest.NewRequest(method, target, body)
	r.Header.Set("Authorization", "Bearer good-token")
	return r
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var body errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body
}

func TestAuthRejections(t *testing.T) {
	h := testHandler(&fakeTransactionAPI{}, &fakeAggregationAPI{}, &fakeReceiptAPI{}, nil)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"bad token", "Bearer wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestProbesSkipAuth(t *testing.T) {
	h := testHandler(&fakeTransactionAPI{}, &fakeAggregationAPI{}, &fakeReceiptAPI{}, &fakePinger{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("readyz: expected 200, got %d", rec.Code)
	}
}

func TestReadyzReportsStoreOutage(t *testing.T) {
	h := testHandler(&fakeTransactionAPI{}, &fakeAggregationAPI{}, &fakeReceiptAPI{}, &fakePinger{err: errors.New("down")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestCreateTransaction(t *testing.T) {
	txAPI := &fakeTransactionAPI{}
	h := testHandler(txAPI, &fakeAggregationAPI{}, &fakeReceiptAPI{}, nil)

	body := `{"type":"expense","amount":49.99,"category":"Food","description":"Lunch","date":"2024-03-10"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/transactions", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if txAPI.lastUserID != "u1" {
		t.Fatalf("authenticated user not forwarded, got %q", txAPI.lastUserID)
	}

	var resp transactionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "tx-1" || resp.Amount.Cents != 4999 || resp.Date.String() != "2024-03-10" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCreateTransactionBadBody(t *testing.T) {
	h := testHandler(&fakeTransactionAPI{}, &fakeAggregationAPI{}, &fakeReceiptAPI{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "{{{"},
		{"string amount", `{"type":"expense","amount":"50"}`},
		{"garbage date", `{"type":"expense","amount":50,"date":"not-a-date"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, authedRequest(http.MethodPost, "/api/transactions", strings.NewReader(tt.body)))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if body := decodeError(t, rec); body.Error != string(core.KindValidation) {
				t.Fatalf("expected validation_error, got %q", body.Error)
			}
		})
	}
}

func TestGetTransactionNotFound(t *testing.T) {
	h := testHandler(&fakeTransactionAPI{err: core.NotFoundf("transaction not found")}, &fakeAggregationAPI{}, &fakeReceiptAPI{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/transactions/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Error != string(core.KindNotFound) {
		t.Fatalf("expected not_found, got %q", body.Error)
	}
}

func TestListTransactionsQueryParsing(t *testing.T) {
	txAPI := &fakeTransactionAPI{total: 7}
	h := testHandler(txAPI, &fakeAggregationAPI{}, &fakeReceiptAPI{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet,
		"/api/transactions?type=expense&category=Food&start=2024-01-01&end=2024-01-31&page=2&limit=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if txAPI.lastFilter.Type != core.Expense || txAPI.lastFilter.Category != "Food" {
		t.Fatalf("filter not forwarded: %+v", txAPI.lastFilter)
	}
	if txAPI.lastFilter.Start == nil || txAPI.lastFilter.Start.String() != "2024-01-01" ||
		txAPI.lastFilter.End == nil || txAPI.lastFilter.End.String() != "2024-01-31" {
		t.Fatalf("date bounds not forwarded: %+v", txAPI.lastFilter)
	}
	if txAPI.lastPage != (core.Page{Page: 2, Limit: 5}) {
		t.Fatalf("page not forwarded: %+v", txAPI.lastPage)
	}

	var resp listResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 7 || resp.Page != 2 || resp.Limit != 5 {
		t.Fatalf("unexpected list envelope: %+v", resp)
	}
	if resp.Transactions == nil {
		t.Fatal("transactions should be an empty array, not null")
	}
}

func TestListTransactionsRejectsBadQuery(t *testing.T) {
	h := testHandler(&fakeTransactionAPI{}, &fakeAggregationAPI{}, &fakeReceiptAPI{}, nil)

	for _, target := range []string{
		"/api/transactions?start=yesterday",
		"/api/transactions?type=transfer",
		"/api/transactions?page=two",
		"/api/transactions?limit=all",
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, authedRequest(http.MethodGet, target, nil))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
	}
}

func TestAggregationsEndpoint(t *testing.T) {
	report := core.Report{
		CategoryBreakdown: []core.CategoryTotal{},
		TrendData:         []core.TrendPoint{},
	}
	report.Summary.TotalIncome = core.Money{Cents: 100000}
	report.Summary.NetAmount = core.Money{Cents: 100000}
	h := testHandler(&fakeTransactionAPI{}, &fakeAggregationAPI{report: report}, &fakeReceiptAPI{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/transactions/aggregations?start=2024-01-01", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got map[string]json.RawMessage
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"summary", "categoryBreakdown", "trendData"} {
		if _, ok := got[key]; !ok {
			t.Fatalf("response missing %q", key)
		}
	}
	if string(got["categoryBreakdown"]) != "[]" {
		t.Fatalf("empty breakdown should serialize as [], got %s", got["categoryBreakdown"])
	}
}

func TestAggregationsStorageOutage(t *testing.T) {
	h := testHandler(&fakeTransactionAPI{}, &fakeAggregationAPI{err: core.StorageUnavailable("query ledger", errors.New("down"))}, &fakeReceiptAPI{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/transactions/aggregations", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func multipartReceipt(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	hdr := make(map[string][]string)
	hdr["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
	hdr["Content-Type"] = []string{contentType}
	part, err := mw.CreatePart(hdr)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestReceiptUpload(t *testing.T) {
	rcpt := &fakeReceiptAPI{draft: core.Draft{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 24950},
		Currency:    "INR",
		Category:    "Food",
		Description: "Cafe Madras",
		Date:        core.NewDate(2024, 6, 1),
	}}
	h := testHandler(&fakeTransactionAPI{}, &fakeAggregationAPI{}, rcpt, nil)

	body, contentType := multipartReceipt(t, "receipt", "bill.jpg", "image/jpeg", []byte{0xFF, 0xD8, 0xFF})
	r := authedRequest(http.MethodPost, "/api/receipts/upload", body)
	r.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rcpt.gotMIME != "image/jpeg" || len(rcpt.gotBytes) != 3 {
		t.Fatalf("upload not forwarded: mime=%q bytes=%d", rcpt.gotMIME, len(rcpt.gotBytes))
	}

	var resp receiptUploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.TransactionData.Amount.Cents != 24950 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestReceiptUploadMissingFile(t *testing.T) {
	h := testHandler(&fakeTransactionAPI{}, &fakeAggregationAPI{}, &fakeReceiptAPI{}, nil)

	body, contentType := multipartReceipt(t, "document", "bill.jpg", "image/jpeg", []byte{1})
	r := authedRequest(http.MethodPost, "/api/receipts/upload", body)
	r.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestReceiptUploadErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unsupported media", core.UnsupportedMediaf("only image and PDF files are allowed"), http.StatusUnsupportedMediaType},
		{"extraction failed", core.ExtractionFailed("invoke extraction service", errors.New("quota")), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := testHandler(&fakeTransactionAPI{}, &fakeAggregationAPI{}, &fakeReceiptAPI{err: tt.err}, nil)

			body, contentType := multipartReceipt(t, "receipt", "bill.txt", "text/plain", []byte{1})
			r := authedRequest(http.MethodPost, "/api/receipts/upload", body)
			r.Header.Set("Content-Type", contentType)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, r)
			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
		})
	}
}

func TestUnclassifiedErrorsAreHidden(t *testing.T) {
	h := testHandler(&fakeTransactionAPI{err: errors.New("pq: cursor exhausted")}, &fakeAggregationAPI{}, &fakeReceiptAPI{}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, authedRequest(http.MethodGet, "/api/transactions/tx-1", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := decodeError(t, rec)
	if strings.Contains(body.Message, "cursor") {
		t.Fatalf("internal detail leaked: %q", body.Message)
	}
}
