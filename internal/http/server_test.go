package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"mastercoin/internal/core"
	"mastercoin/internal/middleware/ratelimit"
	"mastercoin/internal/services"
	"mastercoin/internal/sheets"
	"mastercoin/internal/sheets/memory"
)

func fixtureStore() *memory.Store {
	return memory.New(
		sheets.Sheet{Name: "01 2025", Rows: []sheets.Row{
			{"Section": "Income", "Item Name": "Salary", "Used_Amount": 5000.0},
			{"Section": "Liability", "Item Name": "Borrowed Fund", "Earn_Amount": 1000.0, "Notes": "Loan taken form Maya"},
			{"Section": "Need to Understand !!", "Item Name": "Grocery", "Used_Amount": 800.0},
		}},
		sheets.Sheet{Name: "02 2025", Rows: []sheets.Row{
			{"Section": "Income", "Item Name": "Salary", "Used_Amount": 5000.0},
			{"Section": "Essential !!", "Item Name": "Loan Repayment", "Used_Amount": 1000.0, "Notes": "Repayment of Maya"},
		}},
	)
}

func newLoadedServer(t *testing.T, opts Options) (*Server, *services.Ledger) {
	t.Helper()
	ledger := services.NewLedger()
	_, err := ledger.Ingest(context.Background(), fixtureStore(), "memory")
	require.NoError(t, err)
	srv := NewServer(":0", ledger, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv, ledger
}

func do(t *testing.T, srv *Server, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func workbookBytes(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	_, err := f.NewSheet("03 2025")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("03 2025", "A1", &[]any{"Section", "Item Name", "Used_Amount"}))
	require.NoError(t, f.SetSheetRow("03 2025", "A2", &[]any{"Income", "Salary", 7000}))
	require.NoError(t, f.SetSheetRow("03 2025", "A3", &[]any{"Need to Understand !!", "Grocery", 400}))
	require.NoError(t, f.DeleteSheet("Sheet1"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestHealthAndReadiness(t *testing.T) {
	empty := NewServer(":0", services.NewLedger(), Options{})
	defer empty.Shutdown(context.Background())

	rr := do(t, empty, http.MethodGet, "/healthz", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode[map[string]any](t, rr)["status"])
	assert.NotEmpty(t, rr.Header().Get("X-Content-Type-Options"))

	rr = do(t, empty, http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	loaded, _ := newLoadedServer(t, Options{})
	rr = do(t, loaded, http.MethodGet, "/readyz", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ready", decode[map[string]any](t, rr)["status"])
}

func TestSummary(t *testing.T) {
	srv, _ := newLoadedServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/api/v1/summary?month=01+2025", nil, "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode[struct {
		Month  string      `json:"month"`
		Result core.Result `json:"result"`
	}](t, rr)
	assert.Equal(t, "01 2025", body.Month)
	assert.Equal(t, 5000.0, body.Result.Income)
	assert.Equal(t, 1000.0, body.Result.Liability)
	require.Len(t, body.Result.LiabilityBreakdown, 1)
	assert.Equal(t, core.StatusActive, body.Result.LiabilityBreakdown[0].Status)

	rr = do(t, srv, http.MethodGet, "/api/v1/summary", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"month":"ALL"`)

	rr = do(t, srv, http.MethodGet, "/api/v1/summary?month=12+2030", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "no data", decode[map[string]string](t, rr)["error"])
}

func TestReadEndpoints(t *testing.T) {
	srv, _ := newLoadedServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/api/v1/months", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	months := decode[[]map[string]string](t, rr)
	require.Len(t, months, 2)
	assert.Equal(t, "January 2025", months[0]["display"])
	assert.Equal(t, "2025-02", months[1]["chronoKey"])

	rr = do(t, srv, http.MethodGet, "/api/v1/transactions?month=02+2025", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]core.Transaction](t, rr), 2)

	rr = do(t, srv, http.MethodGet, "/api/v1/trends", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]core.PillarTrendPoint](t, rr), 2)

	rr = do(t, srv, http.MethodGet, "/api/v1/snapshots", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]services.MonthSnapshot](t, rr), 2)

	rr = do(t, srv, http.MethodGet, "/api/v1/protocol", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	protocol := decode[map[string]map[string]any](t, rr)
	assert.Len(t, protocol["pillars"], 6)
	assert.Contains(t, protocol["items"], "TIME")

	rr = do(t, srv, http.MethodGet, "/api/v1/dataset", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "memory", decode[map[string]any](t, rr)["source"])
}

func TestNoDataset(t *testing.T) {
	srv := NewServer(":0", services.NewLedger(), Options{})
	defer srv.Shutdown(context.Background())

	for _, path := range []string{"/api/v1/months", "/api/v1/summary", "/api/v1/trends", "/api/v1/snapshots", "/api/v1/dataset"} {
		rr := do(t, srv, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusNotFound, rr.Code, path)
	}
}

func TestIngestUpload(t *testing.T) {
	srv, ledger := newLoadedServer(t, Options{})

	rr := do(t, srv, http.MethodPost, "/api/v1/ingest", workbookBytes(t), "application/octet-stream")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, []any{"03 2025"}, decode[map[string]any](t, rr)["months"])

	res, err := ledger.Calculate(context.Background(), "03 2025")
	require.NoError(t, err)
	assert.Equal(t, 7000.0, res.Income)
	assert.Equal(t, 400.0, res.Expenses)
}

func TestIngestMultipart(t *testing.T) {
	srv, _ := newLoadedServer(t, Options{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "mastercoin.xlsx")
	require.NoError(t, err)
	_, err = fw.Write(workbookBytes(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	rr := do(t, srv, http.MethodPost, "/api/v1/ingest", buf.Bytes(), mw.FormDataContentType())
	assert.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
}

func TestIngestFailureKeepsDataset(t *testing.T) {
	srv, ledger := newLoadedServer(t, Options{})
	before, _ := ledger.Current()

	rr := do(t, srv, http.MethodPost, "/api/v1/ingest", []byte("definitely not a workbook"), "application/octet-stream")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.JSONEq(t, `{"error":"parsing failure"}`, rr.Body.String())

	after, _ := ledger.Current()
	assert.Equal(t, before.Version, after.Version)
}

func TestIngestTooLarge(t *testing.T) {
	srv, _ := newLoadedServer(t, Options{MaxUploadBytes: 16})
	rr := do(t, srv, http.MethodPost, "/api/v1/ingest", bytes.Repeat([]byte("x"), 64), "application/octet-stream")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestIngestRateLimited(t *testing.T) {
	srv, _ := newLoadedServer(t, Options{UploadLimit: ratelimit.Config{Requests: 1}})

	rr := do(t, srv, http.MethodPost, "/api/v1/ingest", []byte("bad"), "")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	rr = do(t, srv, http.MethodPost, "/api/v1/ingest", []byte("bad"), "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
}

type fakeReloader struct {
	ds  *services.Dataset
	err error
}

func (f fakeReloader) Reload(context.Context, string) (*services.Dataset, error) {
	return f.ds, f.err
}

func TestReload(t *testing.T) {
	srv, _ := newLoadedServer(t, Options{})
	rr := do(t, srv, http.MethodPost, "/api/v1/reload", nil, "")
	assert.Equal(t, http.StatusNotImplemented, rr.Code)

	srv, _ = newLoadedServer(t, Options{Reloader: fakeReloader{ds: &services.Dataset{Version: "v2"}}})
	rr = do(t, srv, http.MethodPost, "/api/v1/reload", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "v2", decode[map[string]any](t, rr)["version"])

	srv, _ = newLoadedServer(t, Options{Reloader: fakeReloader{err: errors.New("disk gone")}})
	rr = do(t, srv, http.MethodPost, "/api/v1/reload", nil, "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "disk gone")
}

func TestRoutingErrors(t *testing.T) {
	srv, _ := newLoadedServer(t, Options{})

	rr := do(t, srv, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "application/json"))

	rr = do(t, srv, http.MethodDelete, "/api/v1/summary", nil, "")
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
