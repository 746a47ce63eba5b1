package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/insightdelivered/reconciliation-bot/internal/parser"
	"github.com/insightdelivered/reconciliation-bot/internal/pipeline"
)

type nopOCR struct{}

func (nopOCR) Recognize(context.Context, image.Image) (string, error) { return "", nil }

const statementCSV = "Date,Description,Amount\n" +
	"03/01,Amazon,-45.67\n" +
	"03/02,Stripe,1200.00\n" +
	"03/03,Unknown Co,-5.00\n"

func setupTestApp(log zerolog.Logger) *fiber.App {
	h := &Handler{
		Engine:               pipeline.New(parser.DefaultRegistry(parser.Options{OCR: nopOCR{}})),
		IncludeUncategorized: true,
	}
	app := NewApp(h, log, ServerOptions{})
	app.Get("/boom", func(*fiber.Ctx) error { panic("kaboom") })
	return app
}

type upload struct {
	field, name, content string
}

func multipartRequest(t *testing.T, path string, files []upload, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = io.WriteString(fw, f.content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var out ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(zerolog.Nop())

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var result map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "ok", result["status"])
	assert.Equal(t, "fiber", result["engine"])
	assert.NotEmpty(t, result["version"])
}

func TestReconcileEndpointRequiresFile(t *testing.T) {
	app := setupTestApp(zerolog.Nop())

	req := httptest.NewRequest(http.MethodPost, "/api/reconcile", nil)
	req.Header.Set("Content-Type", "multipart/form-data; boundary=----test")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.False(t, decodeError(t, resp).Success)
}

func TestReconcileEndpointMissingFileField(t *testing.T) {
	app := setupTestApp(zerolog.Nop())
	req := multipartRequest(t, "/api/reconcile", nil, map[string]string{"debug": "true"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, decodeError(t, resp).Error, "form field 'file'")
}

func TestReconcileEndpoint_XLSX(t *testing.T) {
	app := setupTestApp(zerolog.Nop())
	req := multipartRequest(t, "/api/reconcile", []upload{{"file", "march.csv", statementCSV}}, nil)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, xlsxMIME, resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "reconciliation.xlsx")
	assert.NotEmpty(t, resp.Header.Get("X-Run-ID"))

	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Debits", "Credits"}, f.GetSheetList())
	rows, err := f.GetRows("Debits")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestPreviewEndpoint(t *testing.T) {
	app := setupTestApp(zerolog.Nop())
	req := multipartRequest(t, "/api/preview",
		[]upload{{"file", "march.csv", statementCSV}},
		map[string]string{"include_uncategorized": "false"})

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out PreviewResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Equal(t, "csv", out.Kind)
	assert.Equal(t, 2, out.Count)
	require.Len(t, out.Debits.Rows, 1)
	assert.Equal(t, "Amazon", out.Debits.Rows[0].Vendor)
	assert.Equal(t, "45.67", out.Debits.Total.StringFixed(2))
	assert.Equal(t, "1200.00", out.Credits.Total.StringFixed(2))
}

func TestPreviewEndpoint_RulesOverride(t *testing.T) {
	app := setupTestApp(zerolog.Nop())
	req := multipartRequest(t, "/api/preview", []upload{
		{"file", "march.csv", statementCSV},
		{"rules", "coa.csv", "keyword,account\namazon,Custom Category\n"},
	}, nil)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var out PreviewResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Custom Category", out.Debits.Rows[0].AccountClassification)
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		files  []upload
		status int
		substr string
	}{
		{"unsupported", []upload{{"file", "notes.txt", "hello"}}, fiber.StatusBadRequest, "Unsupported file type"},
		{"schema", []upload{{"file", "march.csv", "foo,bar\n1,2\n"}}, fiber.StatusUnprocessableEntity, "vendor/description column"},
		{"bad rules", []upload{{"file", "march.csv", statementCSV}, {"rules", "coa.csv", "a,b\n"}}, fiber.StatusUnprocessableEntity, "COA must have columns"},
		{"engine", []upload{{"file", "scan.png", "not a png"}}, fiber.StatusInternalServerError, "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupTestApp(zerolog.Nop())
			resp, err := app.Test(multipartRequest(t, "/api/preview", tt.files, nil), -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, decodeError(t, resp).Error, tt.substr)
		})
	}
}

func TestEngineErrorDebugShowsDetail(t *testing.T) {
	app := setupTestApp(zerolog.Nop())
	req := multipartRequest(t, "/api/preview", []upload{{"file", "scan.png", "not a png"}}, map[string]string{"debug": "on"})
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.NotContains(t, decodeError(t, resp).Error, "Something went wrong")
}

func TestRequestIDAndLogging(t *testing.T) {
	var buf bytes.Buffer
	app := setupTestApp(zerolog.New(&buf))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(HeaderRequestID, "req-123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "req-123", resp.Header.Get(HeaderRequestID))
	assert.Contains(t, buf.String(), `"request_id":"req-123"`)
	assert.Contains(t, buf.String(), `"path":"/api/health"`)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/health", nil), -1)
	require.NoError(t, err)
	assert.Len(t, resp.Header.Get(HeaderRequestID), 36)
}

func TestPanicRecovered(t *testing.T) {
	app := setupTestApp(zerolog.Nop())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/boom", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", decodeError(t, resp).Error)
}

func TestNotFoundIsJSON(t *testing.T) {
	app := setupTestApp(zerolog.Nop())
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/nope", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.False(t, decodeError(t, resp).Success)
}
