package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"parulreports/internal/config"
	"parulreports/internal/services"
)

func newTestRouter(t *testing.T, upload config.UploadConfig) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewReportHandler(services.NewReportService(logger), upload, logger).RegisterRoutes(r)
	return r
}

func defaultUpload() config.UploadConfig {
	return config.UploadConfig{
		MaxBytes:          16 << 20,
		AllowedExtensions: []string{"csv", "xlsx", "xls"},
	}
}

func multipartBody(t *testing.T, filename, reportType, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	if reportType != "" {
		require.NoError(t, w.WriteField("report_type", reportType))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func decodeErrorResponse(t *testing.T, body io.Reader) map[string]any {
	t.Helper()
	var envelope struct {
		Success bool           `json:"success"`
		Error   map[string]any `json:"error"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&envelope))
	assert.False(t, envelope.Success)
	return envelope.Error
}

const sampleCSV = "Name,Department,Test Status\nAsha,CS,Completed\nBilal,ME,Not Started\n"

func TestGenerateEndpoint(t *testing.T) {
	router := newTestRouter(t, defaultUpload())

	t.Run("happy path returns a workbook attachment", func(t *testing.T) {
		body, contentType := multipartBody(t, "cohort.csv", "participation", sampleCSV)
		req := httptest.NewRequest(http.MethodPost, "/reports/generate", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), "cohort_participation_report.xlsx")

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, []string{"Data", "Participation Summary"}, f.GetSheetList())
	})

	t.Run("missing file", func(t *testing.T) {
		body, contentType := multipartBody(t, "", "participation", "")
		req := httptest.NewRequest(http.MethodPost, "/reports/generate", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "MISSING_FILE", decodeErrorResponse(t, rec.Body)["error_code"])
	})

	t.Run("invalid report type", func(t *testing.T) {
		body, contentType := multipartBody(t, "cohort.csv", "quarterly", sampleCSV)
		req := httptest.NewRequest(http.MethodPost, "/reports/generate", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "VALIDATION_FAILED", decodeErrorResponse(t, rec.Body)["error_code"])
	})

	t.Run("unsupported extension", func(t *testing.T) {
		body, contentType := multipartBody(t, "cohort.pdf", "participation", sampleCSV)
		req := httptest.NewRequest(http.MethodPost, "/reports/generate", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "UNSUPPORTED_FORMAT", decodeErrorResponse(t, rec.Body)["error_code"])
	})

	t.Run("engine failure maps to 422 with the failure kind", func(t *testing.T) {
		body, contentType := multipartBody(t, "cohort.csv", "participation",
			"Name,Test Status\nAsha,Completed\n")
		req := httptest.NewRequest(http.MethodPost, "/reports/generate", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		errObj := decodeErrorResponse(t, rec.Body)
		assert.Equal(t, "COLUMN_NOT_FOUND", errObj["error_code"])
		assert.Contains(t, errObj["details"], "department")
	})

	t.Run("empty dataset maps to 422", func(t *testing.T) {
		body, contentType := multipartBody(t, "cohort.csv", "participation",
			"Name,Department,Test Status\n")
		req := httptest.NewRequest(http.MethodPost, "/reports/generate", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "EMPTY_DATASET", decodeErrorResponse(t, rec.Body)["error_code"])
	})

	t.Run("oversized upload is rejected", func(t *testing.T) {
		small := newTestRouter(t, config.UploadConfig{
			MaxBytes:          64,
			AllowedExtensions: []string{"csv"},
		})
		body, contentType := multipartBody(t, "cohort.csv", "participation", sampleCSV)
		req := httptest.NewRequest(http.MethodPost, "/reports/generate", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		small.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	r := chi.NewRouter()
	NewHealthHandler("1.2.3").RegisterRoutes(r)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var payload map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&payload))
	assert.Equal(t, "healthy", payload["status"])
	assert.Equal(t, "1.2.3", payload["version"])
}
