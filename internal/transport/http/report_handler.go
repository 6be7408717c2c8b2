// Package http contains the HTTP handlers: multipart upload in, workbook
// download out.
package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"parulreports/internal/config"
	apierrors "parulreports/internal/errors"
	"parulreports/internal/report"
	"parulreports/internal/services"
	"parulreports/internal/validation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// generateRequest is the validated form of the upload.
type generateRequest struct {
	Filename   string `validate:"required"`
	ReportType string `validate:"required,oneof=participation performance weekly"`
}

// ReportHandler handles report generation requests.
type ReportHandler struct {
	service  *services.ReportService
	upload   config.UploadConfig
	uploads  *validation.UploadValidator
	logger   *slog.Logger
	validate *validator.Validate
}

// NewReportHandler creates a report handler.
func NewReportHandler(service *services.ReportService, upload config.UploadConfig, logger *slog.Logger) *ReportHandler {
	return &ReportHandler{
		service:  service,
		upload:   upload,
		uploads:  validation.NewUploadValidator(upload, logger),
		logger:   logger,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the report routes.
func (h *ReportHandler) RegisterRoutes(r chi.Router) {
	r.Post("/reports/generate", h.Generate)
}

// Generate accepts a multipart upload (fields: file, report_type) and
// responds with the generated workbook as an attachment.
func (h *ReportHandler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.upload.MaxBytes)
	if err := r.ParseMultipartForm(h.upload.MaxBytes); err != nil {
		h.renderError(w, r, uploadError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.renderError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest, "MISSING_FILE",
			"No file uploaded. Please select a CSV or Excel file.", err.Error()))
		return
	}
	defer file.Close()

	req := generateRequest{
		Filename:   header.Filename,
		ReportType: r.FormValue("report_type"),
	}
	if err := h.validate.Struct(req); err != nil {
		h.renderError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest, "VALIDATION_FAILED",
			"Please select a report type (participation, performance or weekly).", err.Error()))
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.renderError(w, r, uploadError(err))
		return
	}

	if err := h.uploads.Validate(req.Filename, data); err != nil {
		h.renderError(w, r, apierrors.NewWithDetails(
			http.StatusBadRequest, "UNSUPPORTED_FORMAT",
			"The uploaded file was rejected. Please upload CSV or Excel files.", err.Error()))
		return
	}

	result, err := h.service.Generate(ctx, services.GenerateRequest{
		Filename:   req.Filename,
		Data:       data,
		ReportType: req.ReportType,
	})
	if err != nil {
		var ee *report.EngineError
		if errors.As(err, &ee) {
			h.renderError(w, r, apierrors.FromEngine(err))
			return
		}
		h.renderError(w, r, apierrors.ErrInvalidRequest)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		h.logger.WarnContext(ctx, "failed to write workbook response",
			slog.String("error", err.Error()))
	}
}

func uploadError(err error) *apierrors.APIError {
	if strings.Contains(err.Error(), "request body too large") {
		return apierrors.ErrFileTooLarge
	}
	return apierrors.NewWithDetails(
		http.StatusBadRequest, "INVALID_UPLOAD",
		"The upload could not be read.", err.Error())
}

func (h *ReportHandler) renderError(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	h.logger.WarnContext(r.Context(), "request rejected",
		slog.String("error_code", apiErr.ErrorCode),
		slog.Int("status", apiErr.StatusCode))
	if err := render.Render(w, r, apierrors.NewErrorResponse(apiErr)); err != nil {
		http.Error(w, apiErr.Message, apiErr.StatusCode)
	}
}
