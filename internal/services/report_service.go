// Package services wraps the report engine for the HTTP layer: profile and
// format parsing, output naming and metrics.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"parulreports/internal/dataset"
	"parulreports/internal/infrastructure"
	"parulreports/internal/report"
	"parulreports/internal/validation"
)

// GenerateRequest describes one report generation call.
type GenerateRequest struct {
	Filename   string // original upload name, used for format and output naming
	Data       []byte
	ReportType string
}

// GenerateResult carries the serialized workbook and its download name.
type GenerateResult struct {
	Filename string
	Data     []byte
}

// ReportService runs report generation requests through the engine.
type ReportService struct {
	pipeline *report.Pipeline
	logger   *slog.Logger
}

// NewReportService creates a report service.
func NewReportService(logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportService{
		pipeline: report.NewPipeline(logger),
		logger:   logger,
	}
}

// Generate runs one report generation. Engine failures come back as
// *report.EngineError for the transport layer to map.
func (s *ReportService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	profile, err := report.ParseProfile(req.ReportType)
	if err != nil {
		return nil, fmt.Errorf("parse report type: %w", err)
	}

	format, err := dataset.ParseFormat(validation.NormalizedExtension(req.Filename))
	if err != nil {
		return nil, fmt.Errorf("parse upload format: %w", err)
	}

	start := time.Now()
	out, err := s.pipeline.Generate(ctx, req.Data, format, profile)
	infrastructure.ObserveReport(profile.String(), err, time.Since(start))
	if err != nil {
		s.logger.WarnContext(ctx, "report generation failed",
			slog.String("profile", profile.String()),
			slog.String("filename", req.Filename),
			slog.String("error", err.Error()))
		return nil, err
	}

	base := strings.TrimSuffix(filepath.Base(req.Filename), filepath.Ext(req.Filename))
	return &GenerateResult{
		Filename: profile.OutputFilename(base),
		Data:     out,
	}, nil
}
