// Package validation checks uploaded dataset files before they reach the
// report engine: extension, size and content signature.
package validation

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"parulreports/internal/config"
)

// UploadValidator validates uploaded dataset files.
type UploadValidator struct {
	logger *slog.Logger
	cfg    config.UploadConfig
}

// NewUploadValidator creates an upload validator.
func NewUploadValidator(cfg config.UploadConfig, logger *slog.Logger) *UploadValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadValidator{logger: logger, cfg: cfg}
}

// Validate checks an upload's name, size and leading bytes. It rejects what
// can never produce a report; ambiguous content passes through so the engine
// can make the final call.
func (v *UploadValidator) Validate(filename string, data []byte) error {
	ext := filepath.Ext(filename)
	if !v.cfg.AllowsExtension(ext) {
		v.logger.Warn("upload rejected: unsupported extension",
			slog.String("filename", filename),
			slog.String("extension", ext))
		return fmt.Errorf("unsupported file format %q", ext)
	}

	if len(data) == 0 {
		v.logger.Warn("upload rejected: empty file",
			slog.String("filename", filename))
		return fmt.Errorf("uploaded file is empty")
	}

	if int64(len(data)) > v.cfg.MaxBytes {
		v.logger.Warn("upload rejected: too large",
			slog.String("filename", filename),
			slog.Int("size", len(data)),
			slog.Int64("max", v.cfg.MaxBytes))
		return fmt.Errorf("uploaded file exceeds the %d byte limit", v.cfg.MaxBytes)
	}

	if err := v.checkSignature(filename, data); err != nil {
		return err
	}

	v.logger.Debug("upload accepted",
		slog.String("filename", filename),
		slog.Int("size", len(data)))
	return nil
}

// checkSignature rejects content that is neither a zip-based workbook nor
// plausible text. Exporting tools routinely mislabel CSV as .xls, so a
// declared Excel file with text content is fine; random binary is not.
func (v *UploadValidator) checkSignature(filename string, data []byte) error {
	if len(data) >= 2 && data[0] == 'P' && data[1] == 'K' {
		return nil
	}
	if looksLikeText(data) {
		return nil
	}
	v.logger.Warn("upload rejected: unrecognized content",
		slog.String("filename", filename))
	return fmt.Errorf("file content is neither a workbook nor text")
}

// looksLikeText inspects the first KiB for NUL bytes and UTF-16 BOMs. A BOM
// marks valid text; a bare NUL marks binary.
func looksLikeText(data []byte) bool {
	if len(data) >= 2 {
		if (data[0] == 0xFF && data[1] == 0xFE) || (data[0] == 0xFE && data[1] == 0xFF) {
			return true
		}
	}
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	// Windows-1252 exports are not valid UTF-8 but contain no NULs, so a
	// NUL scan is the safest text heuristic here.
	for _, b := range sample {
		if b == 0 {
			return false
		}
	}
	return true
}

// NormalizedExtension returns the lowercase extension without the dot, used
// for logging and metrics labels.
func NormalizedExtension(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}
