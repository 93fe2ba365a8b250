package services

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/extract"
)

// ExtractionConfig carries the policy knobs for the receipt pipeline,
// passed in explicitly so the pipeline stays independently testable.
type ExtractionConfig struct {
	MaxBytes            int64
	DefaultCurrency     string
	SentinelCategory    string
	SentinelDescription string
}

// ReceiptService runs one upload through the extraction pipeline:
// Received -> Staged -> Submitted -> Parsed, or ExtractionFailed. It holds
// no state across requests and writes nothing to the store; the caller
// confirms the returned draft through ordinary transaction creation.
type ReceiptService struct {
	extractor extract.Extractor
	cfg       ExtractionConfig
	today     func() core.Date
}

func NewReceiptService(extractor extract.Extractor, cfg ExtractionConfig) *ReceiptService {
	return &ReceiptService{
		extractor: extractor,
		cfg:       cfg,
		today:     core.Today,
	}
}

// Process accepts the upload, stages it to a transient file, invokes the
// extraction service and maps the field bag into a draft. The staged file
// is removed on every exit path; removal failures are logged, never
// escalated over the pipeline's own result.
func (s *ReceiptService) Process(ctx context.Context, data []byte, mimeType string) (core.Draft, error) {
	if !supportedMIME(mimeType) {
		return core.Draft{}, core.UnsupportedMediaf("only image and PDF files are allowed")
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return core.Draft{}, core.UnsupportedMediaf("file exceeds %d byte limit", s.cfg.MaxBytes)
	}
	if s.extractor == nil {
		return core.Draft{}, core.ExtractionFailed("extraction service not configured", nil)
	}

	path, err := stageFile(data, mimeType)
	if err != nil {
		return core.Draft{}, core.ExtractionFailed("stage receipt", err)
	}
	defer func() {
		if err := os.Remove(path); err != nil {
			slog.WarnContext(ctx, "Failed to remove staged receipt", "path", path, "error", err)
		}
	}()

	bag, err := s.extractor.Extract(ctx, path, mimeType)
	if err != nil {
		return core.Draft{}, core.ExtractionFailed("invoke extraction service", err)
	}
	if bag == nil {
		return core.Draft{}, core.ExtractionFailed("malformed extraction response: missing field container", nil)
	}

	return s.mapDraft(ctx, bag), nil
}

// mapDraft applies the default policy: every field has a fallback, currency
// and type are forced regardless of what the service returned.
func (s *ReceiptService) mapDraft(ctx context.Context, bag extract.FieldBag) core.Draft {
	draft := core.Draft{
		Type:        core.Expense,
		Currency:    s.cfg.DefaultCurrency,
		Category:    s.cfg.SentinelCategory,
		Description: s.cfg.SentinelDescription,
		Date:        s.today(),
	}

	if v := bag["amount"].Value; v != "" {
		if cents, err := core.ParseAmountToCents(v); err == nil {
			draft.Amount = core.Money{Cents: cents}
		} else {
			slog.WarnContext(ctx, "Unparseable amount in extraction result", "value", v)
		}
	}
	if v := bag["date"].Value; v != "" {
		if d, err := core.ParseDate(v); err == nil {
			draft.Date = d
		} else {
			slog.WarnContext(ctx, "Unparseable date in extraction result", "value", v)
		}
	}
	if v := bag["description"].Value; v != "" {
		draft.Description = v
	}
	if v := bag["purchase_category"].Value; v != "" {
		draft.Category = v
	}

	return draft
}

func supportedMIME(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/") || mimeType == "application/pdf"
}

func stageFile(data []byte, mimeType string) (string, error) {
	ext := "jpg"
	if mimeType == "application/pdf" {
		ext = "pdf"
	}
	f, err := os.CreateTemp("", "receipt_*."+ext)
	if err != nil {
		return "", err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
