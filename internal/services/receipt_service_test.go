package services

import (
	"context"
	"errors"
	"os"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/extract"
)

type fakeExtractor struct {
	bag        extract.FieldBag
	err        error
	called     bool
	stagedPath string
	sawStaged  bool
}

func (f *fakeExtractor) Extract(_ context.Context, path, _ string) (extract.FieldBag, error) {
	f.called = true
	f.stagedPath = path
	if _, err := os.Stat(path); err == nil {
		f.sawStaged = true
	}
	return f.bag, f.err
}

func testConfig() ExtractionConfig {
	return ExtractionConfig{
		MaxBytes:            10 << 20,
		DefaultCurrency:     "INR",
		SentinelCategory:    "Other",
		SentinelDescription: "Receipt",
	}
}

func newTestReceiptService(ex extract.Extractor) *ReceiptService {
	svc := NewReceiptService(ex, testConfig())
	svc.today = func() core.Date { return core.NewDate(2024, 6, 15) }
	return svc
}

func TestProcessRejectsUnsupportedMediaBeforeStaging(t *testing.T) {
	ex := &fakeExtractor{}
	svc := newTestReceiptService(ex)

	_, err := svc.Process(context.Background(), []byte("hello"), "text/plain")
	if core.KindOf(err) != core.KindUnsupportedMedia {
		t.Fatalf("expected unsupported_media, got %v", err)
	}
	if ex.called {
		t.Fatal("extractor must not be invoked for rejected uploads")
	}
}

func TestProcessRejectsOversizedUpload(t *testing.T) {
	ex := &fakeExtractor{}
	svc := NewReceiptService(ex, ExtractionConfig{
		MaxBytes: 4, DefaultCurrency: "INR", SentinelCategory: "Other", SentinelDescription: "Receipt",
	})

	_, err := svc.Process(context.Background(), []byte("12345"), "image/jpeg")
	if core.KindOf(err) != core.KindUnsupportedMedia {
		t.Fatalf("expected unsupported_media, got %v", err)
	}
	if ex.called {
		t.Fatal("extractor must not be invoked for oversized uploads")
	}
}

func TestProcessEmptyFieldBagYieldsFullDefaults(t *testing.T) {
	svc := newTestReceiptService(&fakeExtractor{bag: extract.FieldBag{}})

	draft, err := svc.Process(context.Background(), []byte{0xFF, 0xD8}, "image/jpeg")
	if err != nil {
		t.Fatalf("process: %v", err)
	}

	want := core.Draft{
		Type:        core.Expense,
		Amount:      core.Money{Cents: 0},
		Currency:    "INR",
		Category:    "Other",
		Description: "Receipt",
		Date:        core.NewDate(2024, 6, 15),
	}
	if draft != want {
		t.Fatalf("expected %+v, got %+v", want, draft)
	}
}

func TestProcessMapsExtractedFields(t *testing.T) {
	svc := newTestReceiptService(&fakeExtractor{bag: extract.FieldBag{
		"amount":            {Value: "249.50"},
		"date":              {Value: "2024-06-01"},
		"description":       {Value: "Cafe Madras"},
		"purchase_category": {Value: "Food"},
		"currency":          {Value: "USD"}, // ignored: currency is always forced
	}})

	draft, err := svc.Process(context.Background(), []byte("%PDF-"), "application/pdf")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if draft.Type != core.Expense {
		t.Fatal("type must always be expense")
	}
	if draft.Amount.Cents != 24950 {
		t.Fatalf("amount: expected 24950, got %d", draft.Amount.Cents)
	}
	if draft.Currency != "INR" {
		t.Fatalf("currency must be forced to the default, got %q", draft.Currency)
	}
	if draft.Category != "Food" || draft.Description != "Cafe Madras" {
		t.Fatalf("unexpected draft: %+v", draft)
	}
	if draft.Date.String() != "2024-06-01" {
		t.Fatalf("date: got %s", draft.Date)
	}
}

func TestProcessDefaultsUnparseableValues(t *testing.T) {
	svc := newTestReceiptService(&fakeExtractor{bag: extract.FieldBag{
		"amount": {Value: "approx. twenty"},
		"date":   {Value: "last tuesday"},
	}})

	draft, err := svc.Process(context.Background(), []byte{0xFF, 0xD8}, "image/png")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if draft.Amount.Cents != 0 {
		t.Fatalf("unparseable amount should default to 0, got %d", draft.Amount.Cents)
	}
	if draft.Date.String() != "2024-06-15" {
		t.Fatalf("unparseable date should default to today, got %s", draft.Date)
	}
}

func TestProcessClassifiesExtractionFailures(t *testing.T) {
	t.Run("service error", func(t *testing.T) {
		svc := newTestReceiptService(&fakeExtractor{err: errors.New("quota exceeded")})
		_, err := svc.Process(context.Background(), []byte{1}, "image/jpeg")
		if core.KindOf(err) != core.KindExtractionFailed {
			t.Fatalf("expected extraction_failed, got %v", err)
		}
	})

	t.Run("missing field container", func(t *testing.T) {
		svc := newTestReceiptService(&fakeExtractor{bag: nil})
		_, err := svc.Process(context.Background(), []byte{1}, "image/jpeg")
		if core.KindOf(err) != core.KindExtractionFailed {
			t.Fatalf("expected extraction_failed, got %v", err)
		}
	})

	t.Run("no extractor configured", func(t *testing.T) {
		svc := newTestReceiptService(nil)
		_, err := svc.Process(context.Background(), []byte{1}, "image/jpeg")
		if core.KindOf(err) != core.KindExtractionFailed {
			t.Fatalf("expected extraction_failed, got %v", err)
		}
	})
}

func TestProcessStagesAndCleansUp(t *testing.T) {
	ex := &fakeExtractor{bag: extract.FieldBag{}}
	svc := newTestReceiptService(ex)

	if _, err := svc.Process(context.Background(), []byte("receipt bytes"), "image/jpeg"); err != nil {
		t.Fatalf("process: %v", err)
	}
	if !ex.sawStaged {
		t.Fatal("staged file should exist while the extractor runs")
	}
	if _, err := os.Stat(ex.stagedPath); !os.IsNotExist(err) {
		t.Fatalf("staged file should be removed after the pipeline returns: %v", err)
	}

	// Cleanup happens on failure paths too.
	ex = &fakeExtractor{err: errors.New("boom")}
	svc = newTestReceiptService(ex)
	if _, err := svc.Process(context.Background(), []byte("receipt bytes"), "image/jpeg"); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(ex.stagedPath); !os.IsNotExist(err) {
		t.Fatalf("staged file should be removed on failure: %v", err)
	}
}
