// Package extraction turns uploaded documents (PDF, JPG/JPEG/PNG) into plain
// text and then into structured fields via an OpenAI-compatible completion
// endpoint. Extraction failures degrade to empty text or error mappings; they
// are never raised past this package.
package extraction

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat is returned for file extensions the extractor does not
// recognize. It is the only error Extract ever returns; everything else folds
// into empty text.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// Document type enum constants
const (
	DocTypeProforma = "proforma"
	DocTypeReceipt  = "receipt"
)

// TextConfig configures the OCR fallback for images
type TextConfig struct {
	Tesseract     string // binary name or absolute path; if empty -> "tesseract"
	TesseractLang string // default "eng"
}

// TextExtractor extracts plain text from PDF and image attachments
type TextExtractor struct {
	cfg    TextConfig
	runner Runner
	logger *slog.Logger
}

func NewTextExtractor(cfg TextConfig, logger *slog.Logger) *TextExtractor {
	return NewTextExtractorWithRunner(cfg, execRunner{}, logger)
}

// NewTextExtractorWithRunner swaps the command runner, letting tests stub the
// OCR engine.
func NewTextExtractorWithRunner(cfg TextConfig, runner Runner, logger *slog.Logger) *TextExtractor {
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TextExtractor{cfg: cfg, runner: runner, logger: logger}
}

// Extract picks a strategy based on file extension: PDF text layer for .pdf,
// tesseract OCR for images. Callers must treat whitespace-only output as an
// extraction failure; only unknown extensions surface an error.
func (e *TextExtractor) Extract(ctx context.Context, path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return e.extractPDF(ctx, path), nil
	case ".jpg", ".jpeg", ".png":
		return e.extractImage(ctx, path), nil
	default:
		return "", ErrUnsupportedFormat
	}
}

// extractPDF concatenates per-page text; pages without a text layer contribute
// nothing. A corrupt file logs and yields empty text.
func (e *TextExtractor) extractPDF(ctx context.Context, path string) string {
	f, r, err := pdf.Open(path)
	if err != nil {
		e.logger.Error("pdf open failed", "path", path, "error", err)
		return ""
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Warn("pdf close failed", "path", path, "error", cerr)
		}
	}()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		select {
		case <-ctx.Done():
			e.logger.Warn("pdf extraction cancelled", "path", path, "page", i)
			return b.String()
		default:
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("pdf page extraction failed", "path", path, "page", i, "error", err)
			continue
		}
		if text != "" {
			b.WriteString(text)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// extractImage runs tesseract; OCR engine failures log and yield empty text.
func (e *TextExtractor) extractImage(ctx context.Context, path string) string {
	// tesseract <file> stdout -l <lang>
	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, path, "stdout", "-l", e.cfg.TesseractLang)
	if err != nil {
		e.logger.Error("image ocr failed", "path", path, "error", err)
		return ""
	}
	return string(out)
}
