package extraction

import (
	"context"
	"log/slog"
	"strings"
)

// RawTextExcerptLen bounds the raw-text excerpt stored with extracted fields.
const RawTextExcerptLen = 500

// Pipeline chains text extraction and structured-field extraction for a
// document attachment. It never returns an error: every failure mode ends up
// as an "error" key in the resulting mapping.
type Pipeline struct {
	Text   *TextExtractor
	Fields FieldExtractor
	logger *slog.Logger
}

func NewPipeline(text *TextExtractor, fields FieldExtractor, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{Text: text, Fields: fields, logger: logger}
}

// ExtractDocument extracts structured fields from the file at path, tagging
// the result with a raw-text excerpt. Unsupported formats and empty text come
// back as error mappings so request creation is never blocked.
func (p *Pipeline) ExtractDocument(ctx context.Context, path, documentType string) map[string]any {
	text, err := p.Text.Extract(ctx, path)
	if err != nil {
		p.logger.Warn("document extraction skipped", "path", path, "error", err)
		return map[string]any{"error": "Unsupported file format"}
	}
	if strings.TrimSpace(text) == "" {
		p.logger.Warn("document yielded no text", "path", path)
		return map[string]any{"error": "No text could be extracted from the document"}
	}

	fields := p.Fields.ExtractFields(ctx, text, documentType)
	fields["raw_text"] = Excerpt(text, RawTextExcerptLen)
	return fields
}

// Excerpt returns the first max bytes of s
func Excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
