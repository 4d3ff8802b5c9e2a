package extraction

import (
	"context"
	"strings"
	"testing"
)

// fakeFields returns a fixed mapping regardless of input
type fakeFields struct {
	fields map[string]any
}

func (f *fakeFields) ExtractFields(ctx context.Context, text, documentType string) map[string]any {
	out := make(map[string]any, len(f.fields))
	for k, v := range f.fields {
		out[k] = v
	}
	return out
}

func TestPipelineUnsupportedFormat(t *testing.T) {
	p := NewPipeline(NewTextExtractor(TextConfig{}, nil), &fakeFields{}, nil)

	fields := p.ExtractDocument(context.Background(), "contract.docx", DocTypeProforma)
	if fields["error"] != "Unsupported file format" {
		t.Fatalf("expected unsupported-format error, got %v", fields)
	}
}

func TestPipelineEmptyText(t *testing.T) {
	text := NewTextExtractor(TextConfig{}, nil)
	text.runner = &fakeRunner{stdout: []byte("   \n  ")}
	p := NewPipeline(text, &fakeFields{}, nil)

	fields := p.ExtractDocument(context.Background(), "blank.png", DocTypeProforma)
	if fields["error"] != "No text could be extracted from the document" {
		t.Fatalf("expected empty-text error, got %v", fields)
	}
}

func TestPipelineTagsRawTextExcerpt(t *testing.T) {
	longText := strings.Repeat("proforma invoice line\n", 100)
	text := NewTextExtractor(TextConfig{}, nil)
	text.runner = &fakeRunner{stdout: []byte(longText)}
	p := NewPipeline(text, &fakeFields{fields: map[string]any{"vendor": "Acme"}}, nil)

	fields := p.ExtractDocument(context.Background(), "scan.jpg", DocTypeProforma)
	if fields["vendor"] != "Acme" {
		t.Errorf("vendor = %v, want Acme", fields["vendor"])
	}
	raw, ok := fields["raw_text"].(string)
	if !ok {
		t.Fatalf("missing raw_text excerpt: %v", fields)
	}
	if len(raw) != RawTextExcerptLen {
		t.Errorf("excerpt length = %d, want %d", len(raw), RawTextExcerptLen)
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("short", 500); got != "short" {
		t.Errorf("Excerpt(short) = %q", got)
	}
	if got := Excerpt(strings.Repeat("x", 600), 500); len(got) != 500 {
		t.Errorf("Excerpt length = %d, want 500", len(got))
	}
}
