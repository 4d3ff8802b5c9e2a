package extraction

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestStripCodeFence(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare json", `{"vendor": "Acme"}`, `{"vendor": "Acme"}`},
		{"json fence", "```json\n{\"vendor\": \"Acme\"}\n```", `{"vendor": "Acme"}`},
		{"plain fence", "```\n{\"vendor\": \"Acme\"}\n```", `{"vendor": "Acme"}`},
		{"surrounding whitespace", "  \n{\"a\": 1}\n  ", `{"a": 1}`},
		{"fence without newlines", "```json{\"a\": 1}```", `{"a": 1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripCodeFence(tt.in); got != tt.want {
				t.Errorf("stripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// completionServer fakes the chat/completions endpoint with a fixed message content
func completionServer(t *testing.T, status int, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.WriteHeader(status)
		if status < 200 || status >= 300 {
			_, _ = w.Write([]byte(`{"error": {"message": "boom"}}`))
			return
		}
		body := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(body)
	}))
}

func newTestClient(t *testing.T, baseURL string) *OpenAIClient {
	t.Helper()
	return NewOpenAIClient(OpenAIConfig{
		APIKey:  "test-key",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}, nil)
}

func TestExtractFieldsMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	client := NewOpenAIClient(OpenAIConfig{}, nil)

	fields := client.ExtractFields(context.Background(), "some text", DocTypeProforma)
	if fields["error"] != "OpenAI API key not configured" {
		t.Fatalf("expected missing-key error, got %v", fields)
	}
}

func TestExtractFieldsUnknownDocumentType(t *testing.T) {
	srv := completionServer(t, http.StatusOK, `{}`)
	defer srv.Close()

	fields := newTestClient(t, srv.URL).ExtractFields(context.Background(), "text", "contract")
	if fields["error"] != "Unknown document type" {
		t.Fatalf("expected unknown-type error, got %v", fields)
	}
}

func TestExtractFieldsParsesFencedJSON(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "```json\n{\"vendor\": \"Acme Corp\", \"total_amount\": 150.5}\n```")
	defer srv.Close()

	fields := newTestClient(t, srv.URL).ExtractFields(context.Background(), "invoice text", DocTypeProforma)
	if fields["vendor"] != "Acme Corp" {
		t.Errorf("vendor = %v, want Acme Corp", fields["vendor"])
	}
	if fields["total_amount"] != 150.5 {
		t.Errorf("total_amount = %v, want 150.5", fields["total_amount"])
	}
	if _, ok := fields["error"]; ok {
		t.Errorf("unexpected error key: %v", fields["error"])
	}
}

func TestExtractFieldsNonJSONKeepsRaw(t *testing.T) {
	srv := completionServer(t, http.StatusOK, "Sorry, I could not parse the document.")
	defer srv.Close()

	fields := newTestClient(t, srv.URL).ExtractFields(context.Background(), "text", DocTypeReceipt)
	raw, ok := fields["raw_response"].(string)
	if !ok || raw != "Sorry, I could not parse the document." {
		t.Fatalf("expected raw_response fallback, got %v", fields)
	}
}

func TestExtractFieldsAPIError(t *testing.T) {
	srv := completionServer(t, http.StatusInternalServerError, "")
	defer srv.Close()

	fields := newTestClient(t, srv.URL).ExtractFields(context.Background(), "text", DocTypeProforma)
	msg, ok := fields["error"].(string)
	if !ok || msg == "" {
		t.Fatalf("expected error mapping for non-2xx response, got %v", fields)
	}
}

func TestExtractFieldsTransportError(t *testing.T) {
	srv := completionServer(t, http.StatusOK, `{}`)
	srv.Close() // connection refused from here on

	fields := newTestClient(t, srv.URL).ExtractFields(context.Background(), "text", DocTypeProforma)
	if _, ok := fields["error"].(string); !ok {
		t.Fatalf("expected error mapping for transport failure, got %v", fields)
	}
}

func TestPromptForKnownTypes(t *testing.T) {
	for _, dt := range []string{DocTypeProforma, DocTypeReceipt} {
		prompt, ok := promptFor(dt, "BODY TEXT")
		if !ok {
			t.Fatalf("promptFor(%q) not ok", dt)
		}
		if !strings.Contains(prompt, "BODY TEXT") {
			t.Errorf("promptFor(%q) missing document text", dt)
		}
	}
	if _, ok := promptFor("contract", "x"); ok {
		t.Error("promptFor must reject unknown types")
	}
}
