package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// FieldExtractor maps raw document text to a structured field mapping. All
// failures are folded into the mapping ("error" or "raw_response" keys), never
// returned as errors, so a single extraction failure degrades gracefully
// instead of aborting the enclosing workflow action.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, text, documentType string) map[string]any
}

// OpenAIConfig configures the completion endpoint client.
type OpenAIConfig struct {
	APIKey      string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // default gpt-3.5-turbo
	Temperature float32       // low temperature favors deterministic output
	Timeout     time.Duration // http client timeout
}

// OpenAIClient implements FieldExtractor against an OpenAI-compatible
// chat/completions endpoint.
type OpenAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	logger     *slog.Logger
}

func NewOpenAIClient(cfg OpenAIConfig, logger *slog.Logger) *OpenAIClient {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-3.5-turbo"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractFields sends the document text through the type-specific prompt and
// parses the JSON completion. Missing credentials short-circuit without a
// network call; transport and API failures surface under the "error" key;
// unparseable completions come back under "raw_response".
func (c *OpenAIClient) ExtractFields(ctx context.Context, text, documentType string) map[string]any {
	if c.cfg.APIKey == "" {
		return map[string]any{"error": "OpenAI API key not configured"}
	}

	prompt, ok := promptFor(documentType, text)
	if !ok {
		return map[string]any{"error": "Unknown document type"}
	}

	start := time.Now()
	content, err := c.complete(ctx, prompt)
	if err != nil {
		c.logger.Error("llm extraction failed",
			"document_type", documentType,
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return map[string]any{"error": err.Error()}
	}

	content = stripCodeFence(content)

	var fields map[string]any
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		c.logger.Warn("llm returned non-JSON content",
			"document_type", documentType,
			"content_len", len(content),
		)
		return map[string]any{"raw_response": content}
	}

	// Advisory only: schema violations are logged, the data is kept as-is.
	if err := validateFields(documentType, fields); err != nil {
		c.logger.Warn("extracted fields failed schema validation",
			"document_type", documentType,
			"error", err,
		)
	}

	c.logger.Info("llm extraction ok",
		"document_type", documentType,
		"fields", len(fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields
}

func (c *OpenAIClient) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Temperature: c.cfg.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("response body close failed", "error", cerr)
		}
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("completion endpoint returned status %d: %s", resp.StatusCode, truncate(string(raw), 512))
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}
	return strings.TrimSpace(cc.Choices[0].Message.Content), nil
}

// stripCodeFence removes a leading/trailing triple-backtick fence (optionally
// tagged json) so fenced completions parse identically to bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```json") {
		s = s[len("```json"):]
	} else if strings.HasPrefix(s, "```") {
		s = s[len("```"):]
	}
	if idx := strings.LastIndex(s, "```"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
