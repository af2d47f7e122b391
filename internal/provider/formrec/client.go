package formrec

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"taxline/internal/config"
	"taxline/internal/port"
	"taxline/internal/provider"
)

const defaultEndpoint = "https://api.formrecognition.example.com/v1/analyze"

func init() {
	provider.Register("formrec", func(cfg *config.ProviderEntryConfig) (port.DocumentProvider, error) {
		return NewClient(cfg), nil
	})
}

// Client implements port.DocumentProvider against a forms-recognition HTTP
// API that returns recognized text plus labeled field values.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates a forms-recognition client from an entry config.
func NewClient(cfg *config.ProviderEntryConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewClientWithEndpoint creates a client pointing at a custom API endpoint (for testing).
func NewClientWithEndpoint(cfg *config.ProviderEntryConfig, endpoint string) *Client {
	c := NewClient(cfg)
	c.endpoint = endpoint
	return c
}

type analyzeRequest struct {
	Document    string `json:"document"`
	ContentType string `json:"content_type"`
	Mode        string `json:"mode"`
	Model       string `json:"model,omitempty"`
	Hint        string `json:"hint,omitempty"`
}

type analyzeResponse struct {
	Text   string                 `json:"text"`
	Fields map[string]interface{} `json:"fields"`
	Model  string                 `json:"model"`
}

func (c *Client) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	mode := "full"
	if input.TextOnly {
		mode = "text"
	}
	reqBody := analyzeRequest{
		Document:    base64.StdEncoding.EncodeToString(input.FileBytes),
		ContentType: input.ContentType,
		Mode:        mode,
		Model:       c.model,
		Hint:        string(input.CategoryHint),
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling forms-recognition API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("forms-recognition API error (status %d): %s", resp.StatusCode, truncate(string(respBody), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := provider.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, provider.NewRateLimitError("formrec", baseErr, retryAfter)
		}
		return nil, baseErr
	}

	var parsed analyzeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	out := &port.ExtractOutput{
		RawText:   parsed.Text,
		ModelUsed: parsed.Model,
	}
	if !input.TextOnly {
		out.LabeledFields = parsed.Fields
	}
	return out, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
