package vision

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

const defaultEndpoint = "https://api.visionocr.example.com/v1/recognize"

func init() {
	provider.Register("vision", func(cfg *config.ProviderEntryConfig) (port.DocumentProvider, error) {
		return NewClient(cfg), nil
	})
}

// Client implements port.DocumentProvider against a plain OCR service. It
// never produces labeled fields, only recognized text, so documents routed
// through it rely entirely on the text-pattern fallback layer.
type Client struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// NewClient creates an OCR client from an entry config.
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

type recognizeRequest struct {
	Image       string `json:"image"`
	ContentType string `json:"content_type"`
}

type recognizeResponse struct {
	Text string `json:"text"`
}

func (c *Client) Extract(ctx context.Context, input port.ExtractInput) (*port.ExtractOutput, error) {
	reqBody := recognizeRequest{
		Image:       base64.StdEncoding.EncodeToString(input.FileBytes),
		ContentType: input.ContentType,
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
		return nil, fmt.Errorf("calling OCR API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("OCR API error (status %d)", resp.StatusCode)
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := provider.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, provider.NewRateLimitError("vision", baseErr, retryAfter)
		}
		return nil, baseErr
	}

	var parsed recognizeResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	return &port.ExtractOutput{RawText: parsed.Text}, nil
}
