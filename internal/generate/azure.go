package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const azureDefaultAPIVersion = "2023-12-01-preview"

// AzureOptions configures the Azure OpenAI backend.
type AzureOptions struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string // default: 2023-12-01-preview

	HTTPClient *http.Client
}

type Azure struct {
	endpoint   string
	apiKey     string
	deployment string
	apiVersion string
	httpc      *http.Client
}

func NewAzure(opts AzureOptions) *Azure {
	a := &Azure{
		endpoint:   strings.TrimRight(strings.TrimSpace(opts.Endpoint), "/"),
		apiKey:     strings.TrimSpace(opts.APIKey),
		deployment: strings.TrimSpace(opts.Deployment),
		apiVersion: strings.TrimSpace(opts.APIVersion),
		httpc:      opts.HTTPClient,
	}
	if a.apiVersion == "" {
		a.apiVersion = azureDefaultAPIVersion
	}
	if a.httpc == nil {
		a.httpc = &http.Client{Timeout: 30 * time.Second}
	}
	return a
}

func (a *Azure) Name() string { return "azure" }

func (a *Azure) Available() bool {
	return a.endpoint != "" && a.apiKey != "" && a.deployment != ""
}

type azureMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type azureRequest struct {
	Messages    []azureMessage `json:"messages"`
	Temperature float64        `json:"temperature"`
	MaxTokens   int            `json:"max_tokens"`
}

type azureResponse struct {
	Choices []struct {
		Message azureMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (a *Azure) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if !a.Available() {
		return "", fmt.Errorf("azure: not configured")
	}

	payload, err := json.Marshal(azureRequest{
		Messages: []azureMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.7,
		MaxTokens:   120,
	})
	if err != nil {
		return "", fmt.Errorf("azure: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		a.endpoint, url.PathEscape(a.deployment), url.QueryEscape(a.apiVersion))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("azure: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", a.apiKey)

	resp, err := a.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("azure: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("azure: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("azure: status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var out azureResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("azure: decode response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("azure: api error %s: %s", out.Error.Code, out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", nil
	}
	return out.Choices[0].Message.Content, nil
}
