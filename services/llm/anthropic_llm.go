package llm

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

	"github.com/awnumar/memguard"
)

const (
	anthropicAPIVersion    = "2023-06-01"
	defaultAnthropicURL    = "https://api.anthropic.com/v1/messages"
	defaultAnthropicTokens = 4096
)

type anthropicRequest struct {
	Model       string             `json:"model"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature *float32           `json:"temperature,omitempty"`
	TopP        *float32           `json:"top_p,omitempty"`
	TopK        *int               `json:"top_k,omitempty"`
	StopSeqs    []string           `json:"stop_sequences,omitempty"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []anthropicContent `json:"content"`
	Error   *anthropicError    `json:"error,omitempty"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type AnthropicClient struct {
	apiKey     *memguard.Enclave
	httpClient *http.Client
	baseURL    string
	model      string
}

// resolveAnthropicKey reads the API key from the environment or the
// container secret and seals it into an enclave. The key only leaves
// the enclave for the duration of a request.
func resolveAnthropicKey() (*memguard.Enclave, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		secretPath := "/run/secrets/anthropic_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err != nil {
			slog.Error("ANTHROPIC_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
		apiKey = strings.TrimSpace(string(apiKeyBytes))
		slog.Info("Read the Anthropic API Key from container secrets")
	}
	return memguard.NewEnclave([]byte(apiKey)), nil
}

func NewAnthropicClient() (*AnthropicClient, error) {
	apiKey, err := resolveAnthropicKey()
	if err != nil {
		return nil, err
	}
	model := os.Getenv("ANTHROPIC_MODEL")
	if model == "" {
		model = "claude-3-5-sonnet-20240620"
		slog.Warn("ANTHROPIC_MODEL not set, defaulting to claude-3-5-sonnet-20240620")
	}
	baseURL := os.Getenv("ANTHROPIC_BASE_URL")
	if baseURL == "" {
		baseURL = defaultAnthropicURL
	}
	slog.Info("Initializing Anthropic client", "model", model)
	return &AnthropicClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		baseURL:    baseURL,
		model:      model,
	}, nil
}

// Generate implements the LLMClient interface
func (a *AnthropicClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	slog.Debug("Generating text via Anthropic", "model", a.model)

	payload := anthropicRequest{
		Model:       a.model,
		Messages:    []anthropicMessage{{Role: "user", Content: prompt}},
		MaxTokens:   defaultAnthropicTokens,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		TopK:        params.TopK,
	}
	if params.MaxTokens != nil {
		payload.MaxTokens = *params.MaxTokens
	}
	if len(params.Stop) > 0 {
		payload.StopSeqs = params.Stop
	}

	reqBodyBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request to Anthropic: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.baseURL, bytes.NewBuffer(reqBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request to Anthropic: %w", err)
	}

	key, err := a.apiKey.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open API key enclave: %w", err)
	}
	defer key.Destroy()

	req.Header.Set("x-api-key", key.String())
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("content-type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		slog.Error("Anthropic API call failed", "error", err)
		return "", fmt.Errorf("Anthropic API call failed: %w", err)
	}
	defer resp.Body.Close()

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body from Anthropic: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		slog.Error("Anthropic returned an error", "status_code", resp.StatusCode, "response", string(respBodyBytes))
		return "", fmt.Errorf("Anthropic failed with status %d: %s", resp.StatusCode, string(respBodyBytes))
	}

	var apiResp anthropicResponse
	if err := json.Unmarshal(respBodyBytes, &apiResp); err != nil {
		slog.Error("Failed to parse JSON response from Anthropic", "error", err)
		return "", fmt.Errorf("failed to parse Anthropic response: %w", err)
	}
	if apiResp.Error != nil {
		return "", fmt.Errorf("Anthropic API error: %s - %s", apiResp.Error.Type, apiResp.Error.Message)
	}

	// Responses can interleave non-text blocks; keep only the text.
	var text strings.Builder
	for _, block := range apiResp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("Anthropic returned no text content")
	}
	return text.String(), nil
}
