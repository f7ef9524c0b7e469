package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/awnumar/memguard"
	openai "github.com/sashabaranov/go-openai"
)

type OpenAIClient struct {
	apiKey     *memguard.Enclave
	httpClient *http.Client
	model      string
}

// resolveOpenAIKey reads the API key from the environment or the
// container secret and seals it into an enclave. The key only leaves
// the enclave for the duration of a request.
func resolveOpenAIKey() (*memguard.Enclave, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err != nil {
			slog.Error("OPENAI_API_KEY environment variable not set and secret not found", "path", secretPath)
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		apiKey = strings.TrimSpace(string(apiKeyBytes))
		slog.Info("Read the OpenAI API Key from container secrets")
	}
	return memguard.NewEnclave([]byte(apiKey)), nil
}

func NewOpenAIClient() (*OpenAIClient, error) {
	apiKey, err := resolveOpenAIKey()
	if err != nil {
		return nil, err
	}
	model := os.Getenv("OPENAI_MODEL") // e.g., "gpt-4o"
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}
	slog.Info("Initializing OpenAI client", "model", model)
	return &OpenAIClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
		model:      model,
	}, nil
}

// newRequestClient opens the key enclave and builds a go-openai client
// around the shared HTTP client. The caller must Destroy the returned
// buffer once the request completes.
func (o *OpenAIClient) newRequestClient() (*openai.Client, *memguard.LockedBuffer, error) {
	key, err := o.apiKey.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open API key enclave: %w", err)
	}
	config := openai.DefaultConfig(key.String())
	config.HTTPClient = o.httpClient
	return openai.NewClientWithConfig(config), key, nil
}

// Generate implements the LLMClient interface
func (o *OpenAIClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	slog.Debug("Generating text via OpenAI", "model", o.model)

	client, key, err := o.newRequestClient()
	if err != nil {
		return "", err
	}
	defer key.Destroy()

	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxCompletionTokens = *params.MaxTokens
	}
	if params.TopP != nil {
		req.TopP = *params.TopP
	}
	if len(params.Stop) > 0 {
		req.Stop = params.Stop
	}

	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("OpenAI API call failed", "error", err)
		return "", fmt.Errorf("OpenAI API call failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices or empty content")
		return "", fmt.Errorf("OpenAI returned no choices")
	}
	slog.Debug("Received response from OpenAI", "finish_reason", resp.Choices[0].FinishReason)
	return resp.Choices[0].Message.Content, nil
}
