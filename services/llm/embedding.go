package llm

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/awnumar/memguard"
	openai "github.com/sashabaranov/go-openai"
)

type OpenAIEmbedder struct {
	apiKey     *memguard.Enclave
	httpClient *http.Client
	model      openai.EmbeddingModel
}

func NewOpenAIEmbedder() (*OpenAIEmbedder, error) {
	apiKey, err := resolveOpenAIKey()
	if err != nil {
		return nil, err
	}
	model := os.Getenv("OPENAI_EMBED_MODEL")
	if model == "" {
		model = string(openai.SmallEmbedding3)
		slog.Warn("OPENAI_EMBED_MODEL not set, defaulting to text-embedding-3-small")
	}
	slog.Info("Initializing OpenAI embedder", "model", model)
	return &OpenAIEmbedder{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 1 * time.Minute},
		model:      openai.EmbeddingModel(model),
	}, nil
}

// Embed implements the EmbeddingClient interface
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// BatchEmbed implements the EmbeddingClient interface. All texts go out
// in a single API request; the response preserves input order.
func (e *OpenAIEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	slog.Debug("Embedding texts via OpenAI", "model", e.model, "count", len(texts))

	key, err := e.apiKey.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open API key enclave: %w", err)
	}
	defer key.Destroy()

	config := openai.DefaultConfig(key.String())
	config.HTTPClient = e.httpClient
	client := openai.NewClientWithConfig(config)

	resp, err := client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		slog.Error("OpenAI embeddings call failed", "error", err)
		return nil, fmt.Errorf("OpenAI embeddings call failed: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("OpenAI returned %d embeddings for %d inputs", len(resp.Data), len(texts))
	}

	vectors := make([][]float32, len(resp.Data))
	for i, data := range resp.Data {
		vectors[i] = data.Embedding
	}
	return vectors, nil
}
