// Package rag generates embeddings and keeps a local vector index for
// retrieval experiments. The dialogue does not read from it.
package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/harunnryd/apprentice/internal/errors"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

const (
	ProviderOpenAI = "openai"
	ProviderGCP    = "gcp"

	DefaultOpenAIModel = string(openai.SmallEmbedding3)
	DefaultGeminiModel = "text-embedding-004"
)

// Embedder turns text into a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Model() string
}

type EmbedderOptions struct {
	Provider string
	APIKey   string
	Model    string
	// BaseURL overrides the vendor endpoint.
	BaseURL string
}

// NewEmbedder builds the embedder for opts.Provider.
func NewEmbedder(ctx context.Context, opts EmbedderOptions) (Embedder, error) {
	if opts.APIKey == "" {
		return nil, apperrors.MissingArgument("API key is not specified.")
	}

	switch strings.ToLower(opts.Provider) {
	case ProviderOpenAI:
		return NewOpenAIEmbedder(opts), nil
	case ProviderGCP:
		e, err := NewGeminiEmbedder(ctx, opts)
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, apperrors.InvalidConfig(fmt.Sprintf("provider %q has no embedding API, use openai or gcp", opts.Provider))
	}
}

type OpenAIEmbedder struct {
	client *openai.Client
	model  string
}

func NewOpenAIEmbedder(opts EmbedderOptions) *OpenAIEmbedder {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	}

	model := opts.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIEmbedder{client: openai.NewClientWithConfig(cfg), model: model}
}

func (e *OpenAIEmbedder) Model() string { return e.model }

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, embedError(err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, apperrors.ResponseFormat("no embedding data returned")
	}
	return resp.Data[0].Embedding, nil
}

type GeminiEmbedder struct {
	client *genai.Client
	model  string
}

func NewGeminiEmbedder(ctx context.Context, opts EmbedderOptions) (*GeminiEmbedder, error) {
	cfg := &genai.ClientConfig{APIKey: opts.APIKey, Backend: genai.BackendGeminiAPI}
	if opts.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: opts.BaseURL}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, apperrors.WrapWithCategory(err, "failed to create gemini client", apperrors.ErrInvalidConfig)
	}

	model := opts.Model
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiEmbedder{client: client, model: model}, nil
}

func (e *GeminiEmbedder) Model() string { return e.model }

func (e *GeminiEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Models.EmbedContent(ctx, e.model, genai.Text(text), nil)
	if err != nil {
		return nil, embedError(err)
	}
	if resp == nil || len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Values) == 0 {
		return nil, apperrors.ResponseFormat("gemini embedding returned empty result")
	}
	return resp.Embeddings[0].Values, nil
}

// embedError keeps vendor error envelopes readable and marks the rest as
// transport failures.
func embedError(err error) error {
	if apperrors.IsInterrupted(err) {
		return apperrors.WrapWithCategory(err, "embedding cancelled", apperrors.ErrInterrupted)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apperrors.Provider(apiErr.Message)
	}
	var genaiErr genai.APIError
	if errors.As(err, &genaiErr) {
		return apperrors.Provider(genaiErr.Message)
	}
	return apperrors.WrapWithCategory(err, "embedding request failed", apperrors.ErrTransport)
}
