// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ai constructs the model clients the scoring and ranking
// layers depend on. Everything is OpenAI-compatible; Ollama is reached
// through its compatibility endpoint.
package ai

import (
	"fmt"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/pdiddy/paperbot/pkg/types"
)

const (
	defaultOllamaBaseURL = "http://localhost:11434/v1"
	defaultOllamaModel   = "llama2"
	defaultOpenAIModel   = "gpt-4o-mini"

	defaultEmbeddingModel = "text-embedding-3-small"
)

// NewChatModel builds the chat client for the configured provider.
// Returns nil without error when scoring is unconfigured: an openai
// provider without an API key.
func NewChatModel(cfg types.LLMConfig, apiKey string) (llms.Model, error) {
	switch cfg.Provider {
	case "", "openai":
		if apiKey == "" && cfg.BaseURL == "" {
			return nil, nil
		}
		model := cfg.Model
		if model == "" {
			model = defaultOpenAIModel
		}
		if apiKey == "" {
			// Local OpenAI-compatible endpoints ignore the token but the
			// client requires one.
			apiKey = "unused"
		}
		opts := []openai.Option{
			openai.WithToken(apiKey),
			openai.WithModel(model),
		}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		client, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("creating openai client: %w", err)
		}
		return client, nil

	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = defaultOllamaBaseURL
		}
		model := cfg.Model
		if model == "" {
			model = defaultOllamaModel
		}
		// Ollama ignores the token but the client requires one.
		client, err := openai.New(
			openai.WithBaseURL(baseURL),
			openai.WithToken("ollama"),
			openai.WithModel(model),
		)
		if err != nil {
			return nil, fmt.Errorf("creating ollama client: %w", err)
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// NewEmbedder builds the embedding client, or nil without error when
// embedding is disabled or unconfigured.
func NewEmbedder(cfg types.EmbeddingConfig, apiKey string) (embeddings.Embedder, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if apiKey == "" && cfg.BaseURL == "" {
		return nil, nil
	}

	model := cfg.Model
	if model == "" {
		model = defaultEmbeddingModel
	}
	if apiKey == "" {
		apiKey = "unused"
	}
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithEmbeddingModel(model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}
	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(client)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	return embedder, nil
}
