// Package openaiclient implements the remote client on the OpenAI API:
// chat completion, image generation, and embeddings for semantic search.
package openaiclient

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"

	"github.com/vietddude/lifeline/internal/infra/remote"
)

// Config holds OpenAI client settings.
type Config struct {
	APIKey     string        `yaml:"api_key"`
	BaseURL    string        `yaml:"base_url"`
	ChatModel  string        `yaml:"chat_model"`
	ImageModel string        `yaml:"image_model"`
	EmbedModel string        `yaml:"embed_model"`
	StorageURL string        `yaml:"storage_url"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Client calls the OpenAI API. A separate HTTP endpoint handles object
// storage, since OpenAI has no storage surface.
type Client struct {
	api        *openai.Client
	httpClient *http.Client
	cfg        Config
}

// New creates a client from config, applying model defaults.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is not set")
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = openai.GPT4oMini
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = openai.CreateImageModelDallE3
	}
	if cfg.EmbedModel == "" {
		cfg.EmbedModel = string(openai.SmallEmbedding3)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}

	return &Client{
		api:        openai.NewClientWithConfig(apiCfg),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
	}, nil
}

// ChatComplete sends one user message and returns the assistant reply.
func (c *Client) ChatComplete(
	ctx context.Context,
	message, conversationID string,
) (*remote.ChatResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if conversationID == "" {
		conversationID = uuid.New().String()
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.cfg.ChatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: message},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("chat completion returned no choices")
	}

	return &remote.ChatResult{
		Response:       resp.Choices[0].Message.Content,
		ConversationID: conversationID,
	}, nil
}

// GenerateImage renders an image for the given response content.
func (c *Client) GenerateImage(
	ctx context.Context,
	content, imageContext string,
) (*remote.ImageResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	prompt := content
	if imageContext != "" {
		prompt = fmt.Sprintf("%s. Style context: %s", content, imageContext)
	}

	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.cfg.ImageModel,
		N:              1,
		Size:           openai.CreateImageSize1024x1024,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		return nil, fmt.Errorf("image generation failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("image generation returned no data")
	}

	return &remote.ImageResult{
		ImageURL: resp.Data[0].URL,
		ImageID:  uuid.New().String(),
		PromptParameters: map[string]string{
			"model": c.cfg.ImageModel,
			"size":  "1024x1024",
		},
	}, nil
}

// Search computes the query embedding used for semantic search.
func (c *Client) Search(ctx context.Context, query string) (*remote.SearchResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{query},
		Model: openai.EmbeddingModel(c.cfg.EmbedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding returned no data")
	}

	return &remote.SearchResult{
		Query:  query,
		Vector: resp.Data[0].Embedding,
	}, nil
}

// StoreObject uploads a payload to the remote object store endpoint.
func (c *Client) StoreObject(ctx context.Context, key string, payload []byte) error {
	if c.cfg.StorageURL == "" {
		return fmt.Errorf("storage url is not configured")
	}

	target, err := url.JoinPath(c.cfg.StorageURL, url.PathEscape(key))
	if err != nil {
		return fmt.Errorf("failed to build storage url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, target, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build storage request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("storage request failed: status %d", resp.StatusCode)
	}

	slog.Debug("Stored object", "key", key, "bytes", len(payload))
	return nil
}
