// Package remote defines the ports for the upstream AI services. The
// resilience layer treats every upstream as a call with a success or
// failure outcome; implementations live in subpackages.
package remote

import (
	"context"

	"github.com/vietddude/lifeline/internal/core/domain"
)

// ChatResult is the outcome of a successful chat completion.
type ChatResult struct {
	Response       string `json:"response"`
	ImageURL       string `json:"image_url,omitempty"`
	ConversationID string `json:"conversation_id"`
}

// ImageResult is the outcome of a successful image generation.
type ImageResult struct {
	ImageURL         string            `json:"image_url"`
	ImageID          string            `json:"image_id"`
	PromptParameters map[string]string `json:"prompt_parameters,omitempty"`
}

// SearchResult carries the embedding computed for a semantic search query.
// Matching against a corpus is the caller's concern.
type SearchResult struct {
	Query  string    `json:"query"`
	Vector []float32 `json:"vector"`
}

// Client is the upstream AI service surface replayed by the offline queue
// and retried by recovery strategies.
type Client interface {
	ChatComplete(ctx context.Context, message, conversationID string) (*ChatResult, error)
	GenerateImage(ctx context.Context, content, imageContext string) (*ImageResult, error)
	Search(ctx context.Context, query string) (*SearchResult, error)
	StoreObject(ctx context.Context, key string, payload []byte) error
}

// Prober issues a lightweight existence check against one subsystem.
type Prober interface {
	Probe(ctx context.Context, subsystem domain.Subsystem) error
}
