package services

import (
	"context"

	"github.com/jwebster45206/room-director/pkg/chat"
)

// Provider is one configured LLM backend: an OpenAI-compatible endpoint
// with its own model id and optional credential.
type Provider struct {
	Label   string
	BaseURL string
	Model   string
	APIKey  string
}

// LLM is the interface the room pipelines call to obtain a JSON object from
// a chat completion. Providers are tried strictly in order; the first
// success wins.
type LLM interface {
	ChatJSON(ctx context.Context, providers []Provider, messages []chat.Message) (map[string]any, error)
}
