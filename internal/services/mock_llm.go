package services

import (
	"context"
	"sync"

	"github.com/jwebster45206/room-director/pkg/chat"
)

// MockLLM is a mock implementation of LLM for testing
type MockLLM struct {
	ChatJSONFunc func(ctx context.Context, providers []Provider, messages []chat.Message) (map[string]any, error)

	// Track calls for testing
	ChatJSONCalls []ChatJSONCall

	mu sync.Mutex // protects all fields above
}

type ChatJSONCall struct {
	Providers []Provider
	Messages  []chat.Message
}

var _ LLM = (*MockLLM)(nil)

// NewMockLLM creates a new mock LLM client
func NewMockLLM() *MockLLM {
	return &MockLLM{
		ChatJSONCalls: make([]ChatJSONCall, 0),
	}
}

func (m *MockLLM) ChatJSON(ctx context.Context, providers []Provider, messages []chat.Message) (map[string]any, error) {
	m.mu.Lock()
	m.ChatJSONCalls = append(m.ChatJSONCalls, ChatJSONCall{
		Providers: providers,
		Messages:  messages,
	})
	fn := m.ChatJSONFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, providers, messages)
	}

	// Default behavior - an empty but valid object
	return map[string]any{}, nil
}

// Calls returns a copy of the recorded calls.
func (m *MockLLM) Calls() []ChatJSONCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChatJSONCall, len(m.ChatJSONCalls))
	copy(out, m.ChatJSONCalls)
	return out
}
