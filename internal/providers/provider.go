package providers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Request contains the data sent to a reasoning service.
type Request struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// Response contains the raw completion returned by a reasoning service.
type Response struct {
	Content    string
	TokensUsed int
}

// Reasoner is the reasoning-service abstraction. Implementations make exactly
// one attempt per call.
type Reasoner interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Settings selects and configures a provider.
type Settings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

const defaultTimeout = 15 * time.Second

// New creates a provider by name.
func New(s Settings) (Reasoner, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	switch s.Provider {
	case "openai", "nvidia":
		return NewOpenAI(s.APIKey, s.Model, s.BaseURL, client)
	case "anthropic":
		return NewAnthropic(s.APIKey, s.Model, s.BaseURL, client)
	case "ollama", "lmstudio":
		return NewOllama(s.APIKey, s.Model, s.BaseURL, client), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", s.Provider)
	}
}
