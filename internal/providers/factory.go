package providers

import (
	"fmt"
	"os"

	"github.com/stride-agent/stride/internal/executor"
)

// Client pairs an executor.ChatClient with the model it targets, so
// callers can size the context window without re-reading configuration.
type Client interface {
	executor.ChatClient
	Model() string
}

// Settings selects and configures a provider.
type Settings struct {
	Provider string // "openai" | "anthropic" | "kimi" | "lmstudio"
	APIKey   string
	Model    string
	BaseURL  string
}

// New creates a chat client from explicit settings.
func New(s Settings) (Client, error) {
	switch s.Provider {
	case "", "openai":
		if s.APIKey == "" {
			return nil, fmt.Errorf("openai api key is required")
		}
		model := s.Model
		if model == "" {
			model = "gpt-4o-mini"
		}
		return NewOpenAIClient(s.APIKey, model, s.BaseURL)

	case "anthropic":
		if s.APIKey == "" {
			return nil, fmt.Errorf("anthropic api key is required")
		}
		model := s.Model
		if model == "" {
			model = "claude-sonnet-4-20250514"
		}
		return NewAnthropicClient(s.APIKey, model)

	case "kimi":
		// Kimi speaks the OpenAI wire protocol via BytePlus ModelArk.
		if s.APIKey == "" {
			return nil, fmt.Errorf("kimi api key is required")
		}
		model := s.Model
		if model == "" {
			model = "kimi-k2-250711"
		}
		baseURL := s.BaseURL
		if baseURL == "" {
			baseURL = "https://ark.ap-southeast.bytepluses.com/api/v3"
		}
		return NewOpenAIClient(s.APIKey, model, baseURL)

	case "lmstudio":
		// Local server, API key is ignored but the SDK requires one.
		model := s.Model
		if model == "" {
			model = "local-model"
		}
		baseURL := s.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:1234/v1"
		}
		apiKey := s.APIKey
		if apiKey == "" {
			apiKey = "lm-studio"
		}
		return NewOpenAIClient(apiKey, model, baseURL)
	}
	return nil, fmt.Errorf("unknown provider: %s", s.Provider)
}

// NewFromEnv creates a chat client from LLM_PROVIDER and the matching
// provider environment variables.
func NewFromEnv() (Client, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = "openai"
	}

	s := Settings{Provider: provider}
	switch provider {
	case "openai":
		s.APIKey = os.Getenv("OPENAI_API_KEY")
		s.Model = os.Getenv("OPENAI_MODEL")
		s.BaseURL = os.Getenv("OPENAI_BASE_URL")
	case "anthropic":
		s.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		s.Model = os.Getenv("ANTHROPIC_MODEL")
	case "kimi":
		s.APIKey = os.Getenv("KIMI_API_KEY")
		s.Model = os.Getenv("KIMI_MODEL")
		s.BaseURL = os.Getenv("KIMI_BASE_URL")
	case "lmstudio":
		s.APIKey = os.Getenv("LMSTUDIO_API_KEY")
		s.Model = os.Getenv("LMSTUDIO_MODEL")
		s.BaseURL = os.Getenv("LMSTUDIO_BASE_URL")
	}
	return New(s)
}
