package providers

import (
	"errors"
	"net/http"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		settings  Settings
		wantErr   bool
		wantModel string
	}{
		{
			name:      "openai with defaults",
			settings:  Settings{Provider: "openai", APIKey: "sk-test"},
			wantModel: "gpt-4o-mini",
		},
		{
			name:      "empty provider defaults to openai",
			settings:  Settings{APIKey: "sk-test", Model: "gpt-4.1"},
			wantModel: "gpt-4.1",
		},
		{
			name:     "openai without key",
			settings: Settings{Provider: "openai"},
			wantErr:  true,
		},
		{
			name:      "anthropic",
			settings:  Settings{Provider: "anthropic", APIKey: "sk-ant", Model: "claude-sonnet-4-20250514"},
			wantModel: "claude-sonnet-4-20250514",
		},
		{
			name:      "kimi gets default model",
			settings:  Settings{Provider: "kimi", APIKey: "key"},
			wantModel: "kimi-k2-250711",
		},
		{
			name:      "lmstudio needs no key",
			settings:  Settings{Provider: "lmstudio"},
			wantModel: "local-model",
		},
		{
			name:     "unknown provider",
			settings: Settings{Provider: "cohere"},
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.settings)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if client.Model() != tt.wantModel {
				t.Errorf("Model() = %q, want %q", client.Model(), tt.wantModel)
			}
		})
	}
}

func TestExtractErrorMetadata(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		wantStatus     int
		wantRetryAfter string
	}{
		{name: "nil error", err: nil},
		{
			name:       "rate limited",
			err:        errors.New("error, status code: 429, message: rate limited"),
			wantStatus: http.StatusTooManyRequests,
		},
		{
			name:       "server error",
			err:        errors.New("HTTP 503 service unavailable"),
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:           "retry-after header",
			err:            errors.New("429 too many requests, Retry-After: 30"),
			wantStatus:     http.StatusTooManyRequests,
			wantRetryAfter: "30",
		},
		{name: "no status in message", err: errors.New("connection reset by peer")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, retryAfter := extractErrorMetadata(tt.err)
			if status != tt.wantStatus {
				t.Errorf("status = %d, want %d", status, tt.wantStatus)
			}
			if retryAfter != tt.wantRetryAfter {
				t.Errorf("retryAfter = %q, want %q", retryAfter, tt.wantRetryAfter)
			}
		})
	}
}
