package providers

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/stride-agent/stride/internal/executor"
)

// OpenAIClient implements executor.ChatClient against the OpenAI chat
// completions API and any OpenAI-compatible endpoint (Kimi, Gemini,
// local servers) via a custom base URL.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient creates a chat client bound to one model.
func NewOpenAIClient(apiKey, model, baseURL string) (*OpenAIClient, error) {
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// Model returns the model name this client targets.
func (c *OpenAIClient) Model() string {
	return c.model
}

func (c *OpenAIClient) ChatCompletion(ctx context.Context, messages []executor.Message, tools []executor.ToolSchema, temperature float32) (executor.ChatResponse, error) {
	openaiMsgs := make([]openai.ChatCompletionMessage, 0, len(messages))

	// The API rejects a tool message that does not directly follow an
	// assistant message with tool calls, so track that pairing.
	var prevAssistantHadToolCalls bool

	for _, msg := range messages {
		switch msg.Role {
		case executor.RoleSystem:
			openaiMsgs = append(openaiMsgs, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleSystem,
				Content: msg.Content,
			})
			prevAssistantHadToolCalls = false
		case executor.RoleUser:
			openaiMsgs = append(openaiMsgs, openai.ChatCompletionMessage{
				Role:    openai.ChatMessageRoleUser,
				Content: msg.Content,
			})
			prevAssistantHadToolCalls = false
		case executor.RoleAssistant:
			// The SDK serializes empty content as null, which some
			// endpoints reject. A single space is accepted everywhere.
			content := msg.Content
			if content == "" {
				content = " "
			}

			var toolCalls []openai.ToolCall
			for _, tc := range msg.ToolCalls {
				toolCalls = append(toolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: "function",
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: tc.Arguments,
					},
				})
			}

			openaiMsgs = append(openaiMsgs, openai.ChatCompletionMessage{
				Role:      openai.ChatMessageRoleAssistant,
				Content:   content,
				ToolCalls: toolCalls,
			})
			prevAssistantHadToolCalls = len(msg.ToolCalls) > 0
		case executor.RoleTool:
			if !prevAssistantHadToolCalls {
				continue
			}
			content := msg.Content
			if content == "" {
				content = "{}"
			}
			openaiMsgs = append(openaiMsgs, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				ToolCallID: msg.ToolCallID,
				Content:    content,
			})
		}
	}

	var openaiTools []openai.Tool
	for _, ts := range tools {
		var schemaObj map[string]any
		if err := json.Unmarshal([]byte(ts.JSONSchema), &schemaObj); err != nil {
			return executor.ChatResponse{}, fmt.Errorf("invalid tool schema JSON for %s: %w", ts.Name, err)
		}
		openaiTools = append(openaiTools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ts.Name,
				Description: ts.Description,
				Parameters:  schemaObj,
			},
		})
	}

	req := openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: openaiMsgs,
	}
	if len(openaiTools) > 0 {
		req.Tools = openaiTools
		req.ToolChoice = "auto"
	}
	if temperature > 0 {
		req.Temperature = &temperature
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		status, retryAfter := extractErrorMetadata(err)
		return executor.ChatResponse{}, wrapProviderError("openai", err, status, retryAfter)
	}
	if len(resp.Choices) == 0 {
		return executor.ChatResponse{}, fmt.Errorf("empty response from openai")
	}

	choice := resp.Choices[0]
	assistant := executor.Message{
		Role:    executor.RoleAssistant,
		Content: choice.Message.Content,
	}
	for _, tc := range choice.Message.ToolCalls {
		assistant.ToolCalls = append(assistant.ToolCalls, executor.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	finishReason := "stop"
	switch {
	case len(assistant.ToolCalls) > 0:
		finishReason = "tool_calls"
	case choice.FinishReason == openai.FinishReasonLength:
		finishReason = "length"
	case choice.FinishReason == openai.FinishReasonContentFilter:
		finishReason = "content_filter"
	}

	return executor.ChatResponse{
		Message: &assistant,
		Usage: executor.Usage{
			Prompt:     resp.Usage.PromptTokens,
			Completion: resp.Usage.CompletionTokens,
			Total:      resp.Usage.TotalTokens,
		},
		FinishReason: finishReason,
	}, nil
}
