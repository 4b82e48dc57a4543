package providers

import (
	"context"
	"encoding/json"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/stride-agent/stride/internal/executor"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicClient implements executor.ChatClient against the Anthropic
// messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicClient creates a chat client bound to one model.
func NewAnthropicClient(apiKey, model string) (*AnthropicClient, error) {
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	return &AnthropicClient{
		client: anthropic.NewClient(apiKey),
		model:  model,
	}, nil
}

// Model returns the model name this client targets.
func (c *AnthropicClient) Model() string {
	return c.model
}

func (c *AnthropicClient) ChatCompletion(ctx context.Context, messages []executor.Message, tools []executor.ToolSchema, temperature float32) (executor.ChatResponse, error) {
	var systemParts []anthropic.MessageSystemPart
	var anthropicMsgs []anthropic.Message

	// Anthropic requires tool results to follow an assistant turn with
	// tool_use blocks; tool messages without one are skipped.
	var prevAssistantHadToolCalls bool

	for _, msg := range messages {
		switch msg.Role {
		case executor.RoleSystem:
			systemParts = append(systemParts, anthropic.MessageSystemPart{
				Type: "text",
				Text: msg.Content,
			})
			prevAssistantHadToolCalls = false
		case executor.RoleUser:
			anthropicMsgs = append(anthropicMsgs, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(msg.Content)},
			})
			prevAssistantHadToolCalls = false
		case executor.RoleAssistant:
			var content []anthropic.MessageContent
			if msg.Content != "" && msg.Content != " " {
				content = append(content, anthropic.NewTextMessageContent(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				input := tc.Arguments
				if input == "" {
					input = "{}"
				}
				content = append(content, anthropic.NewToolUseMessageContent(
					tc.ID,
					tc.Name,
					json.RawMessage(input),
				))
			}
			anthropicMsgs = append(anthropicMsgs, anthropic.Message{
				Role:    anthropic.RoleAssistant,
				Content: content,
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
			toolResult := anthropic.NewToolResultMessageContent(
				msg.ToolCallID,
				content,
				false,
			)
			anthropicMsgs = append(anthropicMsgs, anthropic.Message{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{toolResult},
			})
		}
	}

	var toolDefs []anthropic.ToolDefinition
	for _, ts := range tools {
		var schemaObj map[string]any
		if err := json.Unmarshal([]byte(ts.JSONSchema), &schemaObj); err != nil {
			return executor.ChatResponse{}, fmt.Errorf("invalid tool schema JSON for %s: %w", ts.Name, err)
		}
		toolDefs = append(toolDefs, anthropic.ToolDefinition{
			Name:        ts.Name,
			Description: ts.Description,
			InputSchema: schemaObj,
		})
	}

	if temperature <= 0 {
		temperature = 0.1
	}
	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(c.model),
		Messages:    anthropicMsgs,
		MaxTokens:   defaultAnthropicMaxTokens,
		Temperature: &temperature,
	}
	if len(systemParts) > 0 {
		req.MultiSystem = systemParts
	}
	if len(toolDefs) > 0 {
		req.Tools = toolDefs
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		status, retryAfter := extractErrorMetadata(err)
		return executor.ChatResponse{}, wrapProviderError("anthropic", err, status, retryAfter)
	}

	var textContent string
	var toolCalls []executor.ToolCall
	for _, block := range resp.Content {
		switch block.Type {
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				textContent += *block.Text
			}
		case "tool_use":
			if block.MessageContentToolUse != nil && block.ID != "" && block.Name != "" {
				toolCalls = append(toolCalls, executor.ToolCall{
					ID:        block.ID,
					Name:      block.Name,
					Arguments: string(block.Input),
				})
			}
		}
	}

	finishReason := "stop"
	switch {
	case len(toolCalls) > 0:
		finishReason = "tool_calls"
	case resp.StopReason == "max_tokens":
		finishReason = "length"
	case resp.StopReason == "content_filtered":
		finishReason = "content_filter"
	}

	assistant := executor.Message{
		Role:      executor.RoleAssistant,
		Content:   textContent,
		ToolCalls: toolCalls,
	}
	return executor.ChatResponse{
		Message: &assistant,
		Usage: executor.Usage{
			Prompt:     resp.Usage.InputTokens,
			Completion: resp.Usage.OutputTokens,
			Total:      resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
		FinishReason: finishReason,
	}, nil
}
