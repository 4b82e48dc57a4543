// Package planner turns a user request into either a direct answer or
// an ordered task list, using one model call with a structured-output
// prompt.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stride-agent/stride/internal/executor"
)

const planningPrompt = `You are a planning assistant for a tool-driven task runner.

Given the user's request, decide between two outcomes:

1. If the request is trivial (a greeting, a factual question, simple arithmetic,
   anything answerable without using tools), answer it directly.
2. Otherwise break the work into a short ordered list of concrete tasks.
   Each task should be one verifiable unit of work. Use 2 to 8 tasks.

Respond with ONLY a JSON object in one of these two shapes:

{"direct_response": "<the answer>"}

{"todos": [{"title": "<task>"}, ...], "complexity": "low|medium|high"}`

// recentHistoryForPlanning bounds how much conversation context is
// replayed to the planning model.
const recentHistoryForPlanning = 6

// LLMPlanner implements executor.Planner with one structured-output
// model call.
type LLMPlanner struct {
	chat        executor.ChatClient
	log         zerolog.Logger
	temperature float32
}

func New(chat executor.ChatClient, log zerolog.Logger) *LLMPlanner {
	return &LLMPlanner{chat: chat, log: log, temperature: 0.1}
}

type planResponse struct {
	DirectResponse string `json:"direct_response"`
	Todos          []struct {
		Title string `json:"title"`
	} `json:"todos"`
	Complexity string `json:"complexity"`
}

func (p *LLMPlanner) GeneratePlan(ctx context.Context, userMessage string, history []executor.Message) (executor.Plan, error) {
	messages := []executor.Message{
		{Role: executor.RoleSystem, Content: planningPrompt},
	}
	for _, m := range recentUserTurns(history, recentHistoryForPlanning) {
		messages = append(messages, m)
	}
	messages = append(messages, executor.Message{Role: executor.RoleUser, Content: userMessage})

	resp, err := p.chat.ChatCompletion(ctx, messages, nil, p.temperature)
	if err != nil {
		return executor.Plan{}, fmt.Errorf("planning call: %w", err)
	}
	if resp.Message == nil || resp.Message.Content == "" {
		return executor.Plan{}, fmt.Errorf("planning call returned no content")
	}

	jsonText, ok := extractJSON(resp.Message.Content)
	if !ok {
		return executor.Plan{}, fmt.Errorf("no JSON object in planning response")
	}

	var parsed planResponse
	if err := json.Unmarshal([]byte(jsonText), &parsed); err != nil {
		return executor.Plan{}, fmt.Errorf("parse planning response: %w", err)
	}

	if parsed.DirectResponse != "" {
		p.log.Debug().Msg("planner chose a direct response")
		return executor.Plan{DirectResponse: parsed.DirectResponse}, nil
	}

	plan := executor.Plan{Complexity: parsed.Complexity}
	for _, t := range parsed.Todos {
		title := strings.TrimSpace(t.Title)
		if title == "" {
			continue
		}
		plan.Todos = append(plan.Todos, executor.TodoItem{
			ID:     uuid.NewString(),
			Title:  title,
			Status: executor.TodoPending,
		})
	}
	if len(plan.Todos) == 0 {
		return executor.Plan{}, fmt.Errorf("planning response had neither an answer nor tasks")
	}
	p.log.Debug().Int("tasks", len(plan.Todos)).Str("complexity", plan.Complexity).Msg("plan generated")
	return plan, nil
}

// recentUserTurns keeps the last n user/assistant text turns. Tool
// traffic is noise for planning and is skipped.
func recentUserTurns(history []executor.Message, n int) []executor.Message {
	var turns []executor.Message
	for _, m := range history {
		if m.Role == executor.RoleTool || len(m.ToolCalls) > 0 {
			continue
		}
		if m.Role == executor.RoleSystem {
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) > n {
		turns = turns[len(turns)-n:]
	}
	return turns
}

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*\\n([\\s\\S]*?)\\n```")

// extractJSON pulls the first JSON object out of model output, trying a
// fenced code block first and then the first bare object.
func extractJSON(content string) (string, bool) {
	if matches := jsonBlockRegex.FindStringSubmatch(content); len(matches) > 1 {
		candidate := strings.TrimSpace(matches[1])
		if strings.HasPrefix(candidate, "{") {
			return candidate, true
		}
	}

	trimmed := strings.TrimSpace(content)
	start := strings.Index(trimmed, "{")
	if start == -1 {
		return "", false
	}
	decoder := json.NewDecoder(strings.NewReader(trimmed[start:]))
	decoder.UseNumber()
	var raw json.RawMessage
	if err := decoder.Decode(&raw); err != nil {
		return "", false
	}
	return strings.TrimSpace(string(raw)), true
}
