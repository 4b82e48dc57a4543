package executor

import (
	"context"

	"github.com/rs/zerolog"
)

// LoggerHook renders engine callbacks through zerolog.
type LoggerHook struct {
	L zerolog.Logger
}

func (h LoggerHook) OnTodoUpdate(_ context.Context, todos []TodoItem) {
	done := 0
	for _, t := range todos {
		if t.Status == TodoCompleted || t.Status == TodoFailed {
			done++
		}
	}
	h.L.Info().Int("total", len(todos)).Int("done", done).Msg("todo list updated")
}

func (h LoggerHook) OnMessage(_ context.Context, msg Message) {
	ev := h.L.Debug().Str("role", string(msg.Role)).Int("content_len", len(msg.Content))
	if len(msg.ToolCalls) > 0 {
		ev = ev.Int("tool_calls", len(msg.ToolCalls))
	}
	ev.Msg("message")
}

func (h LoggerHook) OnToolCall(_ context.Context, name string, args map[string]any) {
	h.L.Info().Str("tool", name).Interface("args", args).Msg("tool call")
}

func (h LoggerHook) OnToolResult(_ context.Context, name string, result string, success bool) {
	preview := result
	if len(preview) > 120 {
		preview = preview[:120] + "..."
	}
	h.L.Info().Str("tool", name).Bool("success", success).Str("result", preview).Msg("tool result")
}

func (h LoggerHook) OnContextWarning(_ context.Context, percent float64) {
	h.L.Warn().Float64("usage_percent", percent).Msg("context window usage high")
}

func (h LoggerHook) OnComplete(_ context.Context, finalText string) {
	h.L.Info().Int("response_len", len(finalText)).Msg("run complete")
}

func (h LoggerHook) OnError(_ context.Context, err error) {
	h.L.Error().Err(err).Msg("run failed")
}
