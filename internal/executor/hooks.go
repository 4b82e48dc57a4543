// Package executor implements the plan/execute engine: a bounded,
// resumable, cancellable control loop that interleaves a planner, a chat
// model, and a tool executor while tracking TODO state and context usage.
package executor

import "context"

// Hook receives engine callbacks. All methods are fire-and-forget: the
// engine never consumes a return value and hooks must not feed back into
// engine state except through the public Abort/Resume API. Slices passed
// to hooks are copies; mutating them has no effect on the run.
type Hook interface {
	OnTodoUpdate(ctx context.Context, todos []TodoItem)
	OnMessage(ctx context.Context, msg Message)
	OnToolCall(ctx context.Context, name string, args map[string]any)
	OnToolResult(ctx context.Context, name string, result string, success bool)
	OnContextWarning(ctx context.Context, percent float64)
	OnComplete(ctx context.Context, finalText string)
	OnError(ctx context.Context, err error)
}

// Hooks fans callbacks out to multiple observers in order.
type Hooks []Hook

func (hs Hooks) OnTodoUpdate(ctx context.Context, todos []TodoItem) {
	for _, h := range hs {
		h.OnTodoUpdate(ctx, todos)
	}
}

func (hs Hooks) OnMessage(ctx context.Context, msg Message) {
	for _, h := range hs {
		h.OnMessage(ctx, msg)
	}
}

func (hs Hooks) OnToolCall(ctx context.Context, name string, args map[string]any) {
	for _, h := range hs {
		h.OnToolCall(ctx, name, args)
	}
}

func (hs Hooks) OnToolResult(ctx context.Context, name string, result string, success bool) {
	for _, h := range hs {
		h.OnToolResult(ctx, name, result, success)
	}
}

func (hs Hooks) OnContextWarning(ctx context.Context, percent float64) {
	for _, h := range hs {
		h.OnContextWarning(ctx, percent)
	}
}

func (hs Hooks) OnComplete(ctx context.Context, finalText string) {
	for _, h := range hs {
		h.OnComplete(ctx, finalText)
	}
}

func (hs Hooks) OnError(ctx context.Context, err error) {
	for _, h := range hs {
		h.OnError(ctx, err)
	}
}

// NopHook lets you implement only the callbacks you need.
type NopHook struct{}

func (NopHook) OnTodoUpdate(context.Context, []TodoItem)              {}
func (NopHook) OnMessage(context.Context, Message)                    {}
func (NopHook) OnToolCall(context.Context, string, map[string]any)    {}
func (NopHook) OnToolResult(context.Context, string, string, bool)    {}
func (NopHook) OnContextWarning(context.Context, float64)             {}
func (NopHook) OnComplete(context.Context, string)                    {}
func (NopHook) OnError(context.Context, error)                        {}
