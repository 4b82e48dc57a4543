package executor

import "context"

// Event is a typed run event for hosts that prefer consuming a channel
// over implementing Hook directly.
type Event struct {
	Kind string // "todo_update", "message", "tool_call", "tool_result", "context_warning", "complete", "error"
	Data any
}

// EventHook bridges engine callbacks onto a channel. The channel should
// be buffered; sends are blocking by design so a stalled consumer applies
// backpressure rather than dropping events.
type EventHook struct {
	Ch chan<- Event
}

func (h EventHook) OnTodoUpdate(_ context.Context, todos []TodoItem) {
	h.Ch <- Event{Kind: "todo_update", Data: todos}
}

func (h EventHook) OnMessage(_ context.Context, msg Message) {
	h.Ch <- Event{Kind: "message", Data: msg}
}

func (h EventHook) OnToolCall(_ context.Context, name string, args map[string]any) {
	h.Ch <- Event{Kind: "tool_call", Data: map[string]any{"tool": name, "args": args}}
}

func (h EventHook) OnToolResult(_ context.Context, name string, result string, success bool) {
	h.Ch <- Event{Kind: "tool_result", Data: map[string]any{"tool": name, "result": result, "success": success}}
}

func (h EventHook) OnContextWarning(_ context.Context, percent float64) {
	h.Ch <- Event{Kind: "context_warning", Data: percent}
}

func (h EventHook) OnComplete(_ context.Context, finalText string) {
	h.Ch <- Event{Kind: "complete", Data: finalText}
}

func (h EventHook) OnError(_ context.Context, err error) {
	h.Ch <- Event{Kind: "error", Data: err.Error()}
}
