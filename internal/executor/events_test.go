package executor

import (
	"context"
	"errors"
	"testing"
)

func TestEventHookForwardsCallbacks(t *testing.T) {
	ch := make(chan Event, 8)
	var h Hook = EventHook{Ch: ch}
	ctx := context.Background()

	h.OnTodoUpdate(ctx, []TodoItem{{ID: "a", Title: "fetch", Status: TodoPending}})
	h.OnMessage(ctx, Message{Role: RoleAssistant, Content: "hi"})
	h.OnToolCall(ctx, "read_file", map[string]any{"path": "main.go"})
	h.OnToolResult(ctx, "read_file", "package main", true)
	h.OnContextWarning(ctx, 0.72)
	h.OnComplete(ctx, "done")
	h.OnError(ctx, errors.New("boom"))
	close(ch)

	wantKinds := []string{
		"todo_update", "message", "tool_call", "tool_result",
		"context_warning", "complete", "error",
	}
	var got []string
	for ev := range ch {
		got = append(got, ev.Kind)
	}
	if len(got) != len(wantKinds) {
		t.Fatalf("received %d events, want %d", len(got), len(wantKinds))
	}
	for i, kind := range wantKinds {
		if got[i] != kind {
			t.Errorf("event %d kind = %q, want %q", i, got[i], kind)
		}
	}
}

func TestEventHookInRun(t *testing.T) {
	ch := make(chan Event, 64)
	chat := &scriptedChat{steps: []func(context.Context, []Message) (ChatResponse, error){
		finalReply("all set"),
	}}
	exec := newTestExecutor(t, chat, func(b *Builder) {
		b.WithHooks(EventHook{Ch: ch})
	})

	result := exec.Execute(context.Background(), "do a thing", nil)
	if result.Err != nil {
		t.Fatalf("Execute() error = %v", result.Err)
	}
	close(ch)

	kinds := map[string]int{}
	for ev := range ch {
		kinds[ev.Kind]++
	}
	if kinds["complete"] != 1 {
		t.Errorf("complete events = %d, want 1", kinds["complete"])
	}
	if kinds["tool_call"] == 0 {
		t.Error("expected at least one tool_call event")
	}
	if kinds["message"] == 0 {
		t.Error("expected message events")
	}
}
