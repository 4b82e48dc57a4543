package planner

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/stride-agent/stride/internal/executor"
)

type fakeChat struct {
	content string
	err     error
	seen    []executor.Message
}

func (f *fakeChat) ChatCompletion(ctx context.Context, messages []executor.Message, tools []executor.ToolSchema, temperature float32) (executor.ChatResponse, error) {
	f.seen = messages
	if f.err != nil {
		return executor.ChatResponse{}, f.err
	}
	return executor.ChatResponse{
		Message: &executor.Message{Role: executor.RoleAssistant, Content: f.content},
	}, nil
}

func TestGeneratePlan(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		chatErr    error
		wantDirect string
		wantTodos  int
		wantErr    bool
	}{
		{
			name:       "direct response",
			content:    `{"direct_response": "4"}`,
			wantDirect: "4",
		},
		{
			name:      "task list",
			content:   `{"todos": [{"title": "read the file"}, {"title": "summarize it"}], "complexity": "low"}`,
			wantTodos: 2,
		},
		{
			name:      "fenced json",
			content:   "Here is the plan:\n```json\n{\"todos\": [{\"title\": \"do it\"}]}\n```",
			wantTodos: 1,
		},
		{
			name:      "prose around bare json",
			content:   `Sure! {"todos": [{"title": "step one"}]} hope that helps`,
			wantTodos: 1,
		},
		{
			name:      "blank titles skipped",
			content:   `{"todos": [{"title": "  "}, {"title": "real task"}]}`,
			wantTodos: 1,
		},
		{
			name:    "no json at all",
			content: "I cannot plan this.",
			wantErr: true,
		},
		{
			name:    "empty object",
			content: `{}`,
			wantErr: true,
		},
		{
			name:    "chat error propagates",
			chatErr: errors.New("503 service unavailable"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(&fakeChat{content: tt.content, err: tt.chatErr}, zerolog.Nop())
			plan, err := p.GeneratePlan(context.Background(), "request", nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GeneratePlan() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if plan.DirectResponse != tt.wantDirect {
				t.Errorf("DirectResponse = %q, want %q", plan.DirectResponse, tt.wantDirect)
			}
			if len(plan.Todos) != tt.wantTodos {
				t.Errorf("todos = %d, want %d", len(plan.Todos), tt.wantTodos)
			}
			for _, todo := range plan.Todos {
				if todo.ID == "" {
					t.Error("every planned task must get an id")
				}
				if todo.Status != executor.TodoPending {
					t.Errorf("status = %s, want pending", todo.Status)
				}
			}
		})
	}
}

func TestGeneratePlanHistoryFiltered(t *testing.T) {
	chat := &fakeChat{content: `{"direct_response": "ok"}`}
	p := New(chat, zerolog.Nop())

	history := []executor.Message{
		{Role: executor.RoleSystem, Content: "old system"},
		{Role: executor.RoleUser, Content: "earlier question"},
		{Role: executor.RoleAssistant, ToolCalls: []executor.ToolCall{{ID: "1", Name: "read"}}},
		{Role: executor.RoleTool, ToolCallID: "1", Content: "file contents"},
		{Role: executor.RoleAssistant, Content: "earlier answer"},
	}
	if _, err := p.GeneratePlan(context.Background(), "new request", history); err != nil {
		t.Fatal(err)
	}

	for _, m := range chat.seen[1:] { // first message is the planning prompt
		if m.Role == executor.RoleTool || len(m.ToolCalls) > 0 {
			t.Errorf("tool traffic leaked into the planning context: %+v", m)
		}
	}
	if len(chat.seen) != 4 { // prompt + 2 text turns + the new request
		t.Errorf("planning context size = %d, want 4", len(chat.seen))
	}
}
