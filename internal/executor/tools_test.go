package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestRegistry() Registry {
	reg := make(Registry)
	reg.Register(Tool{
		Name:        "echo",
		Description: "Echo the input back.",
		SchemaJSON:  `{"type":"object","properties":{"text":{"type":"string"}},"required":["text"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			return args["text"].(string), nil
		},
	})
	reg.Register(Tool{
		Name:        "always_fails",
		Description: "Fails every time.",
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			return "", errors.New("boom")
		},
	})
	return reg
}

func TestRegistryExecute(t *testing.T) {
	ctx := context.Background()
	reg := newTestRegistry()

	tests := []struct {
		name        string
		tool        string
		args        map[string]any
		wantSuccess bool
		wantContent string
		wantErrSub  string
	}{
		{
			name:        "success",
			tool:        "echo",
			args:        map[string]any{"text": "hello"},
			wantSuccess: true,
			wantContent: "hello",
		},
		{
			name:       "missing required argument",
			tool:       "echo",
			args:       map[string]any{},
			wantErrSub: "validation failed",
		},
		{
			name:       "wrong argument type",
			tool:       "echo",
			args:       map[string]any{"text": 42},
			wantErrSub: "validation failed",
		},
		{
			name:       "execution failure reported as data",
			tool:       "always_fails",
			args:       map[string]any{},
			wantErrSub: "boom",
		},
		{
			name:       "unknown tool lists available tools",
			tool:       "nope",
			args:       map[string]any{},
			wantErrSub: "tool not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := reg.Execute(ctx, tt.tool, tt.args)
			if res.Success != tt.wantSuccess {
				t.Errorf("Success = %v, want %v (error: %s)", res.Success, tt.wantSuccess, res.Error)
			}
			if tt.wantContent != "" && res.Content != tt.wantContent {
				t.Errorf("Content = %q, want %q", res.Content, tt.wantContent)
			}
			if tt.wantErrSub != "" && !strings.Contains(res.Error, tt.wantErrSub) {
				t.Errorf("Error = %q, want it to mention %q", res.Error, tt.wantErrSub)
			}
		})
	}
}

func TestRegistrySchemasSorted(t *testing.T) {
	reg := newTestRegistry()
	schemas := reg.Schemas()
	if len(schemas) != 2 {
		t.Fatalf("Schemas() len = %d, want 2", len(schemas))
	}
	if schemas[0].Name != "always_fails" || schemas[1].Name != "echo" {
		t.Errorf("schemas not in name order: %s, %s", schemas[0].Name, schemas[1].Name)
	}
}

func TestRegistrySummary(t *testing.T) {
	reg := make(Registry)
	reg.Register(Tool{Name: "read_file", Description: "Read a file.\nSecond line ignored."})

	got := reg.Summary()
	if got != "- read_file: Read a file." {
		t.Errorf("Summary() = %q", got)
	}
}

func TestFinalResponseTool(t *testing.T) {
	tool := NewFinalResponseTool()
	if !tool.Final {
		t.Fatal("final_response must be marked Final")
	}
	if tool.Name != ToolFinalResponse {
		t.Fatalf("name = %s", tool.Name)
	}

	out, err := tool.Fn(context.Background(), map[string]any{"response": "all done"})
	if err != nil || out != "all done" {
		t.Errorf("Fn() = %q, %v, want the response text", out, err)
	}

	if _, err := tool.Fn(context.Background(), map[string]any{}); err == nil {
		t.Error("empty response must be rejected")
	}
}

func TestToolValidateArgsNoSchema(t *testing.T) {
	tool := Tool{Name: "free"}
	if err := tool.ValidateArgs(map[string]any{"anything": true}); err != nil {
		t.Errorf("ValidateArgs() = %v, want nil for schemaless tool", err)
	}
}
