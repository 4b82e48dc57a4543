package executor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Names of the engine's built-in meta tools. ToolFinalResponse is the
// designated final-answer tool; ToolUpdateTodoStatus is intercepted by
// the executor itself and never reaches the ToolExecutor.
const (
	ToolFinalResponse    = "final_response"
	ToolUpdateTodoStatus = "update_todo_status"
)

// ToolFunc executes one tool call against already-parsed arguments.
type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

// Tool is one named capability in a Registry. Final marks the designated
// final-answer tool whose successful result ends a run.
type Tool struct {
	Name        string
	Description string
	SchemaJSON  string
	Fn          ToolFunc
	Final       bool
}

// ValidateArgs validates args against the tool's JSON schema. Tools
// without a schema accept anything.
func (t Tool) ValidateArgs(args map[string]any) error {
	if t.SchemaJSON == "" {
		return nil
	}
	schemaLoader := gojsonschema.NewStringLoader(t.SchemaJSON)
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return &ToolValidationError{ToolName: t.Name, Errors: msgs}
	}
	return nil
}

// Registry is a ToolExecutor backed by an in-process tool map.
type Registry map[string]Tool

var _ ToolExecutor = Registry{}

// Register adds a tool, replacing any previous tool of the same name.
func (r Registry) Register(t Tool) {
	r[t.Name] = t
}

// Execute runs one named tool call. Missing tools, validation failures,
// and execution failures are all reported inside the result, never as an
// error value, so the model can see them and correct itself.
func (r Registry) Execute(ctx context.Context, name string, args map[string]any) ToolResult {
	t, ok := r[name]
	if !ok {
		return ToolResult{
			Success: false,
			Error:   fmt.Sprintf("tool not found: %s (available tools: %s)", name, strings.Join(r.names(), ", ")),
		}
	}
	if err := t.ValidateArgs(args); err != nil {
		return ToolResult{Success: false, Error: err.Error()}
	}

	out, err := t.Fn(ctx, args)
	if err != nil {
		return ToolResult{Success: false, Error: err.Error()}
	}
	return ToolResult{Success: true, Content: out, Final: t.Final}
}

// Schemas returns tool definitions in stable name order.
func (r Registry) Schemas() []ToolSchema {
	out := make([]ToolSchema, 0, len(r))
	for _, name := range r.names() {
		t := r[name]
		out = append(out, ToolSchema{
			Name:        t.Name,
			Description: t.Description,
			JSONSchema:  t.SchemaJSON,
		})
	}
	return out
}

// Summary renders a one-line-per-tool capability summary for the system
// prompt.
func (r Registry) Summary() string {
	var b strings.Builder
	for _, name := range r.names() {
		t := r[name]
		desc := t.Description
		if i := strings.IndexByte(desc, '\n'); i >= 0 {
			desc = desc[:i]
		}
		fmt.Fprintf(&b, "- %s: %s\n", name, desc)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r Registry) names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewFinalResponseTool creates the designated final-answer tool. Its
// successful execution ends the run with the response text as the run's
// answer.
func NewFinalResponseTool() Tool {
	return Tool{
		Name:        ToolFinalResponse,
		Description: "Deliver the final answer to the user and end the task. Call this exactly once, when all work is done.",
		SchemaJSON:  `{"type":"object","properties":{"response":{"type":"string","description":"The complete final answer for the user"}},"required":["response"]}`,
		Final:       true,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			response, ok := args["response"].(string)
			if !ok || response == "" {
				return "", fmt.Errorf("response must be a non-empty string")
			}
			return response, nil
		},
	}
}

// updateTodoStatusSchema describes the engine-intercepted TODO progress
// tool. It is advertised to the model whenever a task list exists.
var updateTodoStatusSchema = ToolSchema{
	Name:        ToolUpdateTodoStatus,
	Description: "Report progress on a task from the task list. Mark it in_progress when you start and completed or failed when you finish.",
	JSONSchema:  `{"type":"object","properties":{"id":{"type":"string","description":"Task id from the task list"},"status":{"type":"string","enum":["pending","in_progress","completed","failed"]},"note":{"type":"string","description":"Failure reason, only for status=failed"}},"required":["id","status"]}`,
}
