package executor

import (
	"context"
	"fmt"
)

// MessageRole represents the role of a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

// ToolCall is a structured tool request emitted by the model.
// Arguments is kept as the raw JSON text the model produced; it is only
// decoded at the dispatch boundary by ParseToolArguments.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is the provider-agnostic chat message the executor passes around.
// ToolCalls is present only on assistant messages that request tool
// execution; ToolCallID only on tool messages, referencing the call they
// answer.
type Message struct {
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
}

// Validate checks basic message well-formedness.
func (m Message) Validate() error {
	switch m.Role {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
	default:
		return fmt.Errorf("invalid message role: %s", m.Role)
	}
	if m.Role == RoleTool && m.ToolCallID == "" {
		return fmt.Errorf("tool messages must reference a tool_call_id")
	}
	if m.Role != RoleAssistant && len(m.ToolCalls) > 0 {
		return fmt.Errorf("tool calls are only valid on assistant messages")
	}
	return nil
}

// Usage holds token accounting returned by providers.
type Usage struct {
	Prompt     int
	Completion int
	Total      int
}

// ChatResponse is a normalized result of one chat completion turn.
// Message is nil when the provider returned nothing usable, which the
// executor treats as fatal for the run.
type ChatResponse struct {
	Message      *Message
	Usage        Usage
	FinishReason string // "stop" | "length" | "tool_calls" | "content_filter"
}

// ChatClient abstracts one request/response turn with the model.
// Implementations must honor ctx cancellation promptly; the executor
// cancels this context on Abort.
type ChatClient interface {
	ChatCompletion(ctx context.Context, messages []Message, tools []ToolSchema, temperature float32) (ChatResponse, error)
}

// ToolSchema describes one callable tool to the model.
type ToolSchema struct {
	Name        string
	Description string
	JSONSchema  string // raw JSON schema for the arguments object
}

// ToolResult is the outcome of executing one tool call. Final marks the
// result of the designated final-answer tool: a successful final result
// ends the run with Content as the run's answer.
type ToolResult struct {
	Success bool
	Content string
	Error   string
	Final   bool
}

// ToolExecutor executes one named tool call. Execution failures are
// reported inside ToolResult, never as panics; the executor treats them
// as data and surfaces them back to the model.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) ToolResult
	Schemas() []ToolSchema
	Summary() string
}

// Plan is the outcome of a planning phase. Exactly one of DirectResponse
// or Todos is meaningful: a non-empty DirectResponse means no tool-driven
// execution is needed.
type Plan struct {
	DirectResponse string
	Todos          []TodoItem
	Complexity     string // "low" | "medium" | "high", advisory only
}

// Planner turns a user request plus history into a TODO list or a direct
// answer.
type Planner interface {
	GeneratePlan(ctx context.Context, userMessage string, history []Message) (Plan, error)
}

// CompactOptions carries host context to the compactor.
type CompactOptions struct {
	WorkingDirectory string
}

// Compactor replaces a long message history with a shorter summarized
// equivalent. An error leaves the caller's history untouched.
type Compactor interface {
	Compact(ctx context.Context, messages []Message, opts CompactOptions) ([]Message, error)
}

// Config holds the read-only per-call knobs for one run.
type Config struct {
	MaxIterations    int // 0 = DefaultMaxIterations
	WorkingDirectory string
	IsGitRepo        bool
	EnablePlanning   bool
	ResumeTodos      bool
	Temperature      float32
	Retry            *RetryPolicy // nil = single attempt per model call
}

// DefaultMaxIterations bounds a run when Config.MaxIterations is unset.
const DefaultMaxIterations = 50

func (c Config) withDefaults() Config {
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	return c
}

// ToolCallRecord is one entry in the append-only audit trail of a run.
// Parse failures are recorded too, with Success=false and the parse error
// as Result.
type ToolCallRecord struct {
	Tool    string `json:"tool"`
	Args    string `json:"args"` // raw JSON text as received from the model
	Result  string `json:"result"`
	Success bool   `json:"success"`
}

// ExecutionResult is returned by Execute and ResumeTodoExecution. Fatal
// paths still carry the accumulated Messages and ToolCalls so callers can
// inspect or resume partial progress.
type ExecutionResult struct {
	Success    bool
	Response   string
	Messages   []Message
	ToolCalls  []ToolCallRecord
	Iterations int
	Err        error
}
