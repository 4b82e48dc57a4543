package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Phase is the executor's lifecycle phase for one run.
type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhasePlanning  Phase = "planning"
	PhaseActing    Phase = "acting"
	PhaseCompleted Phase = "completed"
	PhaseAborted   Phase = "aborted"
	PhaseFailed    Phase = "failed"
)

// maxNoToolRetries is how many plain text replies are tolerated before a
// reply without tool calls is accepted as the run's answer.
const maxNoToolRetries = 3

// PlanExecutor drives one task at a time through a planning phase and a
// tool-calling act loop. A single instance handles one run at a time;
// Execute on a busy instance fails fast.
type PlanExecutor struct {
	chat      ChatClient
	tools     ToolExecutor
	planner   Planner
	compactor Compactor
	hooks     Hooks
	log       zerolog.Logger
	cfg       Config

	todos   *TodoStore
	tracker *ContextTracker

	running atomic.Bool
	phase   Phase

	mu     sync.Mutex
	cancel context.CancelFunc
}

// Builder assembles a PlanExecutor. Chat client and tool executor are
// required; everything else has a working default.
type Builder struct {
	chat      ChatClient
	tools     ToolExecutor
	planner   Planner
	compactor Compactor
	hooks     []Hook
	log       *zerolog.Logger
	window    int
	cfg       Config
}

func NewBuilder(chat ChatClient, tools ToolExecutor) *Builder {
	return &Builder{chat: chat, tools: tools, window: defaultContextWindow}
}

func (b *Builder) WithPlanner(p Planner) *Builder {
	b.planner = p
	return b
}

func (b *Builder) WithCompactor(c Compactor) *Builder {
	b.compactor = c
	return b
}

func (b *Builder) WithHooks(hooks ...Hook) *Builder {
	b.hooks = append(b.hooks, hooks...)
	return b
}

func (b *Builder) WithLogger(l zerolog.Logger) *Builder {
	b.log = &l
	return b
}

func (b *Builder) WithContextWindow(tokens int) *Builder {
	if tokens > 0 {
		b.window = tokens
	}
	return b
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

func (b *Builder) Build() (*PlanExecutor, error) {
	if b.chat == nil {
		return nil, fmt.Errorf("chat client is required")
	}
	if b.tools == nil {
		return nil, fmt.Errorf("tool executor is required")
	}
	log := zerolog.Nop()
	if b.log != nil {
		log = *b.log
	}
	return &PlanExecutor{
		chat:      b.chat,
		tools:     b.tools,
		planner:   b.planner,
		compactor: b.compactor,
		hooks:     Hooks(b.hooks),
		log:       log,
		cfg:       b.cfg.withDefaults(),
		todos:     NewTodoStore(),
		tracker:   NewContextTracker(b.window),
		phase:     PhaseIdle,
	}, nil
}

// Execute runs one task to completion. The returned result always
// carries the final message history; Err is set only for fatal errors.
func (e *PlanExecutor) Execute(ctx context.Context, userMessage string, history []Message) ExecutionResult {
	return e.run(ctx, userMessage, history, nil)
}

// run is the guarded entry shared by Execute and ResumeTodoExecution.
// The config override is applied only after winning the single-flight
// guard, so it can never leak into a run already in flight.
func (e *PlanExecutor) run(ctx context.Context, userMessage string, history []Message, override *Config) ExecutionResult {
	if !e.running.CompareAndSwap(false, true) {
		return ExecutionResult{Success: false, Err: ErrAlreadyExecuting}
	}
	defer e.running.Store(false)

	if override != nil {
		prev := e.cfg
		e.cfg = override.withDefaults()
		defer func() { e.cfg = prev }()
	}

	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.cancel = cancel
	e.mu.Unlock()
	defer func() {
		cancel()
		e.mu.Lock()
		e.cancel = nil
		e.mu.Unlock()
	}()

	result := e.execute(ctx, userMessage, history)
	if result.Err != nil {
		e.hooks.OnError(ctx, result.Err)
	} else {
		e.hooks.OnComplete(ctx, result.Response)
	}
	return result
}

func (e *PlanExecutor) execute(ctx context.Context, userMessage string, history []Message) ExecutionResult {
	cfg := e.cfg

	if cfg.EnablePlanning && e.planner != nil && !cfg.ResumeTodos {
		e.phase = PhasePlanning
		plan, err := e.planner.GeneratePlan(ctx, userMessage, history)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				e.phase = PhaseAborted
				return ExecutionResult{Success: false, Err: fmt.Errorf("%w: %v", ErrAborted, ctx.Err())}
			}
			e.log.Warn().Err(err).Msg("planning failed, proceeding without a plan")
		case plan.DirectResponse != "":
			e.phase = PhaseCompleted
			return ExecutionResult{
				Success:  true,
				Response: plan.DirectResponse,
				Messages: history,
			}
		case len(plan.Todos) > 0:
			e.setTodos(ctx, plan.Todos)
		}
	}

	e.phase = PhaseActing
	messages := e.assembleMessages(userMessage, history)
	e.hooks.OnMessage(ctx, messages[len(messages)-1])
	result := e.runLoop(ctx, messages)

	switch {
	case result.Err != nil && IsAborted(result.Err):
		e.phase = PhaseAborted
	case result.Err != nil:
		e.phase = PhaseFailed
	default:
		e.phase = PhaseCompleted
	}
	return result
}

// assembleMessages builds the working message list for a run: validated
// and truncated history, system messages in front, and the user message
// with the current task list injected. When the history carries no system
// message the executor supplies a minimal one so the model always knows
// its tools and working directory; hosts that seed their own keep it.
func (e *PlanExecutor) assembleMessages(userMessage string, history []Message) []Message {
	history = ValidateToolMessages(history)
	history = TruncateMessages(history, MaxHistoryMessages)

	var system []Message
	kept := make([]Message, 0, len(history))
	for _, m := range history {
		if m.Role == RoleSystem {
			system = append(system, m)
			continue
		}
		kept = append(kept, m)
	}
	if len(system) == 0 {
		system = []Message{{Role: RoleSystem, Content: e.defaultSystemPrompt()}}
	}

	content := userMessage
	if block := e.todos.RenderStatusBlock(); block != "" {
		content = content + "\n\n" + block
	}

	messages := make([]Message, 0, len(system)+len(kept)+1)
	messages = append(messages, system...)
	messages = append(messages, kept...)
	messages = append(messages, Message{Role: RoleUser, Content: content})
	return messages
}

func (e *PlanExecutor) defaultSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a task-execution assistant. Work through the user's request with the available tools and call ")
	b.WriteString(ToolFinalResponse)
	b.WriteString(" with your answer when done.\n\nAvailable tools:\n")
	b.WriteString(e.tools.Summary())
	if e.cfg.WorkingDirectory != "" {
		b.WriteString("\nWorking directory: ")
		b.WriteString(e.cfg.WorkingDirectory)
	}
	if e.cfg.IsGitRepo {
		b.WriteString("\nThe working directory is a git repository.")
	}
	return b.String()
}

// Abort cancels the in-flight run, if any. Safe to call at any time and
// from any goroutine; calling it on an idle executor does nothing.
func (e *PlanExecutor) Abort() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// IsExecuting reports whether a run is in flight.
func (e *PlanExecutor) IsExecuting() bool {
	return e.running.Load()
}

// CurrentPhase returns the lifecycle phase reached by the most recent run.
func (e *PlanExecutor) CurrentPhase() Phase {
	return e.phase
}

// Todos returns a snapshot of the current task list.
func (e *PlanExecutor) Todos() []TodoItem {
	return e.todos.Items()
}

// SetTodos replaces the task list, typically with items restored from a
// previous session.
func (e *PlanExecutor) SetTodos(items []TodoItem) {
	e.setTodos(context.Background(), items)
}

func (e *PlanExecutor) setTodos(ctx context.Context, items []TodoItem) {
	e.todos.Set(items)
	e.hooks.OnTodoUpdate(ctx, e.todos.Items())
}

// ContextUsage reports cumulative token usage for the current task list
// lifetime.
func (e *PlanExecutor) ContextUsage() ContextUsage {
	return e.tracker.Usage()
}

// ShouldCompact reports whether usage has crossed the compaction
// threshold. The engine never compacts on its own; callers check this
// between runs and invoke PerformCompact.
func (e *PlanExecutor) ShouldCompact() bool {
	return e.tracker.ShouldCompact()
}

// ResumeTodoExecution continues working through an existing task list
// without re-planning. With nothing left to do it returns success
// immediately.
func (e *PlanExecutor) ResumeTodoExecution(ctx context.Context, history []Message) ExecutionResult {
	remaining := e.todos.Remaining()
	if len(remaining) == 0 {
		return ExecutionResult{
			Success:  true,
			Response: "All tasks are already complete.",
			Messages: history,
		}
	}

	cfg := e.cfg
	cfg.EnablePlanning = false
	cfg.ResumeTodos = true

	instruction := fmt.Sprintf(
		"Resume working through the task list. %d task(s) remain. Continue from the first unfinished task and report progress with %s.",
		len(remaining), ToolUpdateTodoStatus,
	)
	return e.run(ctx, instruction, history, &cfg)
}

// PerformCompact asks the configured compactor to shrink the message
// history. On success the context tracker is reset; on failure the
// original messages come back unchanged alongside the error. Compaction
// failure is never fatal to a run.
func (e *PlanExecutor) PerformCompact(ctx context.Context, messages []Message) ([]Message, error) {
	if e.compactor == nil {
		return messages, fmt.Errorf("no compactor configured")
	}
	compacted, err := e.compactor.Compact(ctx, messages, CompactOptions{
		WorkingDirectory: e.cfg.WorkingDirectory,
	})
	if err != nil {
		e.log.Warn().Err(err).Msg("compaction failed, keeping full history")
		return messages, err
	}
	e.tracker.Reset()
	e.log.Info().
		Int("before", len(messages)).
		Int("after", len(compacted)).
		Msg("history compacted")
	return compacted, nil
}
