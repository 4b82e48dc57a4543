package executor

import (
	"strings"
	"sync"
)

// Context thresholds, relative to the model's context window.
const (
	// ContextWarnThreshold is the usage fraction at which the executor
	// emits an advisory OnContextWarning callback each iteration.
	ContextWarnThreshold = 0.70
	// AutoCompactThreshold is the usage fraction at which ShouldCompact
	// starts reporting true. Compaction itself is caller-invoked.
	AutoCompactThreshold = 0.85
)

// ContextUsage is a snapshot of cumulative token accounting for a run.
type ContextUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	UsagePercent     float64
}

// ContextTracker accumulates token usage reported by the chat client
// against a model's context window. Usage is monotonically non-decreasing
// within a run except immediately after a successful compaction, which
// resets it.
type ContextTracker struct {
	mu     sync.Mutex
	window int
	usage  Usage
}

// NewContextTracker creates a tracker for the given context window size.
// A non-positive window falls back to the default window.
func NewContextTracker(window int) *ContextTracker {
	if window <= 0 {
		window = defaultContextWindow
	}
	return &ContextTracker{window: window}
}

// Add accumulates one chat turn's usage.
func (t *ContextTracker) Add(u Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage.Prompt += u.Prompt
	t.usage.Completion += u.Completion
	t.usage.Total += u.Total
}

// Usage returns the current snapshot.
func (t *ContextTracker) Usage() ContextUsage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return ContextUsage{
		PromptTokens:     t.usage.Prompt,
		CompletionTokens: t.usage.Completion,
		TotalTokens:      t.usage.Total,
		UsagePercent:     float64(t.usage.Total) / float64(t.window),
	}
}

// UsagePercent returns the used fraction of the context window.
func (t *ContextTracker) UsagePercent() float64 {
	return t.Usage().UsagePercent
}

// ShouldCompact reports whether usage has crossed the auto-compact
// threshold. It keeps reporting true until Reset is called after a
// successful compaction.
func (t *ContextTracker) ShouldCompact() bool {
	return t.UsagePercent() >= AutoCompactThreshold
}

// Reset clears accumulated usage. Called only after a successful
// compaction.
func (t *ContextTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.usage = Usage{}
}

// Window returns the context window size in tokens.
func (t *ContextTracker) Window() int {
	return t.window
}

const defaultContextWindow = 16000

// ContextWindowForModel returns the context window size for a model name,
// matched by substring the way providers name their models. Unknown
// models get a conservative default.
func ContextWindowForModel(model string) int {
	m := strings.ToLower(model)
	switch {
	case strings.Contains(m, "kimi"):
		return 200000
	case strings.Contains(m, "claude") || strings.Contains(m, "sonnet") || strings.Contains(m, "opus") || strings.Contains(m, "haiku"):
		return 200000
	case strings.Contains(m, "gpt-4o") || strings.Contains(m, "gpt-4.1") || strings.Contains(m, "o1-"):
		return 128000
	case strings.Contains(m, "deepseek"):
		return 64000
	}
	return defaultContextWindow
}
