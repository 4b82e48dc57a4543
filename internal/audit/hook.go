package audit

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stride-agent/stride/internal/executor"
)

// Hook is an executor.Hook that mirrors a run's tool calls into the
// audit store. The host brackets each run with StartRun and FinishRun;
// storage failures are logged and never interrupt the run.
type Hook struct {
	executor.NopHook

	store *Store
	log   zerolog.Logger

	mu          sync.Mutex
	runID       string
	seq         int
	pendingArgs string
}

func NewHook(store *Store, log zerolog.Logger) *Hook {
	return &Hook{store: store, log: log}
}

// StartRun opens a new audit trail for the run about to execute.
func (h *Hook) StartRun(ctx context.Context, userMessage string) {
	id, err := h.store.BeginRun(ctx, userMessage)
	if err != nil {
		h.log.Warn().Err(err).Msg("audit: run start not recorded")
		return
	}
	h.mu.Lock()
	h.runID = id
	h.seq = 0
	h.mu.Unlock()
}

// FinishRun closes the trail with the run's outcome.
func (h *Hook) FinishRun(ctx context.Context, result executor.ExecutionResult) {
	h.mu.Lock()
	runID := h.runID
	h.runID = ""
	h.mu.Unlock()
	if runID == "" {
		return
	}
	if err := h.store.FinishRun(ctx, runID, result.Response, result.Success, result.Iterations); err != nil {
		h.log.Warn().Err(err).Msg("audit: run finish not recorded")
	}
}

// RunID returns the trail id of the run in flight, if any.
func (h *Hook) RunID() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.runID
}

func (h *Hook) OnToolCall(ctx context.Context, name string, args map[string]any) {
	encoded, err := json.Marshal(args)
	if err != nil {
		encoded = []byte("{}")
	}
	h.mu.Lock()
	h.pendingArgs = string(encoded)
	h.mu.Unlock()
}

func (h *Hook) OnToolResult(ctx context.Context, name string, result string, success bool) {
	h.mu.Lock()
	runID := h.runID
	args := h.pendingArgs
	h.pendingArgs = ""
	seq := h.seq
	h.seq++
	h.mu.Unlock()
	if runID == "" {
		return
	}
	if err := h.store.RecordToolCall(ctx, runID, seq, name, args, result, success); err != nil {
		h.log.Warn().Err(err).Msg("audit: tool call not recorded")
	}
}
