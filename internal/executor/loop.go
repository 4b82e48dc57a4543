package executor

import (
	"context"
	"fmt"
)

// noToolCallReminder is sent back to the model when it replies with
// plain text instead of tool calls before the retry budget runs out.
const noToolCallReminder = "You replied without calling a tool. Use the available tools to make progress, " +
	"and call " + ToolFinalResponse + " when the task is done."

// runLoop drives the act phase: call the model, dispatch its tool calls
// in order, append the results, repeat. It ends on a successful final
// tool result, on an accepted plain reply, on a fatal error, or when the
// iteration budget runs out.
func (e *PlanExecutor) runLoop(ctx context.Context, messages []Message) ExecutionResult {
	var records []ToolCallRecord
	noToolRetries := 0

	result := func(success bool, response string, iterations int, err error) ExecutionResult {
		return ExecutionResult{
			Success:    success,
			Response:   response,
			Messages:   messages,
			ToolCalls:  records,
			Iterations: iterations,
			Err:        err,
		}
	}

	for iteration := 1; iteration <= e.cfg.MaxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return result(false, "", iteration-1, fmt.Errorf("%w: %v", ErrAborted, err))
		}

		// Advisory only. Compaction stays a caller-invoked operation;
		// hosts consult ShouldCompact and call PerformCompact between runs.
		if pct := e.tracker.UsagePercent(); pct >= ContextWarnThreshold {
			e.hooks.OnContextWarning(ctx, pct)
		}

		resp, err := e.step(ctx, messages)
		if err != nil {
			if ctx.Err() != nil {
				return result(false, "", iteration-1, fmt.Errorf("%w: %v", ErrAborted, ctx.Err()))
			}
			return result(false, "", iteration-1, fmt.Errorf("chat completion: %w", err))
		}
		e.tracker.Add(resp.Usage)

		if resp.Message == nil {
			return result(false, "", iteration-1, ErrNoResponse)
		}
		assistant := *resp.Message
		assistant.Role = RoleAssistant
		messages = append(messages, assistant)
		e.hooks.OnMessage(ctx, assistant)

		if len(assistant.ToolCalls) == 0 {
			noToolRetries++
			if noToolRetries > maxNoToolRetries {
				return result(true, assistant.Content, iteration, nil)
			}
			e.log.Debug().
				Int("attempt", noToolRetries).
				Msg("assistant reply without tool calls, prompting again")
			reminder := Message{Role: RoleUser, Content: noToolCallReminder}
			messages = append(messages, reminder)
			e.hooks.OnMessage(ctx, reminder)
			continue
		}
		noToolRetries = 0

		for _, call := range assistant.ToolCalls {
			if err := ctx.Err(); err != nil {
				return result(false, "", iteration, fmt.Errorf("%w: %v", ErrAborted, err))
			}

			args, parseErr := ParseToolArguments(call.Arguments)
			if parseErr != nil {
				e.log.Debug().Err(parseErr).Str("tool", call.Name).Msg("malformed tool arguments")
			}
			e.hooks.OnToolCall(ctx, call.Name, args)

			res := e.dispatch(ctx, call, args, parseErr)
			records = append(records, ToolCallRecord{
				Tool:    call.Name,
				Args:    call.Arguments,
				Result:  resultText(res),
				Success: res.Success,
			})
			e.hooks.OnToolResult(ctx, call.Name, resultText(res), res.Success)

			messages = append(messages, Message{
				Role:       RoleTool,
				Content:    resultText(res),
				ToolCallID: call.ID,
			})

			if res.Final && res.Success {
				return result(true, res.Content, iteration, nil)
			}
		}
	}

	// Iteration budget spent. The task is unfinished but the run itself
	// did not fail; callers can resume from the returned messages.
	e.log.Warn().
		Int("iterations", e.cfg.MaxIterations).
		Msg("iteration budget exhausted before a final answer")
	return result(true,
		fmt.Sprintf("Stopped after %d iterations without a final answer. Progress so far is preserved; resume to continue.", e.cfg.MaxIterations),
		e.cfg.MaxIterations, nil)
}

// step performs one chat completion, applying the retry policy when one
// is configured.
func (e *PlanExecutor) step(ctx context.Context, messages []Message) (ChatResponse, error) {
	schemas := e.tools.Schemas()
	if e.todos.Len() > 0 {
		schemas = append(schemas, updateTodoStatusSchema)
	}

	call := func(ctx context.Context) (ChatResponse, error) {
		return e.chat.ChatCompletion(ctx, messages, schemas, e.cfg.Temperature)
	}
	if e.cfg.Retry == nil {
		return call(ctx)
	}
	return retryChat(ctx, *e.cfg.Retry, call)
}

// dispatch executes one parsed tool call. A parse failure becomes a
// failed result without reaching the executor, so the model can retry
// with corrected arguments.
func (e *PlanExecutor) dispatch(ctx context.Context, call ToolCall, args map[string]any, parseErr error) ToolResult {
	if parseErr != nil {
		return ToolResult{
			Success: false,
			Error:   fmt.Sprintf("invalid arguments for %s: %v", call.Name, parseErr),
		}
	}
	if call.Name == ToolUpdateTodoStatus {
		return e.applyTodoUpdate(ctx, args)
	}
	return e.tools.Execute(ctx, call.Name, args)
}

// applyTodoUpdate handles the engine-owned TODO progress tool. The
// result echoes the re-rendered task list so the model always sees the
// current state.
func (e *PlanExecutor) applyTodoUpdate(ctx context.Context, args map[string]any) ToolResult {
	id, _ := args["id"].(string)
	status, _ := args["status"].(string)
	note, _ := args["note"].(string)

	if err := e.todos.SetStatus(id, TodoStatus(status), note); err != nil {
		return ToolResult{Success: false, Error: err.Error()}
	}
	e.hooks.OnTodoUpdate(ctx, e.todos.Items())

	content := e.todos.RenderStatusBlock()
	if e.todos.AllDone() {
		content += "\nAll tasks are finished. Call " + ToolFinalResponse + " with the final answer."
	}
	return ToolResult{Success: true, Content: content}
}

// resultText flattens a ToolResult into the single string sent back to
// the model as the tool message body.
func resultText(r ToolResult) string {
	if r.Success {
		return r.Content
	}
	return "Error: " + r.Error
}
