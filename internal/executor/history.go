package executor

// MaxHistoryMessages caps how much conversation history a run carries
// into the model. See TruncateMessages.
const MaxHistoryMessages = 100

// ValidateToolMessages drops tool messages that do not answer a pending
// tool call. A single left-to-right pass tracks the set of tool-call ids
// introduced by assistant messages; a tool message is kept only if its
// ToolCallID is pending, consuming the id so no id is answered twice.
// All non-tool messages pass through unchanged.
func ValidateToolMessages(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	pending := make(map[string]bool)

	for _, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			for _, tc := range msg.ToolCalls {
				pending[tc.ID] = true
			}
			out = append(out, msg)
		case RoleTool:
			if pending[msg.ToolCallID] {
				delete(pending, msg.ToolCallID)
				out = append(out, msg)
			}
			// orphaned tool message: dropped
		default:
			out = append(out, msg)
		}
	}
	return out
}

// TruncateMessages bounds the history to maxCount messages. System
// messages are always kept; the most recent maxCount-systemCount
// non-system messages are kept, oldest dropped first. The budget is soft:
// system messages are never dropped even if they alone exceed maxCount.
// Relative order of kept messages is preserved.
func TruncateMessages(messages []Message, maxCount int) []Message {
	if len(messages) <= maxCount {
		return messages
	}

	systemCount := 0
	for _, m := range messages {
		if m.Role == RoleSystem {
			systemCount++
		}
	}

	keep := maxCount - systemCount
	if keep < 0 {
		keep = 0
	}
	nonSystem := len(messages) - systemCount
	drop := nonSystem - keep
	if drop < 0 {
		drop = 0
	}

	out := make([]Message, 0, systemCount+keep)
	for _, m := range messages {
		if m.Role == RoleSystem {
			out = append(out, m)
			continue
		}
		if drop > 0 {
			drop--
			continue
		}
		out = append(out, m)
	}
	return out
}

// EstimateTokenCount returns a rough token count for messages using a
// fixed ~4 chars-per-token heuristic, ceiling-rounded. It sums content,
// tool-call function names, and raw argument text. It is not a tokenizer;
// it exists only to drive the auto-compact threshold cheaply.
func EstimateTokenCount(messages []Message) int {
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
		for _, tc := range m.ToolCalls {
			chars += len(tc.Name) + len(tc.Arguments)
		}
	}
	if chars == 0 {
		return 0
	}
	return (chars + 3) / 4
}
