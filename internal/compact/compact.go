// Package compact shrinks long message histories by summarizing the
// older portion with one model call, keeping system messages and the
// most recent turns verbatim.
package compact

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stride-agent/stride/internal/executor"
)

const summarizeSystem = `You compress prior chat history for a tool-driven task runner. Preserve decisions, task outcomes, tool results that matter, file paths, and errors. Omit pleasantries and redundant logs.`

// keepRecent is how many trailing non-system messages survive compaction
// verbatim.
const keepRecent = 8

// Summarizer implements executor.Compactor with one model call over the
// older part of the history.
type Summarizer struct {
	chat executor.ChatClient
	log  zerolog.Logger
	keep int
}

func NewSummarizer(chat executor.ChatClient, log zerolog.Logger) *Summarizer {
	return &Summarizer{chat: chat, log: log, keep: keepRecent}
}

func (s *Summarizer) Compact(ctx context.Context, messages []executor.Message, opts executor.CompactOptions) ([]executor.Message, error) {
	var system, rest []executor.Message
	for _, m := range messages {
		if m.Role == executor.RoleSystem {
			system = append(system, m)
			continue
		}
		rest = append(rest, m)
	}

	if len(rest) <= s.keep {
		// Nothing old enough to fold away.
		return messages, nil
	}

	split := splitBeforeRecent(rest, s.keep)
	old, recent := rest[:split], rest[split:]

	prompt := "Summarize the following history in <= 300 tokens, preserve facts, decisions, and task outcomes:\n\n" + renderForSummary(old)
	if opts.WorkingDirectory != "" {
		prompt = "Working directory: " + opts.WorkingDirectory + "\n\n" + prompt
	}
	resp, err := s.chat.ChatCompletion(ctx, []executor.Message{
		{Role: executor.RoleSystem, Content: summarizeSystem},
		{Role: executor.RoleUser, Content: prompt},
	}, nil, 0.1)
	if err != nil {
		return nil, fmt.Errorf("summarize history: %w", err)
	}
	if resp.Message == nil || strings.TrimSpace(resp.Message.Content) == "" {
		return nil, fmt.Errorf("summarizer returned no content")
	}

	summary := executor.Message{
		Role:    executor.RoleSystem,
		Content: "<history_summary>\n" + resp.Message.Content + "\n</history_summary>",
	}

	out := make([]executor.Message, 0, len(system)+1+len(recent))
	out = append(out, system...)
	out = append(out, summary)
	out = append(out, recent...)

	s.log.Debug().
		Int("summarized", len(old)).
		Int("kept", len(recent)).
		Msg("history summarized")
	return out, nil
}

// splitBeforeRecent finds the cut point that keeps the last n messages
// without separating a tool message from the assistant turn that
// requested it.
func splitBeforeRecent(messages []executor.Message, n int) int {
	split := len(messages) - n
	for split > 0 && messages[split].Role == executor.RoleTool {
		split--
	}
	return split
}

func renderForSummary(messages []executor.Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString("[" + string(m.Role) + "] ")
		if m.Content != "" {
			b.WriteString(m.Content)
		}
		for _, tc := range m.ToolCalls {
			fmt.Fprintf(&b, "(called %s with %s)", tc.Name, tc.Arguments)
		}
		b.WriteString("\n\n")
	}
	return b.String()
}
