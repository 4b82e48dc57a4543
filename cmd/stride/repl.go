package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/stride-agent/stride/internal/executor"
)

// RunREPL reads tasks from stdin until EOF or /quit. Slash commands
// inspect and manage the session between runs.
func (a *App) RunREPL(ctx context.Context) error {
	fmt.Println("stride - type a task, /help for commands, /quit to exit")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := a.handleCommand(ctx, line); quit {
				return nil
			}
			continue
		}
		if ctx.Err() != nil {
			return nil
		}

		result := a.runTask(ctx, line)
		a.printResult(result)
	}
	return scanner.Err()
}

func (a *App) handleCommand(ctx context.Context, line string) (quit bool) {
	switch strings.Fields(line)[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Println(`commands:
  /todos    show the current task list
  /resume   continue working through unfinished tasks
  /compact  summarize older history to free context
  /usage    show context window usage
  /sessions list saved sessions for this directory
  /clear    drop conversation history (keeps the system prompt)
  /quit     exit`)
	case "/todos":
		todos := a.exec.Todos()
		if len(todos) == 0 {
			fmt.Println("no task list")
			break
		}
		for i, todo := range todos {
			line := fmt.Sprintf("%d. [%s] %s", i+1, todo.Status, todo.Title)
			if todo.Note != "" {
				line += " - " + todo.Note
			}
			fmt.Println(line)
		}
	case "/resume":
		if a.auditHook != nil {
			a.auditHook.StartRun(ctx, "/resume")
		}
		result := a.exec.ResumeTodoExecution(ctx, a.history)
		if a.auditHook != nil {
			a.auditHook.FinishRun(context.WithoutCancel(ctx), result)
		}
		if result.Err == nil {
			a.history = result.Messages
		}
		a.saveSession()
		a.printResult(result)
	case "/compact":
		compacted, err := a.exec.PerformCompact(ctx, a.history)
		if err != nil {
			fmt.Printf("compaction failed: %v\n", err)
			break
		}
		a.history = compacted
		fmt.Printf("history compacted to %d messages\n", len(a.history))
	case "/usage":
		u := a.exec.ContextUsage()
		fmt.Printf("tokens: %d prompt, %d completion, %d total (%.0f%% of window)\n",
			u.PromptTokens, u.CompletionTokens, u.TotalTokens, u.UsagePercent*100)
	case "/sessions":
		metas, err := a.sessions.List(a.sess.WorkDir)
		if err != nil {
			fmt.Printf("could not list sessions: %v\n", err)
			break
		}
		if len(metas) == 0 {
			fmt.Println("no saved sessions")
			break
		}
		for _, m := range metas {
			line := fmt.Sprintf("%s  %s  %s", m.ID[:8], m.UpdatedAt.Format("2006-01-02 15:04"), m.Title)
			if m.Remaining > 0 {
				line += fmt.Sprintf("  (%d tasks remaining)", m.Remaining)
			}
			fmt.Println(line)
		}
	case "/clear":
		var kept []executor.Message
		for _, m := range a.history {
			if m.Role == executor.RoleSystem {
				kept = append(kept, m)
			}
		}
		a.history = kept
		fmt.Println("history cleared")
	default:
		fmt.Println("unknown command, try /help")
	}
	return false
}

func (a *App) printResult(result executor.ExecutionResult) {
	switch {
	case result.Err != nil:
		fmt.Printf("error: %v\n", result.Err)
	case result.Response != "":
		fmt.Println(result.Response)
	default:
		fmt.Println("(no response)")
	}
}
