package prompts

import (
	"strings"
)

// PromptIDSystem is the act-loop system prompt.
const PromptIDSystem = "system"

const systemPromptV1 = `You are a task runner that accomplishes work by calling tools.

Rules:
- Always make progress with tool calls. Plain text replies do not accomplish anything.
- Work through the task list in order when one is present. Report progress with update_todo_status as you start and finish each task.
- When a task cannot be done, mark it failed with a short reason and move on.
- When everything is done, call final_response exactly once with the complete answer.
- Keep tool arguments strictly valid JSON.

Available tools:
{{tool_summary}}

Environment:
- Working directory: {{working_directory}}
- Project type: {{project_type}}
{{vcs_context}}`

func init() {
	defaultRegistry.Register(&Prompt{
		ID:      PromptIDSystem,
		Version: PromptV1,
		Content: systemPromptV1,
	})
}

// SystemContext carries the host facts substituted into the system
// prompt.
type SystemContext struct {
	ToolSummary      string
	WorkingDirectory string
	ProjectType      string
	IsGitRepo        bool
	GitBranch        string
}

// BuildSystemPrompt renders the latest system prompt for one run.
func BuildSystemPrompt(sc SystemContext) (string, error) {
	p, err := Default().Latest(PromptIDSystem)
	if err != nil {
		return "", err
	}

	vcs := "- Version control: none"
	if sc.IsGitRepo {
		var b strings.Builder
		b.WriteString("- Version control: git")
		if sc.GitBranch != "" {
			b.WriteString(" (branch " + sc.GitBranch + ")")
		}
		vcs = b.String()
	}

	projectType := sc.ProjectType
	if projectType == "" {
		projectType = "unknown"
	}
	toolSummary := sc.ToolSummary
	if toolSummary == "" {
		toolSummary = "(none)"
	}
	workingDirectory := sc.WorkingDirectory
	if workingDirectory == "" {
		workingDirectory = "."
	}

	return p.Render(map[string]string{
		"tool_summary":      toolSummary,
		"working_directory": workingDirectory,
		"project_type":      projectType,
		"vcs_context":       vcs,
	}), nil
}
