package workspace

import (
	"context"
	"os/exec"
	"strings"
)

// GitInfo describes the version-control state of a directory.
type GitInfo struct {
	IsGit   bool
	GitRoot string
	Branch  string
	Dirty   bool
}

// DetectGit shells out to git to classify dir. Any failure, including
// git being absent, means non-git mode.
func DetectGit(ctx context.Context, dir string) GitInfo {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "--show-toplevel")
	cmd.Dir = dir
	output, err := cmd.Output()
	if err != nil {
		return GitInfo{}
	}

	info := GitInfo{
		IsGit:   true,
		GitRoot: strings.TrimSpace(string(output)),
	}

	cmd = exec.CommandContext(ctx, "git", "rev-parse", "--abbrev-ref", "HEAD")
	cmd.Dir = dir
	if output, err := cmd.Output(); err == nil {
		info.Branch = strings.TrimSpace(string(output))
	}

	cmd = exec.CommandContext(ctx, "git", "status", "--porcelain")
	cmd.Dir = dir
	if output, err := cmd.Output(); err == nil {
		info.Dirty = len(strings.TrimSpace(string(output))) > 0
	}

	return info
}
