// Package workspace gathers facts about the host directory a run
// operates in: project type and version-control state.
package workspace

import (
	"os"
	"path/filepath"
	"strings"
)

// ProjectType classifies the dominant toolchain of a directory.
type ProjectType string

const (
	ProjectTypeGo      ProjectType = "go"
	ProjectTypeNode    ProjectType = "node"
	ProjectTypePython  ProjectType = "python"
	ProjectTypeRust    ProjectType = "rust"
	ProjectTypeUnknown ProjectType = "unknown"
)

// manifest files checked in priority order.
var manifests = []struct {
	file string
	typ  ProjectType
}{
	{"go.mod", ProjectTypeGo},
	{"package.json", ProjectTypeNode},
	{"pyproject.toml", ProjectTypePython},
	{"requirements.txt", ProjectTypePython},
	{"Cargo.toml", ProjectTypeRust},
}

// DetectProjectType classifies root, manifest-first with a source file
// extension fallback.
func DetectProjectType(root string) ProjectType {
	for _, m := range manifests {
		if _, err := os.Stat(filepath.Join(root, m.file)); err == nil {
			return m.typ
		}
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return ProjectTypeUnknown
	}
	extCounts := make(map[string]int)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if ext := strings.ToLower(filepath.Ext(entry.Name())); ext != "" {
			extCounts[ext]++
		}
	}

	counts := map[ProjectType]int{
		ProjectTypeGo:     extCounts[".go"],
		ProjectTypeNode:   extCounts[".ts"] + extCounts[".tsx"] + extCounts[".js"] + extCounts[".jsx"],
		ProjectTypePython: extCounts[".py"],
		ProjectTypeRust:   extCounts[".rs"],
	}

	best := ProjectTypeUnknown
	bestCount := 0
	for _, typ := range []ProjectType{ProjectTypeGo, ProjectTypeNode, ProjectTypePython, ProjectTypeRust} {
		if counts[typ] > bestCount {
			best = typ
			bestCount = counts[typ]
		}
	}

	// A couple of stray files is not a signal.
	if bestCount >= 3 {
		return best
	}
	return ProjectTypeUnknown
}
