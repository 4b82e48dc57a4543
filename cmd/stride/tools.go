package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/stride-agent/stride/internal/executor"
)

// maxReadBytes bounds what one read_file call returns to the model.
const maxReadBytes = 256 * 1024

// hostTools builds the file toolset the model can drive, confined to
// workDir.
func hostTools(workDir string) executor.Registry {
	reg := make(executor.Registry)

	reg.Register(executor.Tool{
		Name:        "read_file",
		Description: "Read a file relative to the working directory.",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string","description":"File path, relative to the working directory"}},"required":["path"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, err := resolvePath(workDir, args)
			if err != nil {
				return "", err
			}
			info, err := os.Stat(path)
			if err != nil {
				return "", err
			}
			if info.Size() > maxReadBytes {
				return "", fmt.Errorf("file too large (%d bytes, limit %d)", info.Size(), maxReadBytes)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return "", err
			}
			return string(data), nil
		},
	})

	reg.Register(executor.Tool{
		Name:        "write_file",
		Description: "Write content to a file relative to the working directory, creating parent directories as needed.",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string"},"content":{"type":"string"}},"required":["path","content"]}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			path, err := resolvePath(workDir, args)
			if err != nil {
				return "", err
			}
			content, _ := args["content"].(string)
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return "", err
			}
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return "", err
			}
			return fmt.Sprintf("wrote %d bytes to %s", len(content), args["path"]), nil
		},
	})

	reg.Register(executor.Tool{
		Name:        "list_files",
		Description: "List entries of a directory relative to the working directory. Directories end with a slash.",
		SchemaJSON:  `{"type":"object","properties":{"path":{"type":"string","description":"Directory path, defaults to the working directory"}}}`,
		Fn: func(ctx context.Context, args map[string]any) (string, error) {
			if _, ok := args["path"]; !ok {
				args["path"] = "."
			}
			path, err := resolvePath(workDir, args)
			if err != nil {
				return "", err
			}
			entries, err := os.ReadDir(path)
			if err != nil {
				return "", err
			}
			names := make([]string, 0, len(entries))
			for _, e := range entries {
				name := e.Name()
				if e.IsDir() {
					name += "/"
				}
				names = append(names, name)
			}
			sort.Strings(names)
			return strings.Join(names, "\n"), nil
		},
	})

	return reg
}

// resolvePath joins a relative tool path onto workDir and rejects
// escapes.
func resolvePath(workDir string, args map[string]any) (string, error) {
	rel, ok := args["path"].(string)
	if !ok || rel == "" {
		return "", fmt.Errorf("path must be a non-empty string")
	}
	full := filepath.Clean(filepath.Join(workDir, rel))
	root := filepath.Clean(workDir)
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside the working directory", rel)
	}
	return full, nil
}
