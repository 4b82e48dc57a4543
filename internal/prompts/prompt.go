// Package prompts holds the versioned prompt texts the engine sends to
// models, with simple {{variable}} substitution.
package prompts

import (
	"fmt"
	"strings"
	"sync"
)

// PromptVersion identifies one revision of a prompt text.
type PromptVersion string

const (
	PromptV1 PromptVersion = "1.0.0"
)

// Prompt is one versioned prompt with metadata.
type Prompt struct {
	ID         string
	Version    PromptVersion
	Content    string
	Deprecated bool
}

// Registry holds prompts by id and version.
type Registry struct {
	mu      sync.RWMutex
	prompts map[string]map[PromptVersion]*Prompt
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry, pre-populated with the
// built-in prompts.
func Default() *Registry {
	return defaultRegistry
}

func NewRegistry() *Registry {
	return &Registry{prompts: make(map[string]map[PromptVersion]*Prompt)}
}

func (r *Registry) Register(p *Prompt) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.prompts[p.ID] == nil {
		r.prompts[p.ID] = make(map[PromptVersion]*Prompt)
	}
	r.prompts[p.ID][p.Version] = p
}

func (r *Registry) Get(id string, version PromptVersion) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}
	p, ok := versions[version]
	if !ok {
		return nil, fmt.Errorf("prompt %s version %s not found", id, version)
	}
	return p, nil
}

// Latest returns the newest non-deprecated version of a prompt, or the
// newest version outright when every version is deprecated.
func (r *Registry) Latest(id string) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	versions, ok := r.prompts[id]
	if !ok {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}

	pick := func(includeDeprecated bool) *Prompt {
		var best *Prompt
		for version, p := range versions {
			if p.Deprecated && !includeDeprecated {
				continue
			}
			if best == nil || version > best.Version {
				best = p
			}
		}
		return best
	}
	if best := pick(false); best != nil {
		return best, nil
	}
	return pick(true), nil
}

// Render substitutes {{key}} placeholders in the prompt content.
func (p *Prompt) Render(vars map[string]string) string {
	out := p.Content
	for key, value := range vars {
		out = strings.ReplaceAll(out, fmt.Sprintf("{{%s}}", key), value)
	}
	return out
}
