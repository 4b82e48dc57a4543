// Package session persists conversation state between CLI invocations
// so an interrupted task list can be resumed later.
package session

import (
	"time"

	"github.com/stride-agent/stride/internal/executor"
)

// Session is one persisted conversation with its task list.
type Session struct {
	ID        string              `json:"id"`
	WorkDir   string              `json:"work_dir"`
	DirHash   string              `json:"dir_hash"`
	Title     string              `json:"title"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
	History   []executor.Message  `json:"history"`
	Todos     []executor.TodoItem `json:"todos,omitempty"`
}

// Meta is the listing view of a session.
type Meta struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
	Remaining int       `json:"remaining"`
}

// HasUnfinishedTodos reports whether the session carries tasks that are
// neither completed nor failed.
func (s *Session) HasUnfinishedTodos() bool {
	for _, t := range s.Todos {
		if t.Status != executor.TodoCompleted && t.Status != executor.TodoFailed {
			return true
		}
	}
	return false
}
