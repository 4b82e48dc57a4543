package executor

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// TodoStatus represents the lifecycle state of one planned unit of work.
type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
	TodoFailed     TodoStatus = "failed"
)

// ValidTodoStatus reports whether s is a known status value.
func ValidTodoStatus(s TodoStatus) bool {
	switch s {
	case TodoPending, TodoInProgress, TodoCompleted, TodoFailed:
		return true
	}
	return false
}

// TodoItem is one planned unit of work. Note is set only when the item
// fails, carrying the failure reason.
type TodoItem struct {
	ID     string     `json:"id"`
	Title  string     `json:"title"`
	Status TodoStatus `json:"status"`
	Note   string     `json:"note,omitempty"`
}

// TodoStore is the in-memory ordered task list for a run. List order is
// insertion order from the planner and is never reordered. Items are never
// deleted within a run, only superseded wholesale by the next planning
// phase.
type TodoStore struct {
	mu    sync.Mutex
	items []TodoItem
}

// NewTodoStore creates an empty store.
func NewTodoStore() *TodoStore {
	return &TodoStore{}
}

// Set replaces the current list with a copy of items. Items without an ID
// get one assigned; items without a status start pending.
func (s *TodoStore) Set(items []TodoItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make([]TodoItem, len(items))
	copy(s.items, items)
	for i := range s.items {
		if s.items[i].ID == "" {
			s.items[i].ID = uuid.NewString()
		}
		if s.items[i].Status == "" {
			s.items[i].Status = TodoPending
		}
	}
}

// Items returns a copy of the current list. Callers may mutate the copy
// freely.
func (s *TodoStore) Items() []TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TodoItem, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of items.
func (s *TodoStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// SetStatus updates one item's status. The status is applied as given
// (last write wins); Note is set only when status is failed and cleared
// otherwise. Other items are never touched.
func (s *TodoStore) SetStatus(id string, status TodoStatus, note string) error {
	if !ValidTodoStatus(status) {
		return fmt.Errorf("invalid todo status: %s", status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID == id {
			s.items[i].Status = status
			if status == TodoFailed {
				s.items[i].Note = note
			} else {
				s.items[i].Note = ""
			}
			return nil
		}
	}
	return fmt.Errorf("todo not found: %s", id)
}

// MarkInProgress marks the item as being worked on.
func (s *TodoStore) MarkInProgress(id string) error {
	return s.SetStatus(id, TodoInProgress, "")
}

// MarkCompleted marks the item as done.
func (s *TodoStore) MarkCompleted(id string) error {
	return s.SetStatus(id, TodoCompleted, "")
}

// MarkFailed marks the item as failed, recording the reason.
func (s *TodoStore) MarkFailed(id, note string) error {
	return s.SetStatus(id, TodoFailed, note)
}

// NextPending returns the first item in list order with status pending.
func (s *TodoStore) NextPending() (TodoItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.Status == TodoPending {
			return it, true
		}
	}
	return TodoItem{}, false
}

// Remaining returns items that are neither completed nor failed.
func (s *TodoStore) Remaining() []TodoItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []TodoItem
	for _, it := range s.items {
		if it.Status != TodoCompleted && it.Status != TodoFailed {
			out = append(out, it)
		}
	}
	return out
}

// AllDone reports whether the list is non-empty and every item is
// completed or failed. Failed counts as "done trying", not success.
func (s *TodoStore) AllDone() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return AreTodosComplete(s.items)
}

// AreTodosComplete reports whether todos is non-empty and every item is
// completed or failed.
func AreTodosComplete(todos []TodoItem) bool {
	if len(todos) == 0 {
		return false
	}
	for _, it := range todos {
		if it.Status != TodoCompleted && it.Status != TodoFailed {
			return false
		}
	}
	return true
}

// RenderStatusBlock formats the current list as a status-annotated block
// for injection into the prompt context. Returns "" for an empty list.
func (s *TodoStore) RenderStatusBlock() string {
	items := s.Items()
	if len(items) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("[TASK LIST]\n")
	for i, it := range items {
		var marker string
		switch it.Status {
		case TodoCompleted:
			marker = "x"
		case TodoFailed:
			marker = "!"
		case TodoInProgress:
			marker = ">"
		default:
			marker = " "
		}
		fmt.Fprintf(&b, "%d. [%s] %s (id=%s)", i+1, marker, it.Title, it.ID)
		if it.Note != "" {
			fmt.Fprintf(&b, " - %s", it.Note)
		}
		b.WriteByte('\n')
	}
	b.WriteString("[/TASK LIST]")
	return b.String()
}
