package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stride-agent/stride/internal/executor"
)

// Store persists sessions as JSON files, scoped per working directory.
type Store struct {
	basePath string
}

// NewStore creates a store under basePath, typically the config dir.
func NewStore(basePath string) *Store {
	return &Store{basePath: filepath.Join(basePath, "sessions")}
}

// DirHash produces the directory-scoping key for a working directory.
func (s *Store) DirHash(workDir string) string {
	hash := sha256.Sum256([]byte(filepath.Clean(workDir)))
	return hex.EncodeToString(hash[:])[:12]
}

// New creates an unsaved session for a working directory.
func (s *Store) New(workDir, title string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		WorkDir:   workDir,
		DirHash:   s.DirHash(workDir),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Save writes a session to disk, updating its timestamp.
func (s *Store) Save(sess *Session) error {
	if sess.DirHash == "" {
		sess.DirHash = s.DirHash(sess.WorkDir)
	}
	sess.UpdatedAt = time.Now()

	dir := filepath.Join(s.basePath, sess.DirHash)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	path := filepath.Join(dir, sess.ID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Load retrieves one session by id for a working directory.
func (s *Store) Load(id, workDir string) (*Session, error) {
	path := filepath.Join(s.basePath, s.DirHash(workDir), id+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("parse session file: %w", err)
	}
	return &sess, nil
}

// Latest returns the most recently updated session for a working
// directory, or nil when none exist.
func (s *Store) Latest(workDir string) (*Session, error) {
	metas, err := s.List(workDir)
	if err != nil {
		return nil, err
	}
	if len(metas) == 0 {
		return nil, nil
	}
	return s.Load(metas[0].ID, workDir)
}

// List returns session metadata for a working directory, newest first.
func (s *Store) List(workDir string) ([]Meta, error) {
	dir := filepath.Join(s.basePath, s.DirHash(workDir))
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list session directory: %w", err)
	}

	var metas []Meta
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		remaining := 0
		for _, t := range sess.Todos {
			if t.Status != executor.TodoCompleted && t.Status != executor.TodoFailed {
				remaining++
			}
		}
		metas = append(metas, Meta{
			ID:        sess.ID,
			Title:     sess.Title,
			UpdatedAt: sess.UpdatedAt,
			Remaining: remaining,
		})
	}

	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})
	return metas, nil
}

// Delete removes one session.
func (s *Store) Delete(id, workDir string) error {
	path := filepath.Join(s.basePath, s.DirHash(workDir), id+".json")
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete session file: %w", err)
	}
	return nil
}
