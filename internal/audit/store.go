// Package audit persists an append-only trail of runs and their tool
// calls to a local sqlite database.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// RunRecord is one persisted run.
type RunRecord struct {
	ID          string
	UserMessage string
	Response    string
	Success     bool
	Iterations  int
	StartedAt   time.Time
	FinishedAt  time.Time
}

// CallRecord is one persisted tool call within a run.
type CallRecord struct {
	RunID    string
	Seq      int
	Tool     string
	Args     string
	Result   string
	Success  bool
	CalledAt time.Time
}

// Store writes run history to sqlite.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the audit database at dbPath.
func NewStore(ctx context.Context, dbPath string) (*Store, error) {
	// WAL mode allows a reader to inspect the trail while a run writes.
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping audit database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize audit schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id       TEXT PRIMARY KEY,
		user_message TEXT NOT NULL,
		response     TEXT,
		success      INTEGER,
		iterations   INTEGER,
		started_at   INTEGER NOT NULL,
		finished_at  INTEGER
	);

	CREATE TABLE IF NOT EXISTS tool_calls (
		run_id    TEXT NOT NULL,
		seq       INTEGER NOT NULL,
		tool      TEXT NOT NULL,
		args      TEXT NOT NULL,
		result    TEXT,
		success   INTEGER NOT NULL,
		called_at INTEGER NOT NULL,
		PRIMARY KEY (run_id, seq),
		FOREIGN KEY (run_id) REFERENCES runs(run_id)
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// BeginRun records the start of a run and returns its id.
func (s *Store) BeginRun(ctx context.Context, userMessage string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (run_id, user_message, started_at) VALUES (?, ?, ?)`,
		id, userMessage, time.Now().Unix())
	if err != nil {
		return "", fmt.Errorf("record run start: %w", err)
	}
	return id, nil
}

// RecordToolCall appends one tool call to a run's trail.
func (s *Store) RecordToolCall(ctx context.Context, runID string, seq int, tool, args, result string, success bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tool_calls (run_id, seq, tool, args, result, success, called_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID, seq, tool, args, result, boolToInt(success), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("record tool call: %w", err)
	}
	return nil
}

// FinishRun records a run's outcome.
func (s *Store) FinishRun(ctx context.Context, runID, response string, success bool, iterations int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET response = ?, success = ?, iterations = ?, finished_at = ? WHERE run_id = ?`,
		response, boolToInt(success), iterations, time.Now().Unix(), runID)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// Run loads one run by id.
func (s *Store) Run(ctx context.Context, runID string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, user_message, COALESCE(response, ''), COALESCE(success, 0), COALESCE(iterations, 0), started_at, COALESCE(finished_at, 0) FROM runs WHERE run_id = ?`,
		runID)

	var r RunRecord
	var success int
	var started, finished int64
	if err := row.Scan(&r.ID, &r.UserMessage, &r.Response, &success, &r.Iterations, &started, &finished); err != nil {
		return RunRecord{}, fmt.Errorf("load run: %w", err)
	}
	r.Success = success != 0
	r.StartedAt = time.Unix(started, 0)
	if finished > 0 {
		r.FinishedAt = time.Unix(finished, 0)
	}
	return r, nil
}

// Calls loads a run's tool calls in sequence order.
func (s *Store) Calls(ctx context.Context, runID string) ([]CallRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, seq, tool, args, COALESCE(result, ''), success, called_at FROM tool_calls WHERE run_id = ? ORDER BY seq`,
		runID)
	if err != nil {
		return nil, fmt.Errorf("load tool calls: %w", err)
	}
	defer rows.Close()

	var out []CallRecord
	for rows.Next() {
		var c CallRecord
		var success int
		var calledAt int64
		if err := rows.Scan(&c.RunID, &c.Seq, &c.Tool, &c.Args, &c.Result, &success, &calledAt); err != nil {
			return nil, fmt.Errorf("scan tool call: %w", err)
		}
		c.Success = success != 0
		c.CalledAt = time.Unix(calledAt, 0)
		out = append(out, c)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
