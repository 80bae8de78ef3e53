package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrSessionNotFound is returned when a session id is unknown.
var ErrSessionNotFound = errors.New("session not found")

// Store manages the audit ledger backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the ledger database and applies migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// BeginSession inserts a running session row.
func (s *Store) BeginSession(ctx context.Context, session Session) error {
	if session.ID == "" {
		return errors.New("session id is required")
	}
	started := session.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO sessions (
            id, root_dir, category, threshold, ordering, queue_length, outcome, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.RootDir,
		session.Category,
		session.Threshold,
		session.Ordering,
		session.QueueLength,
		SessionRunning,
		formatTime(started),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// RecordEvent appends a clip event and bumps the matching session counter.
func (s *Store) RecordEvent(ctx context.Context, event Event) error {
	column, ok := counterColumns[event.Outcome]
	if !ok {
		return fmt.Errorf("record event: unknown outcome %q", event.Outcome)
	}
	recorded := event.RecordedAt
	if recorded.IsZero() {
		recorded = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(
		ctx,
		`INSERT INTO events (session_id, clip_path, outcome, reason, target_path, recorded_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		event.SessionID,
		event.ClipPath,
		event.Outcome,
		nullableString(event.Reason),
		nullableString(event.TargetPath),
		formatTime(recorded),
	); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE sessions SET `+column+` = `+column+` + 1 WHERE id = ?`, event.SessionID)
	if err != nil {
		return fmt.Errorf("update session counters: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, event.SessionID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit event: %w", err)
	}
	return nil
}

var counterColumns = map[Outcome]string{
	OutcomeApprove:       "approved",
	OutcomeNoise:         "noise",
	OutcomeFalsePositive: "false_positive",
	OutcomeSkipped:       "skipped",
	OutcomeRefused:       "refused",
}

// FinishSession stamps the final outcome of a session.
func (s *Store) FinishSession(ctx context.Context, id string, outcome SessionOutcome, detail string, finishedAt time.Time) error {
	if finishedAt.IsZero() {
		finishedAt = time.Now()
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE sessions SET outcome = ?, detail = ?, finished_at = ? WHERE id = ?`,
		outcome,
		nullableString(detail),
		formatTime(finishedAt),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish session: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// Session fetches one session by id. Unique prefixes are accepted.
func (s *Store) Session(ctx context.Context, id string) (*Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id LIKE ? || '%' ORDER BY started_at DESC LIMIT 2`, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	defer rows.Close()

	var found []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		found = append(found, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	case 1:
		return found[0], nil
	default:
		return nil, fmt.Errorf("session id %q is ambiguous", id)
	}
}

// RecentSessions returns the newest sessions first. A category filters the list when set.
func (s *Store) RecentSessions(ctx context.Context, category string, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	args := []any{}
	if category != "" {
		query += ` WHERE category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// SessionEvents lists the events of a session in the order they happened.
func (s *Store) SessionEvents(ctx context.Context, sessionID string) ([]*Event, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, session_id, clip_path, outcome, reason, target_path, recorded_at
         FROM events WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var (
			event    Event
			outcome  string
			reason   sql.NullString
			target   sql.NullString
			recorded string
		)
		if err := rows.Scan(&event.ID, &event.SessionID, &event.ClipPath, &outcome, &reason, &target, &recorded); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.Outcome = Outcome(outcome)
		event.Reason = reason.String
		event.TargetPath = target.String
		if ts, err := parseTimeString(recorded); err == nil {
			event.RecordedAt = ts
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}

// CategoryTotals aggregates counters per category across all sessions.
func (s *Store) CategoryTotals(ctx context.Context) ([]CategoryTotal, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT category, COUNT(1), SUM(approved), SUM(noise), SUM(false_positive), SUM(skipped), MAX(started_at)
         FROM sessions GROUP BY category ORDER BY category`,
	)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var totals []CategoryTotal
	for rows.Next() {
		var (
			total   CategoryTotal
			started sql.NullString
		)
		if err := rows.Scan(&total.Category, &total.Sessions, &total.Approved, &total.Noise, &total.FalsePositive, &total.Skipped, &started); err != nil {
			return nil, fmt.Errorf("scan category totals: %w", err)
		}
		if ts, err := parseTimeString(started.String); err == nil {
			total.LastStarted = ts
		}
		totals = append(totals, total)
	}
	return totals, rows.Err()
}
