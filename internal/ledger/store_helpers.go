package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const sessionColumns = "id, root_dir, category, threshold, ordering, queue_length, outcome, detail, approved, noise, false_positive, skipped, refused, started_at, finished_at"

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		session     Session
		outcome     string
		detail      sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&session.ID,
		&session.RootDir,
		&session.Category,
		&session.Threshold,
		&session.Ordering,
		&session.QueueLength,
		&outcome,
		&detail,
		&session.Approved,
		&session.Noise,
		&session.FalsePositive,
		&session.Skipped,
		&session.Refused,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, fmt.Errorf("scan session: %w", err)
	}
	session.Outcome = SessionOutcome(outcome)
	session.Detail = detail.String
	if ts, err := parseTimeString(startedRaw); err == nil {
		session.StartedAt = ts
	}
	if ts, err := parseTimeString(finishedRaw.String); err == nil {
		session.FinishedAt = ts
	}
	return &session, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

// Fixed-width timestamps keep ORDER BY on the text columns chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
