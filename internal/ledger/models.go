package ledger

import "time"

// Outcome is what happened to one clip.
type Outcome string

const (
	OutcomeApprove       Outcome = "approve"
	OutcomeNoise         Outcome = "noise"
	OutcomeFalsePositive Outcome = "false_positive"
	OutcomeSkipped       Outcome = "skipped"
	OutcomeRefused       Outcome = "refused"
)

// SessionOutcome is how a session ended.
type SessionOutcome string

const (
	SessionRunning          SessionOutcome = "running"
	SessionExhausted        SessionOutcome = "exhausted"
	SessionThresholdReached SessionOutcome = "threshold_reached"
	SessionAbandoned        SessionOutcome = "abandoned"
	SessionFailed           SessionOutcome = "failed"
)

// Session is one review pass over one category.
type Session struct {
	ID            string
	RootDir       string
	Category      string
	Threshold     int
	Ordering      string
	QueueLength   int
	Outcome       SessionOutcome
	Detail        string
	Approved      int
	Noise         int
	FalsePositive int
	Skipped       int
	Refused       int
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Reviewed returns the number of clips that received a decision.
func (s Session) Reviewed() int {
	return s.Approved + s.Noise + s.FalsePositive
}

// Event records the fate of one clip within a session.
type Event struct {
	ID         int64
	SessionID  string
	ClipPath   string
	Outcome    Outcome
	Reason     string
	TargetPath string
	RecordedAt time.Time
}

// CategoryTotal aggregates every session recorded for a category.
type CategoryTotal struct {
	Category      string
	Sessions      int
	Approved      int
	Noise         int
	FalsePositive int
	Skipped       int
	LastStarted   time.Time
}
