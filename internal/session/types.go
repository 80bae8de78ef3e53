package session

import (
	"context"
	"time"

	"birdtriage/internal/clip"
	"birdtriage/internal/ledger"
	"birdtriage/internal/queue"
)

// Renderer draws a decoded clip. Failures are logged and never stop the session.
type Renderer interface {
	Render(ctx context.Context, c *clip.Clip, label string) error
}

// Player plays a decoded clip in the background. Play must stop any in-flight
// playback before starting. Failures become non-blocking warnings.
type Player interface {
	Play(ctx context.Context, c *clip.Clip) error
	Stop()
}

// Auditor receives the session audit trail. Failures are logged only.
type Auditor interface {
	BeginSession(ctx context.Context, session ledger.Session) error
	RecordEvent(ctx context.Context, event ledger.Event) error
	FinishSession(ctx context.Context, id string, outcome ledger.SessionOutcome, detail string, finishedAt time.Time) error
}

// Observer is told about everything the reviewer may want to see.
type Observer interface {
	Notify(Notice)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Notice)

// Notify calls f.
func (f ObserverFunc) Notify(n Notice) { f(n) }

// NoticeKind classifies a Notice.
type NoticeKind int

const (
	NoticeState NoticeKind = iota + 1
	NoticePresented
	NoticeSkipped
	NoticeRouted
	NoticeRefused
	NoticePlaybackFailed
	NoticeThresholdChanged
	NoticeRejectionStreak
	NoticeCompleted
)

// Notice is one event surfaced to the observer.
type Notice struct {
	Kind    NoticeKind
	State   State
	Item    queue.WorkItem
	Target  string
	Err     error
	Message string
	Status  Status
}

// Status is a snapshot of the session counters.
type Status struct {
	SessionID  string
	Category   string
	State      State
	Total      int
	Remaining  int
	Approved   int
	Threshold  int
	Cumulative int
	Current    string
}

// Outcome says why a session ended.
type Outcome string

const (
	OutcomeExhausted        Outcome = "exhausted"
	OutcomeThresholdReached Outcome = "threshold_reached"
	OutcomeAbandoned        Outcome = "abandoned"
	OutcomeFailed           Outcome = "failed"
)

// Result summarizes a finished session.
type Result struct {
	SessionID        string
	Category         string
	Outcome          Outcome
	Total            int
	Approved         int
	Noise            int
	FalsePositive    int
	Skipped          int
	Refused          int
	ProgressAppended bool
}

// Reviewed returns the number of clips that received a decision.
func (r Result) Reviewed() int {
	return r.Approved + r.Noise + r.FalsePositive
}
