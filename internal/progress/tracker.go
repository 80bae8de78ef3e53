package progress

import (
	"fmt"
	"sync"

	"birdtriage/internal/faults"
)

const component = "progress"

// Counters is a point-in-time copy of a tracker.
type Counters struct {
	Category   string
	Threshold  int
	Approved   int
	Cumulative int
}

// Tracker counts approvals for one category against the session threshold.
// The session count only ever grows; a fresh tracker is created per session.
type Tracker struct {
	mu         sync.Mutex
	category   string
	threshold  int
	approved   int
	cumulative int
}

// NewTracker starts a tracker for category. cumulative is the number of clips
// already in the approved directory before this session.
func NewTracker(category string, threshold, cumulative int) (*Tracker, error) {
	if threshold <= 0 {
		return nil, fmt.Errorf("progress: threshold must be positive, got %d", threshold)
	}
	if cumulative < 0 {
		cumulative = 0
	}
	return &Tracker{category: category, threshold: threshold, cumulative: cumulative}, nil
}

// RecordApproval counts one approval and returns the session count. Once the
// threshold is reached it refuses with faults.ErrThresholdReached.
func (t *Tracker) RecordApproval() (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.approved >= t.threshold {
		return t.approved, faults.Wrap(faults.ErrThresholdReached, component, "record approval",
			fmt.Sprintf("%s already has %d of %d approvals", t.category, t.approved, t.threshold), nil)
	}
	t.approved++
	t.cumulative++
	return t.approved, nil
}

// IsThresholdReached reports whether the session count has hit the threshold.
func (t *Tracker) IsThresholdReached() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.approved >= t.threshold
}

// SetThreshold changes the cap for the rest of the session.
func (t *Tracker) SetThreshold(n int) error {
	if n <= 0 {
		return fmt.Errorf("progress: threshold must be positive, got %d", n)
	}
	t.mu.Lock()
	t.threshold = n
	t.mu.Unlock()
	return nil
}

// Approved returns the number of approvals this session.
func (t *Tracker) Approved() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.approved
}

// Threshold returns the current cap.
func (t *Tracker) Threshold() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.threshold
}

// Snapshot copies the counters.
func (t *Tracker) Snapshot() Counters {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Counters{
		Category:   t.category,
		Threshold:  t.threshold,
		Approved:   t.approved,
		Cumulative: t.cumulative,
	}
}
