// Package decision defines the reviewer's classification outcomes and the
// events a decision source delivers to a review session.
package decision

import (
	"fmt"
	"strings"
	"time"
)

// Decision is the human-supplied outcome for one clip.
type Decision string

const (
	Approve       Decision = "approve"
	Noise         Decision = "noise"
	FalsePositive Decision = "false_positive"
)

var allDecisions = []Decision{Approve, Noise, FalsePositive}

// All returns every decision in display order.
func All() []Decision {
	out := make([]Decision, len(allDecisions))
	copy(out, allDecisions)
	return out
}

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	for _, known := range allDecisions {
		if d == known {
			return true
		}
	}
	return false
}

// Label returns a human readable name.
func (d Decision) Label() string {
	switch d {
	case Approve:
		return "Approve"
	case Noise:
		return "Noise"
	case FalsePositive:
		return "False positive"
	default:
		return string(d)
	}
}

// Parse converts user input into a Decision. Hyphens, spaces and case are ignored.
func Parse(value string) (Decision, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	switch normalized {
	case "approve", "approved", "yes":
		return Approve, nil
	case "noise":
		return Noise, nil
	case "false_positive", "falsepositive", "fp":
		return FalsePositive, nil
	}
	return "", fmt.Errorf("unknown decision %q", value)
}

// Kind distinguishes what an Event asks the session to do.
type Kind int

const (
	// KindDecision classifies the current clip.
	KindDecision Kind = iota + 1
	// KindReplay plays the current clip again without advancing.
	KindReplay
	// KindSetThreshold changes the approval threshold for the running session.
	KindSetThreshold
)

func (k Kind) String() string {
	switch k {
	case KindDecision:
		return "decision"
	case KindReplay:
		return "replay"
	case KindSetThreshold:
		return "set_threshold"
	default:
		return "unknown"
	}
}

// Event is one message from a decision source. Input modalities (keys,
// buttons, scripted tests) all resolve to the same events.
type Event struct {
	Kind      Kind
	Decision  Decision
	Threshold int
	// At is when the input happened. Zero means unstamped (scripted input);
	// stamped decisions older than the clip on screen are discarded.
	At time.Time
}

// Decide builds a decision event.
func Decide(d Decision) Event {
	return Event{Kind: KindDecision, Decision: d}
}

// Replay builds a replay event.
func Replay() Event {
	return Event{Kind: KindReplay}
}

// Stale reports whether the event was stamped before since.
func (e Event) Stale(since time.Time) bool {
	return !e.At.IsZero() && e.At.Before(since)
}

// SetThreshold builds a threshold change event.
func SetThreshold(n int) Event {
	return Event{Kind: KindSetThreshold, Threshold: n}
}
