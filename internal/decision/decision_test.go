package decision_test

import (
	"testing"

	"birdtriage/internal/decision"
)

func TestParse(t *testing.T) {
	cases := map[string]decision.Decision{
		"approve":        decision.Approve,
		" Noise ":        decision.Noise,
		"false-positive": decision.FalsePositive,
		"False Positive": decision.FalsePositive,
		"fp":             decision.FalsePositive,
	}
	for input, want := range cases {
		got, err := decision.Parse(input)
		if err != nil {
			t.Fatalf("Parse(%q): %v", input, err)
		}
		if got != want {
			t.Fatalf("Parse(%q) = %q, want %q", input, got, want)
		}
	}
	if _, err := decision.Parse("maybe"); err == nil {
		t.Fatal("expected error for unknown decision")
	}
}

func TestEventsCarryKind(t *testing.T) {
	if ev := decision.Decide(decision.Noise); ev.Kind != decision.KindDecision || ev.Decision != decision.Noise {
		t.Fatalf("unexpected decide event %+v", ev)
	}
	if ev := decision.Replay(); ev.Kind != decision.KindReplay {
		t.Fatalf("unexpected replay event %+v", ev)
	}
	if ev := decision.SetThreshold(7); ev.Kind != decision.KindSetThreshold || ev.Threshold != 7 {
		t.Fatalf("unexpected threshold event %+v", ev)
	}
	if decision.Decision("maybe").Valid() {
		t.Fatal("unknown decision should be invalid")
	}
	if len(decision.All()) != 3 {
		t.Fatal("expected three decisions")
	}
}
