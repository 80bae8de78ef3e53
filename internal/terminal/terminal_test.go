package terminal_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"birdtriage/internal/clip"
	"birdtriage/internal/decision"
	"birdtriage/internal/logging"
	"birdtriage/internal/queue"
	"birdtriage/internal/session"
	"birdtriage/internal/terminal"
	"birdtriage/internal/testsupport"
)

func loadClip(t *testing.T, seconds float64) *clip.Clip {
	t.Helper()
	path := filepath.Join(t.TempDir(), "robin.wav")
	testsupport.WriteClip(t, path, seconds)
	c, err := clip.NewLoader(seconds).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return c
}

func TestTranslate(t *testing.T) {
	cases := []struct {
		key    rune
		action terminal.Action
		want   decision.Event
	}{
		{' ', terminal.ActionEvent, decision.Decide(decision.Approve)},
		{'a', terminal.ActionEvent, decision.Decide(decision.Approve)},
		{'f', terminal.ActionEvent, decision.Decide(decision.FalsePositive)},
		{'n', terminal.ActionEvent, decision.Decide(decision.Noise)},
		{'r', terminal.ActionEvent, decision.Replay()},
		{'+', terminal.ActionEvent, decision.SetThreshold(60)},
		{'-', terminal.ActionEvent, decision.SetThreshold(40)},
		{'q', terminal.ActionQuit, decision.Event{}},
		{0x03, terminal.ActionQuit, decision.Event{}},
		{'x', terminal.ActionNone, decision.Event{}},
	}
	for _, tc := range cases {
		action, ev := terminal.Translate(tc.key, 50)
		if action != tc.action || ev != tc.want {
			t.Errorf("Translate(%q) = %v %+v, want %v %+v", tc.key, action, ev, tc.action, tc.want)
		}
	}
	if _, ev := terminal.Translate('-', 5); ev.Threshold != 1 {
		t.Fatalf("threshold must not drop below 1, got %d", ev.Threshold)
	}
}

func collect(t *testing.T, ch <-chan decision.Event) []decision.Event {
	t.Helper()
	var out []decision.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("keyboard channel was not closed")
		}
	}
}

func TestKeyboardLineMode(t *testing.T) {
	in := strings.NewReader("a\n\nx\n   \nnoise\nq\nf\n")
	kb := terminal.NewKeyboard(in, true, func() int { return 10 })
	got := collect(t, kb.Events(context.Background()))
	want := []decision.Event{
		decision.Decide(decision.Approve),
		decision.Decide(decision.Approve),
		decision.Decide(decision.Noise),
	}
	if len(got) != len(want) {
		t.Fatalf("got %+v want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d: got %+v want %+v", i, got[i], want[i])
		}
	}
}

func TestKeyboardRawModeClosesAtEOF(t *testing.T) {
	kb := terminal.NewKeyboard(strings.NewReader("r+f"), false, func() int { return 500 })
	got := collect(t, kb.Events(context.Background()))
	if len(got) != 3 || got[0].Kind != decision.KindReplay || got[1].Threshold != 510 || got[2].Decision != decision.FalsePositive {
		t.Fatalf("unexpected events %+v", got)
	}
	for i, ev := range got {
		if ev.At.IsZero() {
			t.Fatalf("raw key %d was not stamped", i)
		}
	}
}

func TestStripWidthAndLevels(t *testing.T) {
	silent := make([]float32, 100)
	if got := terminal.Strip(silent, 10); got != strings.Repeat(" ", 10) {
		t.Fatalf("silence should render blank, got %q", got)
	}
	loud := make([]float32, 100)
	for i := range loud {
		loud[i] = 1
	}
	if got := terminal.Strip(loud, 10); got != strings.Repeat("█", 10) {
		t.Fatalf("full scale should render full blocks, got %q", got)
	}
	if got := terminal.Strip(loud[:3], 12); utf8.RuneCountInString(got) != 12 {
		t.Fatalf("expected 12 columns, got %q", got)
	}
}

func TestRendererWritesHeaderAndStrip(t *testing.T) {
	var buf bytes.Buffer
	r := terminal.NewRenderer(&buf, 20, false)
	if err := r.Render(context.Background(), loadClip(t, 3.0), "robin.wav"); err != nil {
		t.Fatalf("Render: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two lines, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[0], "robin.wav  3.00s  8000 Hz  mono") {
		t.Fatalf("unexpected header %q", lines[0])
	}
	if utf8.RuneCountInString(lines[1]) != 20 {
		t.Fatalf("unexpected strip %q", lines[1])
	}
}

func TestEncodeWAVRoundTrip(t *testing.T) {
	c := loadClip(t, 3.0)
	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := terminal.EncodeWAV(f, c); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	back, err := clip.NewLoader(3.0).Load(context.Background(), path)
	if err != nil {
		t.Fatalf("re-load encoded clip: %v", err)
	}
	if back.Frames() != c.Frames() || back.SampleRate != c.SampleRate {
		t.Fatalf("round trip changed shape: %d@%d vs %d@%d", back.Frames(), back.SampleRate, c.Frames(), c.SampleRate)
	}
}

func TestPlayerRunsCommandWithTempWAV(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "played.wav")
	script := filepath.Join(dir, "player.sh")
	body := "#!/bin/sh\ncp \"$2\" \"" + out + "\"\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}

	p, err := terminal.NewPlayer([]string{script, "-q"}, dir, logging.NewNop())
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	if err := p.Play(context.Background(), loadClip(t, 3.0)); err != nil {
		t.Fatalf("Play: %v", err)
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if _, err := clip.NewLoader(3.0).Load(context.Background(), out); err != nil {
		t.Fatalf("player did not receive a valid wav: %v", err)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "birdtriage-play-*.wav"))
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestPlayerStopInterruptsPlayback(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "slow.sh")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nexec sleep 30\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	p, err := terminal.NewPlayer([]string{script}, dir, logging.NewNop())
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	c := loadClip(t, 3.0)
	if err := p.Play(context.Background(), c); err != nil {
		t.Fatalf("Play: %v", err)
	}
	start := time.Now()
	if err := p.Play(context.Background(), c); err != nil {
		t.Fatalf("second Play: %v", err)
	}
	p.Stop()
	if time.Since(start) > 10*time.Second {
		t.Fatal("Stop did not interrupt playback")
	}
}

func TestPlayerMissingCommand(t *testing.T) {
	if _, err := terminal.NewPlayer(nil, "", logging.NewNop()); err == nil {
		t.Fatal("expected error for empty command")
	}
	p, err := terminal.NewPlayer([]string{"clearly-not-present-binary"}, t.TempDir(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewPlayer: %v", err)
	}
	if err := p.Play(context.Background(), loadClip(t, 3.0)); err == nil {
		t.Fatal("expected start failure")
	}
}

func TestConsoleDescribesNotices(t *testing.T) {
	var buf bytes.Buffer
	c := terminal.NewConsole(&buf, false)
	item := queue.WorkItem{Path: "/root/robin/a.wav", Category: "robin"}
	c.Notify(session.Notice{Kind: session.NoticeState, State: session.StateLoading})
	c.Notify(session.Notice{Kind: session.NoticePresented, Item: item, Status: session.Status{Total: 3, Remaining: 2, Approved: 1, Threshold: 5}})
	c.Notify(session.Notice{Kind: session.NoticeSkipped, Item: item, Message: "duration_mismatch"})

	got := buf.String()
	want := "[1/3] a.wav  approved 1/5\nskipped a.wav: duration mismatch\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
