package session_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"birdtriage/internal/clip"
	"birdtriage/internal/config"
	"birdtriage/internal/decision"
	"birdtriage/internal/ledger"
	"birdtriage/internal/logging"
	"birdtriage/internal/progress"
	"birdtriage/internal/router"
	"birdtriage/internal/session"
	"birdtriage/internal/testsupport"
)

type recordingRenderer struct {
	labels []string
	err    error
}

func (r *recordingRenderer) Render(_ context.Context, c *clip.Clip, label string) error {
	r.labels = append(r.labels, label)
	return r.err
}

type recordingPlayer struct {
	mu     sync.Mutex
	played []string
	stops  int
	err    error
}

func (p *recordingPlayer) Play(_ context.Context, c *clip.Clip) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.played = append(p.played, c.Name())
	return p.err
}

func (p *recordingPlayer) Stop() {
	p.mu.Lock()
	p.stops++
	p.mu.Unlock()
}

type recordingObserver struct {
	notices []session.Notice
	onNote  func(session.Notice)
}

func (o *recordingObserver) Notify(n session.Notice) {
	o.notices = append(o.notices, n)
	if o.onNote != nil {
		o.onNote(n)
	}
}

func (o *recordingObserver) kinds(kind session.NoticeKind) []session.Notice {
	var out []session.Notice
	for _, n := range o.notices {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func (o *recordingObserver) states() []session.State {
	var out []session.State
	for _, n := range o.kinds(session.NoticeState) {
		out = append(out, n.State)
	}
	return out
}

type failingAuditor struct{}

func (failingAuditor) BeginSession(context.Context, ledger.Session) error {
	return errors.New("disk full")
}
func (failingAuditor) RecordEvent(context.Context, ledger.Event) error {
	return errors.New("disk full")
}
func (failingAuditor) FinishSession(context.Context, string, ledger.SessionOutcome, string, time.Time) error {
	return errors.New("disk full")
}

type harness struct {
	cfg      *config.Config
	layout   router.Layout
	record   *progress.Record
	renderer *recordingRenderer
	player   *recordingPlayer
	observer *recordingObserver
	auditor  session.Auditor
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	return &harness{
		cfg:      cfg,
		layout:   router.NewLayout(cfg.Paths.RootDir, cfg.Layout),
		record:   progress.NewRecord(filepath.Join(cfg.Paths.RootDir, cfg.Layout.ProgressFile)),
		renderer: &recordingRenderer{},
		player:   &recordingPlayer{},
		observer: &recordingObserver{},
	}
}

func (h *harness) clip(t *testing.T, category, name string, seconds float64) string {
	t.Helper()
	path := filepath.Join(h.layout.CategoryDir(category), name)
	testsupport.WriteClip(t, path, seconds)
	return path
}

func (h *harness) emptyClip(t *testing.T, category, name string) string {
	t.Helper()
	path := filepath.Join(h.layout.CategoryDir(category), name)
	testsupport.WriteWAV(t, path, testsupport.WAVSpec{SampleRate: 8000, Channels: 1, BitDepth: 16, Frames: 0})
	return path
}

func (h *harness) session(t *testing.T, category string, mutate func(*session.Options)) *session.Session {
	t.Helper()
	opts := session.Options{
		Category:                 category,
		Threshold:                h.cfg.Review.ApprovalThreshold,
		Ordering:                 h.cfg.Review.Ordering,
		Extensions:               h.cfg.Review.Extensions,
		Autoplay:                 true,
		MaxConsecutiveRejections: h.cfg.Review.MaxConsecutiveRejections,
	}
	if mutate != nil {
		mutate(&opts)
	}
	s, err := session.New(opts, session.Dependencies{
		Loader:   clip.NewLoader(h.cfg.Review.ExpectedDurationSeconds),
		Router:   router.New(h.layout, logging.NewNop()),
		Record:   h.record,
		Renderer: h.renderer,
		Player:   h.player,
		Auditor:  h.auditor,
		Observer: h.observer,
		Logger:   logging.NewNop(),
	})
	if err != nil {
		t.Fatalf("session.New: %v", err)
	}
	return s
}

func events(evs ...decision.Event) <-chan decision.Event {
	ch := make(chan decision.Event, len(evs))
	for _, ev := range evs {
		ch <- ev
	}
	return ch
}
