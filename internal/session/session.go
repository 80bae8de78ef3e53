package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"birdtriage/internal/clip"
	"birdtriage/internal/decision"
	"birdtriage/internal/faults"
	"birdtriage/internal/ledger"
	"birdtriage/internal/logging"
	"birdtriage/internal/progress"
	"birdtriage/internal/queue"
	"birdtriage/internal/router"
)

// Options configures one session.
type Options struct {
	// ID identifies the session; a UUID is generated when empty.
	ID         string
	Category   string
	Threshold  int
	Ordering   string
	Seed       int64
	Extensions []string
	Autoplay   bool
	// MaxConsecutiveRejections triggers one notice when that many clips in a
	// row are skipped without reviewer input. 0 disables it.
	MaxConsecutiveRejections int
}

// Dependencies are the collaborators a session drives.
type Dependencies struct {
	Loader   *clip.Loader
	Router   *router.Router
	Record   *progress.Record
	Renderer Renderer
	Player   Player
	Auditor  Auditor
	Observer Observer
	Logger   *slog.Logger
	Now      func() time.Time
}

// Session runs the triage state machine over one category. It is used once;
// selecting another category means building a new Session.
type Session struct {
	opts   Options
	deps   Dependencies
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	queue    *queue.Queue
	tracker  *progress.Tracker
	current  queue.WorkItem
	streak   int
	result   Result
	finished bool
}

// New validates opts and deps and returns an idle session.
func New(opts Options, deps Dependencies) (*Session, error) {
	if opts.Category == "" {
		return nil, errors.New("session: category is required")
	}
	if opts.Threshold <= 0 {
		return nil, fmt.Errorf("session: threshold must be positive, got %d", opts.Threshold)
	}
	if deps.Loader == nil || deps.Router == nil || deps.Record == nil {
		return nil, errors.New("session: loader, router and progress record are required")
	}
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	logger := logging.NewComponentLogger(deps.Logger, "session")
	return &Session{
		opts:   opts,
		deps:   deps,
		logger: logger,
		state:  StateIdle,
		result: Result{SessionID: opts.ID, Category: opts.Category},
	}, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.opts.ID
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a snapshot of the counters.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() Status {
	st := Status{
		SessionID: s.opts.ID,
		Category:  s.opts.Category,
		State:     s.state,
		Threshold: s.opts.Threshold,
		Current:   s.current.Name(),
	}
	if s.current.Path == "" {
		st.Current = ""
	}
	if s.queue != nil {
		st.Total = s.queue.Len()
		st.Remaining = s.queue.Remaining()
	}
	if s.tracker != nil {
		counters := s.tracker.Snapshot()
		st.Approved = counters.Approved
		st.Threshold = counters.Threshold
		st.Cumulative = counters.Cumulative
	}
	return st
}

// Run drives the session until the queue is exhausted, the threshold is
// reached, or ctx is cancelled. Per-clip failures never end the session.
// Session-scoped failures (unreadable category, progress append) are returned
// with the partial result.
func (s *Session) Run(ctx context.Context, events <-chan decision.Event) (Result, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return s.result, errors.New("session: already started")
	}
	s.mu.Unlock()

	ctx = logging.WithCategory(logging.WithSessionID(ctx, s.opts.ID), s.opts.Category)
	s.logger = logging.WithContext(ctx, s.logger)
	defer s.stopPlayback()

	s.transition(StateLoading)
	if err := s.prepare(ctx); err != nil {
		return s.fail(ctx, err)
	}

	for {
		if ctx.Err() != nil {
			return s.abandon(ctx)
		}
		if s.tracker.IsThresholdReached() {
			return s.complete(ctx, OutcomeThresholdReached)
		}
		item, ok := s.queue.Next()
		if !ok {
			return s.complete(ctx, OutcomeExhausted)
		}

		done, err := s.process(ctx, item, events)
		if err != nil {
			return s.fail(ctx, err)
		}
		if done {
			if ctx.Err() != nil {
				return s.abandon(ctx)
			}
			return s.complete(ctx, OutcomeThresholdReached)
		}
	}
}

func (s *Session) prepare(ctx context.Context) error {
	layout := s.deps.Router.Layout()
	q, err := queue.Build(layout.CategoryDir(s.opts.Category), s.opts.Category, queue.Options{
		Ordering:   s.opts.Ordering,
		Seed:       s.opts.Seed,
		Extensions: s.opts.Extensions,
	})
	if err != nil {
		return err
	}

	cumulative, err := progress.CountApproved(layout.ApprovedCategoryDir(s.opts.Category))
	if err != nil {
		logging.WarnWithContext(s.logger, "approved clips could not be counted", "approved_count_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "cumulative approval count starts at zero"),
		)
	}
	tracker, err := progress.NewTracker(s.opts.Category, s.opts.Threshold, cumulative)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.queue = q
	s.tracker = tracker
	s.result.Total = q.Len()
	s.mu.Unlock()

	s.audit(func(a Auditor) error {
		return a.BeginSession(ctx, ledger.Session{
			ID:          s.opts.ID,
			RootDir:     layout.Root,
			Category:    s.opts.Category,
			Threshold:   s.opts.Threshold,
			Ordering:    q.Ordering(),
			QueueLength: q.Len(),
			StartedAt:   s.deps.Now(),
		})
	})
	s.logger.Info("session started",
		logging.Int("queue_length", q.Len()),
		logging.Int("threshold", s.opts.Threshold),
		logging.String("ordering", q.Ordering()),
		logging.Int("cumulative_approved", cumulative),
		logging.String(logging.FieldEventType, "session_started"),
	)
	if q.Len() == 0 {
		s.logger.Info("category has no candidate clips", logging.String(logging.FieldEventType, "category_empty"))
	}
	return nil
}

// process handles one queue item. It reports done when the session must
// complete without popping another item.
func (s *Session) process(ctx context.Context, item queue.WorkItem, events <-chan decision.Event) (bool, error) {
	s.mu.Lock()
	s.current = item
	s.mu.Unlock()
	defer s.clearCurrent()

	loaded, err := s.deps.Loader.Load(ctx, item.Path)
	if err != nil {
		if ctx.Err() != nil {
			return true, nil
		}
		return false, s.reject(ctx, item, err)
	}
	s.resetStreak()

	s.transition(StateReady)
	s.present(ctx, item, loaded)
	presentedAt := s.deps.Now()
	s.transition(StateDeciding)

	for {
		var (
			ev   decision.Event
			open bool
		)
		select {
		case <-ctx.Done():
			return true, nil
		case ev, open = <-events:
		}
		if !open {
			return true, s.closedSource()
		}

		switch ev.Kind {
		case decision.KindReplay:
			s.play(ctx, loaded)
		case decision.KindSetThreshold:
			s.setThreshold(ev.Threshold)
		case decision.KindDecision:
			if ev.Stale(presentedAt) {
				attrs := append(logging.ClipAttrs(item.Name(), StateDeciding.String()),
					logging.String(logging.FieldDecision, string(ev.Decision)),
					logging.String(logging.FieldEventType, "decision_stale"),
				)
				s.logger.Debug("ignoring decision made before clip was shown", logging.Args(attrs...)...)
				continue
			}
			if !ev.Decision.Valid() {
				logging.WarnWithContext(s.logger, "ignoring unknown decision", "decision_invalid",
					logging.String(logging.FieldDecision, string(ev.Decision)),
					logging.String(logging.FieldImpact, "clip is still awaiting a decision"),
				)
				continue
			}
			return s.decide(ctx, item, ev.Decision)
		default:
			s.logger.Debug("ignoring unknown event", logging.Int("kind", int(ev.Kind)))
		}
	}
}

func (s *Session) closedSource() error {
	s.logger.Info("decision source closed", logging.String(logging.FieldEventType, "decision_source_closed"))
	return errSourceClosed
}

var errSourceClosed = errors.New("decision source closed")

func (s *Session) decide(ctx context.Context, item queue.WorkItem, d decision.Decision) (bool, error) {
	s.stopPlayback()
	logger := s.logger.With(logging.String(logging.FieldClip, item.Name()), logging.String(logging.FieldDecision, string(d)))

	if d == decision.Approve && s.tracker.IsThresholdReached() {
		s.transition(StateSkipped)
		s.mu.Lock()
		s.result.Refused++
		s.mu.Unlock()
		logger.Info("approval refused; threshold reached",
			logging.Int("threshold", s.tracker.Threshold()),
			logging.String(logging.FieldEventType, "approval_refused"),
		)
		s.recordEvent(ctx, item, ledger.OutcomeRefused, "threshold_reached", "")
		s.notify(Notice{Kind: NoticeRefused, Item: item, Message: "approval threshold reached; clip left in place"})
		s.transition(StateLoading)
		return true, nil
	}

	s.transition(StateRouting)
	target, err := s.deps.Router.Move(ctx, item, d)
	if err != nil {
		if ctx.Err() != nil {
			return true, nil
		}
		return false, s.reject(ctx, item, err)
	}

	if d == decision.Approve {
		if _, err := s.tracker.RecordApproval(); err != nil {
			logger.Error("approval count rejected after move", logging.Error(err))
		}
	}
	s.mu.Lock()
	switch d {
	case decision.Approve:
		s.result.Approved++
	case decision.Noise:
		s.result.Noise++
	case decision.FalsePositive:
		s.result.FalsePositive++
	}
	s.mu.Unlock()

	logger.Info("clip routed",
		logging.String("target", target),
		logging.Int("approved", s.tracker.Approved()),
		logging.String(logging.FieldEventType, "clip_routed"),
	)
	s.recordEvent(ctx, item, ledger.Outcome(d), "", target)
	s.notify(Notice{Kind: NoticeRouted, Item: item, Target: target, Message: d.Label()})
	s.transition(StateLoading)
	return false, nil
}

// reject handles a per-clip failure: log, audit, notify, and advance.
// Anything that is not item-scoped is returned so it surfaces.
func (s *Session) reject(ctx context.Context, item queue.WorkItem, err error) error {
	if faults.Classify(err) != faults.ScopeItem {
		return err
	}
	s.transition(StateError)
	reason := faults.Reason(err)
	attrs := append(logging.ClipAttrs(item.Name(), StateError.String()),
		logging.String(logging.FieldReason, reason),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "inspect the clip file"),
		logging.String(logging.FieldImpact, "clip left in place; review continues with the next clip"),
	)
	logging.WarnWithContext(s.logger, "clip skipped", "clip_skipped", attrs...)
	s.mu.Lock()
	s.result.Skipped++
	s.streak++
	streak := s.streak
	s.mu.Unlock()
	s.recordEvent(ctx, item, ledger.OutcomeSkipped, reason, "")
	s.notify(Notice{Kind: NoticeSkipped, Item: item, Err: err, Message: reason})

	if limit := s.opts.MaxConsecutiveRejections; limit > 0 && streak == limit {
		msg := fmt.Sprintf("%d clips in a row were skipped without review", streak)
		logging.WarnWithContext(s.logger, msg, "rejection_streak",
			logging.Int("streak", streak),
			logging.Alert("rejection_streak"),
			logging.String(logging.FieldErrorHint, "check the category directory for damaged or mislabeled clips"),
			logging.String(logging.FieldImpact, "many clips are being skipped"),
		)
		s.notify(Notice{Kind: NoticeRejectionStreak, Message: msg})
	}
	s.transition(StateLoading)
	return nil
}

func (s *Session) resetStreak() {
	s.mu.Lock()
	s.streak = 0
	s.mu.Unlock()
}

func (s *Session) present(ctx context.Context, item queue.WorkItem, c *clip.Clip) {
	if s.deps.Renderer != nil {
		if err := s.deps.Renderer.Render(ctx, c, item.Name()); err != nil {
			logging.WarnWithContext(s.logger, "render failed", "render_failed",
				logging.String(logging.FieldClip, item.Name()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "clip is not drawn; review continues"),
			)
		}
	}
	s.logger.Debug("clip presented",
		logging.String(logging.FieldClip, item.Name()),
		logging.Duration("duration", c.Duration()),
		logging.Float64("peak", float64(c.Peak())),
	)
	s.notify(Notice{Kind: NoticePresented, Item: item})
	if s.opts.Autoplay {
		s.play(ctx, c)
	}
}

func (s *Session) play(ctx context.Context, c *clip.Clip) {
	if s.deps.Player == nil {
		return
	}
	if err := s.deps.Player.Play(ctx, c); err != nil {
		logging.WarnWithContext(s.logger, "playback failed", "playback_failed",
			logging.String(logging.FieldClip, c.Name()),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the audio device and playback.command"),
			logging.String(logging.FieldImpact, "clip can still be decided without listening"),
		)
		s.notify(Notice{Kind: NoticePlaybackFailed, Err: err, Message: "playback failed; the clip can still be decided"})
	}
}

func (s *Session) stopPlayback() {
	if s.deps.Player != nil {
		s.deps.Player.Stop()
	}
}

func (s *Session) setThreshold(n int) {
	if err := s.tracker.SetThreshold(n); err != nil {
		logging.WarnWithContext(s.logger, "threshold change rejected", "threshold_invalid",
			logging.Int("requested", n),
			logging.Error(err),
			logging.String(logging.FieldImpact, "threshold unchanged"),
		)
		return
	}
	s.logger.Info("threshold changed",
		logging.Int("threshold", n),
		logging.String(logging.FieldEventType, "threshold_changed"),
	)
	s.notify(Notice{Kind: NoticeThresholdChanged, Message: fmt.Sprintf("threshold set to %d", n)})
}

func (s *Session) clearCurrent() {
	s.mu.Lock()
	s.current = queue.WorkItem{}
	s.mu.Unlock()
}

func (s *Session) complete(ctx context.Context, outcome Outcome) (Result, error) {
	s.transition(StateCompleted)
	s.mu.Lock()
	s.result.Outcome = outcome
	s.mu.Unlock()

	if err := s.deps.Record.Append(s.opts.Category); err != nil {
		logging.ErrorWithContext(s.logger, "progress record append failed", "progress_append_failed",
			logging.Error(err),
			logging.String("progress_file", s.deps.Record.Path()),
			logging.String(logging.FieldErrorHint, "check that the root folder is writable"),
		)
		s.finish(ctx, ledger.SessionFailed, err.Error())
		return s.snapshotResult(), err
	}
	s.mu.Lock()
	s.result.ProgressAppended = true
	s.mu.Unlock()

	ledgerOutcome := ledger.SessionExhausted
	if outcome == OutcomeThresholdReached {
		ledgerOutcome = ledger.SessionThresholdReached
	}
	s.finish(ctx, ledgerOutcome, "")
	result := s.snapshotResult()
	s.logger.Info("session completed",
		logging.String("outcome", string(outcome)),
		logging.Int("approved", result.Approved),
		logging.Int("noise", result.Noise),
		logging.Int("false_positive", result.FalsePositive),
		logging.Int("skipped", result.Skipped),
		logging.Bool("progress_appended", result.ProgressAppended),
		logging.String(logging.FieldEventType, "session_completed"),
	)
	s.notify(Notice{Kind: NoticeCompleted, Message: string(outcome)})
	return result, nil
}

func (s *Session) abandon(ctx context.Context) (Result, error) {
	s.transitionAbandon()
	s.mu.Lock()
	s.result.Outcome = OutcomeAbandoned
	s.mu.Unlock()
	s.finish(context.WithoutCancel(ctx), ledger.SessionAbandoned, "")
	s.logger.Info("session abandoned", logging.String(logging.FieldEventType, "session_abandoned"))
	s.notify(Notice{Kind: NoticeCompleted, Message: string(OutcomeAbandoned)})
	return s.snapshotResult(), nil
}

func (s *Session) fail(ctx context.Context, err error) (Result, error) {
	if errors.Is(err, errSourceClosed) || errors.Is(err, context.Canceled) {
		return s.abandon(ctx)
	}
	s.transitionAbandon()
	s.mu.Lock()
	s.result.Outcome = OutcomeFailed
	s.mu.Unlock()
	logging.ErrorWithContext(s.logger, "session stopped", "session_failed",
		logging.Error(err),
		logging.String("scope", faults.Classify(err).String()),
		logging.String(logging.FieldErrorHint, "fix the reported path and start the category again"),
	)
	s.finish(context.WithoutCancel(ctx), ledger.SessionFailed, err.Error())
	return s.snapshotResult(), err
}

func (s *Session) finish(ctx context.Context, outcome ledger.SessionOutcome, detail string) {
	s.mu.Lock()
	if s.finished || s.queue == nil {
		s.mu.Unlock()
		return
	}
	s.finished = true
	s.mu.Unlock()
	s.audit(func(a Auditor) error {
		return a.FinishSession(ctx, s.opts.ID, outcome, detail, s.deps.Now())
	})
}

func (s *Session) snapshotResult() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result
}

func (s *Session) recordEvent(ctx context.Context, item queue.WorkItem, outcome ledger.Outcome, reason, target string) {
	s.audit(func(a Auditor) error {
		return a.RecordEvent(ctx, ledger.Event{
			SessionID:  s.opts.ID,
			ClipPath:   item.Path,
			Outcome:    outcome,
			Reason:     reason,
			TargetPath: target,
			RecordedAt: s.deps.Now(),
		})
	})
}

func (s *Session) audit(fn func(Auditor) error) {
	if s.deps.Auditor == nil {
		return
	}
	if err := fn(s.deps.Auditor); err != nil {
		logging.WarnWithContext(s.logger, "audit ledger write failed", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
			logging.String(logging.FieldImpact, "session history is incomplete"),
		)
	}
}

func (s *Session) notify(n Notice) {
	if s.deps.Observer == nil {
		return
	}
	s.mu.Lock()
	n.State = s.state
	n.Status = s.statusLocked()
	s.mu.Unlock()
	s.deps.Observer.Notify(n)
}

func (s *Session) transition(next State) {
	s.move(next, false)
}

func (s *Session) transitionAbandon() {
	s.move(StateCompleted, true)
}

func (s *Session) move(next State, abandon bool) {
	s.mu.Lock()
	prev := s.state
	if prev == next {
		s.mu.Unlock()
		return
	}
	if !CanTransition(prev, next, abandon) {
		s.mu.Unlock()
		s.logger.Error("illegal state transition",
			logging.String("from", prev.String()),
			logging.String("to", next.String()),
		)
		return
	}
	s.state = next
	s.mu.Unlock()
	s.logger.Debug("state changed",
		logging.String("from", prev.String()),
		logging.String(logging.FieldState, next.String()),
	)
	s.notify(Notice{Kind: NoticeState})
}
