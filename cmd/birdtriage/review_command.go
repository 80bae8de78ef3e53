package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"birdtriage/internal/config"
	"birdtriage/internal/faults"
	"birdtriage/internal/ledger"
	"birdtriage/internal/logging"
	"birdtriage/internal/preflight"
	"birdtriage/internal/router"
	"birdtriage/internal/session"
	"birdtriage/internal/terminal"
	"birdtriage/internal/workspace"
)

type reviewFlags struct {
	threshold int
	duration  float64
	order     string
	seed      int64
	noPlay    bool
	noRender  bool
}

func newReviewCommand(ctx *commandContext) *cobra.Command {
	var flags reviewFlags

	cmd := &cobra.Command{
		Use:   "review [category]",
		Short: "Review the clips of one category",
		Long: `Review the clips of one category directory.

Each clip is decoded, drawn and played; answer with a key:
  space/a  approve (move to the approved folder)
  n        noise
  f        false positive
  r        replay
  +/-      raise or lower the approval threshold by 10
  q        quit (clips already moved stay moved)

Without a category argument the first category not yet recorded as
completed is reviewed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			reviewCfg, err := applyReviewFlags(cmd, *cfg, flags)
			if err != nil {
				return err
			}
			logger, err := ctx.logger()
			if err != nil {
				return err
			}
			category := ""
			if len(args) == 1 {
				category = args[0]
			}
			return runReview(cmd, &reviewCfg, logger, category)
		},
	}

	cmd.Flags().IntVar(&flags.threshold, "threshold", 0, "Approval threshold for this session")
	cmd.Flags().Float64Var(&flags.duration, "duration", 0, "Expected clip duration in seconds")
	cmd.Flags().StringVar(&flags.order, "order", "", "Queue ordering: sequential or random")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "Seed for random ordering")
	cmd.Flags().BoolVar(&flags.noPlay, "no-play", false, "Do not play clips")
	cmd.Flags().BoolVar(&flags.noRender, "no-render", false, "Do not draw clips")
	return cmd
}

func applyReviewFlags(cmd *cobra.Command, cfg config.Config, flags reviewFlags) (config.Config, error) {
	if cmd.Flags().Changed("threshold") {
		cfg.Review.ApprovalThreshold = flags.threshold
	}
	if cmd.Flags().Changed("duration") {
		cfg.Review.ExpectedDurationSeconds = flags.duration
	}
	if cmd.Flags().Changed("order") {
		cfg.Review.Ordering = flags.order
	}
	if cmd.Flags().Changed("seed") {
		cfg.Review.RandomSeed = flags.seed
	}
	if flags.noPlay {
		cfg.Playback.Enabled = false
	}
	if flags.noRender {
		cfg.Render.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runReview(cmd *cobra.Command, cfg *config.Config, logger *slog.Logger, category string) error {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
		printChecks(out, failed)
		return preflightError(failed)
	}

	ws, err := workspace.Open(cfg)
	if err != nil {
		return err
	}
	cat, err := resolveCategory(ws, category)
	if err != nil {
		return err
	}
	if cat.Completed {
		fmt.Fprintf(out, "%s is already in the progress record; reviewing it again appends it once more\n", cat.Name)
	}

	lock, err := ws.Acquire()
	if err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Warn("workspace lock release failed", logging.Error(err))
		}
	}()

	sessionID := uuid.NewString()
	if _, err := logging.PruneSessionLogs(logger, cfg.SessionLogDir(), cfg.Logging.RetentionDays, time.Now()); err != nil {
		logger.Warn("session log retention skipped", logging.Error(err))
	}
	sessionLog, err := logging.OpenSessionLog(logger, cfg.SessionLogDir(), cat.Name, sessionID, cfg.Logging.Format, time.Now())
	if err != nil {
		logging.WarnWithContext(logger, "session log unavailable", "session_log_unavailable",
			logging.Error(err),
			logging.String(logging.FieldImpact, "per-session log file is not written"),
		)
	} else {
		defer sessionLog.Close()
		logger = sessionLog.Logger
	}

	var auditor session.Auditor
	store, err := ledger.Open(cfg.LedgerPath())
	if err != nil {
		logging.WarnWithContext(logger, "audit ledger unavailable", "ledger_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions"),
			logging.String(logging.FieldImpact, "this session is not recorded in history"),
		)
	} else {
		defer store.Close()
		auditor = store
	}

	in := cmd.InOrStdin()
	inFile, _ := in.(*os.File)
	raw, restore, err := terminal.MakeRaw(inFile)
	if err != nil {
		logger.Warn("raw keyboard mode unavailable; using line input", logging.Error(err))
	}
	defer restore()

	console := terminal.NewConsole(out, colorize)
	console.SetRaw(raw)
	deps := session.Dependencies{
		Loader:   ws.Loader(),
		Router:   router.New(ws.Layout(), logger),
		Record:   ws.Record(),
		Auditor:  auditor,
		Observer: console,
		Logger:   logger,
	}
	if cfg.Render.Enabled {
		outFile, _ := out.(*os.File)
		r := terminal.NewRenderer(out, terminal.Width(outFile, cfg.Render.Width), colorize)
		r.SetRaw(raw)
		deps.Renderer = r
	}
	if cfg.Playback.Enabled {
		player, err := terminal.NewPlayer(cfg.Playback.Command, "", logger)
		if err != nil {
			return err
		}
		deps.Player = player
	}

	s, err := session.New(session.Options{
		ID:                       sessionID,
		Category:                 cat.Name,
		Threshold:                cfg.Review.ApprovalThreshold,
		Ordering:                 cfg.Review.Ordering,
		Seed:                     cfg.Review.RandomSeed,
		Extensions:               cfg.Review.Extensions,
		Autoplay:                 cfg.Playback.Autoplay,
		MaxConsecutiveRejections: cfg.Review.MaxConsecutiveRejections,
	}, deps)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Reviewing %s (%d clips, threshold %d)%s", cat.Label, cat.Pending, cfg.Review.ApprovalThreshold, lineEnd(raw))
	console.Help()

	runCtx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	keyboard := terminal.NewKeyboard(in, !raw, func() int { return s.Status().Threshold })
	result, runErr := s.Run(runCtx, keyboard.Events(runCtx))
	cancel()
	restore()

	printResult(out, result)
	if runErr != nil {
		if faults.Classify(runErr) == faults.ScopeSession {
			return fmt.Errorf("%s: %w (other categories are unaffected)", cat.Name, runErr)
		}
		return runErr
	}
	return nil
}

func resolveCategory(ws *workspace.Workspace, name string) (workspace.Category, error) {
	if name != "" {
		return ws.Category(name)
	}
	next, ok, err := ws.NextPending()
	if err != nil {
		return workspace.Category{}, err
	}
	if !ok {
		return workspace.Category{}, errors.New("no pending categories; pass a category name to review one again")
	}
	return next, nil
}

func printResult(out io.Writer, result session.Result) {
	fmt.Fprint(out, renderSummary(fmt.Sprintf("Session %s (%s)", shortID(result.SessionID), result.Category), [][2]string{
		{"Outcome", string(result.Outcome)},
		{"Clips", strconv.Itoa(result.Total)},
		{"Approved", strconv.Itoa(result.Approved)},
		{"Noise", strconv.Itoa(result.Noise)},
		{"False positive", strconv.Itoa(result.FalsePositive)},
		{"Skipped", strconv.Itoa(result.Skipped)},
		{"Refused", strconv.Itoa(result.Refused)},
		{"Progress recorded", yesNo(result.ProgressAppended)},
	}))
}

func lineEnd(raw bool) string {
	if raw {
		return "\r\n"
	}
	return "\n"
}
